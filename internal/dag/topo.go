package dag

import "fmt"

// TopologicalSort returns every node ID in producer-before-consumer order.
// Ready nodes are emitted in insertion order, so the result is stable across
// runs for the same graph construction sequence. An error is returned when
// the graph contains a cycle.
func (g *Graph) TopologicalSort() ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	// Kahn's algorithm over a pending-dependency count per node.
	pending := make(map[string]int, len(g.nodes))
	for id, n := range g.nodes {
		pending[id] = len(n.deps)
	}

	sorted := make([]string, 0, len(g.nodes))
	emitted := make(map[string]bool, len(g.nodes))

	for len(sorted) < len(g.nodes) {
		progressed := false
		for _, id := range g.order {
			if emitted[id] || pending[id] != 0 {
				continue
			}
			emitted[id] = true
			sorted = append(sorted, id)
			progressed = true
			for depID := range g.nodes[id].dependents {
				pending[depID]--
			}
		}
		if !progressed {
			return nil, fmt.Errorf("graph is not acyclic: %d of %d nodes unreachable by topological order", len(g.nodes)-len(sorted), len(g.nodes))
		}
	}

	return sorted, nil
}

package process

import (
	"context"
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/attrgrid/internal/ctxlog"
	"github.com/vk/attrgrid/internal/dag"
	"github.com/vk/attrgrid/internal/nodeid"
)

// NodeKind tags the two variants a pipeline node can take.
type NodeKind int

const (
	// AtomicNode wraps a plain process.
	AtomicNode NodeKind = iota
	// SubPipelineNode wraps a nested pipeline.
	SubPipelineNode
)

// Node is one step of a pipeline. It wraps either an atomic process or a
// nested sub-pipeline; traversal code switches on Kind instead of on
// concrete types.
type Node struct {
	Name string
	Kind NodeKind
	proc Process
}

// Process returns the wrapped unit. For SubPipelineNode this is the nested
// *Pipeline, which itself satisfies Process.
func (n *Node) Process() Process {
	return n.proc
}

// Link is a directed data connection between two node parameters.
type Link struct {
	FromNode  string
	FromParam string
	ToNode    string
	ToParam   string
}

// Pipeline is a process composed of named child nodes connected by links.
// It exposes its own parameter store (inherited from Base) so a pipeline
// can be nested inside another pipeline like any process.
type Pipeline struct {
	*Base
	nodes  []*Node
	byName map[string]*Node
	links  []*Link
}

// NewPipeline creates an empty pipeline.
func NewPipeline(name string) *Pipeline {
	return &Pipeline{
		Base:   NewBase(name),
		byName: make(map[string]*Node),
	}
}

// AddNode adds a child process under the given node name. The node kind is
// derived from the concrete type: nesting a *Pipeline yields a
// SubPipelineNode. A pipeline cannot contain itself.
func (p *Pipeline) AddNode(name string, proc Process) (*Node, error) {
	if name == "" {
		return nil, fmt.Errorf("node name cannot be empty")
	}
	if _, exists := p.byName[name]; exists {
		return nil, fmt.Errorf("pipeline %q already has a node named %q", p.Name(), name)
	}

	kind := AtomicNode
	if sub, ok := proc.(*Pipeline); ok {
		if sub == p {
			return nil, fmt.Errorf("pipeline %q cannot contain itself", p.Name())
		}
		kind = SubPipelineNode
	}

	node := &Node{Name: name, Kind: kind, proc: proc}
	p.nodes = append(p.nodes, node)
	p.byName[name] = node
	return node, nil
}

// Nodes returns the child nodes in declaration order.
func (p *Pipeline) Nodes() []*Node {
	nodes := make([]*Node, len(p.nodes))
	copy(nodes, p.nodes)
	return nodes
}

// Node returns the child node with the given name.
func (p *Pipeline) Node(name string) (*Node, bool) {
	n, ok := p.byName[name]
	return n, ok
}

// AddLink connects a source parameter to a destination parameter, both
// given as "node.parameter" endpoints. The source must be an output and
// the destination an input of the respective child processes.
func (p *Pipeline) AddLink(from, to string) error {
	fromNode, fromParam, err := p.resolveEndpoint(from, Output)
	if err != nil {
		return fmt.Errorf("link source %q: %w", from, err)
	}
	toNode, toParam, err := p.resolveEndpoint(to, Input)
	if err != nil {
		return fmt.Errorf("link destination %q: %w", to, err)
	}
	if fromNode == toNode {
		return fmt.Errorf("link %q -> %q connects a node to itself", from, to)
	}

	p.links = append(p.links, &Link{
		FromNode:  fromNode,
		FromParam: fromParam,
		ToNode:    toNode,
		ToParam:   toParam,
	})
	return nil
}

// resolveEndpoint validates one side of a link against the child nodes.
func (p *Pipeline) resolveEndpoint(endpoint string, want Direction) (nodeName, paramName string, err error) {
	addr, err := nodeid.Parse(endpoint)
	if err != nil {
		return "", "", err
	}
	if len(addr.Segments) != 2 {
		return "", "", fmt.Errorf("endpoint must have the form node.parameter")
	}
	nodeName, paramName = addr.Segments[0], addr.Segments[1]

	node, ok := p.byName[nodeName]
	if !ok {
		return "", "", fmt.Errorf("unknown node %q", nodeName)
	}
	param, ok := node.Process().Parameter(paramName)
	if !ok {
		return "", "", fmt.Errorf("node %q has no parameter %q", nodeName, paramName)
	}
	if param.Direction != want {
		return "", "", fmt.Errorf("parameter %q is an %s, expected an %s", paramName, param.Direction, want)
	}
	return nodeName, paramName, nil
}

// Links returns the data connections in declaration order.
func (p *Pipeline) Links() []*Link {
	links := make([]*Link, len(p.links))
	copy(links, p.links)
	return links
}

// WorkflowGraph builds the dependency graph over the child nodes: one
// graph node per child, one producer->consumer edge per link. The graph is
// validated to be acyclic; nested pipelines are opaque single nodes here,
// they flatten one level at a time during completion.
func (p *Pipeline) WorkflowGraph(ctx context.Context) (*dag.Graph, error) {
	logger := ctxlog.FromContext(ctx)

	graph := dag.New()
	for _, node := range p.nodes {
		graph.AddNode(node.Name)
	}
	for _, link := range p.links {
		if err := graph.AddEdge(link.FromNode, link.ToNode); err != nil {
			return nil, fmt.Errorf("pipeline %q: %w", p.Name(), err)
		}
	}
	if err := graph.DetectCycles(); err != nil {
		return nil, fmt.Errorf("pipeline %q dependency graph: %w", p.Name(), err)
	}

	logger.Debug("Workflow graph built.", "pipeline", p.Name(), "nodes", graph.Len(), "links", len(p.links))
	return graph, nil
}

// PropagateFrom pushes the current output values of one child node along
// its outgoing links. Only concrete values travel; unset or null outputs
// leave the downstream inputs untouched.
func (p *Pipeline) PropagateFrom(ctx context.Context, nodeName string) error {
	logger := ctxlog.FromContext(ctx)

	source, ok := p.byName[nodeName]
	if !ok {
		return fmt.Errorf("pipeline %q has no node %q", p.Name(), nodeName)
	}

	for _, link := range p.links {
		if link.FromNode != nodeName {
			continue
		}
		value, ok := source.Process().GetParameter(link.FromParam)
		if !ok || value == cty.NilVal || value.IsNull() {
			continue
		}
		dest := p.byName[link.ToNode]
		if err := dest.Process().SetParameter(link.ToParam, value); err != nil {
			return fmt.Errorf("propagating %s.%s -> %s.%s: %w", link.FromNode, link.FromParam, link.ToNode, link.ToParam, err)
		}
		logger.Debug("Propagated value along link.",
			"pipeline", p.Name(),
			"from", link.FromNode+"."+link.FromParam,
			"to", link.ToNode+"."+link.ToParam)
	}
	return nil
}

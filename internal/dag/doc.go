// Package dag provides the dependency graph used to order attribute
// propagation across pipeline nodes. Nodes are identified by string IDs,
// edges point from producer to consumer, and the topological sort is
// deterministic: ties are broken by node insertion order so that repeated
// completion passes visit children in the same sequence.
package dag

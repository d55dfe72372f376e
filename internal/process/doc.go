// Package process defines the executable-unit contract the completion
// engine works against: named processes with typed, direction-classified
// parameters, and pipelines that compose processes (or nested pipelines)
// into a dependency graph.
//
// The graph node is a single tagged variant (AtomicNode or
// SubPipelineNode) so traversal code has one uniform shape; completion
// never executes anything here, it only reads and assigns parameter
// values.
package process

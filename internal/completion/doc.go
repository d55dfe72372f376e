// Package completion derives concrete parameter values, file paths in
// particular, from semantic attributes describing a data organization
// (subject, session, modality, ...).
//
// Each process carries at most one Engine, created lazily and cached in
// the Environment's side table. A pipeline-level engine builds its
// attribute set from a registered schema or, failing that, by merging the
// sets of its children bottom-up; completion then pushes the pipeline's
// attribute values downward through the dependency graph in topological
// order before resolving the pipeline's own parameters.
//
// Failures local to one child or one parameter never abort a completion
// pass; only structural misuse (a miswired factory, a cyclic graph)
// propagates to the caller.
package completion

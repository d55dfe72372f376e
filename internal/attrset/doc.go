// Package attrset implements the mutable attribute set owned by a
// completion engine: an ordered mapping from attribute name to a typed
// value, growable at runtime, with change notification.
//
// The set of names is not fixed at construction; schemas and child
// pipelines contribute attributes on demand via Declare. Once a name
// exists its declared type never changes. Declaration order is preserved
// and drives both export ordering and merge precedence.
package attrset

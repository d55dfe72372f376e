package completion

import (
	"errors"
	"fmt"
)

// StructuralError signals a programming or configuration error: a factory
// registered with the wrong type, a dependency graph that is not acyclic,
// an abstract strategy invoked directly. It is the only error kind a
// completion pass propagates; everything else is tolerated locally.
type StructuralError struct {
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *StructuralError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

// Unwrap exposes the underlying cause, if any.
func (e *StructuralError) Unwrap() error {
	return e.Err
}

// IsStructural reports whether err carries a StructuralError anywhere in
// its chain.
func IsStructural(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}

// ChildError wraps a failure to build or complete one child engine during
// a pipeline pass. Recoverable: the child is skipped and the traversal
// continues.
type ChildError struct {
	Node string
	Err  error
}

// Error implements the error interface.
func (e *ChildError) Error() string {
	return fmt.Sprintf("child node %q: %v", e.Node, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *ChildError) Unwrap() error {
	return e.Err
}

// ResolveError wraps a failure to derive one parameter from attributes.
// Recoverable: the parameter is left unset.
type ResolveError struct {
	Parameter string
	Err       error
}

// Error implements the error interface.
func (e *ResolveError) Error() string {
	return fmt.Sprintf("parameter %q: %v", e.Parameter, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *ResolveError) Unwrap() error {
	return e.Err
}

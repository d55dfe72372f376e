package attrset

import "github.com/zclconf/go-cty/cty"

// ChangeKind distinguishes value mutations from structural notifications
// about the schema itself.
type ChangeKind int

const (
	// ValueChanged fires when an existing attribute is assigned a new value.
	ValueChanged ChangeKind = iota
	// AttributeDeclared fires when a new attribute is added to the set.
	// Listeners that react to value edits must ignore this kind.
	AttributeDeclared
)

// ChangeFunc receives change notifications from a Set. For
// AttributeDeclared, oldValue is cty.NilVal.
type ChangeFunc func(kind ChangeKind, name string, oldValue, newValue cty.Value)

// OnChange registers a listener and returns a function that removes it.
// Listeners run synchronously, in no guaranteed order, on the goroutine
// performing the mutation.
func (s *Set) OnChange(fn ChangeFunc) (remove func()) {
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	return func() {
		delete(s.listeners, id)
	}
}

func (s *Set) notify(kind ChangeKind, name string, oldValue, newValue cty.Value) {
	for _, fn := range s.listeners {
		fn(kind, name, oldValue, newValue)
	}
}

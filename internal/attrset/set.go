package attrset

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// attribute is a single declared attribute and its current value.
type attribute struct {
	name  string
	typ   cty.Type
	value cty.Value
}

// Set is an ordered, dynamically extensible collection of typed attributes.
// It is owned by exactly one completion engine and is not safe for
// concurrent use; completion is a single-threaded, synchronous pass.
type Set struct {
	order []string
	attrs map[string]*attribute

	listeners    map[int]ChangeFunc
	nextListener int
}

// New returns an empty attribute set.
func New() *Set {
	return &Set{
		attrs:     make(map[string]*attribute),
		listeners: make(map[int]ChangeFunc),
	}
}

// Declare adds a new attribute with the given type and default value.
// Declaring an existing name with the same type is a no-op that keeps the
// current value; declaring it with a different type is an error, since a
// declared type never changes.
func (s *Set) Declare(name string, typ cty.Type, defaultValue cty.Value) error {
	if name == "" {
		return fmt.Errorf("attribute name cannot be empty")
	}
	if existing, ok := s.attrs[name]; ok {
		if !existing.typ.Equals(typ) {
			return fmt.Errorf("attribute %q already declared as %s, cannot redeclare as %s", name, existing.typ.FriendlyName(), typ.FriendlyName())
		}
		return nil
	}

	value := cty.NullVal(typ)
	if defaultValue != cty.NilVal && !defaultValue.IsNull() {
		converted, err := convert.Convert(defaultValue, typ)
		if err != nil {
			return fmt.Errorf("default for attribute %q: %w", name, err)
		}
		value = converted
	}

	s.attrs[name] = &attribute{name: name, typ: typ, value: value}
	s.order = append(s.order, name)
	s.notify(AttributeDeclared, name, cty.NilVal, value)
	return nil
}

// Has reports whether an attribute with the given name is declared.
func (s *Set) Has(name string) bool {
	_, ok := s.attrs[name]
	return ok
}

// Type returns the declared type of an attribute.
func (s *Set) Type(name string) (cty.Type, bool) {
	a, ok := s.attrs[name]
	if !ok {
		return cty.NilType, false
	}
	return a.typ, true
}

// Get returns the current value of an attribute.
func (s *Set) Get(name string) (cty.Value, bool) {
	a, ok := s.attrs[name]
	if !ok {
		return cty.NilVal, false
	}
	return a.value, true
}

// Set assigns a value to a declared attribute, converting it to the
// declared type. Assigning to an undeclared name is an error: attributes
// are never auto-created on write.
func (s *Set) Set(name string, value cty.Value) error {
	a, ok := s.attrs[name]
	if !ok {
		return fmt.Errorf("attribute %q is not declared", name)
	}

	converted, err := convert.Convert(value, a.typ)
	if err != nil {
		return fmt.Errorf("attribute %q: %w", name, err)
	}

	old := a.value
	if old.RawEquals(converted) {
		return nil
	}
	a.value = converted
	s.notify(ValueChanged, name, old, converted)
	return nil
}

// Names returns the declared attribute names in declaration order.
func (s *Set) Names() []string {
	names := make([]string, len(s.order))
	copy(names, s.order)
	return names
}

// Len returns the number of declared attributes.
func (s *Set) Len() int {
	return len(s.order)
}

// ExportValues returns the current name/value mapping.
func (s *Set) ExportValues() map[string]cty.Value {
	values := make(map[string]cty.Value, len(s.order))
	for _, name := range s.order {
		values[name] = s.attrs[name].value
	}
	return values
}

// ExportObject packs the current values into a single cty object value,
// suitable for transport under the reserved attributes key.
func (s *Set) ExportObject() cty.Value {
	if len(s.order) == 0 {
		return cty.EmptyObjectVal
	}
	return cty.ObjectVal(s.ExportValues())
}

// ImportValues assigns the given values to already-declared attributes.
// Names not declared on this set are silently dropped; import never grows
// the schema. A conversion failure aborts the import with an error.
func (s *Set) ImportValues(values map[string]cty.Value) error {
	for _, name := range s.order {
		value, ok := values[name]
		if !ok {
			continue
		}
		if err := s.Set(name, value); err != nil {
			return err
		}
	}
	return nil
}

// CopyMissingFrom declares on s every attribute of other that s does not
// already have, carrying over other's current value. Attributes s already
// declares are left untouched, so earlier contributors keep precedence.
func (s *Set) CopyMissingFrom(other *Set) {
	for _, name := range other.order {
		if s.Has(name) {
			continue
		}
		src := other.attrs[name]
		// Declare cannot fail here: the name is new and the type is valid.
		_ = s.Declare(name, src.typ, src.value)
	}
}

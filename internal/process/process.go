package process

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// Direction classifies a parameter as consumed or produced by its process.
type Direction int

const (
	// Input parameters are consumed by the process.
	Input Direction = iota
	// Output parameters are produced by the process.
	Output
)

// String returns the configuration-facing name of the direction.
func (d Direction) String() string {
	if d == Output {
		return "output"
	}
	return "input"
}

// Parameter describes one named parameter of a process.
type Parameter struct {
	Name      string
	Direction Direction
	// IsPath marks file-path parameters, the ones attribute completion
	// is expected to derive.
	IsPath bool
	// Pattern optionally carries a path template such as
	// "{root}/{subject}/average.nii" consumed by template-based resolvers.
	Pattern string
}

// Process is the contract between the completion engine and an executable
// unit: a stable name, enumerable parameter declarations, and a settable /
// gettable parameter value store.
type Process interface {
	Name() string
	Parameters() []*Parameter
	Parameter(name string) (*Parameter, bool)
	GetParameter(name string) (cty.Value, bool)
	SetParameter(name string, value cty.Value) error
}

// Base is the concrete parameter store backing atomic processes and
// embedded by Pipeline. Parameter declaration order is preserved.
type Base struct {
	name   string
	params []*Parameter
	byName map[string]*Parameter
	values map[string]cty.Value
}

// NewBase creates a process with no parameters.
func NewBase(name string) *Base {
	return &Base{
		name:   name,
		byName: make(map[string]*Parameter),
		values: make(map[string]cty.Value),
	}
}

// Name returns the process name.
func (b *Base) Name() string {
	return b.name
}

// AddParameter declares a new parameter. Duplicate names are rejected.
func (b *Base) AddParameter(p *Parameter) error {
	if p.Name == "" {
		return fmt.Errorf("parameter name cannot be empty")
	}
	if _, exists := b.byName[p.Name]; exists {
		return fmt.Errorf("process %q already declares parameter %q", b.name, p.Name)
	}
	b.params = append(b.params, p)
	b.byName[p.Name] = p
	b.values[p.Name] = cty.NilVal
	return nil
}

// Parameters returns the parameter declarations in declaration order.
func (b *Base) Parameters() []*Parameter {
	params := make([]*Parameter, len(b.params))
	copy(params, b.params)
	return params
}

// Parameter returns the declaration of a single named parameter.
func (b *Base) Parameter(name string) (*Parameter, bool) {
	p, ok := b.byName[name]
	return p, ok
}

// GetParameter returns the current value of a parameter. The second result
// is false for undeclared names; an unset parameter reports cty.NilVal.
func (b *Base) GetParameter(name string) (cty.Value, bool) {
	v, ok := b.values[name]
	if !ok {
		return cty.NilVal, false
	}
	return v, true
}

// SetParameter assigns a value to a declared parameter.
func (b *Base) SetParameter(name string, value cty.Value) error {
	if _, ok := b.byName[name]; !ok {
		return fmt.Errorf("process %q has no parameter %q", b.name, name)
	}
	b.values[name] = value
	return nil
}

// IsSet reports whether a parameter currently holds a concrete value.
func (b *Base) IsSet(name string) bool {
	v, ok := b.values[name]
	return ok && v != cty.NilVal && !v.IsNull()
}

package resolver

import (
	"context"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/attrgrid/internal/attrset"
	"github.com/vk/attrgrid/internal/process"
)

// Resolver maps (process, parameter, attributes) to a parameter value,
// typically a file path. Implementations are stateless strategy objects
// selected by name through the registry.
type Resolver interface {
	Resolve(ctx context.Context, proc process.Process, parameter string, attrs *attrset.Set) (cty.Value, error)
}

// Null is the base strategy: it conforms to the API and resolves nothing.
// Concrete data-organization schemes must provide their own strategy.
type Null struct{}

// Resolve always reports "not attribute-derived".
func (Null) Resolve(ctx context.Context, proc process.Process, parameter string, attrs *attrset.Set) (cty.Value, error) {
	return cty.NilVal, nil
}

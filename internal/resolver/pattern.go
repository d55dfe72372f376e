package resolver

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/attrgrid/internal/attrset"
	"github.com/vk/attrgrid/internal/ctxlog"
	"github.com/vk/attrgrid/internal/process"
)

// placeholderRegex matches one {attribute} reference inside a pattern.
var placeholderRegex = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)

// Pattern resolves path parameters from the template attached to the
// parameter declaration, substituting {attribute} placeholders with the
// current attribute values. A parameter without a template, or a template
// referencing an attribute that is missing or unset, resolves to nothing.
type Pattern struct{}

// Resolve implements Resolver.
func (Pattern) Resolve(ctx context.Context, proc process.Process, parameter string, attrs *attrset.Set) (cty.Value, error) {
	param, ok := proc.Parameter(parameter)
	if !ok {
		return cty.NilVal, fmt.Errorf("process %q has no parameter %q", proc.Name(), parameter)
	}
	if !param.IsPath || param.Pattern == "" {
		return cty.NilVal, nil
	}

	path, ok, err := Expand(param.Pattern, attrs)
	if err != nil {
		return cty.NilVal, fmt.Errorf("parameter %q: %w", parameter, err)
	}
	if !ok {
		ctxlog.FromContext(ctx).Debug("Pattern left unresolved, attribute missing or unset.",
			"process", proc.Name(), "parameter", parameter, "pattern", param.Pattern)
		return cty.NilVal, nil
	}
	return cty.StringVal(path), nil
}

// Expand substitutes {attribute} placeholders in pattern with the string
// form of the corresponding attribute values. The second result is false
// when any referenced attribute is undeclared, null, or empty.
func Expand(pattern string, attrs *attrset.Set) (string, bool, error) {
	var expandErr error
	complete := true

	expanded := placeholderRegex.ReplaceAllStringFunc(pattern, func(match string) string {
		name := strings.Trim(match, "{}")
		value, ok := attrs.Get(name)
		if !ok || value == cty.NilVal || value.IsNull() {
			complete = false
			return match
		}
		str, err := convert.Convert(value, cty.String)
		if err != nil {
			expandErr = fmt.Errorf("attribute %q is not convertible to a string: %w", name, err)
			complete = false
			return match
		}
		if str.AsString() == "" {
			complete = false
			return match
		}
		return str.AsString()
	})

	if expandErr != nil {
		return "", false, expandErr
	}
	return expanded, complete, nil
}

package resolver

import (
	"context"
	"fmt"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/attrgrid/internal/attrset"
	"github.com/vk/attrgrid/internal/ctxlog"
	"github.com/vk/attrgrid/internal/process"
)

// Glob resolves path parameters against the filesystem: the parameter's
// template is expanded from the attributes and then matched as a
// doublestar pattern. The lexically first match wins. Useful for input
// parameters whose files already exist on disk under a known layout, e.g.
// "{root}/{subject}/**/*.nii".
type Glob struct{}

// Resolve implements Resolver.
func (Glob) Resolve(ctx context.Context, proc process.Process, parameter string, attrs *attrset.Set) (cty.Value, error) {
	logger := ctxlog.FromContext(ctx)

	param, ok := proc.Parameter(parameter)
	if !ok {
		return cty.NilVal, fmt.Errorf("process %q has no parameter %q", proc.Name(), parameter)
	}
	if !param.IsPath || param.Pattern == "" {
		return cty.NilVal, nil
	}

	pattern, ok, err := Expand(param.Pattern, attrs)
	if err != nil {
		return cty.NilVal, fmt.Errorf("parameter %q: %w", parameter, err)
	}
	if !ok {
		return cty.NilVal, nil
	}

	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return cty.NilVal, fmt.Errorf("parameter %q: bad glob pattern %q: %w", parameter, pattern, err)
	}
	if len(matches) == 0 {
		logger.Debug("Glob pattern matched no files.",
			"process", proc.Name(), "parameter", parameter, "pattern", pattern)
		return cty.NilVal, nil
	}

	sort.Strings(matches)
	if len(matches) > 1 {
		logger.Debug("Glob pattern matched multiple files, using the first.",
			"process", proc.Name(), "parameter", parameter, "pattern", pattern, "matches", len(matches))
	}
	return cty.StringVal(matches[0]), nil
}

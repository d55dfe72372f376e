// Package nodeid models the contextual address of a node inside a pipeline
// hierarchy, e.g. "morphology.average": a dotted path rooted at the
// top-level pipeline name. Completion engines are keyed by these addresses.
package nodeid

import (
	"fmt"
	"regexp"
	"strings"
)

// segmentRegex accepts a single path segment such as `average` or `avg_2`.
var segmentRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Address is the structured representation of a contextual node identifier.
type Address struct {
	Segments []string
}

// New builds an Address from pre-validated segments.
func New(segments ...string) *Address {
	return &Address{Segments: segments}
}

// Child returns a new Address one level deeper than a.
func (a *Address) Child(segment string) *Address {
	segments := make([]string, 0, len(a.Segments)+1)
	segments = append(segments, a.Segments...)
	segments = append(segments, segment)
	return &Address{Segments: segments}
}

// String serializes the Address into its canonical dotted representation.
func (a *Address) String() string {
	if a == nil {
		return ""
	}
	return strings.Join(a.Segments, ".")
}

// Leaf returns the last segment of the address, or "" for an empty address.
func (a *Address) Leaf() string {
	if a == nil || len(a.Segments) == 0 {
		return ""
	}
	return a.Segments[len(a.Segments)-1]
}

// Parse creates an Address by parsing its canonical dotted representation.
func Parse(rawID string) (*Address, error) {
	if rawID == "" {
		return nil, fmt.Errorf("identifier cannot be empty")
	}

	addr := &Address{}
	for _, segment := range strings.Split(rawID, ".") {
		if segment == "" {
			return nil, fmt.Errorf("identifier path contains empty segment")
		}
		if !segmentRegex.MatchString(segment) {
			return nil, fmt.Errorf("invalid path segment format: %q", segment)
		}
		addr.Segments = append(addr.Segments, segment)
	}

	return addr, nil
}

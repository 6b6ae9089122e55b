package transform

import (
	"fmt"
	"strings"

	"github.com/matzehuels/synthroute/pkg/elements"
)

// Layout names a layout family of the renderer.
type Layout string

const (
	LayoutHierarchical Layout = "hierarchical"
	LayoutForce        Layout = "force"
)

// ParseLayout parses a layout name. "dagre" and "breadthfirst" are accepted
// as hierarchical; "cose" and "fcose" as force-directed.
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "hierarchical", "dagre", "breadthfirst", "tree":
		return LayoutHierarchical, nil
	case "force", "cose", "fcose", "force-directed":
		return LayoutForce, nil
	}
	return "", fmt.Errorf("unknown layout %q", s)
}

// NotDAGWarning is reported by [Apply] for cyclic graphs under the
// hierarchical layout.
const NotDAGWarning = "The graph is not a DAG, switching to force-directed layout is recommended"

// Options configures [Apply].
type Options struct {
	ShowReagents               bool
	DuplicateStartingMaterials bool
	Layout                     Layout
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		DuplicateStartingMaterials: true,
		Layout:                     LayoutHierarchical,
	}
}

// Result is the outcome of [Apply].
type Result struct {
	Elements []elements.Element
	IsDAG    bool
	Cycle    []string
	Warnings []string
}

// Apply runs reagent removal (unless ShowReagents is set), then
// starting-material duplication (if enabled), then the DAG check.
func Apply(elems []elements.Element, opts Options) Result {
	out := elements.CloneAll(elems)
	if !opts.ShowReagents {
		out = RemoveReagents(out)
	}
	if opts.DuplicateStartingMaterials {
		out = DuplicateStartingMaterials(out)
	}

	res := Result{Elements: out, IsDAG: true}
	if cycle := FindCycle(out); cycle != nil {
		res.IsDAG = false
		res.Cycle = cycle
		if opts.Layout == "" || opts.Layout == LayoutHierarchical {
			res.Warnings = append(res.Warnings, NotDAGWarning)
		}
	}
	return res
}

package transform

import (
	"github.com/matzehuels/synthroute/pkg/elements"
	"github.com/matzehuels/synthroute/pkg/route"
)

// RemoveReagents returns elems without reagent_of edges and without nodes
// that are the source of a reagent_of edge but of no reactant_of edge.
func RemoveReagents(elems []elements.Element) []elements.Element {
	reagents := make(map[string]bool)
	reactants := make(map[string]bool)
	for _, el := range elems {
		if !el.IsEdge() {
			continue
		}
		switch edgeType(el) {
		case route.EdgeReagentOf:
			reagents[el.Source()] = true
		case route.EdgeReactantOf:
			reactants[el.Source()] = true
		}
	}

	out := make([]elements.Element, 0, len(elems))
	for _, el := range elems {
		if el.IsEdge() {
			if edgeType(el) == route.EdgeReagentOf {
				continue
			}
		} else if id := el.ID(); reagents[id] && !reactants[id] {
			continue
		}
		out = append(out, el.Clone())
	}
	return out
}

func edgeType(el elements.Element) route.EdgeType {
	t, _ := route.ParseEdgeType(el.String(route.KeyEdgeType))
	return t
}

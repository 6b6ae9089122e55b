package transform

import (
	"fmt"

	"github.com/matzehuels/synthroute/pkg/elements"
	"github.com/matzehuels/synthroute/pkg/route"
)

// DuplicateStartingMaterials replaces every starting-material node with
// more than one outgoing reactant_of or reagent_of edge by one copy per
// edge. Copy k has id "<id> (k)" and takes over the k-th such edge, counted
// in element order; that edge's id gets the same suffix.
//
// Copies are inserted where the original node was, so node elements still
// precede edge elements.
func DuplicateStartingMaterials(elems []elements.Element) []elements.Element {
	starting := make(map[string]bool)
	for _, el := range elems {
		if el.IsNode() && isStartingMaterial(el) {
			starting[el.ID()] = true
		}
	}

	// outgoing edge positions per starting material, in discovery order
	outgoing := make(map[string][]int)
	for i, el := range elems {
		if !el.IsEdge() || !starting[el.Source()] {
			continue
		}
		if t := edgeType(el); t == route.EdgeReactantOf || t == route.EdgeReagentOf {
			outgoing[el.Source()] = append(outgoing[el.Source()], i)
		}
	}

	rewired := make(map[int]int)
	for _, positions := range outgoing {
		if len(positions) < 2 {
			continue
		}
		for k, pos := range positions {
			rewired[pos] = k + 1
		}
	}

	out := make([]elements.Element, 0, len(elems))
	for i, el := range elems {
		if el.IsNode() {
			n := len(outgoing[el.ID()])
			if n < 2 {
				out = append(out, el.Clone())
				continue
			}
			for k := 1; k <= n; k++ {
				c := el.Clone()
				c.Set(elements.KeyID, suffixed(el.ID(), k))
				out = append(out, c)
			}
			continue
		}

		c := el.Clone()
		if k, ok := rewired[i]; ok {
			c.Set(elements.KeySource, suffixed(el.Source(), k))
			c.Set(elements.KeyID, suffixed(el.ID(), k))
		}
		out = append(out, c)
	}
	return out
}

func isStartingMaterial(el elements.Element) bool {
	typ, ok := route.ParseNodeType(el.String(elements.KeyNodeType))
	return ok && typ == route.NodeSubstance && route.Role(el.String(route.KeySRole)) == route.RoleStarting
}

func suffixed(id string, k int) string {
	return fmt.Sprintf("%s (%d)", id, k)
}

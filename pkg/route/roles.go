package route

// InferRoles computes substance roles from node degrees over edges.
//
// For every substance node: out-degree 0 gives [RoleTarget], otherwise
// in-degree 0 gives [RoleStarting], otherwise [RoleIntermediate]. Reaction
// nodes get no role. Degrees are counted over the full edge set, so the
// result must be computed before any route filtering.
func InferRoles(nodes []Node, edges []Edge) map[string]Role {
	in := make(map[string]int, len(nodes))
	out := make(map[string]int, len(nodes))
	for _, e := range edges {
		out[e.Start]++
		in[e.End]++
	}

	roles := make(map[string]Role, len(nodes))
	for _, n := range nodes {
		if !n.IsSubstance() {
			continue
		}
		switch {
		case out[n.Label] == 0:
			roles[n.Label] = RoleTarget
		case in[n.Label] == 0:
			roles[n.Label] = RoleStarting
		default:
			roles[n.Label] = RoleIntermediate
		}
	}
	return roles
}

// AssignRoles sets the inferred role on every substance node of d.
func AssignRoles(d *Document) {
	roles := InferRoles(d.Nodes, d.Edges)
	for i := range d.Nodes {
		if r, ok := roles[d.Nodes[i].Label]; ok {
			d.Nodes[i].SRole = r
		}
	}
}

// FillRoles sets the inferred role only on substance nodes that have none.
// It returns the number of nodes updated.
func FillRoles(d *Document) int {
	var roles map[string]Role
	filled := 0
	for i := range d.Nodes {
		n := &d.Nodes[i]
		if !n.IsSubstance() || n.SRole != "" {
			continue
		}
		if roles == nil {
			roles = InferRoles(d.Nodes, d.Edges)
		}
		n.SRole = roles[n.Label]
		filled++
	}
	return filled
}

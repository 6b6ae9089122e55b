package transform

import "github.com/matzehuels/synthroute/pkg/elements"

// IsDAG reports whether the element graph has no directed cycle.
func IsDAG(elems []elements.Element) bool {
	return FindCycle(elems) == nil
}

// FindCycle returns the node ids of one directed cycle, starting and ending
// at the same node, or nil if the graph is acyclic. Edges whose endpoints
// are not node elements are ignored.
func FindCycle(elems []elements.Element) []string {
	const (
		white = iota
		gray
		black
	)

	var order []string
	present := make(map[string]bool)
	for _, el := range elems {
		if el.IsNode() {
			order = append(order, el.ID())
			present[el.ID()] = true
		}
	}
	children := make(map[string][]string)
	for _, el := range elems {
		if el.IsEdge() && present[el.Source()] && present[el.Target()] {
			children[el.Source()] = append(children[el.Source()], el.Target())
		}
	}

	color := make(map[string]int)
	var stack []string
	var cycle []string

	var dfs func(node string) bool
	dfs = func(node string) bool {
		color[node] = gray
		stack = append(stack, node)
		for _, child := range children[node] {
			switch color[child] {
			case white:
				if dfs(child) {
					return true
				}
			case gray:
				for i, id := range stack {
					if id == child {
						cycle = append(append(cycle, stack[i:]...), child)
						break
					}
				}
				return true
			}
		}
		stack = stack[:len(stack)-1]
		color[node] = black
		return false
	}

	for _, id := range order {
		if color[id] == white && dfs(id) {
			return cycle
		}
	}
	return nil
}

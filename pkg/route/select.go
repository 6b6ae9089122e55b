package route

import (
	"strconv"
	"strings"

	"github.com/matzehuels/synthroute/pkg/errors"
)

// WholeGraph is the selection index that disables route filtering.
const WholeGraph = -1

// Select returns the nodes and edges that belong to the route at index.
//
// Index [WholeGraph] returns every node and edge. Otherwise the document must
// have at least one route and index must be in range; both conditions are
// input errors. A node is kept iff its label is listed in the route; an edge
// is kept iff both endpoints are listed. The returned slices preserve
// document order and share no memory with d.
func Select(d *Document, index int) ([]Node, []Edge, error) {
	if index == WholeGraph {
		return cloneNodes(d.Nodes), cloneEdges(d.Edges), nil
	}
	if len(d.Routes) == 0 {
		return nil, nil, errors.New(errors.ErrCodeNoSubgraphs, "no subgraphs found in the routes section")
	}
	if index < WholeGraph || index >= len(d.Routes) {
		return nil, nil, errors.New(errors.ErrCodeInvalidSubgraph, "invalid subgraph index %d (document has %d)", index, len(d.Routes))
	}

	in := make(map[string]bool, len(d.Routes[index].NodeLabels))
	for _, label := range d.Routes[index].NodeLabels {
		in[label] = true
	}

	var nodes []Node
	for _, n := range d.Nodes {
		if in[n.Label] {
			nodes = append(nodes, n.Clone())
		}
	}
	var edges []Edge
	for _, e := range d.Edges {
		if in[e.Start] && in[e.End] {
			edges = append(edges, e.Clone())
		}
	}
	return nodes, edges, nil
}

// ParseSelectKey resolves a selection key to an index. "evidence",
// "predicted", "all" and "" select the whole graph; anything else must be
// a decimal route index.
func ParseSelectKey(key string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", "all", "evidence", "predicted":
		return WholeGraph, nil
	}
	i, err := strconv.Atoi(strings.TrimSpace(key))
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidSubgraph, err, "invalid subgraph key %q", key)
	}
	return i, nil
}

func cloneNodes(in []Node) []Node {
	out := make([]Node, len(in))
	for i, n := range in {
		out[i] = n.Clone()
	}
	return out
}

func cloneEdges(in []Edge) []Edge {
	out := make([]Edge, len(in))
	for i, e := range in {
		out[i] = e.Clone()
	}
	return out
}

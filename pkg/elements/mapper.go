package elements

import (
	"strings"

	"github.com/matzehuels/synthroute/pkg/route"
)

// FromRoute maps nodes and edges to elements, nodes first, each group in
// input order.
func FromRoute(nodes []route.Node, edges []route.Edge) []Element {
	out := make([]Element, 0, len(nodes)+len(edges))
	for _, n := range nodes {
		out = append(out, FromNode(n))
	}
	for _, e := range edges {
		out = append(out, FromEdge(e))
	}
	return out
}

// FromNode maps one node.
//
// The element id is the node label and nodeType the lowercased node type.
// type is "custom" when the node has a precomputed depiction or is a
// target material, and "" otherwise.
func FromNode(n route.Node) Element {
	data := Flatten(n.Map())

	nodeType := strings.ToLower(string(n.Type))
	if nodeType == "" {
		nodeType = "unknown"
	}
	data[KeyID] = n.Label
	data[KeyNodeType] = nodeType
	data[KeyType] = ""
	if n.Base64SVG != "" || n.SRole == route.RoleTarget {
		data[KeyType] = TypeCustom
	}
	if n.Base64SVG != "" {
		data[KeySVG] = SVGPrefix + n.Base64SVG
	}
	if _, ok := data[KeyIsValid]; !ok {
		data[KeyIsValid] = ""
	}
	return Element{Group: GroupNodes, Data: data}
}

// FromEdge maps one edge.
func FromEdge(e route.Edge) Element {
	data := Flatten(e.Map())
	data[KeyID] = e.UUID
	data[KeySource] = e.Start
	data[KeyTarget] = e.End
	return Element{Group: GroupEdges, Data: data}
}

// ToDocument converts elements back into a document. Node labels, edge
// endpoints and edge uuids are taken from the element ids, so transformed
// elements (duplicated starting materials) export as they are shown.
// Renderer keys are dropped; flattened attributes stay flat. Elements whose
// data does not form a valid node or edge are skipped and counted.
func ToDocument(elems []Element) (*route.Document, int) {
	doc := &route.Document{}
	skipped := 0
	for _, el := range elems {
		data := make(map[string]any, len(el.Data))
		for k, v := range el.Data {
			switch k {
			case KeyID, KeySource, KeyTarget, KeyNodeType, KeyType, KeySVG, KeyWidth, KeyHeight:
			default:
				data[k] = v
			}
		}
		if el.IsEdge() {
			data[route.KeyUUID] = el.ID()
			data[route.KeyStartNode] = el.Source()
			data[route.KeyEndNode] = el.Target()
			e, err := route.EdgeFromMap(data)
			if err != nil {
				skipped++
				continue
			}
			doc.Edges = append(doc.Edges, e)
			continue
		}
		data[route.KeyNodeLabel] = el.ID()
		if svg := el.String(KeySVG); strings.HasPrefix(svg, SVGPrefix) {
			data[route.KeyBase64SVG] = strings.TrimPrefix(svg, SVGPrefix)
		}
		n, err := route.NodeFromMap(data)
		if err != nil {
			skipped++
			continue
		}
		doc.Nodes = append(doc.Nodes, n)
	}
	return doc, skipped
}

package normalize

import (
	"github.com/matzehuels/synthroute/pkg/route"
)

// PredictedMethod is the route method recorded for predicted routes.
const PredictedMethod = "ASKCOS"

// fromPredicted converts tree-search output:
//
//	{"result": {"graph": {"nodes": [...], "links": [...]}, "paths": [...]}}
//
// Nodes are classified by their "type" field ("reaction" or "chemical");
// nodes with any other type are skipped. A link {source, target} becomes an
// edge from target to source, typed reactant_of when the link source is a
// reaction and product_of otherwise. Substance roles are always inferred
// from the resulting edge set.
func fromPredicted(obj map[string]any, rep *Report) *route.Document {
	result, ok := obj["result"].(map[string]any)
	if !ok {
		result = obj
	}
	graph, _ := result["graph"].(map[string]any)

	doc := &route.Document{Availability: make(map[string]route.Availability)}
	types := make(map[string]route.NodeType)

	for _, item := range asList(graph["nodes"]) {
		m, ok := item.(map[string]any)
		if !ok {
			rep.SkippedNodes++
			continue
		}
		id := route.AttrString(m["id"])
		if id == "" {
			rep.SkippedNodes++
			continue
		}

		n := route.Node{
			Label: id,
			UUID:  id,
			Attrs: map[string]any{
				"route_assembly_type": map[string]any{"is_predicted": true, "is_evidence": false},
			},
		}
		switch route.AttrString(m["type"]) {
		case "reaction":
			n.Type = route.NodeReaction
			n.RxSmiles = id
			rxid := ""
			if tmpl, ok := m["template"].(map[string]any); ok {
				rxid = route.AttrString(tmpl["index"])
			}
			n.Attrs["rxid"] = rxid
			n.Attrs["validation"] = map[string]any{"is_balanced": false}
		case "chemical":
			n.Type = route.NodeSubstance
			n.Inchikey = id
			n.CanonicalSmiles = id
			if _, ok := m["properties"]; ok {
				doc.Availability[id] = route.Availability{
					Inchikey:               id,
					Inventory:              &route.Stock{},
					CommercialAvailability: &route.Stock{},
				}
			}
		default:
			rep.SkippedNodes++
			continue
		}
		types[id] = n.Type
		doc.Nodes = append(doc.Nodes, n)
	}

	usedEdgeIDs := make(map[string]bool)
	for _, item := range asList(graph["links"]) {
		m, ok := item.(map[string]any)
		if !ok {
			rep.SkippedEdges++
			continue
		}
		source := route.AttrString(m["source"])
		target := route.AttrString(m["target"])
		if source == "" || target == "" {
			rep.SkippedEdges++
			continue
		}

		typ := route.EdgeProductOf
		if types[source] == route.NodeReaction {
			typ = route.EdgeReactantOf
		}
		label := target + "|" + source
		id := uniqueID(usedEdgeIDs, label)
		attrs := map[string]any{
			"provenance":          map[string]any{"is_in_aicp": false},
			"route_assembly_type": map[string]any{"is_predicted": true, "is_evidence": false},
		}
		if typ == route.EdgeProductOf {
			attrs["inchikey"] = target
			attrs["rxid"] = source
		} else {
			attrs["inchikey"] = source
		}
		doc.Edges = append(doc.Edges, route.Edge{
			Start: target,
			End:   source,
			Type:  typ,
			UUID:  id,
			Label: label,
			Attrs: attrs,
		})
	}

	route.AssignRoles(doc)

	inRoute := make(map[string]bool)
	for i, item := range asList(result["paths"]) {
		path, ok := item.(map[string]any)
		if !ok {
			rep.SkippedRoute++
			continue
		}
		sel := route.Selection{
			Index:     i,
			Method:    PredictedMethod,
			Status:    "Viable Route",
			Predicted: true,
		}
		for _, pn := range asList(path["nodes"]) {
			pm, _ := pn.(map[string]any)
			label := route.AttrString(pm["smiles"])
			sel.NodeLabels = append(sel.NodeLabels, label)
			inRoute[label] = true
		}
		doc.Routes = append(doc.Routes, sel)
	}

	for key := range doc.Availability {
		if !inRoute[key] {
			delete(doc.Availability, key)
		}
	}
	return doc
}

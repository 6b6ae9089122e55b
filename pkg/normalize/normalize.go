package normalize

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/matzehuels/synthroute/pkg/errors"
	"github.com/matzehuels/synthroute/pkg/route"
)

// Format identifies the shape of an input document.
type Format string

const (
	FormatAuto      Format = "auto"
	FormatCanonical Format = "canonical"
	FormatCytoscape Format = "cytoscape"
	FormatPredicted Format = "predicted"
)

// ParseFormat parses a format name. "askcos" is accepted as an alias for
// [FormatPredicted] and "" for [FormatAuto].
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "canonical", "synth_graph":
		return FormatCanonical, nil
	case "cytoscape", "elements":
		return FormatCytoscape, nil
	case "predicted", "askcos":
		return FormatPredicted, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unknown source format %q (must be auto, canonical, cytoscape or predicted)", s)
}

// Report describes what Normalize did with an input document.
type Report struct {
	Format       Format
	SkippedNodes int
	SkippedEdges int
	SkippedRoute int
	RolesFilled  int
}

// Skipped returns the total number of skipped entities.
func (r *Report) Skipped() int {
	return r.SkippedNodes + r.SkippedEdges + r.SkippedRoute
}

// Normalize decodes raw and converts it into a canonical document.
//
// The returned document has been validated: node labels are unique and
// every edge references existing nodes. Substance nodes without a role get
// one from [route.InferRoles].
func Normalize(raw []byte, format Format) (*route.Document, *Report, error) {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidJSON, err, "invalid JSON document")
	}
	if obj == nil {
		return nil, nil, errors.New(errors.ErrCodeInvalidJSON, "document must be a JSON object")
	}
	return NormalizeObject(obj, format)
}

// NormalizeObject is like Normalize for an already decoded JSON object.
func NormalizeObject(obj map[string]any, format Format) (*route.Document, *Report, error) {
	if format == "" || format == FormatAuto {
		format = Detect(obj)
	}
	rep := &Report{Format: format}

	var doc *route.Document
	switch format {
	case FormatCanonical:
		doc = fromCanonical(obj, rep)
	case FormatCytoscape:
		doc = fromCanonical(unwrapElements(obj), rep)
	case FormatPredicted:
		doc = fromPredicted(obj, rep)
	default:
		return nil, nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported source format %q", format)
	}

	rep.RolesFilled = route.FillRoles(doc)
	if err := doc.Validate(); err != nil {
		return nil, rep, err
	}
	return doc, rep, nil
}

// Detect determines the shape of a decoded document.
func Detect(obj map[string]any) Format {
	if _, ok := obj["elements"].(map[string]any); ok {
		return FormatCytoscape
	}
	if result, ok := obj["result"].(map[string]any); ok {
		if _, ok := result["graph"].(map[string]any); ok {
			return FormatPredicted
		}
	}
	if g, ok := obj["graph"].(map[string]any); ok {
		if _, ok := g["links"]; ok {
			return FormatPredicted
		}
	}
	return FormatCanonical
}

// graphKeys are the canonical graph sections, in lookup order.
var graphKeys = []string{"synth_graph", "evidence_synth_graph", "predictive_synth_graph"}

func fromCanonical(obj map[string]any, rep *Report) *route.Document {
	section := obj
	for _, key := range graphKeys {
		if g, ok := obj[key].(map[string]any); ok {
			section = g
			break
		}
	}

	doc := &route.Document{
		Nodes:        decodeNodes(asList(section["nodes"]), rep),
		Edges:        decodeEdges(asList(section["edges"]), rep),
		Availability: decodeAvailability(obj["availability"]),
	}

	var subgraphs []any
	switch r := obj["routes"].(type) {
	case map[string]any:
		subgraphs = asList(r["subgraphs"])
	case []any:
		subgraphs = r
	}
	doc.Routes = decodeSelections(subgraphs, rep)
	return doc
}

func decodeNodes(items []any, rep *Report) []route.Node {
	nodes := make([]route.Node, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			rep.SkippedNodes++
			continue
		}
		n, err := route.NodeFromMap(m)
		if err != nil {
			rep.SkippedNodes++
			continue
		}
		nodes = append(nodes, n)
	}
	return nodes
}

// decodeEdges decodes the edge list. Edges without a uuid get their label
// as id, suffixed when a parallel edge already uses it.
func decodeEdges(items []any, rep *Report) []route.Edge {
	edges := make([]route.Edge, 0, len(items))
	used := make(map[string]bool, len(items))
	var generated []int
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			rep.SkippedEdges++
			continue
		}
		e, err := route.EdgeFromMap(m)
		if err != nil {
			rep.SkippedEdges++
			continue
		}
		if route.AttrString(m[route.KeyUUID]) == "" {
			generated = append(generated, len(edges))
		} else {
			used[e.UUID] = true
		}
		edges = append(edges, e)
	}
	for _, i := range generated {
		edges[i].UUID = uniqueID(used, edges[i].UUID)
	}
	return edges
}

// uniqueID returns base, or base with the first free " (k)" suffix, and
// marks the result as used.
func uniqueID(used map[string]bool, base string) string {
	id := base
	for k := 2; used[id]; k++ {
		id = fmt.Sprintf("%s (%d)", base, k)
	}
	used[id] = true
	return id
}

func decodeSelections(items []any, rep *Report) []route.Selection {
	var out []route.Selection
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			rep.SkippedRoute++
			continue
		}
		labels, ok := m["route_node_labels"].([]any)
		if !ok {
			rep.SkippedRoute++
			continue
		}
		sel := route.Selection{
			Index:      i,
			NodeLabels: make([]string, 0, len(labels)),
			Method:     route.AttrString(m["method"]),
			Status:     route.AttrString(m["route_status"]),
		}
		if idx, ok := m["route_index"].(float64); ok {
			sel.Index = int(idx)
		}
		if y, ok := m["aggregated_yield"].(float64); ok {
			sel.AggregatedYield = &y
		}
		if p, ok := m["predicted"].(bool); ok {
			sel.Predicted = p
		}
		for _, l := range labels {
			if s := route.AttrString(l); s != "" {
				sel.NodeLabels = append(sel.NodeLabels, s)
			}
		}
		out = append(out, sel)
	}
	return out
}

// decodeAvailability accepts both a list of entries and a map keyed by
// substance key.
func decodeAvailability(v any) map[string]route.Availability {
	out := make(map[string]route.Availability)
	add := func(key string, item any) {
		data, err := json.Marshal(item)
		if err != nil {
			return
		}
		var a route.Availability
		if err := json.Unmarshal(data, &a); err != nil {
			return
		}
		if key == "" {
			key = a.Inchikey
		}
		if key == "" {
			return
		}
		if a.Inchikey == "" {
			a.Inchikey = key
		}
		out[key] = a
	}

	switch x := v.(type) {
	case []any:
		for _, item := range x {
			add("", item)
		}
	case map[string]any:
		for k, item := range x {
			add(k, item)
		}
	}
	return out
}

func asList(v any) []any {
	if l, ok := v.([]any); ok {
		return l
	}
	return nil
}

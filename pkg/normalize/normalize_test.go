package normalize

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/matzehuels/synthroute/pkg/elements"
	"github.com/matzehuels/synthroute/pkg/errors"
	"github.com/matzehuels/synthroute/pkg/route"
)

const exampleDocument = `{
  "synth_graph": {
    "nodes": [
      {"node_label": "R1", "node_type": "reaction", "rxsmiles": "[CH3:1]O>>[CH3:1]Cl"},
      {"node_label": "A", "node_type": "substance", "canonical_smiles": "CO"},
      {"node_label": "B", "node_type": "substance", "canonical_smiles": "CCl"}
    ],
    "edges": [
      {"start_node": "A", "end_node": "R1", "edge_type": "reactant_of"},
      {"start_node": "R1", "end_node": "B", "edge_type": "product_of"}
    ]
  },
  "routes": {"subgraphs": [{"route_index": 0, "route_node_labels": ["A", "R1", "B"], "aggregated_yield": 0.8}]},
  "availability": [{"inchikey": "A", "inventory": {"available": true}}]
}`

func TestNormalizeCanonical(t *testing.T) {
	doc, rep, err := Normalize([]byte(exampleDocument), FormatAuto)
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	if rep.Format != FormatCanonical {
		t.Errorf("Format = %q, want canonical", rep.Format)
	}
	if doc.NodeCount() != 3 || doc.EdgeCount() != 2 {
		t.Fatalf("got %d nodes, %d edges", doc.NodeCount(), doc.EdgeCount())
	}

	a, _ := doc.Node("A")
	b, _ := doc.Node("B")
	if a.SRole != route.RoleStarting || b.SRole != route.RoleTarget {
		t.Errorf("roles A=%q B=%q, want sm/tm", a.SRole, b.SRole)
	}
	if rep.RolesFilled != 2 {
		t.Errorf("RolesFilled = %d, want 2", rep.RolesFilled)
	}

	if len(doc.Routes) != 1 || doc.Routes[0].AggregatedYield == nil || *doc.Routes[0].AggregatedYield != 0.8 {
		t.Errorf("routes = %+v", doc.Routes)
	}
	if !doc.Availability["A"].InInventory() {
		t.Error("availability for A not decoded")
	}
}

func TestNormalizeGraphVariants(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		nodes  int
		routes int
	}{
		{
			name:   "evidence graph with flat routes",
			input:  `{"evidence_synth_graph": {"nodes": [{"node_label": "A", "node_type": "Substance"}], "edges": []}, "routes": [{"route_node_labels": ["A"]}]}`,
			nodes:  1,
			routes: 1,
		},
		{
			name:   "predictive graph",
			input:  `{"predictive_synth_graph": {"nodes": [{"node_label": "A", "node_type": "substance"}, {"node_label": "B", "node_type": "substance"}]}}`,
			nodes:  2,
			routes: 0,
		},
		{
			name:   "top level graph",
			input:  `{"nodes": [{"node_label": "A", "node_type": "SUBSTANCE"}], "edges": []}`,
			nodes:  1,
			routes: 0,
		},
		{
			name:   "missing sections",
			input:  `{}`,
			nodes:  0,
			routes: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, _, err := Normalize([]byte(tt.input), FormatAuto)
			if err != nil {
				t.Fatalf("Normalize() error: %v", err)
			}
			if doc.NodeCount() != tt.nodes {
				t.Errorf("nodes = %d, want %d", doc.NodeCount(), tt.nodes)
			}
			if len(doc.Routes) != tt.routes {
				t.Errorf("routes = %d, want %d", len(doc.Routes), tt.routes)
			}
			if doc.Availability == nil {
				t.Error("availability should default to an empty map")
			}
		})
	}
}

func TestNormalizeParallelEdgesGetDistinctIDs(t *testing.T) {
	input := `{"synth_graph": {
	  "nodes": [
	    {"node_label": "R1", "node_type": "reaction", "rxsmiles": "CO.O>>CCl"},
	    {"node_label": "A", "node_type": "substance", "canonical_smiles": "CO"},
	    {"node_label": "B", "node_type": "substance", "canonical_smiles": "CCl"},
	    {"node_label": "W", "node_type": "substance", "canonical_smiles": "O"}
	  ],
	  "edges": [
	    {"start_node": "A", "end_node": "R1", "edge_type": "reactant_of"},
	    {"start_node": "A", "end_node": "R1", "edge_type": "reagent_of"},
	    {"start_node": "W", "end_node": "R1", "edge_type": "reagent_of", "uuid": "A|R1 (2)"},
	    {"start_node": "R1", "end_node": "B", "edge_type": "product_of"}
	  ]
	}}`
	doc, _, err := Normalize([]byte(input), FormatAuto)
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}

	wantIDs := []string{"A|R1", "A|R1 (3)", "A|R1 (2)", "R1|B"}
	for i, want := range wantIDs {
		if got := doc.Edges[i].UUID; got != want {
			t.Errorf("edge %d uuid = %q, want %q", i, got, want)
		}
	}
	if doc.Edges[1].Label != "A|R1" {
		t.Errorf("edge label = %q, want A|R1", doc.Edges[1].Label)
	}

	nodes, edges, err := route.Select(doc, route.WholeGraph)
	if err != nil {
		t.Fatal(err)
	}
	seen := make(map[string]bool)
	for _, el := range elements.FromRoute(nodes, edges) {
		if seen[el.ID()] {
			t.Errorf("render id %q used twice", el.ID())
		}
		seen[el.ID()] = true
	}
}

func TestNormalizeRejectsDuplicateEdgeUUIDs(t *testing.T) {
	input := `{"synth_graph": {
	  "nodes": [
	    {"node_label": "R1", "node_type": "reaction"},
	    {"node_label": "A", "node_type": "substance"}
	  ],
	  "edges": [
	    {"start_node": "A", "end_node": "R1", "edge_type": "reactant_of", "uuid": "e1"},
	    {"start_node": "A", "end_node": "R1", "edge_type": "reagent_of", "uuid": "e1"}
	  ]
	}}`
	if _, _, err := Normalize([]byte(input), FormatAuto); !errors.Is(err, errors.ErrCodeInvalidGraph) {
		t.Errorf("Normalize() error = %v, want %s", err, errors.ErrCodeInvalidGraph)
	}
}

func TestNormalizeSkipsMalformedEntities(t *testing.T) {
	input := `{"synth_graph": {
	  "nodes": [
	    {"node_label": "A", "node_type": "substance"},
	    {"node_type": "substance"},
	    {"node_label": "X"},
	    "garbage"
	  ],
	  "edges": [
	    {"start_node": "A", "edge_type": "reactant_of"},
	    {"start_node": "A", "end_node": "A", "edge_type": "unknown"}
	  ]},
	  "routes": {"subgraphs": [{"route_index": 0}]}}`

	doc, rep, err := Normalize([]byte(input), FormatCanonical)
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	if doc.NodeCount() != 1 {
		t.Errorf("nodes = %d, want 1", doc.NodeCount())
	}
	if rep.SkippedNodes != 3 || rep.SkippedEdges != 2 || rep.SkippedRoute != 1 {
		t.Errorf("report = %+v", rep)
	}
	if rep.Skipped() != 6 {
		t.Errorf("Skipped() = %d, want 6", rep.Skipped())
	}
}

func TestNormalizeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  errors.Code
	}{
		{"malformed json", `{"synth_graph": `, errors.ErrCodeInvalidJSON},
		{"not an object", `[1, 2]`, errors.ErrCodeInvalidJSON},
		{"null", `null`, errors.ErrCodeInvalidJSON},
		{
			"dangling edge",
			`{"nodes": [{"node_label": "A", "node_type": "substance"}], "edges": [{"start_node": "A", "end_node": "R9", "edge_type": "reactant_of"}]}`,
			errors.ErrCodeInvalidGraph,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Normalize([]byte(tt.input), FormatAuto)
			if !errors.Is(err, tt.code) {
				t.Errorf("Normalize() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestNormalizeCytoscape(t *testing.T) {
	input := `{
	  "elements": {
	    "nodes": [
	      {"data": {"id": "A", "node_label": "A", "node_type": "substance", "svg": "data:image/svg+xml;base64,xx", "srole": "sm"}},
	      {"data": {"id": "R1", "node_label": "R1", "node_type": "reaction"}}
	    ],
	    "edges": [
	      {"data": {"id": "e1", "source": "A", "target": "R1", "start_node": "A", "end_node": "R1", "edge_type": "reactant_of", "uuid": "e1"}}
	    ]
	  },
	  "routes": {"subgraphs": [{"route_node_labels": ["A", "R1"]}]}
	}`

	doc, rep, err := Normalize([]byte(input), FormatAuto)
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	if rep.Format != FormatCytoscape {
		t.Errorf("Format = %q, want cytoscape", rep.Format)
	}
	if doc.NodeCount() != 2 || doc.EdgeCount() != 1 || len(doc.Routes) != 1 {
		t.Fatalf("got %d nodes, %d edges, %d routes", doc.NodeCount(), doc.EdgeCount(), len(doc.Routes))
	}
	a, _ := doc.Node("A")
	if _, ok := a.Attrs["svg"]; ok {
		t.Error("renderer key svg should be dropped")
	}
	if doc.Edges[0].UUID != "e1" {
		t.Errorf("edge uuid = %q", doc.Edges[0].UUID)
	}
}

const predictedDocument = `{
  "result": {
    "graph": {
      "nodes": [
        {"id": "CCl", "type": "chemical", "properties": {}},
        {"id": "CO>>CCl", "type": "reaction", "template": {"index": 7}},
        {"id": "CO", "type": "chemical", "properties": {}},
        {"id": "mystery", "type": "unknown"}
      ],
      "links": [
        {"source": "CCl", "target": "CO>>CCl"},
        {"source": "CO>>CCl", "target": "CO"}
      ]
    },
    "paths": [
      {"nodes": [{"smiles": "CCl"}, {"smiles": "CO>>CCl"}, {"smiles": "CO"}]}
    ]
  }
}`

func TestNormalizePredicted(t *testing.T) {
	doc, rep, err := Normalize([]byte(predictedDocument), FormatAuto)
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	if rep.Format != FormatPredicted {
		t.Errorf("Format = %q, want predicted", rep.Format)
	}
	if rep.SkippedNodes != 1 {
		t.Errorf("SkippedNodes = %d, want 1", rep.SkippedNodes)
	}

	rx, _ := doc.Node("CO>>CCl")
	if !rx.IsReaction() || rx.RxSmiles != "CO>>CCl" || rx.Attrs["rxid"] != "7" {
		t.Errorf("reaction node = %+v", rx)
	}

	wantEdges := []struct {
		start, end string
		typ        route.EdgeType
	}{
		{"CO>>CCl", "CCl", route.EdgeProductOf},
		{"CO", "CO>>CCl", route.EdgeReactantOf},
	}
	for i, w := range wantEdges {
		e := doc.Edges[i]
		if e.Start != w.start || e.End != w.end || e.Type != w.typ {
			t.Errorf("edge %d = %s -> %s (%s), want %s -> %s (%s)", i, e.Start, e.End, e.Type, w.start, w.end, w.typ)
		}
		if e.UUID != w.start+"|"+w.end {
			t.Errorf("edge %d uuid = %q", i, e.UUID)
		}
	}

	target, _ := doc.Node("CCl")
	start, _ := doc.Node("CO")
	if target.SRole != route.RoleTarget || start.SRole != route.RoleStarting {
		t.Errorf("roles CCl=%q CO=%q, want tm/sm", target.SRole, start.SRole)
	}

	if len(doc.Routes) != 1 || doc.Routes[0].Method != PredictedMethod || !doc.Routes[0].Predicted {
		t.Errorf("routes = %+v", doc.Routes)
	}
	if !slices.Equal(doc.Routes[0].NodeLabels, []string{"CCl", "CO>>CCl", "CO"}) {
		t.Errorf("route labels = %v", doc.Routes[0].NodeLabels)
	}
	if len(doc.Availability) != 2 {
		t.Errorf("availability = %d entries, want 2", len(doc.Availability))
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{`{"elements": {"nodes": []}}`, FormatCytoscape},
		{`{"result": {"graph": {}}}`, FormatPredicted},
		{`{"graph": {"nodes": [], "links": []}}`, FormatPredicted},
		{`{"synth_graph": {}}`, FormatCanonical},
		{`{"nodes": []}`, FormatCanonical},
	}

	for _, tt := range tests {
		var obj map[string]any
		if err := json.Unmarshal([]byte(tt.input), &obj); err != nil {
			t.Fatal(err)
		}
		if got := Detect(obj); got != tt.want {
			t.Errorf("Detect(%s) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"", FormatAuto, false},
		{"askcos", FormatPredicted, false},
		{"Cytoscape", FormatCytoscape, false},
		{"canonical", FormatCanonical, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

package route

import (
	"encoding/json"
	"slices"

	"github.com/matzehuels/synthroute/pkg/errors"
)

// Document is the canonical synthesis-route document.
//
// Node and edge order is preserved from the input and is the iteration
// order used for rendering.
type Document struct {
	Nodes        []Node
	Edges        []Edge
	Routes       []Selection
	Availability map[string]Availability
}

// Selection is one alternative route within a document, identified by the
// labels of the nodes that belong to it.
type Selection struct {
	Index           int      `json:"route_index"`
	NodeLabels      []string `json:"route_node_labels"`
	Method          string   `json:"method,omitempty"`
	Status          string   `json:"route_status,omitempty"`
	AggregatedYield *float64 `json:"aggregated_yield,omitempty"`
	Predicted       bool     `json:"predicted,omitempty"`
}

// Availability holds inventory and vendor facts for one substance.
type Availability struct {
	Inchikey               string `json:"inchikey"`
	Inventory              *Stock `json:"inventory,omitempty"`
	CommercialAvailability *Stock `json:"commercial_availability,omitempty"`
}

// Stock reports whether a substance is available from one source.
type Stock struct {
	Available bool `json:"available"`
}

// InInventory reports whether the substance is in the local inventory.
func (a Availability) InInventory() bool {
	return a.Inventory != nil && a.Inventory.Available
}

// Purchasable reports whether the substance is commercially available.
func (a Availability) Purchasable() bool {
	return a.CommercialAvailability != nil && a.CommercialAvailability.Available
}

// NodeCount returns the number of nodes.
func (d *Document) NodeCount() int { return len(d.Nodes) }

// EdgeCount returns the number of edges.
func (d *Document) EdgeCount() int { return len(d.Edges) }

// Node returns the node with the given label.
func (d *Document) Node(label string) (Node, bool) {
	for _, n := range d.Nodes {
		if n.Label == label {
			return n, true
		}
	}
	return Node{}, false
}

// Validate checks that node labels and edge uuids are unique and that every
// edge endpoint references an existing node.
func (d *Document) Validate() error {
	labels := make(map[string]bool, len(d.Nodes))
	for _, n := range d.Nodes {
		if labels[n.Label] {
			return errors.New(errors.ErrCodeInvalidGraph, "duplicate node label %q", n.Label)
		}
		labels[n.Label] = true
	}
	ids := make(map[string]bool, len(d.Edges))
	for _, e := range d.Edges {
		if ids[e.UUID] {
			return errors.New(errors.ErrCodeInvalidGraph, "duplicate edge uuid %q", e.UUID)
		}
		ids[e.UUID] = true
		if !labels[e.Start] {
			return errors.New(errors.ErrCodeInvalidGraph, "edge %s references unknown start node %q", e.UUID, e.Start)
		}
		if !labels[e.End] {
			return errors.New(errors.ErrCodeInvalidGraph, "edge %s references unknown end node %q", e.UUID, e.End)
		}
	}
	return nil
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	out := &Document{
		Nodes:  make([]Node, len(d.Nodes)),
		Edges:  make([]Edge, len(d.Edges)),
		Routes: make([]Selection, len(d.Routes)),
	}
	for i, n := range d.Nodes {
		out.Nodes[i] = n.Clone()
	}
	for i, e := range d.Edges {
		out.Edges[i] = e.Clone()
	}
	for i, r := range d.Routes {
		r.NodeLabels = slices.Clone(r.NodeLabels)
		out.Routes[i] = r
	}
	if d.Availability != nil {
		out.Availability = make(map[string]Availability, len(d.Availability))
		for k, v := range d.Availability {
			out.Availability[k] = v
		}
	}
	return out
}

// canonical is the wire shape written by MarshalJSON:
//
//	{"synth_graph": {"nodes": [...], "edges": [...]},
//	 "routes": {"subgraphs": [...]},
//	 "availability": [...]}
type canonical struct {
	SynthGraph   graphSection   `json:"synth_graph"`
	Routes       routesSection  `json:"routes"`
	Availability []Availability `json:"availability"`
}

type graphSection struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

type routesSection struct {
	Subgraphs []Selection `json:"subgraphs"`
}

// MarshalJSON implements json.Marshaler using the canonical shape.
// Availability entries are written sorted by key.
func (d *Document) MarshalJSON() ([]byte, error) {
	c := canonical{
		SynthGraph: graphSection{Nodes: d.Nodes, Edges: d.Edges},
		Routes:     routesSection{Subgraphs: d.Routes},
	}
	if c.SynthGraph.Nodes == nil {
		c.SynthGraph.Nodes = []Node{}
	}
	if c.SynthGraph.Edges == nil {
		c.SynthGraph.Edges = []Edge{}
	}
	if c.Routes.Subgraphs == nil {
		c.Routes.Subgraphs = []Selection{}
	}
	c.Availability = make([]Availability, 0, len(d.Availability))
	for _, k := range sortedKeys(d.Availability) {
		a := d.Availability[k]
		if a.Inchikey == "" {
			a.Inchikey = k
		}
		c.Availability = append(c.Availability, a)
	}
	return json.Marshal(c)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

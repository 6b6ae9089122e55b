package route

import (
	"encoding/json"
	"fmt"
	"maps"
	"strconv"
	"strings"
)

// NodeType classifies a node as a substance or a reaction.
type NodeType string

const (
	NodeSubstance NodeType = "substance"
	NodeReaction  NodeType = "reaction"
)

// ParseNodeType normalizes a raw node_type value. Matching is
// case-insensitive; "chemical" is accepted as an alias for substance.
func ParseNodeType(s string) (NodeType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "substance", "chemical":
		return NodeSubstance, true
	case "reaction":
		return NodeReaction, true
	}
	return "", false
}

// Role is the role of a substance within a route.
type Role string

const (
	RoleStarting     Role = "sm"
	RoleIntermediate Role = "im"
	RoleTarget       Role = "tm"
)

// EdgeType describes how the start node of an edge relates to its end node.
type EdgeType string

const (
	EdgeReactantOf EdgeType = "reactant_of"
	EdgeReagentOf  EdgeType = "reagent_of"
	EdgeProductOf  EdgeType = "product_of"
)

// ParseEdgeType normalizes a raw edge_type value.
func ParseEdgeType(s string) (EdgeType, bool) {
	switch EdgeType(strings.ToLower(strings.TrimSpace(s))) {
	case EdgeReactantOf:
		return EdgeReactantOf, true
	case EdgeReagentOf:
		return EdgeReagentOf, true
	case EdgeProductOf:
		return EdgeProductOf, true
	}
	return "", false
}

// Attribute keys with a typed counterpart on Node or Edge.
const (
	KeyNodeLabel       = "node_label"
	KeyNodeType        = "node_type"
	KeyCanonicalSmiles = "canonical_smiles"
	KeyInchikey        = "inchikey"
	KeySRole           = "srole"
	KeyRxSmiles        = "rxsmiles"
	KeyBase64SVG       = "base64svg"
	KeyUUID            = "uuid"

	KeyStartNode = "start_node"
	KeyEndNode   = "end_node"
	KeyEdgeType  = "edge_type"
	KeyEdgeLabel = "edge_label"
)

// Node is a substance or a reaction.
//
// Attributes without a typed field (rxid, provenance, conditions_info,
// is_valid, route_assembly_type, ...) are kept verbatim in Attrs.
type Node struct {
	Label string
	Type  NodeType

	// Substance fields
	CanonicalSmiles string
	Inchikey        string
	SRole           Role

	// Reaction fields
	RxSmiles string

	Base64SVG string
	UUID      string
	Attrs     map[string]any
}

// IsSubstance reports whether n is a substance node.
func (n Node) IsSubstance() bool { return n.Type == NodeSubstance }

// IsReaction reports whether n is a reaction node.
func (n Node) IsReaction() bool { return n.Type == NodeReaction }

// NodeFromMap builds a Node from a decoded JSON object. It fails when the
// label or the type discriminator is missing or unrecognized.
func NodeFromMap(m map[string]any) (Node, error) {
	label := AttrString(m[KeyNodeLabel])
	if label == "" {
		return Node{}, fmt.Errorf("missing %s", KeyNodeLabel)
	}
	typ, ok := ParseNodeType(AttrString(m[KeyNodeType]))
	if !ok {
		return Node{}, fmt.Errorf("node %q: invalid %s %v", label, KeyNodeType, m[KeyNodeType])
	}

	n := Node{
		Label:           label,
		Type:            typ,
		CanonicalSmiles: AttrString(m[KeyCanonicalSmiles]),
		Inchikey:        AttrString(m[KeyInchikey]),
		SRole:           Role(AttrString(m[KeySRole])),
		RxSmiles:        AttrString(m[KeyRxSmiles]),
		Base64SVG:       AttrString(m[KeyBase64SVG]),
		UUID:            AttrString(m[KeyUUID]),
		Attrs:           make(map[string]any),
	}
	for k, v := range m {
		switch k {
		case KeyNodeLabel, KeyNodeType, KeyCanonicalSmiles, KeyInchikey,
			KeySRole, KeyRxSmiles, KeyBase64SVG, KeyUUID:
		default:
			n.Attrs[k] = v
		}
	}
	return n, nil
}

// Map returns all attributes of n as one JSON object, typed fields included.
// Empty typed fields are omitted.
func (n Node) Map() map[string]any {
	m := make(map[string]any, len(n.Attrs)+8)
	maps.Copy(m, n.Attrs)
	m[KeyNodeLabel] = n.Label
	m[KeyNodeType] = string(n.Type)
	setIfNotEmpty(m, KeyCanonicalSmiles, n.CanonicalSmiles)
	setIfNotEmpty(m, KeyInchikey, n.Inchikey)
	setIfNotEmpty(m, KeySRole, string(n.SRole))
	setIfNotEmpty(m, KeyRxSmiles, n.RxSmiles)
	setIfNotEmpty(m, KeyBase64SVG, n.Base64SVG)
	setIfNotEmpty(m, KeyUUID, n.UUID)
	return m
}

// Clone returns a deep copy of n.
func (n Node) Clone() Node {
	n.Attrs = cloneMap(n.Attrs)
	return n
}

// MarshalJSON implements json.Marshaler.
func (n Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.Map())
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Node) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	node, err := NodeFromMap(m)
	if err != nil {
		return err
	}
	*n = node
	return nil
}

// Edge is a directed relationship between two node labels.
type Edge struct {
	Start string
	End   string
	Type  EdgeType
	UUID  string
	Label string
	Attrs map[string]any
}

// EdgeFromMap builds an Edge from a decoded JSON object. It fails when an
// endpoint or the edge type is missing. A missing uuid falls back to the
// edge label, then to "start|end".
func EdgeFromMap(m map[string]any) (Edge, error) {
	start := AttrString(m[KeyStartNode])
	end := AttrString(m[KeyEndNode])
	if start == "" || end == "" {
		return Edge{}, fmt.Errorf("missing %s or %s", KeyStartNode, KeyEndNode)
	}
	typ, ok := ParseEdgeType(AttrString(m[KeyEdgeType]))
	if !ok {
		return Edge{}, fmt.Errorf("edge %s -> %s: invalid %s %v", start, end, KeyEdgeType, m[KeyEdgeType])
	}

	e := Edge{
		Start: start,
		End:   end,
		Type:  typ,
		UUID:  AttrString(m[KeyUUID]),
		Label: AttrString(m[KeyEdgeLabel]),
		Attrs: make(map[string]any),
	}
	if e.Label == "" {
		e.Label = start + "|" + end
	}
	if e.UUID == "" {
		e.UUID = e.Label
	}
	for k, v := range m {
		switch k {
		case KeyStartNode, KeyEndNode, KeyEdgeType, KeyUUID, KeyEdgeLabel:
		default:
			e.Attrs[k] = v
		}
	}
	return e, nil
}

// Map returns all attributes of e as one JSON object.
func (e Edge) Map() map[string]any {
	m := make(map[string]any, len(e.Attrs)+5)
	maps.Copy(m, e.Attrs)
	m[KeyStartNode] = e.Start
	m[KeyEndNode] = e.End
	m[KeyEdgeType] = string(e.Type)
	setIfNotEmpty(m, KeyUUID, e.UUID)
	setIfNotEmpty(m, KeyEdgeLabel, e.Label)
	return m
}

// Clone returns a deep copy of e.
func (e Edge) Clone() Edge {
	e.Attrs = cloneMap(e.Attrs)
	return e
}

// MarshalJSON implements json.Marshaler.
func (e Edge) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Map())
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Edge) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	edge, err := EdgeFromMap(m)
	if err != nil {
		return err
	}
	*e = edge
	return nil
}

func setIfNotEmpty(m map[string]any, key, value string) {
	if value != "" {
		m[key] = value
	}
}

// AttrString converts a decoded JSON scalar to a string. Objects, arrays
// and null yield "".
func AttrString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	}
	return ""
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return cloneMap(x)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = cloneValue(item)
		}
		return out
	}
	return v
}

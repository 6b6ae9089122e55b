package normalize

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/matzehuels/synthroute/pkg/errors"
	"github.com/matzehuels/synthroute/pkg/route"
)

// ReactionRecord is a single reaction as returned by a reaction lookup.
// Participants are kept as raw attribute objects; each must carry an
// inchikey.
type ReactionRecord struct {
	RxID      string
	RxSmiles  string
	Reactants []map[string]any
	Reagents  []map[string]any
	Products  []map[string]any
	Attrs     map[string]any
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *ReactionRecord) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*r = ReactionRecord{
		RxID:      route.AttrString(m["rxid"]),
		RxSmiles:  route.AttrString(m["rxsmiles"]),
		Reactants: objects(m["reactants"]),
		Reagents:  objects(m["reagents"]),
		Products:  objects(m["products"]),
		Attrs:     make(map[string]any),
	}
	for k, v := range m {
		switch k {
		case "rxid", "rxsmiles", "reactants", "reagents", "products":
		default:
			r.Attrs[k] = v
		}
	}
	return nil
}

// FromReactionRecord builds a one-reaction document from a lookup record.
//
// Reactants and reagents become starting materials linked by reactant_of
// and reagent_of edges; products become target materials linked by
// product_of edges. Every node and edge gets a fresh uuid.
func FromReactionRecord(rec *ReactionRecord) (*route.Document, error) {
	if rec.RxID == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "reaction record has no rxid")
	}

	rx := route.Node{
		Label:    rec.RxID,
		Type:     route.NodeReaction,
		RxSmiles: rec.RxSmiles,
		UUID:     uuid.NewString(),
		Attrs:    map[string]any{"rxid": rec.RxID},
	}
	for k, v := range rec.Attrs {
		rx.Attrs[k] = v
	}
	doc := &route.Document{Nodes: []route.Node{rx}}

	seen := map[string]bool{rec.RxID: true}
	add := func(items []map[string]any, role route.Role, typ route.EdgeType) {
		for _, item := range items {
			key := route.AttrString(item["inchikey"])
			if key == "" {
				continue
			}
			if !seen[key] {
				seen[key] = true
				n := route.Node{
					Label:           key,
					Type:            route.NodeSubstance,
					Inchikey:        key,
					CanonicalSmiles: route.AttrString(item["canonical_smiles"]),
					SRole:           role,
					UUID:            uuid.NewString(),
					Attrs:           make(map[string]any),
				}
				for k, v := range item {
					switch k {
					case "inchikey", "canonical_smiles", "srole", "node_type", "node_label", "uuid":
					default:
						n.Attrs[k] = v
					}
				}
				doc.Nodes = append(doc.Nodes, n)
			}

			start, end := key, rec.RxID
			if typ == route.EdgeProductOf {
				start, end = rec.RxID, key
			}
			doc.Edges = append(doc.Edges, route.Edge{
				Start: start,
				End:   end,
				Type:  typ,
				UUID:  uuid.NewString(),
				Label: start + "|" + end,
			})
		}
	}
	add(rec.Reactants, route.RoleStarting, route.EdgeReactantOf)
	add(rec.Reagents, route.RoleStarting, route.EdgeReagentOf)
	add(rec.Products, route.RoleTarget, route.EdgeProductOf)

	return doc, doc.Validate()
}

// ReactionSmiles pairs a reaction id with its RXSMILES.
type ReactionSmiles struct {
	RxID     string `json:"rxid"`
	RxSmiles string `json:"rxsmiles"`
}

// SubstanceSmiles pairs a substance key with its canonical SMILES.
type SubstanceSmiles struct {
	Inchikey        string `json:"inchikey"`
	CanonicalSmiles string `json:"canonical_smiles"`
}

// AttachSmiles fills canonical_smiles on substances and rxsmiles on
// reactions from lookup lists keyed by node label. Nodes without a match
// are left unchanged. It returns the number of nodes updated.
func AttachSmiles(doc *route.Document, reactions []ReactionSmiles, substances []SubstanceSmiles) int {
	rx := make(map[string]string, len(reactions))
	for _, r := range reactions {
		rx[r.RxID] = r.RxSmiles
	}
	subst := make(map[string]string, len(substances))
	for _, s := range substances {
		subst[s.Inchikey] = s.CanonicalSmiles
	}

	updated := 0
	for i := range doc.Nodes {
		n := &doc.Nodes[i]
		switch {
		case n.IsSubstance():
			if s, ok := subst[n.Label]; ok {
				n.CanonicalSmiles = s
				updated++
			}
		case n.IsReaction():
			if s, ok := rx[n.Label]; ok {
				n.RxSmiles = s
				updated++
			}
		}
	}
	return updated
}

func objects(v any) []map[string]any {
	var out []map[string]any
	for _, item := range asList(v) {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

package chemistry

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	errs "github.com/matzehuels/synthroute/pkg/errors"
	"github.com/matzehuels/synthroute/pkg/normalize"
	"github.com/matzehuels/synthroute/pkg/route"
)

// TargetKind classifies a search target.
type TargetKind string

const (
	TargetInchikey TargetKind = "inchikey"
	TargetSmiles   TargetKind = "smiles"
)

var (
	inchikeyRE = regexp.MustCompile(`^[A-Z0-9]{14}-[A-Z0-9]{10}-[A-Z0-9]{1,2}$`)
	smilesRE   = regexp.MustCompile(`^[A-Za-z0-9@+\-\[\]()=#$:%./\\,*{}~]+$`)
)

// IdentifyTarget classifies s as an InChIKey or a SMILES string.
func IdentifyTarget(s string) (TargetKind, error) {
	s = strings.TrimSpace(s)
	switch {
	case inchikeyRE.MatchString(s):
		return TargetInchikey, nil
	case smilesRE.MatchString(s):
		return TargetSmiles, nil
	}
	return "", errs.New(errs.ErrCodeInvalidInput, "Unable to determine input string as 'SMILES' or 'InChIKey'")
}

// Query types of a route search.
const (
	QueryShortestPath = "shortest_path"
	QueryAllPaths     = "all_paths"
)

// RouteQuery is a route search request.
type RouteQuery struct {
	TargetInchikey string             `json:"target_molecule_inchikey,omitempty"`
	TargetSmiles   string             `json:"target_molecule_smiles,omitempty"`
	ReactionSteps  int                `json:"reaction_steps"`
	QueryType      string             `json:"query_type,omitempty"`
	LeavesAsSM     bool               `json:"leaves_as_sm"`
	Evidence       *EvidenceOptions   `json:"evidence_options,omitempty"`
	Prediction     *PredictionOptions `json:"prediction_options,omitempty"`
}

// EvidenceOptions bound the knowledge-base part of a search.
type EvidenceOptions struct {
	DegCutoff int    `json:"deg_cutoff"`
	QueryType string `json:"query_type,omitempty"`
	TopN      int    `json:"top_n_routes"`
}

// PredictionOptions bound the predicted part of a search.
type PredictionOptions struct {
	MaxRoutes int    `json:"max_routes"`
	Source    string `json:"source,omitempty"`
}

// NewRouteQuery builds a query for target with the usual defaults.
func NewRouteQuery(target string, steps int) (RouteQuery, error) {
	target = strings.TrimSpace(target)
	kind, err := IdentifyTarget(target)
	if err != nil {
		return RouteQuery{}, err
	}
	q := RouteQuery{
		ReactionSteps: max(steps, 1),
		QueryType:     QueryShortestPath,
		LeavesAsSM:    true,
	}
	if kind == TargetInchikey {
		q.TargetInchikey = target
	} else {
		q.TargetSmiles = target
	}
	return q, nil
}

// Candidate is one route returned by a search.
type Candidate struct {
	Document *route.Document
	Report   *normalize.Report
}

// SearchRoutes returns candidate routes for the query target, evidence
// routes and predicted routes alike. Routes that cannot be normalized are
// skipped; the count is returned alongside.
func (c *Client) SearchRoutes(ctx context.Context, q RouteQuery) ([]Candidate, int, error) {
	if q.TargetInchikey == "" && q.TargetSmiles == "" {
		return nil, 0, errs.New(errs.ErrCodeInvalidInput, "route search needs a target")
	}
	q.TargetInchikey = strings.TrimSpace(q.TargetInchikey)
	q.TargetSmiles = strings.TrimSpace(q.TargetSmiles)

	var resp struct {
		Routes []json.RawMessage `json:"routes"`
	}
	if err := c.Post(ctx, c.url("api/v1/prediction/synthesis_routes", nil), q, &resp); err != nil {
		return nil, 0, hardError("route search", err)
	}
	if resp.Routes == nil {
		return nil, 0, errs.New(errs.ErrCodeNotFound, "No routes found in response")
	}

	var out []Candidate
	skipped := 0
	for _, raw := range resp.Routes {
		doc, rep, err := normalize.Normalize(raw, normalize.FormatAuto)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, Candidate{Document: doc, Report: rep})
	}
	return out, skipped, nil
}

// FetchSynthesisGraph retrieves the full synthesis graph around the query
// target and attaches SMILES from the returned reaction and substance lists.
// A SMILES target is converted to an InChIKey first.
func (c *Client) FetchSynthesisGraph(ctx context.Context, q RouteQuery) (*route.Document, *normalize.Report, error) {
	if q.TargetInchikey == "" {
		if q.TargetSmiles == "" {
			return nil, nil, errs.New(errs.ErrCodeInvalidInput, "synthesis graph needs a target")
		}
		key, err := c.SmilesToInchikey(ctx, q.TargetSmiles)
		if err != nil {
			return nil, nil, err
		}
		q.TargetInchikey, q.TargetSmiles = key, ""
	}

	var resp struct {
		Graph      json.RawMessage             `json:"synthesis_graph_json"`
		Reactions  []normalize.ReactionSmiles  `json:"reactions"`
		Substances []normalize.SubstanceSmiles `json:"substances"`
	}
	if err := c.Post(ctx, c.url("api/v1/prediction/fetch_synthesis_graph", nil), q, &resp); err != nil {
		return nil, nil, hardError("synthesis graph", err)
	}
	if len(resp.Graph) == 0 || string(resp.Graph) == "null" {
		return nil, nil, errs.New(errs.ErrCodeNotFound, "No synthesis graph found in response")
	}

	doc, rep, err := normalize.Normalize(resp.Graph, normalize.FormatAuto)
	if err != nil {
		return nil, nil, err
	}
	normalize.AttachSmiles(doc, resp.Reactions, resp.Substances)
	return doc, rep, nil
}

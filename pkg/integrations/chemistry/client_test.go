package chemistry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/matzehuels/synthroute/pkg/cache"
	errs "github.com/matzehuels/synthroute/pkg/errors"
)

func testClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return NewClient(c, Config{BaseURL: serverURL, Retries: 1})
}

func TestReactionSVG(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/rxsmiles2svg" {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		if q.Get("rxsmiles") != "[CH3:1]O>>[CH3:1]Cl" {
			t.Errorf("rxsmiles = %q", q.Get("rxsmiles"))
		}
		if q.Get("highlight") != "true" || q.Get("img_width") != "1800" || q.Get("img_height") != "600" || q.Get("base64_encode") != "true" {
			t.Errorf("unexpected query %v", q)
		}
		json.NewEncoder(w).Encode(map[string]string{"svg_base64": "PHN2Zz4="})
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	ctx := context.Background()
	for range 2 {
		svg, err := c.ReactionSVG(ctx, "[CH3:1]O>>[CH3:1]Cl", ReactionSVGOptions{Highlight: true})
		if err != nil {
			t.Fatalf("ReactionSVG() error: %v", err)
		}
		if svg != "PHN2Zz4=" {
			t.Errorf("svg = %q", svg)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("server calls = %d, want 1 (second should be cached)", calls.Load())
	}
}

func TestSubstanceSVGSizes(t *testing.T) {
	var widths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		widths = append(widths, r.URL.Query().Get("img_width"))
		json.NewEncoder(w).Encode(map[string]string{"svg_base64": "x"})
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	ctx := context.Background()
	if _, err := c.SubstanceSVG(ctx, "CO", 0, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := c.SubstanceSVG(ctx, "CO", TargetWidth, TargetHeight); err != nil {
		t.Fatal(err)
	}
	if len(widths) != 2 || widths[0] != "300" || widths[1] != "600" {
		t.Errorf("widths = %v, want [300 600]", widths)
	}
}

func TestDepictionFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/molsmiles2svg":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			json.NewEncoder(w).Encode(map[string]any{"svg_base64": nil})
		}
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	if _, err := c.SubstanceSVG(context.Background(), "CO", 0, 0); err == nil {
		t.Error("SubstanceSVG() should fail on 500")
	}
	if _, err := c.ReactionSVG(context.Background(), "CO>>CCl", ReactionSVGOptions{}); err != ErrEmptyDepiction {
		t.Errorf("ReactionSVG() error = %v, want ErrEmptyDepiction", err)
	}
}

func TestBalanceIndices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/compute_all_bi" || r.URL.Query().Get("rxsmiles") == "" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"pbi": 0.5, "rbi": 1.0, "tbi": 0.75}`))
	}))
	defer server.Close()

	b, err := testClient(t, server.URL).BalanceIndices(context.Background(), "[CH3:1]O>>[CH3:1]Cl")
	if err != nil {
		t.Fatal(err)
	}
	if b != (Balance{PBI: 0.5, RBI: 1.0, TBI: 0.75}) {
		t.Errorf("Balance = %+v", b)
	}
}

func TestNormalizeRoles(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Method != http.MethodPost || r.URL.Path != "/normalize_roles" {
			http.NotFound(w, r)
			return
		}
		var in map[string]string
		json.NewDecoder(r.Body).Decode(&in)
		json.NewEncoder(w).Encode(map[string]string{"original_rxsmiles": in["rxsmiles"], "rxsmiles": "normalized"})
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	ctx := context.Background()

	got, err := c.NormalizeRoles(ctx, "[CH3:1]O>>[CH3:1]Cl", false)
	if err != nil || got != "[CH3:1]O>>[CH3:1]Cl" {
		t.Errorf("disabled: got %q, %v", got, err)
	}
	if calls.Load() != 0 {
		t.Error("disabled normalization should not call the service")
	}

	got, err = c.NormalizeRoles(ctx, "[CH3:1]O>>[CH3:1]Cl", true)
	if err != nil || got != "normalized" {
		t.Errorf("enabled: got %q, %v", got, err)
	}
}

func TestStatus(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "ok", "version": "1.2"}`))
	}))
	defer ok.Close()

	st, err := testClient(t, ok.URL).Status(context.Background())
	if err != nil || !st.OK() || st.Status != "ok" {
		t.Errorf("Status() = %+v, %v", st, err)
	}

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"detail": "database offline"}`))
	}))
	defer down.Close()

	st, err = testClient(t, down.URL).Status(context.Background())
	if err == nil || st.OK() {
		t.Errorf("Status() = %+v, %v; want error", st, err)
	}
	if st.Detail != "database offline" {
		t.Errorf("Detail = %q", st.Detail)
	}
}

func TestSmilesToInchikey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		json.NewDecoder(r.Body).Decode(&in)
		if in["smiles"] == "bad" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"detail": "Invalid SMILES"}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"inchikey": "OKKJLVBELUTLKV-UHFFFAOYSA-N"})
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	key, err := c.SmilesToInchikey(context.Background(), "CO")
	if err != nil || key != "OKKJLVBELUTLKV-UHFFFAOYSA-N" {
		t.Errorf("SmilesToInchikey() = %q, %v", key, err)
	}

	_, err = c.SmilesToInchikey(context.Background(), "bad")
	if !errs.Is(err, errs.ErrCodeUpstream) {
		t.Errorf("err code = %v, want UPSTREAM_ERROR", errs.GetCode(err))
	}
	if errs.UserMessage(err) != "Invalid SMILES" {
		t.Errorf("UserMessage = %q", errs.UserMessage(err))
	}

	if _, err := c.SmilesToInchikey(context.Background(), "  "); !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("blank smiles: %v", err)
	}
}

func TestReactionLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/knowledge_base/reactions/42":
			if r.URL.Query().Get("retrieve_components") != "true" {
				t.Error("components should be requested")
			}
			w.Write([]byte(`{
				"rxid": "42",
				"rxsmiles": "CO>>CCl",
				"reactants": [{"inchikey": "A", "canonical_smiles": "CO"}],
				"products": [{"inchikey": "B", "canonical_smiles": "CCl"}]
			}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"detail": "Reaction not found"}`))
		}
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	rec, err := c.Reaction(context.Background(), "42")
	if err != nil {
		t.Fatal(err)
	}
	if rec.RxID != "42" || len(rec.Reactants) != 1 || len(rec.Products) != 1 {
		t.Errorf("record = %+v", rec)
	}

	_, err = c.Reaction(context.Background(), "7")
	if !errs.Is(err, errs.ErrCodeNotFound) || errs.UserMessage(err) != "Reaction not found" {
		t.Errorf("missing reaction: code=%v msg=%q", errs.GetCode(err), errs.UserMessage(err))
	}
}

func TestSubstanceLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"inchikey": "A", "canonical_smiles": "CO"}`))
	}))
	defer server.Close()

	rec, err := testClient(t, server.URL).Substance(context.Background(), "A")
	if err != nil || rec["canonical_smiles"] != "CO" {
		t.Errorf("Substance() = %v, %v", rec, err)
	}
}

func TestIdentifyTarget(t *testing.T) {
	tests := []struct {
		in      string
		want    TargetKind
		wantErr bool
	}{
		{"OKKJLVBELUTLKV-UHFFFAOYSA-N", TargetInchikey, false},
		{"  OKKJLVBELUTLKV-UHFFFAOYSA-N ", TargetInchikey, false},
		{"CC(=O)Oc1ccccc1C(=O)O", TargetSmiles, false},
		{"[CH3:1][OH]", TargetSmiles, false},
		{"not a molecule", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := IdentifyTarget(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("IdentifyTarget(%q) = %q, %v", tt.in, got, err)
		}
		if err != nil && !errs.Is(err, errs.ErrCodeInvalidInput) {
			t.Errorf("IdentifyTarget(%q) code = %v", tt.in, errs.GetCode(err))
		}
	}
}

func TestSearchRoutes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var q RouteQuery
		json.NewDecoder(r.Body).Decode(&q)
		if q.TargetSmiles != "CCl" || q.TargetInchikey != "" || q.ReactionSteps != 2 {
			t.Errorf("query = %+v", q)
		}
		w.Write([]byte(`{"routes": [
			{"synth_graph": {
				"nodes": [
					{"node_label": "R1", "node_type": "reaction", "rxsmiles": "CO>>CCl"},
					{"node_label": "A", "node_type": "substance"},
					{"node_label": "B", "node_type": "substance"}
				],
				"edges": [
					{"start_node": "A", "end_node": "R1", "edge_type": "reactant_of"},
					{"start_node": "R1", "end_node": "B", "edge_type": "product_of"}
				]
			}},
			"garbage"
		]}`))
	}))
	defer server.Close()

	q, err := NewRouteQuery("CCl", 2)
	if err != nil {
		t.Fatal(err)
	}
	cands, skipped, err := testClient(t, server.URL).SearchRoutes(context.Background(), q)
	if err != nil {
		t.Fatal(err)
	}
	if len(cands) != 1 || skipped != 1 {
		t.Fatalf("got %d candidates, %d skipped", len(cands), skipped)
	}
	if cands[0].Document.NodeCount() != 3 {
		t.Errorf("nodes = %d", cands[0].Document.NodeCount())
	}
}

func TestSearchRoutesNoRoutes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	q, _ := NewRouteQuery("OKKJLVBELUTLKV-UHFFFAOYSA-N", 1)
	_, _, err := testClient(t, server.URL).SearchRoutes(context.Background(), q)
	if !errs.Is(err, errs.ErrCodeNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

func TestFetchSynthesisGraph(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/substance_utils/smiles2inchikey":
			w.Write([]byte(`{"inchikey": "BBBBBBBBBBBBBB-UHFFFAOYSA-N"}`))
		case "/api/v1/prediction/fetch_synthesis_graph":
			var q RouteQuery
			json.NewDecoder(r.Body).Decode(&q)
			if q.TargetInchikey != "BBBBBBBBBBBBBB-UHFFFAOYSA-N" || q.TargetSmiles != "" {
				t.Errorf("query = %+v", q)
			}
			w.Write([]byte(`{
				"synthesis_graph_json": {
					"nodes": [
						{"node_label": "R1", "node_type": "reaction"},
						{"node_label": "A", "node_type": "substance"},
						{"node_label": "B", "node_type": "substance"}
					],
					"edges": [
						{"start_node": "A", "end_node": "R1", "edge_type": "reactant_of"},
						{"start_node": "R1", "end_node": "B", "edge_type": "product_of"}
					]
				},
				"reactions": [{"rxid": "R1", "rxsmiles": "CO>>CCl"}],
				"substances": [{"inchikey": "A", "canonical_smiles": "CO"}]
			}`))
		}
	}))
	defer server.Close()

	q, _ := NewRouteQuery("CCl", 1)
	doc, _, err := testClient(t, server.URL).FetchSynthesisGraph(context.Background(), q)
	if err != nil {
		t.Fatal(err)
	}
	r1, _ := doc.Node("R1")
	a, _ := doc.Node("A")
	if r1.RxSmiles != "CO>>CCl" || a.CanonicalSmiles != "CO" {
		t.Errorf("smiles not attached: R1=%q A=%q", r1.RxSmiles, a.CanonicalSmiles)
	}
}

func TestHasAtomMapping(t *testing.T) {
	tests := map[string]bool{
		"[CH3:1]O>>[CH3:1]Cl": true,
		"CO>>CCl":             false,
		"[Na+].[Cl-]>>[Na+]":  false,
		"[C:12]":              true,
	}
	for in, want := range tests {
		if got := HasAtomMapping(in); got != want {
			t.Errorf("HasAtomMapping(%q) = %v, want %v", in, got, want)
		}
	}
}

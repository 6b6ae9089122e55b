package cli

import (
	"bytes"
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/matzehuels/synthroute/pkg/errors"
	"github.com/matzehuels/synthroute/pkg/normalize"
	"github.com/matzehuels/synthroute/pkg/session"
)

type recordLookup struct{ calls atomic.Int32 }

func (l *recordLookup) Reaction(_ context.Context, rxid string) (*normalize.ReactionRecord, error) {
	l.calls.Add(1)
	return &normalize.ReactionRecord{
		RxID:      rxid,
		RxSmiles:  "CO.O>>CCl",
		Reactants: []map[string]any{{"inchikey": "A"}},
		Products:  []map[string]any{{"inchikey": "B"}},
		Attrs:     map[string]any{"source": map[string]any{"patent": "US123"}},
	}, nil
}

func testSession(t *testing.T, index int) *session.Session {
	t.Helper()
	input := strings.Replace(testDocument, `"rxsmiles": "CO.O>>CCl"`, `"rxsmiles": "CO.O>>CCl", "rxid": "42"`, 1)
	doc, _, err := normalize.Normalize([]byte(input), normalize.FormatAuto)
	if err != nil {
		t.Fatal(err)
	}
	sess := session.New(nil, nil)
	if err := sess.Load(doc); err != nil {
		t.Fatal(err)
	}
	if err := sess.Select(index); err != nil {
		t.Fatal(err)
	}
	return sess
}

func TestInspectSelection(t *testing.T) {
	sess := testSession(t, 0)
	sess.SetSelection("R1")
	lookup := &recordLookup{}

	for range 2 {
		var out bytes.Buffer
		if err := inspectSelection(context.Background(), &out, sess, lookup); err != nil {
			t.Fatalf("inspectSelection: %v", err)
		}
		got := out.String()
		for _, want := range []string{"rxsmiles", "A (reactant_of)", "B (product_of)", "Knowledge base 42", "1 reactants · 0 reagents · 1 products", "US123"} {
			if !strings.Contains(got, want) {
				t.Errorf("output missing %q:\n%s", want, got)
			}
		}
	}
	if lookup.calls.Load() != 1 {
		t.Errorf("lookups = %d, want 1 (record is kept by the session)", lookup.calls.Load())
	}
}

func TestInspectSelectionSubstance(t *testing.T) {
	sess := testSession(t, 0)
	sess.SetSelection("A")
	lookup := &recordLookup{}

	var out bytes.Buffer
	if err := inspectSelection(context.Background(), &out, sess, lookup); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "R1 (reactant_of)") {
		t.Errorf("outgoing edge missing:\n%s", out.String())
	}
	if lookup.calls.Load() != 0 {
		t.Error("substances should not be resolved as reactions")
	}
}

func TestInspectSelectionUnknownNode(t *testing.T) {
	sess := testSession(t, 0)
	sess.SetSelection("W") // reagents are removed from the view
	err := inspectSelection(context.Background(), &bytes.Buffer{}, sess, nil)
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("error = %v, want %s", err, errors.ErrCodeInvalidInput)
	}
}

func TestInspectCommandOffline(t *testing.T) {
	c, out := newTestCLI(t)
	input := writeTestDocument(t)

	root := c.RootCommand()
	root.SetArgs([]string{"inspect", input, "W", "--subgraph", "1", "--show-reagents", "--offline"})
	if err := root.Execute(); err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if !strings.Contains(out.String(), "R1 (reagent_of)") {
		t.Errorf("output:\n%s", out.String())
	}
}

func TestEntityListPreviewAndSelect(t *testing.T) {
	sess := testSession(t, 0)
	m := NewEntityListModel(sess)
	if len(m.Nodes) != 3 {
		t.Fatalf("nodes = %d, want 3", len(m.Nodes))
	}
	first := m.Nodes[0].ID()
	if sess.Preview() != first {
		t.Errorf("Preview() = %q, want %q", sess.Preview(), first)
	}

	next, _ := m.Update(keyMsg("down"))
	m = next.(EntityListModel)
	if sess.Preview() != m.Nodes[1].ID() {
		t.Errorf("Preview() = %q after down, want %q", sess.Preview(), m.Nodes[1].ID())
	}
	if !strings.Contains(m.View(), m.Nodes[1].ID()) {
		t.Error("view should show the previewed entity")
	}

	next, cmd := m.Update(keyMsg("enter"))
	m = next.(EntityListModel)
	if !m.Chosen || cmd == nil {
		t.Fatal("enter should choose and quit")
	}
	if sess.Selection() != m.Nodes[1].ID() {
		t.Errorf("Selection() = %q", sess.Selection())
	}
}

func TestEntityListQuitClearsPreview(t *testing.T) {
	sess := testSession(t, 0)
	m := NewEntityListModel(sess)
	next, _ := m.Update(keyMsg("q"))
	if next.(EntityListModel).Chosen || sess.Preview() != "" {
		t.Error("quit should leave nothing chosen or previewed")
	}
}

// Package session holds the state of one interactive route view.
//
// A [Session] owns the loaded document, the selected route, the mapped and
// enriched elements, the transform options and a per-node depiction cache.
// All committed state is guarded by one mutex; enrichment runs outside of
// it.
//
// # Generations
//
// Every pipeline run (a load, a route selection, an option change or an
// enrichment) bumps the session generation. [Session.Enrich] records the
// generation it started under and commits its batch only if no later run
// has started in the meantime. A superseded batch is discarded and
// reported as [ErrStale], so the last invocation always wins. Superseded
// requests are not cancelled; their results are ignored.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/synthroute/pkg/elements"
	"github.com/matzehuels/synthroute/pkg/enrich"
	"github.com/matzehuels/synthroute/pkg/normalize"
	"github.com/matzehuels/synthroute/pkg/observability"
	"github.com/matzehuels/synthroute/pkg/route"
	"github.com/matzehuels/synthroute/pkg/transform"
)

var (
	// ErrStale is returned by Enrich when a later run superseded the batch.
	ErrStale = errors.New("stale enrichment result discarded")

	// ErrNoDocument is returned by operations that need a loaded document.
	ErrNoDocument = errors.New("no document loaded")
)

// ReactionLookup fetches the knowledge-base record of a reaction.
type ReactionLookup interface {
	Reaction(ctx context.Context, rxid string) (*normalize.ReactionRecord, error)
}

// Session is the state of one route view. The zero value is not usable;
// create sessions with New.
type Session struct {
	enricher *enrich.Enricher
	logger   *log.Logger

	gen atomic.Uint64

	mu          sync.Mutex
	doc         *route.Document
	index       int
	enrichOpts  enrich.Options
	transform   transform.Options
	mapped      []elements.Element
	enriched    []elements.Element
	failures    []enrich.Failure
	depictions  map[string]elements.Element
	sources     map[string]*normalize.ReactionRecord
	roomID      string
	selection   string
	preview     string
	lastEnrich  uint64
	enrichCount int
	loads       uint64
}

// New creates an empty session. A nil enricher disables enrichment; a nil
// logger discards log output.
func New(enricher *enrich.Enricher, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Session{
		enricher:   enricher,
		logger:     logger,
		index:      route.WholeGraph,
		enrichOpts: enrich.DefaultOptions(),
		transform:  transform.DefaultOptions(),
		depictions: make(map[string]elements.Element),
		sources:    make(map[string]*normalize.ReactionRecord),
	}
}

// Generation returns the current generation.
func (s *Session) Generation() uint64 { return s.gen.Load() }

// =============================================================================
// Mutation entry points
// =============================================================================

// Load replaces the document and shows its whole graph. The selection,
// preview, depiction cache and reaction sources are reset.
func (s *Session) Load(doc *route.Document) error {
	if doc == nil {
		return ErrNoDocument
	}
	if err := doc.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen.Add(1)

	s.loads++
	s.doc = doc.Clone()
	s.index = route.WholeGraph
	s.selection = ""
	s.preview = ""
	s.depictions = make(map[string]elements.Element)
	s.sources = make(map[string]*normalize.ReactionRecord)
	s.failures = nil
	return s.remapLocked()
}

// Select shows the route at index, or the whole graph for
// [route.WholeGraph].
func (s *Session) Select(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return ErrNoDocument
	}

	prev := s.index
	s.index = index
	if err := s.remapLocked(); err != nil {
		s.index = prev
		return err
	}
	s.gen.Add(1)
	s.selection = ""
	s.preview = ""
	return nil
}

// SetEnrichOptions replaces the enrichment options. Cached depictions were
// drawn with the old options and are dropped from the cache and from the
// mapped elements.
func (s *Session) SetEnrichOptions(opts enrich.Options) error {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen.Add(1)

	s.enrichOpts = opts
	s.depictions = make(map[string]elements.Element)
	s.enriched = nil
	s.failures = nil
	if s.doc == nil {
		return nil
	}
	// mapped elements carry depictions from the cache; map them again clean
	return s.remapLocked()
}

// SetTransform replaces the transform options. Transforms are applied when
// elements are read, so no enrichment is needed.
func (s *Session) SetTransform(opts transform.Options) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transform = opts
}

// SetRoomID records the room the session is attached to.
func (s *Session) SetRoomID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roomID = id
}

// =============================================================================
// Enrichment
// =============================================================================

// Enrich enriches the mapped elements of the current selection and commits
// the result unless a later run started in the meantime, in which case it
// returns the batch result together with ErrStale.
func (s *Session) Enrich(ctx context.Context) (*enrich.Result, error) {
	s.mu.Lock()
	if s.doc == nil {
		s.mu.Unlock()
		return nil, ErrNoDocument
	}
	gen := s.gen.Add(1)
	input := elements.CloneAll(s.mapped)
	opts := s.enrichOpts
	s.mu.Unlock()

	if s.enricher == nil {
		return &enrich.Result{Elements: input, Depictions: map[string]string{}}, s.commit(ctx, gen, input, nil)
	}

	res, err := s.enricher.Enrich(ctx, input, opts)
	if err != nil {
		return nil, err
	}
	return res, s.commit(ctx, gen, res.Elements, res.Failures)
}

func (s *Session) commit(ctx context.Context, gen uint64, elems []elements.Element, failures []enrich.Failure) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur := s.gen.Load(); cur != gen {
		s.logger.Debug("discarding stale enrichment", "generation", gen, "current", cur)
		observability.Pipeline().OnEnrichStale(ctx, gen, cur)
		return ErrStale
	}
	s.enriched = elems
	s.failures = failures
	for _, el := range elems {
		if el.IsNode() && el.String(elements.KeySVG) != "" {
			s.depictions[el.ID()] = el.Clone()
		}
	}
	s.lastEnrich = gen
	s.enrichCount++
	return nil
}

// =============================================================================
// Read access
// =============================================================================

// Elements returns the transform of the committed elements. Before the
// first committed enrichment these are the mapped elements with any cached
// depictions applied.
func (s *Session) Elements() transform.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked()
}

func (s *Session) applyLocked() transform.Result {
	src := s.enriched
	if src == nil {
		src = s.mapped
	}
	return transform.Apply(src, s.transform)
}

// Document returns a copy of the loaded document, or nil.
func (s *Session) Document() *route.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return nil
	}
	return s.doc.Clone()
}

// Index returns the selected route index.
func (s *Session) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// RoomID returns the room the session is attached to.
func (s *Session) RoomID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomID
}

// Failures returns the failures of the committed enrichment.
func (s *Session) Failures() []enrich.Failure {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]enrich.Failure(nil), s.failures...)
}

// Depiction returns the cached depiction for a node id.
func (s *Session) Depiction(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.depictions[id]
	if !ok {
		return "", false
	}
	return el.String(elements.KeySVG), true
}

// depictionKeys are copied from cached enriched nodes onto fresh mappings.
var depictionKeys = []string{
	elements.KeySVG, elements.KeyType, elements.KeyWidth, elements.KeyHeight,
	elements.KeyPBI, elements.KeyRBI, elements.KeyTBI,
}

// remapLocked maps the current selection and applies cached depictions.
func (s *Session) remapLocked() error {
	nodes, edges, err := route.Select(s.doc, s.index)
	if err != nil {
		return err
	}
	mapped := elements.FromRoute(nodes, edges)
	for _, el := range mapped {
		cached, ok := s.depictions[el.ID()]
		if !ok || !el.IsNode() {
			continue
		}
		for _, key := range depictionKeys {
			if v, ok := cached.Data[key]; ok {
				el.Set(key, v)
			}
		}
	}
	s.mapped = mapped
	s.enriched = nil
	s.failures = nil
	return nil
}

// =============================================================================
// Ephemeral UI state
// =============================================================================

// SetSelection records the selected entity id. It is view state only and
// never written back to elements.
func (s *Session) SetSelection(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = id
}

// Selection returns the selected entity id.
func (s *Session) Selection() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

// SetPreview records the entity under the pointer.
func (s *Session) SetPreview(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preview = id
}

// Preview returns the previewed entity id.
func (s *Session) Preview() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preview
}

// ReactionSource returns the knowledge-base record of a reaction, fetching
// it through lookup on first use. Records are kept until the next Load.
func (s *Session) ReactionSource(ctx context.Context, rxid string, lookup ReactionLookup) (*normalize.ReactionRecord, error) {
	s.mu.Lock()
	rec, ok := s.sources[rxid]
	loads := s.loads
	s.mu.Unlock()
	if ok {
		return rec, nil
	}

	rec, err := lookup.Reaction(ctx, rxid)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.loads == loads {
		s.sources[rxid] = rec
	}
	s.mu.Unlock()
	return rec, nil
}

package enrich

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/synthroute/pkg/elements"
	"github.com/matzehuels/synthroute/pkg/integrations/chemistry"
	"github.com/matzehuels/synthroute/pkg/observability"
	"github.com/matzehuels/synthroute/pkg/route"
)

// Service is the subset of the chemistry client used for enrichment.
type Service interface {
	ReactionSVG(ctx context.Context, rxsmiles string, opts chemistry.ReactionSVGOptions) (string, error)
	SubstanceSVG(ctx context.Context, smiles string, width, height int) (string, error)
	BalanceIndices(ctx context.Context, rxsmiles string) (chemistry.Balance, error)
	NormalizeRoles(ctx context.Context, rxsmiles string, enabled bool) (string, error)
}

// Chain steps named in failures.
const (
	StepSubstanceSVG = "substance_svg"
	StepReactionSVG  = "reaction_svg"
	StepBalance      = "balance"
	StepNormalize    = "normalize_roles"
)

// Failure is one service call that did not produce a value.
type Failure struct {
	ID   string
	Step string
	Err  error
}

func (f Failure) String() string {
	return fmt.Sprintf("%s %s: %v", f.ID, f.Step, f.Err)
}

// Result is the outcome of a batch.
type Result struct {
	// Elements are enriched copies of the input, in input order.
	Elements []elements.Element
	// Depictions maps element id to the svg data URL it ended up with.
	Depictions map[string]string
	Requests   int
	Failures   []Failure
	Duration   time.Duration
}

// Enricher runs enrichment batches against a [Service].
type Enricher struct {
	Service Service
	Logger  *log.Logger
}

// New creates an Enricher. A nil logger means the default logger.
func New(svc Service, logger *log.Logger) *Enricher {
	if logger == nil {
		logger = log.Default()
	}
	return &Enricher{Service: svc, Logger: logger}
}

// batch is the shared state of one Enrich call.
type batch struct {
	svc  Service
	opts Options
	log  *log.Logger

	mu         sync.Mutex
	requests   int
	failures   []Failure
	depictions map[string]string
}

func (b *batch) request() {
	b.mu.Lock()
	b.requests++
	b.mu.Unlock()
}

func (b *batch) fail(id, step string, err error) {
	b.log.Debug("enrichment step failed", "id", id, "step", step, "error", err)
	b.mu.Lock()
	b.failures = append(b.failures, Failure{ID: id, Step: step, Err: err})
	b.mu.Unlock()
}

// failDepiction records a failed depiction request unless el still holds a
// precomputed image to fall back to.
func (b *batch) failDepiction(el elements.Element, step string, err error) {
	if el.String(elements.KeySVG) != "" {
		b.log.Debug("depiction failed, keeping precomputed image", "id", el.ID(), "step", step, "error", err)
		return
	}
	b.fail(el.ID(), step, err)
}

func (b *batch) depicted(id, svg string) {
	b.mu.Lock()
	b.depictions[id] = svg
	b.mu.Unlock()
}

// Enrich returns enriched copies of elems. It fails only for invalid
// options; service failures are reported in the result.
func (e *Enricher) Enrich(ctx context.Context, elems []elements.Element, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	start := time.Now()
	observability.Pipeline().OnEnrichStart(ctx, len(elems))

	b := &batch{
		svc:        e.Service,
		opts:       opts,
		log:        e.Logger,
		depictions: make(map[string]string),
	}
	out := elements.CloneAll(elems)

	var g errgroup.Group
	g.SetLimit(opts.Concurrency)
	for i := range out {
		el := out[i]
		if !el.IsNode() {
			continue
		}
		g.Go(func() error {
			b.element(ctx, el)
			return nil
		})
	}
	_ = g.Wait()

	res := &Result{
		Elements:   out,
		Depictions: b.depictions,
		Requests:   b.requests,
		Failures:   b.failures,
		Duration:   time.Since(start),
	}
	observability.Pipeline().OnEnrichComplete(ctx, res.Requests, len(res.Failures), res.Duration)
	if len(res.Failures) > 0 {
		e.Logger.Warn("some depictions could not be fetched", "failed", len(res.Failures), "requests", res.Requests)
	}
	return res, nil
}

func (b *batch) element(ctx context.Context, el elements.Element) {
	precomputed := el.String(elements.KeySVG)
	if precomputed != "" {
		setDimensions(el, precomputed)
		b.depicted(el.ID(), precomputed)
		if b.opts.UsePrecomputed {
			return
		}
	}

	typ, _ := route.ParseNodeType(el.String(elements.KeyNodeType))
	switch {
	case typ == route.NodeSubstance && el.String(route.KeyCanonicalSmiles) != "":
		b.substance(ctx, el)
	case typ == route.NodeReaction && el.String(route.KeyRxSmiles) != "":
		b.reaction(ctx, el)
	}
}

func (b *batch) substance(ctx context.Context, el elements.Element) {
	target := route.Role(el.String(route.KeySRole)) == route.RoleTarget
	w, h := chemistry.SubstanceWidth, chemistry.SubstanceHeight
	if target {
		w, h = b.opts.TargetWidth, b.opts.TargetHeight
	}

	b.request()
	svg, err := b.svc.SubstanceSVG(ctx, el.String(route.KeyCanonicalSmiles), w, h)
	if err != nil {
		b.failDepiction(el, StepSubstanceSVG, err)
		return
	}
	b.attach(el, svg)
	if !target && !b.opts.ShowStructures {
		el.Set(elements.KeyType, "")
	}
}

func (b *batch) reaction(ctx context.Context, el elements.Element) {
	id := el.ID()
	original := el.String(route.KeyRxSmiles)
	mapped := chemistry.HasAtomMapping(original)

	working := original
	ok := true
	if mapped && b.opts.NormalizeRoles {
		b.request()
		normalized, err := b.svc.NormalizeRoles(ctx, original, true)
		if err != nil {
			b.fail(id, StepNormalize, err)
			ok = false
		} else {
			working = normalized
		}
	}

	// depiction and balance indices are independent
	var (
		svg            string
		svgErr, balErr error
		bal            chemistry.Balance
		g              errgroup.Group
	)
	b.request()
	g.Go(func() error {
		svg, svgErr = b.svc.ReactionSVG(ctx, working, chemistry.ReactionSVGOptions{
			Highlight:   b.opts.HighlightAtoms,
			ShowIndices: b.opts.ShowAtomIndices,
		})
		return nil
	})
	if mapped {
		b.request()
		g.Go(func() error {
			bal, balErr = b.svc.BalanceIndices(ctx, working)
			return nil
		})
	}
	_ = g.Wait()

	if svgErr != nil {
		b.failDepiction(el, StepReactionSVG, svgErr)
		ok = false
	} else {
		b.attach(el, svg)
	}
	if mapped {
		if balErr != nil {
			b.fail(id, StepBalance, balErr)
			ok = false
		} else {
			el.Set(elements.KeyPBI, bal.PBI)
			el.Set(elements.KeyRBI, bal.RBI)
			el.Set(elements.KeyTBI, bal.TBI)
		}
	}
	if ok && working != original {
		el.Set(route.KeyRxSmiles, working)
	}
}

// attach stores a fresh depiction on el.
func (b *batch) attach(el elements.Element, svg string) {
	url := svg
	if !strings.HasPrefix(url, "data:") {
		url = elements.SVGPrefix + svg
	}
	el.Set(elements.KeySVG, url)
	el.Set(elements.KeyType, elements.TypeCustom)
	setDimensions(el, url)
	b.depicted(el.ID(), url)
}

func setDimensions(el elements.Element, url string) {
	w, h := SVGDimensions(url)
	el.Set(elements.KeyWidth, w)
	el.Set(elements.KeyHeight, h)
}

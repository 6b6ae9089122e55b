package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/synthroute/pkg/cache"
	"github.com/matzehuels/synthroute/pkg/elements"
	"github.com/matzehuels/synthroute/pkg/enrich"
	"github.com/matzehuels/synthroute/pkg/normalize"
	"github.com/matzehuels/synthroute/pkg/observability"
	"github.com/matzehuels/synthroute/pkg/route"
	"github.com/matzehuels/synthroute/pkg/transform"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache, the chemistry service and
// the logger. Multiple goroutines can safely use the same Runner with
// different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Chem   enrich.Service
	Logger *log.Logger
}

// NewRunner creates a runner.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// If chem is nil, enrichment is skipped.
func NewRunner(c cache.Cache, keyer cache.Keyer, chem enrich.Service, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Chem:   chem,
		Logger: logger,
	}
}

// cachedElements is the cached form of the elements stages.
type cachedElements struct {
	Elements []elements.Element `json:"elements"`
	IsDAG    bool               `json:"is_dag"`
	Cycle    []string           `json:"cycle,omitempty"`
	Warnings []string           `json:"warnings,omitempty"`
}

// Execute runs the complete pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{Artifacts: make(map[string][]byte)}

	// Stage 1: Normalize
	normStart := time.Now()
	doc, report, err := r.Normalize(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Document = doc
	result.Report = report
	result.Stats.NormalizeTime = time.Since(normStart)
	result.Stats.NodeCount = doc.NodeCount()
	result.Stats.EdgeCount = doc.EdgeCount()
	if report != nil {
		result.Stats.Skipped = report.Skipped()
	}
	if data, err := json.Marshal(doc); err == nil {
		result.DocumentHash = cache.Hash(data)
	}

	r.Logger.Info("normalized document",
		"nodes", doc.NodeCount(),
		"edges", doc.EdgeCount(),
		"routes", len(doc.Routes),
		"duration", result.Stats.NormalizeTime)

	// Stages 2-5: Select, map, enrich, transform
	elemStart := time.Now()
	hit, err := r.buildElements(ctx, doc, result, opts)
	if err != nil {
		return nil, err
	}
	result.Stats.ElementsTime = time.Since(elemStart)
	result.CacheInfo.ElementsHit = hit

	nodes, edges := elements.Counts(result.Elements)
	r.Logger.Info("built elements",
		"nodes", nodes,
		"edges", edges,
		"dag", result.IsDAG,
		"cached", hit,
		"duration", result.Stats.ElementsTime)
	for _, w := range result.Warnings {
		r.Logger.Warn(w)
	}

	// Stage 6: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, result.Elements, doc, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Normalize returns the document of opts, decoding Input when no Document
// is given.
func (r *Runner) Normalize(ctx context.Context, opts Options) (*route.Document, *normalize.Report, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, nil, err
	}
	if opts.Document != nil {
		if err := opts.Document.Validate(); err != nil {
			return nil, nil, err
		}
		return opts.Document, nil, nil
	}

	start := time.Now()
	doc, report, err := normalize.Normalize(opts.Input, opts.format)
	format := string(opts.format)
	if report != nil {
		format = string(report.Format)
	}
	count := 0
	if doc != nil {
		count = doc.NodeCount()
	}
	observability.Pipeline().OnNormalize(ctx, format, count, time.Since(start), err)
	if err != nil {
		return nil, nil, err
	}
	if n := report.Skipped(); n > 0 {
		r.Logger.Warn("skipped malformed entries", "nodes", report.SkippedNodes, "edges", report.SkippedEdges, "routes", report.SkippedRoute)
	}
	return doc, report, nil
}

// buildElements runs select, map, enrich and transform, consulting the
// cache first. Batches with enrichment failures are not cached.
func (r *Runner) buildElements(ctx context.Context, doc *route.Document, result *Result, opts Options) (bool, error) {
	key := r.Keyer.ElementsKey(result.DocumentHash, r.elementsKeyOpts(opts))
	if !opts.Refresh && result.DocumentHash != "" {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var cached cachedElements
			if err := json.Unmarshal(data, &cached); err == nil {
				result.Elements = cached.Elements
				result.IsDAG = cached.IsDAG
				result.Cycle = cached.Cycle
				result.Warnings = cached.Warnings
				return true, nil
			}
		}
	}

	nodes, edges, err := route.Select(doc, opts.index)
	if err != nil {
		return false, err
	}
	elems := elements.FromRoute(nodes, edges)

	if !opts.SkipEnrich && r.Chem != nil {
		res, err := enrich.New(r.Chem, r.Logger).Enrich(ctx, elems, opts.Enrich)
		if err != nil {
			return false, err
		}
		elems = res.Elements
		result.Failures = res.Failures
		result.Stats.Requests = res.Requests
	}

	start := time.Now()
	tr := transform.Apply(elems, opts.Transform)
	observability.Pipeline().OnTransform(ctx, len(tr.Elements), tr.IsDAG, time.Since(start))

	result.Elements = tr.Elements
	result.IsDAG = tr.IsDAG
	result.Cycle = tr.Cycle
	result.Warnings = tr.Warnings

	if len(result.Failures) == 0 && result.DocumentHash != "" {
		data, err := json.Marshal(cachedElements{
			Elements: tr.Elements,
			IsDAG:    tr.IsDAG,
			Cycle:    tr.Cycle,
			Warnings: tr.Warnings,
		})
		if err == nil {
			_ = r.Cache.Set(ctx, key, data, cache.TTLElements)
		}
	}
	return false, nil
}

// elementsKeyOpts is opts.ElementsKeyOpts for this runner's service.
func (r *Runner) elementsKeyOpts(opts Options) cache.ElementsKeyOpts {
	k := opts.ElementsKeyOpts()
	k.Enrich = k.Enrich && r.Chem != nil
	if !k.Enrich {
		return k
	}
	if svc, ok := r.Chem.(interface{ BaseURL() string }); ok {
		k.Service = svc.BaseURL()
	}
	return k
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, elems []elements.Element, doc *route.Document, opts Options) (map[string][]byte, bool, error) {
	data, err := json.Marshal(elems)
	if err != nil {
		return nil, false, fmt.Errorf("serialize elements for cache key: %w", err)
	}
	hash := cache.Hash(data)

	// Try to get all formats from cache
	allCached := true
	artifacts := make(map[string][]byte)
	for _, format := range opts.Formats {
		key := r.Keyer.RenderKey(hash, opts.RenderKeyOpts(format))
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit && !opts.Refresh {
			artifacts[format] = data
		} else {
			allCached = false
			break
		}
	}
	if allCached && len(artifacts) == len(opts.Formats) {
		return artifacts, true, nil
	}

	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	rendered, err := Render(ctx, elems, doc, opts)
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		key := r.Keyer.RenderKey(hash, opts.RenderKeyOpts(format))
		_ = r.Cache.Set(ctx, key, data, cache.TTLRender)
	}
	return rendered, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

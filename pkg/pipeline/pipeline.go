// Package pipeline runs the synthesis-route pipeline end to end.
//
// This package implements the normalize → select → map → enrich →
// transform → render pipeline shared by the CLI and the HTTP API. By
// centralizing this logic, both entry points produce identical elements
// for the same input and options.
//
// # Stages
//
//  1. Normalize: decode any accepted input shape into a canonical document
//  2. Select: keep the nodes and edges of one route (or the whole graph)
//  3. Map: convert to flat renderer elements
//  4. Enrich: fetch depictions and balance indices from the chemistry service
//  5. Transform: drop reagents, duplicate starting materials, check for cycles
//  6. Render: export elements as JSON, DOT, SVG, PNG or PDF
//
// Stages 2 to 5 are cached together under the document hash and the
// options that affect them; stage 6 is cached per format.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, chem, logger)
//	opts := pipeline.DefaultOptions()
//	opts.Input = raw
//	opts.Subgraph = "0"
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	elements := result.Artifacts["json"]
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/synthroute/pkg/cache"
	"github.com/matzehuels/synthroute/pkg/elements"
	"github.com/matzehuels/synthroute/pkg/enrich"
	"github.com/matzehuels/synthroute/pkg/errors"
	"github.com/matzehuels/synthroute/pkg/normalize"
	"github.com/matzehuels/synthroute/pkg/render/nodelink"
	"github.com/matzehuels/synthroute/pkg/route"
	"github.com/matzehuels/synthroute/pkg/transform"
)

// Format constants for output formats.
const (
	FormatJSON     = "json"
	FormatDocument = "document"
	FormatDOT      = "dot"
	FormatSVG      = "svg"
	FormatPNG      = "png"
	FormatPDF      = "pdf"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON:     true,
	FormatDocument: true,
	FormatDOT:      true,
	FormatSVG:      true,
	FormatPNG:      true,
	FormatPDF:      true,
}

// PNGScale is the scale factor of PNG exports.
const PNGScale = 2.0

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one pipeline run.
type Options struct {
	// Input is a raw JSON document. Ignored when Document is set.
	Input []byte `json:"-"`
	// Document is an already normalized document.
	Document *route.Document `json:"-"`

	SourceFormat string `json:"format,omitempty"`
	Subgraph     string `json:"subgraph,omitempty"`
	SkipEnrich   bool   `json:"skip_enrich,omitempty"`
	Refresh      bool   `json:"refresh,omitempty"`

	Enrich    enrich.Options    `json:"-"`
	Transform transform.Options `json:"-"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	RankDir  string   `json:"rankdir,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`

	Logger *log.Logger `json:"-"`

	format    normalize.Format
	index     int
	validated bool
}

// DefaultOptions returns options with enrichment and transform defaults
// applied and JSON output selected.
func DefaultOptions() Options {
	return Options{
		Enrich:    enrich.DefaultOptions(),
		Transform: transform.DefaultOptions(),
		Formats:   []string{FormatJSON},
	}
}

// Result contains the outputs of a pipeline run.
type Result struct {
	Document     *route.Document
	DocumentHash string
	Report       *normalize.Report

	// Elements are the transformed elements.
	Elements []elements.Element
	IsDAG    bool
	Cycle    []string
	Warnings []string
	Failures []enrich.Failure

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount     int
	EdgeCount     int
	Skipped       int
	Requests      int
	NormalizeTime time.Duration
	ElementsTime  time.Duration
	RenderTime    time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	ElementsHit bool // Whether the transformed elements came from cache
	RenderHit   bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid format: %q (must be one of: json, document, dot, svg, png, pdf)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateRankDir checks a Graphviz rank direction.
func ValidateRankDir(dir string) error {
	switch dir {
	case "TB", "BT", "LR", "RL":
		return nil
	}
	return errors.New(errors.ErrCodeInvalidInput, "invalid rankdir: %q (must be one of: TB, BT, LR, RL)", dir)
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Document == nil && len(o.Input) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "input document is required")
	}

	format, err := normalize.ParseFormat(o.SourceFormat)
	if err != nil {
		return err
	}
	o.format = format

	index, err := route.ParseSelectKey(o.Subgraph)
	if err != nil {
		return err
	}
	o.index = index

	if err := o.Enrich.ValidateAndSetDefaults(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid enrichment options")
	}
	if o.Transform.Layout == "" {
		o.Transform.Layout = transform.LayoutHierarchical
	}

	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.RankDir == "" {
		o.RankDir = nodelink.DefaultRankDir
	}
	if err := ValidateRankDir(o.RankDir); err != nil {
		return err
	}

	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// Index returns the parsed route index. Valid after ValidateAndSetDefaults.
func (o *Options) Index() int { return o.index }

// ElementsKeyOpts returns cache key options for the elements stages.
// Enrich reflects SkipEnrich only; the runner clears it when it has no
// service and fills in the service identity.
func (o *Options) ElementsKeyOpts() cache.ElementsKeyOpts {
	return cache.ElementsKeyOpts{
		Route:                      o.index,
		Enrich:                     !o.SkipEnrich,
		HighlightAtoms:             o.Enrich.HighlightAtoms,
		ShowAtomIndices:            o.Enrich.ShowAtomIndices,
		NormalizeRoles:             o.Enrich.NormalizeRoles,
		UsePrecomputed:             o.Enrich.UsePrecomputed,
		ShowStructures:             o.Enrich.ShowStructures,
		TargetWidth:                o.Enrich.TargetWidth,
		TargetHeight:               o.Enrich.TargetHeight,
		ShowReagents:               o.Transform.ShowReagents,
		DuplicateStartingMaterials: o.Transform.DuplicateStartingMaterials,
		Layout:                     string(o.Transform.Layout),
	}
}

// RenderKeyOpts returns cache key options for one export format.
func (o *Options) RenderKeyOpts(format string) cache.RenderKeyOpts {
	rankdir := o.RankDir
	if o.Detailed {
		rankdir += "+detailed"
	}
	return cache.RenderKeyOpts{Format: format, RankDir: rankdir}
}

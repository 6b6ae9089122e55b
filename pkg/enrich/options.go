package enrich

import (
	"fmt"

	"github.com/matzehuels/synthroute/pkg/integrations/chemistry"
)

// DefaultConcurrency bounds the number of chains in flight.
const DefaultConcurrency = 8

// Options controls enrichment.
type Options struct {
	HighlightAtoms  bool
	ShowAtomIndices bool
	NormalizeRoles  bool
	UsePrecomputed  bool
	ShowStructures  bool

	Concurrency  int
	TargetWidth  int
	TargetHeight int

	validated bool
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	opts := Options{HighlightAtoms: true}
	_ = opts.ValidateAndSetDefaults()
	return opts
}

// ValidateAndSetDefaults fills zero values and rejects negative ones.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Concurrency < 0 {
		return fmt.Errorf("concurrency must be positive, got %d", o.Concurrency)
	}
	if o.TargetWidth < 0 || o.TargetHeight < 0 {
		return fmt.Errorf("target size must be positive, got %dx%d", o.TargetWidth, o.TargetHeight)
	}
	if o.Concurrency == 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.TargetWidth == 0 {
		o.TargetWidth = chemistry.TargetWidth
	}
	if o.TargetHeight == 0 {
		o.TargetHeight = chemistry.TargetHeight
	}
	o.validated = true
	return nil
}

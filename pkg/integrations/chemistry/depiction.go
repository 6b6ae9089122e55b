package chemistry

import (
	"context"
	"net/url"
	"strconv"

	"github.com/matzehuels/synthroute/pkg/cache"
)

// Default depiction canvases.
const (
	ReactionWidth   = 1800
	ReactionHeight  = 600
	SubstanceWidth  = 300
	SubstanceHeight = 300
	TargetWidth     = 600
	TargetHeight    = 600
)

// ReactionSVGOptions controls a reaction depiction.
type ReactionSVGOptions struct {
	Highlight   bool
	ShowIndices bool
	Width       int
	Height      int
	Refresh     bool
}

type svgResponse struct {
	SVGBase64 string `json:"svg_base64"`
}

// ReactionSVG returns the base64 SVG depiction of rxsmiles.
func (c *Client) ReactionSVG(ctx context.Context, rxsmiles string, opts ReactionSVGOptions) (string, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = ReactionWidth, ReactionHeight
	}
	key := c.keyer.DepictionKey(cache.DepictionKeyOpts{
		Kind:        "reaction",
		Smiles:      rxsmiles,
		Width:       opts.Width,
		Height:      opts.Height,
		Highlight:   opts.Highlight,
		ShowIndices: opts.ShowIndices,
	})
	q := url.Values{
		"rxsmiles":          {rxsmiles},
		"highlight":         {strconv.FormatBool(opts.Highlight)},
		"show_atom_indices": {strconv.FormatBool(opts.ShowIndices)},
		"img_width":         {strconv.Itoa(opts.Width)},
		"img_height":        {strconv.Itoa(opts.Height)},
		"base64_encode":     {"true"},
	}
	return c.depiction(ctx, key, c.url("rxsmiles2svg", q), opts.Refresh)
}

// SubstanceSVG returns the base64 SVG depiction of a molecule. Non-positive
// sizes select the default substance canvas.
func (c *Client) SubstanceSVG(ctx context.Context, smiles string, width, height int) (string, error) {
	if width <= 0 || height <= 0 {
		width, height = SubstanceWidth, SubstanceHeight
	}
	key := c.keyer.DepictionKey(cache.DepictionKeyOpts{
		Kind:   "substance",
		Smiles: smiles,
		Width:  width,
		Height: height,
	})
	q := url.Values{
		"mol_smiles":    {smiles},
		"img_width":     {strconv.Itoa(width)},
		"img_height":    {strconv.Itoa(height)},
		"base64_encode": {"true"},
	}
	return c.depiction(ctx, key, c.url("molsmiles2svg", q), false)
}

func (c *Client) depiction(ctx context.Context, key, u string, refresh bool) (string, error) {
	var resp svgResponse
	err := c.Cached(ctx, key, refresh, &resp, func() error {
		if err := c.Get(ctx, u, &resp); err != nil {
			return err
		}
		if resp.SVGBase64 == "" {
			return ErrEmptyDepiction
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return resp.SVGBase64, nil
}

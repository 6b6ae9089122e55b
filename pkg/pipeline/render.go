package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/matzehuels/synthroute/pkg/elements"
	"github.com/matzehuels/synthroute/pkg/io"
	"github.com/matzehuels/synthroute/pkg/render/nodelink"
	"github.com/matzehuels/synthroute/pkg/route"
)

// Render generates output artifacts in the requested formats.
func Render(ctx context.Context, elems []elements.Element, doc *route.Document, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))

	var dot string
	needDOT := func() string {
		if dot == "" {
			dot = nodelink.ToDOT(elems, nodelink.Options{RankDir: opts.RankDir, Detailed: opts.Detailed})
		}
		return dot
	}

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatJSON:
			var buf bytes.Buffer
			err = io.WriteElements(&buf, elems)
			data = buf.Bytes()
		case FormatDocument:
			data, err = renderDocument(elems, doc)
		case FormatDOT:
			data = []byte(needDOT())
		case FormatSVG:
			data, err = nodelink.RenderSVG(ctx, needDOT())
		case FormatPNG:
			data, err = nodelink.RenderPNG(ctx, needDOT(), PNGScale)
		case FormatPDF:
			data, err = nodelink.RenderPDF(ctx, needDOT())
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

// renderDocument exports the shown elements as a canonical document with
// depictions as base64svg. Availability of the shown substances is carried
// over from doc.
func renderDocument(elems []elements.Element, doc *route.Document) ([]byte, error) {
	out, skipped := elements.ToDocument(elems)
	if skipped > 0 {
		return nil, fmt.Errorf("%d elements could not be converted", skipped)
	}
	if doc != nil && doc.Availability != nil {
		out.Availability = make(map[string]route.Availability)
		for _, n := range out.Nodes {
			key := n.Inchikey
			if key == "" {
				key = n.Label
			}
			if a, ok := doc.Availability[key]; ok {
				out.Availability[key] = a
			}
		}
	}
	return json.MarshalIndent(out, "", "  ")
}

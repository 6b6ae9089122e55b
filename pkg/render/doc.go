// Package render exports route graphs as static images.
//
// The [nodelink] subpackage builds Graphviz DOT from renderer elements and
// renders it to SVG in-process. [ToPDF] and [ToPNG] convert any SVG to
// other formats using the external rsvg-convert tool (from librsvg).
//
//	dot := nodelink.ToDOT(elems, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	png, err := render.ToPNG(ctx, svg, 2.0)
//
// [nodelink]: github.com/matzehuels/synthroute/pkg/render/nodelink
package render

package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/synthroute/pkg/elements"
	"github.com/matzehuels/synthroute/pkg/render"
	"github.com/matzehuels/synthroute/pkg/route"
)

// DefaultRankDir puts starting materials at the bottom.
const DefaultRankDir = "BT"

// Options configures node-link diagram rendering.
type Options struct {
	// RankDir is the Graphviz rank direction (TB, BT, LR, RL).
	RankDir string

	// Detailed includes SMILES and flattened attributes in node labels.
	// When false, only the node id is shown.
	Detailed bool
}

var roleFill = map[route.Role]string{
	route.RoleStarting:     "#f2c14e",
	route.RoleIntermediate: "#d9d9d9",
	route.RoleTarget:       "#7fb3e6",
}

var edgeColor = map[route.EdgeType]string{
	route.EdgeProductOf:  "#f28c28",
	route.EdgeReactantOf: "#1f4e79",
	route.EdgeReagentOf:  "#7f7f7f",
}

// labelSkip are data keys never shown in detailed labels.
var labelSkip = map[string]bool{
	elements.KeyID: true, elements.KeySVG: true, elements.KeyType: true,
	elements.KeyWidth: true, elements.KeyHeight: true, elements.KeyNodeType: true,
	route.KeyNodeLabel: true, route.KeyBase64SVG: true, route.KeyUUID: true,
}

// ToDOT converts renderer elements to Graphviz DOT. Edges whose endpoints
// are not among the node elements are dropped.
func ToDOT(elems []elements.Element, opts Options) string {
	rankdir := opts.RankDir
	if rankdir == "" {
		rankdir = DefaultRankDir
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [arrowhead=vee];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	nodes, edges := elements.Split(elems)
	ids := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		ids[n.ID()] = true
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID(), strings.Join(fmtAttrs(n, fmtLabel(n, opts.Detailed)), ", "))
	}

	buf.WriteString("\n")
	for _, e := range edges {
		if !ids[e.Source()] || !ids[e.Target()] {
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.Source(), e.Target(), strings.Join(fmtEdgeAttrs(e), ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n elements.Element, detailed bool) string {
	if !detailed {
		return n.ID()
	}
	parts := []string{n.ID()}
	for _, k := range slices.Sorted(maps.Keys(n.Data)) {
		if labelSkip[k] {
			continue
		}
		v := n.String(k)
		if v == "" {
			continue
		}
		if len(v) > 40 {
			v = v[:37] + "..."
		}
		parts = append(parts, fmt.Sprintf("%s: %s", k, v))
	}
	return strings.Join(parts, "\n")
}

func fmtAttrs(n elements.Element, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	style := "rounded,filled"

	typ, _ := route.ParseNodeType(n.String(elements.KeyNodeType))
	switch typ {
	case route.NodeReaction:
		attrs = append(attrs, "shape=ellipse", `fillcolor="#f4b6c2"`)
		style = "filled"
		if n.String(elements.KeyIsValid) == "false" {
			attrs = append(attrs, `color="#c00000"`)
		}
	case route.NodeSubstance:
		if fill, ok := roleFill[route.Role(n.String(route.KeySRole))]; ok {
			attrs = append(attrs, fmt.Sprintf("fillcolor=%q", fill))
		}
		if route.Role(n.String(route.KeySRole)) == route.RoleTarget {
			attrs = append(attrs, "penwidth=2")
		}
	}
	if n.String("is_predicted") == "true" {
		style += ",dashed"
	}
	return append(attrs, fmt.Sprintf("style=%q", style))
}

func fmtEdgeAttrs(e elements.Element) []string {
	var attrs []string
	typ, _ := route.ParseEdgeType(e.String(route.KeyEdgeType))
	if c, ok := edgeColor[typ]; ok {
		attrs = append(attrs, fmt.Sprintf("color=%q", c))
	}
	if typ == route.EdgeProductOf {
		attrs = append(attrs, "penwidth=3")
	}
	if typ == route.EdgeReagentOf || e.String("is_predicted") == "true" {
		attrs = append(attrs, "style=dashed")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG in-process. The result can be
// converted further with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	data, err := renderGraphviz(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(data), nil
}

func renderGraphviz(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion at scale. Without
// rsvg-convert Graphviz rasterizes the graph itself, at its native size.
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	if !render.Available() {
		return renderGraphviz(ctx, dot, graphviz.PNG)
	}
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}

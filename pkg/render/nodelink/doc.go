// Package nodelink renders route graphs as node-link diagrams with Graphviz.
//
// # Usage
//
// Convert renderer elements to DOT, then render to SVG:
//
//	dot := nodelink.ToDOT(result.Elements, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// Substances are drawn as boxes filled by role (starting material,
// intermediate, target) and reactions as ellipses. Edge color follows the
// edge type. Predicted nodes and edges are dashed.
//
// The default rank direction is bottom-to-top, so starting materials sit
// at the bottom and the target at the top, like a retrosynthesis tree read
// forward.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package nodelink

// Package normalize converts synthesis-route documents from every supported
// input shape into a canonical [route.Document].
//
// # Formats
//
// Three shapes are recognized:
//
//   - [FormatCanonical]: a graph under synth_graph, evidence_synth_graph,
//     predictive_synth_graph or at the top level, with routes under
//     routes.subgraphs or a flat routes list
//   - [FormatCytoscape]: renderer elements wrapped as
//     elements.nodes[].data and elements.edges[].data
//   - [FormatPredicted]: tree-search output with result.graph.nodes,
//     result.graph.links and result.paths
//
// [FormatAuto] resolves the shape once with [Detect]; nothing past
// [Normalize] branches on input shape again.
//
// # Best effort
//
// Nodes or edges that lack a required discriminator are skipped rather than
// failing the whole document. The number of skipped entities is reported in
// [Report]. Malformed JSON and dangling edge endpoints are errors.
package normalize

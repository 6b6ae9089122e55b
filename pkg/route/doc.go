// Package route defines the canonical synthesis-route document and the
// operations that work directly on it.
//
// A [Document] holds substance and reaction [Node] values, the directed
// [Edge] values between them, any number of alternative routes
// ([Selection]) and per-substance availability facts. Documents are produced
// by the normalize package from one of several input shapes; everything
// downstream only ever sees this one shape.
//
// # Routes
//
// [Select] extracts the nodes and edges belonging to one route. A node is
// kept when its label is listed in the route; an edge is kept only when both
// of its endpoints are. Index -1 selects the whole graph.
//
// # Roles
//
// Substance roles (starting material, intermediate, target) are inferred
// from node degrees over the complete edge set by [InferRoles]. The result
// depends only on the edges, so running it twice yields the same roles.
package route

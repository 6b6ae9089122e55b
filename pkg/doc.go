// Package pkg provides the core libraries of Synthroute, a pipeline that
// turns chemical synthesis-route documents into renderer-ready graphs.
//
// # Overview
//
// A synthesis graph links substances to the reactions that consume and
// produce them. Documents arrive in several shapes (the canonical
// knowledge-base export, saved renderer elements, predicted routes). The
// packages below normalize them, select a route, map it to renderer
// elements, enrich those with molecule and reaction depictions from the
// chemistry service and apply display transforms.
//
// # Architecture
//
//	raw JSON document
//	         ↓
//	    [normalize] (detect format, canonical document)
//	         ↓
//	    [route] (select a route or keep the whole graph)
//	         ↓
//	    [elements] (renderer nodes and edges)
//	         ↓
//	    [enrich] (depictions from [integrations/chemistry])
//	         ↓
//	    [transform] (reagents, starting-material copies, cycle check)
//	         ↓
//	JSON elements, DOT, SVG, PNG or PDF
//
// # Main Packages
//
// ## Domain
//
// [route] - The canonical document: nodes, edges, routes and availability.
//
// [normalize] - Format detection and conversion into a [route.Document].
//
// [elements] - Renderer elements and the document mapper.
//
// [enrich] - Concurrent depiction enrichment with per-element failures.
//
// [transform] - Reagent removal, starting-material duplication, DAG check.
//
// [session] - Interactive state with last-invocation-wins enrichment.
//
// ## Infrastructure
//
// [pipeline] - The full run (normalize → select → map → enrich → transform →
// render) shared by the CLI and the HTTP server, with result caching.
//
// [cache] - File, Redis and null caches for responses, depictions and
// elements.
//
// [store] - File, MongoDB and null stores for live room documents.
//
// [live] - Websocket hub and client for pushing documents to rooms.
//
// [server] - HTTP API over the pipeline, the store and the hub.
//
// [config] - Layered configuration (TOML file, .env, environment).
//
// [integrations] - Rate-limited, retrying, caching HTTP client, with the
// chemistry service client in [integrations/chemistry].
//
// [render/nodelink] - Graphviz DOT and in-process SVG rendering.
//
// [io] - Document import and element export.
//
// # Testing
//
//	go test ./...
//	SYNTHROUTE_TEST_REDIS=localhost:6379 go test ./pkg/cache
//	SYNTHROUTE_TEST_MONGO=mongodb://localhost go test ./pkg/store
//
// [route]: https://pkg.go.dev/github.com/matzehuels/synthroute/pkg/route
// [normalize]: https://pkg.go.dev/github.com/matzehuels/synthroute/pkg/normalize
// [elements]: https://pkg.go.dev/github.com/matzehuels/synthroute/pkg/elements
// [enrich]: https://pkg.go.dev/github.com/matzehuels/synthroute/pkg/enrich
// [transform]: https://pkg.go.dev/github.com/matzehuels/synthroute/pkg/transform
// [session]: https://pkg.go.dev/github.com/matzehuels/synthroute/pkg/session
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/synthroute/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/synthroute/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/synthroute/pkg/store
// [live]: https://pkg.go.dev/github.com/matzehuels/synthroute/pkg/live
// [server]: https://pkg.go.dev/github.com/matzehuels/synthroute/pkg/server
// [config]: https://pkg.go.dev/github.com/matzehuels/synthroute/pkg/config
// [integrations]: https://pkg.go.dev/github.com/matzehuels/synthroute/pkg/integrations
// [integrations/chemistry]: https://pkg.go.dev/github.com/matzehuels/synthroute/pkg/integrations/chemistry
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/synthroute/pkg/render/nodelink
// [io]: https://pkg.go.dev/github.com/matzehuels/synthroute/pkg/io
package pkg

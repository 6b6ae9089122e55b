// Package server exposes the pipeline and the live channel over HTTP.
//
// The router serves three groups of endpoints:
//
//   - GET / and GET /status for liveness checks
//   - POST /api/v1/elements, which runs a raw document through the pipeline
//     and answers with renderer elements
//   - the room endpoints: POST /upload_json_body and /upload_json_file store
//     a document for a room and push it to the room's subscribers, GET
//     /rooms/{room_id} returns the stored document, and GET /ws is the
//     websocket hub
//
// Errors are reported as {"detail": "..."} with a 4xx status for input
// errors and 5xx otherwise.
package server

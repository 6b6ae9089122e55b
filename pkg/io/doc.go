// Package io reads route documents from files and writes documents and
// renderer elements back out.
//
// # Import
//
// Use [ReadDocument] to read a document from a file path, or
// [DecodeDocument] to read from any io.Reader. Both run the normalizer, so
// every accepted input shape (canonical, cytoscape, predicted) yields the
// same canonical document:
//
//	doc, report, err := io.ReadDocument("route.json", normalize.FormatAuto)
//
// # Export
//
// [WriteElements] writes renderer elements in the cytoscape shape:
//
//	{
//	  "elements": {
//	    "nodes": [{"data": {"id": "R1", "nodeType": "reaction", ...}}],
//	    "edges": [{"data": {"id": "e1", "source": "A", "target": "R1", ...}}]
//	  }
//	}
//
// [WriteDocument] writes the canonical document shape, which reads back
// through [ReadDocument] unchanged.
package io

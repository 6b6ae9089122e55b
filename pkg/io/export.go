package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/synthroute/pkg/elements"
	"github.com/matzehuels/synthroute/pkg/route"
)

// Entry is one cytoscape element.
type Entry struct {
	Data map[string]any `json:"data"`
}

// Groups holds node and edge entries.
type Groups struct {
	Nodes []Entry `json:"nodes"`
	Edges []Entry `json:"edges"`
}

// Graph is the cytoscape document shape
// {"elements": {"nodes": [{"data": ...}], "edges": [...]}}.
type Graph struct {
	Elements Groups `json:"elements"`
}

// Cytoscape groups elems into the cytoscape shape. Nodes keep their
// relative order, as do edges. Empty groups encode as [].
func Cytoscape(elems []elements.Element) Graph {
	out := Graph{Elements: Groups{Nodes: []Entry{}, Edges: []Entry{}}}
	for _, el := range elems {
		if el.IsEdge() {
			out.Elements.Edges = append(out.Elements.Edges, Entry{Data: el.Data})
		} else {
			out.Elements.Nodes = append(out.Elements.Nodes, Entry{Data: el.Data})
		}
	}
	return out
}

// WriteElements encodes elements in the cytoscape shape.
func WriteElements(w io.Writer, elems []elements.Element) error {
	return encode(w, Cytoscape(elems))
}

// WriteDocument encodes a document in the canonical shape.
func WriteDocument(w io.Writer, doc *route.Document) error {
	return encode(w, doc)
}

// ExportElements writes elements to a JSON file at path.
func ExportElements(path string, elems []elements.Element) error {
	return exportFile(path, func(w io.Writer) error { return WriteElements(w, elems) })
}

// ExportDocument writes a document to a JSON file at path.
func ExportDocument(path string, doc *route.Document) error {
	return exportFile(path, func(w io.Writer) error { return WriteDocument(w, doc) })
}

// ExportJSON writes v as indented JSON to a file at path.
func ExportJSON(path string, v any) error {
	return exportFile(path, func(w io.Writer) error { return encode(w, v) })
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func exportFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

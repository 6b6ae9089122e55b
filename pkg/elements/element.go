// Package elements maps route nodes and edges to flat, renderer-ready
// elements.
//
// An [Element] is a group tag plus a single-level data map. Node elements
// carry id, nodeType, type and (when a depiction exists) svg; edge elements
// carry id, source and target. Every other attribute of the originating node
// or edge is flattened into the same map with scalar values stringified, so
// renderer selectors can match on them.
package elements

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Group distinguishes node elements from edge elements.
type Group string

const (
	GroupNodes Group = "nodes"
	GroupEdges Group = "edges"
)

// Data keys set by the mapper and by later pipeline stages.
const (
	KeyID       = "id"
	KeySource   = "source"
	KeyTarget   = "target"
	KeyNodeType = "nodeType"
	KeyType     = "type"
	KeySVG      = "svg"
	KeyWidth    = "width"
	KeyHeight   = "height"
	KeyIsValid  = "is_valid"

	KeyPBI = "pbi"
	KeyRBI = "rbi"
	KeyTBI = "tbi"
)

// TypeCustom marks a node whose depiction is drawn as its background.
const TypeCustom = "custom"

// SVGPrefix is the data-URI prefix of base64 SVG depictions.
const SVGPrefix = "data:image/svg+xml;base64,"

// Element is a renderer element.
type Element struct {
	Group Group          `json:"group"`
	Data  map[string]any `json:"data"`
}

// IsNode reports whether e is a node element.
func (e Element) IsNode() bool { return e.Group == GroupNodes }

// IsEdge reports whether e is an edge element.
func (e Element) IsEdge() bool { return e.Group == GroupEdges }

// ID returns the element id.
func (e Element) ID() string { return e.String(KeyID) }

// Source returns the source node id of an edge element.
func (e Element) Source() string { return e.String(KeySource) }

// Target returns the target node id of an edge element.
func (e Element) Target() string { return e.String(KeyTarget) }

// String returns the data value for key as a string, or "" if unset.
func (e Element) String(key string) string {
	switch v := e.Data[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return fmt.Sprint(v)
	}
}

// Set stores a data value.
func (e Element) Set(key string, value any) {
	e.Data[key] = value
}

// Clone returns a deep copy of e.
func (e Element) Clone() Element {
	data := make(map[string]any, len(e.Data))
	for k, v := range e.Data {
		data[k] = cloneValue(v)
	}
	return Element{Group: e.Group, Data: data}
}

// CloneAll returns a deep copy of elems.
func CloneAll(elems []Element) []Element {
	out := make([]Element, len(elems))
	for i, e := range elems {
		out[i] = e.Clone()
	}
	return out
}

// Split returns the node and edge elements of elems, in order.
func Split(elems []Element) (nodes, edges []Element) {
	for _, e := range elems {
		if e.IsEdge() {
			edges = append(edges, e)
		} else {
			nodes = append(nodes, e)
		}
	}
	return nodes, edges
}

// Counts returns the number of node and edge elements.
func Counts(elems []Element) (nodes, edges int) {
	for _, e := range elems {
		if e.IsEdge() {
			edges++
		} else {
			nodes++
		}
	}
	return nodes, edges
}

// UnmarshalJSON implements json.Unmarshaler. Elements written without a
// group are classified by the presence of source and target.
func (e *Element) UnmarshalJSON(data []byte) error {
	var raw struct {
		Group Group          `json:"group"`
		Data  map[string]any `json:"data"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Data == nil {
		raw.Data = make(map[string]any)
	}
	if raw.Group == "" {
		raw.Group = GroupNodes
		_, hasSource := raw.Data[KeySource]
		_, hasTarget := raw.Data[KeyTarget]
		if hasSource && hasTarget {
			raw.Group = GroupEdges
		}
	}
	e.Group, e.Data = raw.Group, raw.Data
	return nil
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = cloneValue(item)
		}
		return out
	}
	return v
}

package normalize

// unwrapElements converts the renderer element shape
//
//	{"elements": {"nodes": [{"data": {...}}], "edges": [{"data": {...}}]}}
//
// into the canonical shape. Renderer-only keys (id, source, target, svg,
// type, nodeType, width, height) are dropped from the data objects so that
// re-imported documents do not carry stale derived state; availability and
// routes are kept as they are.
func unwrapElements(obj map[string]any) map[string]any {
	elements, _ := obj["elements"].(map[string]any)

	out := map[string]any{
		"synth_graph": map[string]any{
			"nodes": unwrapData(asList(elements["nodes"])),
			"edges": unwrapData(asList(elements["edges"])),
		},
	}
	if v, ok := obj["availability"]; ok {
		out["availability"] = v
	}
	if v, ok := obj["routes"]; ok {
		out["routes"] = v
	}
	return out
}

var rendererKeys = []string{"id", "source", "target", "svg", "type", "nodeType", "width", "height"}

func unwrapData(items []any) []any {
	out := make([]any, 0, len(items))
	for _, item := range items {
		wrapper, ok := item.(map[string]any)
		if !ok {
			out = append(out, item)
			continue
		}
		data, ok := wrapper["data"].(map[string]any)
		if !ok {
			out = append(out, item)
			continue
		}
		clean := make(map[string]any, len(data))
		for k, v := range data {
			clean[k] = v
		}
		for _, k := range rendererKeys {
			delete(clean, k)
		}
		out = append(out, clean)
	}
	return out
}

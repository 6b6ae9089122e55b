package elements

import (
	"encoding/json"
	"maps"
	"slices"
	"strconv"
)

// Flatten merges nested objects of m into one namespace.
//
// Nested object keys are merged into the parent in sorted key order, so a
// later key wins on collision. Scalar leaves are converted to strings and
// null becomes "". Arrays are kept as their JSON text.
func Flatten(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	flattenInto(out, m)
	return out
}

func flattenInto(out, m map[string]any) {
	for _, k := range slices.Sorted(maps.Keys(m)) {
		switch v := m[k].(type) {
		case map[string]any:
			flattenInto(out, v)
		default:
			out[k] = scalarString(v)
		}
	}
}

func scalarString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case json.Number:
		return x.String()
	default:
		data, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(data)
	}
}

package catalog

import "strconv"

// mergeDocuments implements fragment inheritance (spec §4.1 `extends`,
// Open Question resolved in DESIGN.md): base is the fragment body, overlay
// is the tool document that names it in `extends`. Objects merge key by
// key, recursing into nested objects; arrays concatenate base-then-overlay
// and drop duplicate scalar/stringified entries, preserving first-seen
// order; any other type in overlay replaces the value from base outright.
func mergeDocuments(base, overlay map[string]any) map[string]any {
	if base == nil {
		return cloneAny(overlay).(map[string]any)
	}
	result := make(map[string]any, len(base)+len(overlay))
	for k, v := range base {
		result[k] = cloneAny(v)
	}
	for k, ov := range overlay {
		bv, exists := result[k]
		if !exists {
			result[k] = cloneAny(ov)
			continue
		}
		result[k] = mergeValue(bv, ov)
	}
	return result
}

func mergeValue(base, overlay any) any {
	switch ov := overlay.(type) {
	case map[string]any:
		bm, ok := base.(map[string]any)
		if !ok {
			return cloneAny(ov)
		}
		return mergeDocuments(bm, ov)
	case []any:
		bs, ok := base.([]any)
		if !ok {
			return cloneAny(ov)
		}
		return unionArrays(bs, ov)
	default:
		return ov
	}
}

// unionArrays concatenates base then overlay, deduplicating by a stable
// key and preserving the order of first occurrence.
func unionArrays(base, overlay []any) []any {
	seen := make(map[string]struct{}, len(base)+len(overlay))
	out := make([]any, 0, len(base)+len(overlay))
	for _, v := range base {
		k := arrayKey(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	for _, v := range overlay {
		k := arrayKey(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}

// arrayKey renders a value to a stable dedup key. Scalars stringify
// directly; objects/arrays fall back to a structural key built from their
// sorted entries so that equivalent-but-differently-ordered objects still
// collide, which matches how the catalog treats array merges as set union.
func arrayKey(v any) string {
	switch t := v.(type) {
	case string:
		return "s:" + t
	case map[string]any:
		return "m:" + mapKey(t)
	case []any:
		out := "a:["
		for _, e := range t {
			out += arrayKey(e) + ","
		}
		return out + "]"
	default:
		return jsonScalarKey(t)
	}
}

func mapKey(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sortStrings(keys)
	out := "{"
	for _, k := range keys {
		out += k + "=" + arrayKey(m[k]) + ";"
	}
	return out + "}"
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

func jsonScalarKey(v any) string {
	switch t := v.(type) {
	case bool:
		if t {
			return "b:true"
		}
		return "b:false"
	case float64:
		return "n:" + formatFloat(t)
	case nil:
		return "null"
	default:
		return "?"
	}
}

func formatFloat(f float64) string {
	if f == float64(int64(f)) {
		return intToString(int64(f))
	}
	// rare in catalog documents (integers dominate); use the shortest
	// decimal form that round-trips, so distinct values keep distinct keys.
	return "f" + strconv.FormatFloat(f, 'g', -1, 64)
}

func intToString(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func cloneAny(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = cloneAny(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = cloneAny(vv)
		}
		return out
	default:
		return t
	}
}

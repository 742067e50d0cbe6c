package docpatch

import (
	"strings"

	jsonpatch "github.com/evanphx/json-patch"
	j "github.com/goccy/go-json"

	docskema "github.com/reoring/docskema"
)

// Lookup returns the values found at a dotted path. Arrays met on the way
// fan out over their elements, and an array at the end contributes its
// elements as well as itself.
func Lookup(doc docskema.Document, path string) []any {
	var out []any
	lookup(doc, strings.Split(path, "."), &out)
	return out
}

func lookup(v any, segs []string, out *[]any) {
	if len(segs) == 0 {
		*out = append(*out, v)
		if list, ok := v.([]any); ok {
			*out = append(*out, list...)
		}
		return
	}
	switch t := v.(type) {
	case map[string]any:
		if next, ok := t[segs[0]]; ok {
			lookup(next, segs[1:], out)
		}
	case []any:
		for _, e := range t {
			lookup(e, segs, out)
		}
	}
}

// Equal compares two values by their JSON form, so an identity equals its
// hex string and a time equals its RFC3339 string.
func Equal(a, b any) bool {
	ab, err := j.Marshal(map[string]any{"v": a})
	if err != nil {
		return false
	}
	bb, err := j.Marshal(map[string]any{"v": b})
	if err != nil {
		return false
	}
	return jsonpatch.Equal(ab, bb)
}

// Exists reports whether any of docs, other than the one whose identity is
// q.Exclude, holds q.Value at q.Field.
func Exists(docs []docskema.Document, q docskema.Query) bool {
	for _, d := range docs {
		if !q.Exclude.IsZero() && sameID(d[q.IDField], q.Exclude) {
			continue
		}
		for _, v := range Lookup(d, q.Field) {
			if Equal(v, q.Value) {
				return true
			}
		}
	}
	return false
}

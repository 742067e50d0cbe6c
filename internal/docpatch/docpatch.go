// Package docpatch applies store protocol updates ($set, $push, positional
// element matches) to JSON documents by translating them into RFC 6902
// patches. It backs the embedded stores.
package docpatch

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	jsonpatch "github.com/evanphx/json-patch"
	j "github.com/goccy/go-json"

	docskema "github.com/reoring/docskema"
)

// Encode renders a document as JSON. Identities become hex strings and times
// RFC3339 strings.
func Encode(v any) ([]byte, error) { return j.Marshal(v) }

// Decode parses a JSON document. Integral numbers become int64, others
// float64.
func Decode(b []byte) (docskema.Document, error) {
	dec := j.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("docpatch: decode: %w", err)
	}
	return normalize(m).(map[string]any), nil
}

func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = normalize(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = normalize(e)
		}
		return t
	case j.Number:
		if n, err := strconv.ParseInt(string(t), 10, 64); err == nil {
			return n
		}
		f, _ := strconv.ParseFloat(string(t), 64)
		return f
	}
	return v
}

// Matches reports whether doc is selected by f.
func Matches(doc docskema.Document, f docskema.Filter) bool {
	if !sameID(doc[f.Field], f.ID) {
		return false
	}
	if f.Elem == nil {
		return true
	}
	_, found := elemIndex(doc, f.Elem)
	return found != f.Elem.Absent
}

// Apply applies u to the JSON document raw, which must be matched by f, and
// returns the patched document.
func Apply(raw []byte, f docskema.Filter, u docskema.Update) ([]byte, error) {
	view, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	ops, err := Ops(view, f, u)
	if err != nil {
		return nil, err
	}
	if len(ops) == 0 {
		return raw, nil
	}
	pb, err := j.Marshal(ops)
	if err != nil {
		return nil, fmt.Errorf("docpatch: encode patch: %w", err)
	}
	patch, err := jsonpatch.DecodePatch(pb)
	if err != nil {
		return nil, fmt.Errorf("docpatch: %w", err)
	}
	out, err := patch.Apply(raw)
	if err != nil {
		return nil, fmt.Errorf("docpatch: apply: %w", err)
	}
	return out, nil
}

// Op is one RFC 6902 operation.
type Op struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// Ops translates u into patch operations against view. view is updated with
// the containers the operations create.
func Ops(view docskema.Document, f docskema.Filter, u docskema.Update) ([]Op, error) {
	var ops []Op
	for _, key := range sortedKeys(u.Set) {
		segs, err := resolve(view, key, f)
		if err != nil {
			return nil, err
		}
		parent, err := ensureParents(view, segs[:len(segs)-1], &ops)
		if err != nil {
			return nil, err
		}
		op := "add"
		if _, isList := parent.([]any); isList {
			op = "replace"
		}
		ops = append(ops, Op{Op: op, Path: pointer(segs), Value: u.Set[key]})
		setIn(parent, segs[len(segs)-1], u.Set[key])
	}
	pushKeys := make([]string, 0, len(u.Push))
	for k := range u.Push {
		pushKeys = append(pushKeys, k)
	}
	sort.Strings(pushKeys)
	for _, key := range pushKeys {
		segs, err := resolve(view, key, f)
		if err != nil {
			return nil, err
		}
		parent, err := ensureParents(view, segs[:len(segs)-1], &ops)
		if err != nil {
			return nil, err
		}
		last := segs[len(segs)-1]
		cur, exists := getIn(parent, last)
		switch {
		case !exists || cur == nil:
			ops = append(ops, Op{Op: "add", Path: pointer(segs), Value: []any{}})
			cur = []any{}
		default:
			if _, ok := cur.([]any); !ok {
				return nil, fmt.Errorf("docpatch: push target %q is not an array", key)
			}
		}
		list := cur.([]any)
		for _, v := range u.Push[key] {
			ops = append(ops, Op{Op: "add", Path: pointer(segs) + "/-", Value: v})
			list = append(list, v)
		}
		setIn(parent, last, list)
	}
	return ops, nil
}

// resolve splits a dotted store path and replaces the positional marker with
// the index of the element selected by f.
func resolve(view docskema.Document, key string, f docskema.Filter) ([]string, error) {
	segs := strings.Split(key, ".")
	for i, s := range segs {
		if s != docskema.Positional {
			continue
		}
		if f.Elem == nil || f.Elem.Absent {
			return nil, fmt.Errorf("docpatch: positional path %q without element filter", key)
		}
		if strings.Join(segs[:i], ".") != f.Elem.Array {
			return nil, fmt.Errorf("docpatch: positional path %q does not match array %q", key, f.Elem.Array)
		}
		idx, found := elemIndex(view, f.Elem)
		if !found {
			return nil, fmt.Errorf("docpatch: no element %s in %q", f.Elem.ID.Hex(), f.Elem.Array)
		}
		segs[i] = strconv.Itoa(idx)
	}
	return segs, nil
}

func elemIndex(doc docskema.Document, ef *docskema.ElemFilter) (int, bool) {
	v, ok := getPath(doc, strings.Split(ef.Array, "."))
	if !ok {
		return -1, false
	}
	list, _ := v.([]any)
	for i, e := range list {
		m, ok := e.(map[string]any)
		if ok && sameID(m[ef.Field], ef.ID) {
			return i, true
		}
	}
	return -1, false
}

// ensureParents makes sure every container along segs exists, emitting add
// operations for missing (or null) objects, and returns the innermost one.
func ensureParents(view docskema.Document, segs []string, ops *[]Op) (any, error) {
	var cur any = view
	for i, s := range segs {
		next, ok := getIn(cur, s)
		if !ok || next == nil {
			if _, isList := cur.([]any); isList {
				return nil, fmt.Errorf("docpatch: index %s out of range at %s", s, pointer(segs[:i]))
			}
			next = map[string]any{}
			*ops = append(*ops, Op{Op: "add", Path: pointer(segs[:i+1]), Value: map[string]any{}})
			setIn(cur, s, next)
		}
		switch next.(type) {
		case map[string]any, []any:
		default:
			return nil, fmt.Errorf("docpatch: %s is not a container", pointer(segs[:i+1]))
		}
		cur = next
	}
	return cur, nil
}

func getPath(doc docskema.Document, segs []string) (any, bool) {
	var cur any = doc
	for _, s := range segs {
		next, ok := getIn(cur, s)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func getIn(c any, seg string) (any, bool) {
	switch t := c.(type) {
	case map[string]any:
		v, ok := t[seg]
		return v, ok
	case []any:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= len(t) {
			return nil, false
		}
		return t[i], true
	}
	return nil, false
}

func setIn(c any, seg string, v any) {
	switch t := c.(type) {
	case map[string]any:
		t[seg] = v
	case []any:
		if i, err := strconv.Atoi(seg); err == nil && i >= 0 && i < len(t) {
			t[i] = v
		}
	}
}

func pointer(segs []string) string {
	var b strings.Builder
	for _, s := range segs {
		b.WriteByte('/')
		b.WriteString(strings.ReplaceAll(strings.ReplaceAll(s, "~", "~0"), "/", "~1"))
	}
	return b.String()
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sameID(v any, id docskema.ID) bool {
	switch t := v.(type) {
	case string:
		return t == id.Hex()
	case docskema.ID:
		return t == id
	}
	return false
}

// Update applies u to raw when f matches it. The result counts one match and
// one modification at most; an unmatched document is returned unchanged.
func Update(raw []byte, f docskema.Filter, u docskema.Update) ([]byte, docskema.UpdateResult, error) {
	doc, err := Decode(raw)
	if err != nil {
		return nil, docskema.UpdateResult{}, err
	}
	if !Matches(doc, f) {
		return raw, docskema.UpdateResult{}, nil
	}
	out, err := Apply(raw, f, u)
	if err != nil {
		return nil, docskema.UpdateResult{Matched: 1}, err
	}
	res := docskema.UpdateResult{Matched: 1}
	if !jsonpatch.Equal(raw, out) {
		res.Modified = 1
	}
	return out, res, nil
}

// Key returns the hex identity of doc under idField.
func Key(doc docskema.Document, idField string) (string, error) {
	switch t := doc[idField].(type) {
	case docskema.ID:
		if t.IsZero() {
			break
		}
		return t.Hex(), nil
	case string:
		if _, err := docskema.ParseID(t); err != nil {
			return "", err
		}
		return t, nil
	}
	return "", fmt.Errorf("docpatch: document has no %s identity", idField)
}

package docskema

import (
	"fmt"
	"strconv"
	"strings"
)

// Positional is the store path segment standing for "the array element matched
// by the current filter".
const Positional = "$"

// Path tracks one node's location twice: as a dotted store path used in update
// operations ("comments.$.body") and as a JSON Pointer into the instance
// ("/comments/2/body") used for issues. Paths are values; every method returns
// a new Path and never touches the receiver.
type Path struct {
	store   []string
	pointer []string
	markers int
}

// RootPath returns the empty path of a root document.
func RootPath() Path { return Path{} }

// Field descends into an object field.
func (p Path) Field(name string) Path {
	if name == "" {
		return p
	}
	// escape '~' -> '~0', '/' -> '~1' per RFC6901
	esc := strings.ReplaceAll(strings.ReplaceAll(name, "~", "~0"), "/", "~1")
	return Path{
		store:   appendSeg(p.store, name),
		pointer: appendSeg(p.pointer, esc),
		markers: p.markers,
	}
}

// Index descends into an array element in the instance. The store path is
// unchanged: an appended element is addressed by the bare array path.
func (p Path) Index(i int) Path {
	return Path{
		store:   p.store,
		pointer: appendSeg(p.pointer, strconv.Itoa(i)),
		markers: p.markers,
	}
}

// Positional marks the crossing of an array boundary whose element is edited
// in place. It is idempotent: a path that already ends in a marker is returned
// as is.
func (p Path) Positional() Path {
	if n := len(p.store); n > 0 && p.store[n-1] == Positional {
		return p
	}
	return Path{
		store:   appendSeg(p.store, Positional),
		pointer: p.pointer,
		markers: p.markers + 1,
	}
}

// Store returns the dotted store path; "" for the root.
func (p Path) Store() string { return strings.Join(p.store, ".") }

// Pointer returns the JSON Pointer into the instance; "/" for the root.
func (p Path) Pointer() string {
	if len(p.pointer) == 0 {
		return "/"
	}
	return "/" + strings.Join(p.pointer, "/")
}

// Markers counts the positional markers crossed so far.
func (p Path) Markers() int { return p.markers }

// IsRoot reports whether p addresses the root document.
func (p Path) IsRoot() bool { return len(p.store) == 0 && len(p.pointer) == 0 }

// Issue builds an Issue located at p. kv is a flat list of parameter pairs.
func (p Path) Issue(code, msg string, kv ...any) Issue {
	var m map[string]any
	if len(kv) > 1 {
		m = make(map[string]any, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			m[fmt.Sprint(kv[i])] = kv[i+1]
		}
	}
	return Issue{Path: p.Pointer(), Code: code, Message: msg, Params: m}
}

func appendSeg(parts []string, seg string) []string {
	out := make([]string, len(parts), len(parts)+1)
	copy(out, parts)
	return append(out, seg)
}

// countMarkers counts positional segments of a dotted store path.
func countMarkers(storePath string) int {
	n := 0
	for _, seg := range strings.Split(storePath, ".") {
		if seg == Positional {
			n++
		}
	}
	return n
}

// joinStore joins dotted store path fragments, skipping empty ones.
func joinStore(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ".")
}

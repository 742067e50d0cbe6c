package docskema_test

import (
	"testing"

	docskema "github.com/reoring/docskema"
)

func TestPath_FieldAndIndex(t *testing.T) {
	p := docskema.RootPath().Field("comments").Index(2).Field("body")
	if got := p.Store(); got != "comments.body" {
		t.Fatalf("store: %q", got)
	}
	if got := p.Pointer(); got != "/comments/2/body" {
		t.Fatalf("pointer: %q", got)
	}
}

func TestPath_Positional(t *testing.T) {
	p := docskema.RootPath().Field("comments").Index(0).Positional().Field("body")
	if got := p.Store(); got != "comments.$.body" {
		t.Fatalf("store: %q", got)
	}
	if got := p.Pointer(); got != "/comments/0/body" {
		t.Fatalf("pointer: %q", got)
	}
	if p.Markers() != 1 {
		t.Fatalf("markers: %d", p.Markers())
	}
	// one marker per array boundary
	q := docskema.RootPath().Field("comments").Positional().Positional()
	if q.Store() != "comments.$" || q.Markers() != 1 {
		t.Fatalf("positional must be idempotent: %q %d", q.Store(), q.Markers())
	}
}

func TestPath_Immutable(t *testing.T) {
	base := docskema.RootPath().Field("a")
	x := base.Field("x")
	y := base.Field("y")
	if x.Store() != "a.x" || y.Store() != "a.y" || base.Store() != "a" {
		t.Fatalf("siblings share state: %q %q %q", x.Store(), y.Store(), base.Store())
	}
}

func TestPath_RootAndEscaping(t *testing.T) {
	r := docskema.RootPath()
	if !r.IsRoot() || r.Pointer() != "/" || r.Store() != "" {
		t.Fatalf("root: %q %q", r.Pointer(), r.Store())
	}
	p := r.Field("a/b").Field("c~d")
	if got := p.Pointer(); got != "/a~1b/c~0d" {
		t.Fatalf("pointer: %q", got)
	}
	if got := p.Store(); got != "a/b.c~d" {
		t.Fatalf("store: %q", got)
	}
}

func TestPath_Issue(t *testing.T) {
	it := docskema.RootPath().Field("tags").Issue(docskema.CodeTooLong, "too long", "max", 3, "got", 4)
	if it.Path != "/tags" || it.Code != docskema.CodeTooLong {
		t.Fatalf("issue: %+v", it)
	}
	if it.Params["max"] != 3 || it.Params["got"] != 4 {
		t.Fatalf("params: %+v", it.Params)
	}
}

func TestParseID(t *testing.T) {
	id := docskema.NewID()
	got, err := docskema.ParseID(id.Hex())
	if err != nil || got != id {
		t.Fatalf("round trip: %v %v", got, err)
	}
	for _, bad := range []string{"", "xyz", "0123456789abcdef0123456"} {
		_, err := docskema.ParseID(bad)
		fe, ok := err.(*docskema.FormatError)
		if !ok {
			t.Fatalf("%q: expected *FormatError, got %T", bad, err)
		}
		if fe.Value != bad {
			t.Fatalf("%q: value %q", bad, fe.Value)
		}
	}
}

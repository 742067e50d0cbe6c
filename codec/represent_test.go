package codec_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	docskema "github.com/reoring/docskema"
	"github.com/reoring/docskema/codec"
	"github.com/reoring/docskema/dsl"
)

func TestIdentityCodec(t *testing.T) {
	ctx := context.Background()
	id := docskema.NewID()
	s, _ := codec.Identity().Encode(ctx, id)
	got, err := codec.Identity().Decode(ctx, s)
	if err != nil || got != id {
		t.Fatalf("round trip: %v %v", got, err)
	}
	_, err = codec.DecodeID(ctx, "zz")
	var fe *docskema.FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FormatError, got %v", err)
	}
	if _, err := codec.DecodeID(ctx, 12); err == nil {
		t.Fatalf("expected error for a number")
	}
}

func TestRepresent(t *testing.T) {
	id, cid := docskema.NewID(), docskema.NewID()
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	in := map[string]any{
		"_id":     id,
		"at":      at,
		"n":       int64(3),
		"authors": []any{map[string]any{"_id": cid}},
	}
	want := map[string]any{
		"_id":     id.Hex(),
		"at":      "2024-01-02T03:04:05Z",
		"n":       int64(3),
		"authors": []any{map[string]any{"_id": cid.Hex()}},
	}
	if d := cmp.Diff(want, codec.Represent(in)); d != "" {
		t.Fatalf("represent (-want +got):\n%s", d)
	}
	if _, ok := in["_id"].(docskema.ID); !ok {
		t.Fatalf("input must not be modified")
	}
}

func TestRestore(t *testing.T) {
	n := dsl.Object().
		Field("author", dsl.Ref()).Optional().
		Field("at", dsl.Time()).Optional().
		Field("comments", dsl.Array(dsl.Object().Field("body", dsl.String()).Optional())).Optional().
		MustBuild()
	id, author, cid := docskema.NewID(), docskema.NewID(), docskema.NewID()
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	doc := docskema.Document{
		"_id":      id.Hex(),
		"author":   author.Hex(),
		"at":       "2024-01-02T03:04:05Z",
		"extra":    "kept",
		"comments": []any{map[string]any{"_id": cid.Hex(), "body": "b"}},
	}
	got, err := codec.Restore(context.Background(), n, doc)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if got["_id"] != id || got["author"] != author || got["extra"] != "kept" {
		t.Fatalf("restored: %#v", got)
	}
	if tm, ok := got["at"].(time.Time); !ok || !tm.Equal(at) {
		t.Fatalf("at: %#v", got["at"])
	}
	c := got["comments"].([]any)[0].(map[string]any)
	if c["_id"] != cid {
		t.Fatalf("comment id: %#v", c["_id"])
	}

	doc["comments"] = []any{map[string]any{"_id": "broken"}}
	_, err = codec.Restore(context.Background(), n, doc)
	var fe *docskema.FormatError
	if !errors.As(err, &fe) || fe.Path != "/comments/0/_id" {
		t.Fatalf("expected located *FormatError, got %v", err)
	}
}

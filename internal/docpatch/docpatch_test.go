package docpatch

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	docskema "github.com/reoring/docskema"
)

func mustEncode(t *testing.T, doc docskema.Document) []byte {
	t.Helper()
	b, err := Encode(doc)
	require.NoError(t, err)
	return b
}

func TestApply_SetCreatesParents(t *testing.T) {
	root := docskema.NewID()
	raw := mustEncode(t, docskema.Document{"_id": root, "title": "a", "n": 1})
	f := docskema.Filter{Field: "_id", ID: root}

	out, err := Apply(raw, f, docskema.Update{Set: map[string]any{
		"title":       "b",
		"author.name": "ann",
	}})
	require.NoError(t, err)
	doc, err := Decode(out)
	require.NoError(t, err)
	want := docskema.Document{
		"_id":    root.Hex(),
		"title":  "b",
		"n":      int64(1),
		"author": map[string]any{"name": "ann"},
	}
	if d := cmp.Diff(want, doc); d != "" {
		t.Fatalf("doc (-want +got):\n%s", d)
	}
}

func TestApply_PositionalSetAndPush(t *testing.T) {
	root, c0, c1 := docskema.NewID(), docskema.NewID(), docskema.NewID()
	raw := mustEncode(t, docskema.Document{
		"_id": root,
		"comments": []any{
			map[string]any{"_id": c0, "body": "zero"},
			map[string]any{"_id": c1, "body": "one"},
		},
	})
	f := docskema.Filter{Field: "_id", ID: root, Elem: &docskema.ElemFilter{Array: "comments", Field: "_id", ID: c1}}

	out, err := Apply(raw, f, docskema.Update{
		Set:  map[string]any{"comments.$.body": "edited"},
		Push: map[string][]any{"comments.$.replies": {map[string]any{"text": "r"}}},
	})
	require.NoError(t, err)
	doc, err := Decode(out)
	require.NoError(t, err)
	cs := doc["comments"].([]any)
	assert.Equal(t, "zero", cs[0].(map[string]any)["body"])
	assert.Equal(t, "edited", cs[1].(map[string]any)["body"])
	assert.Equal(t, []any{map[string]any{"text": "r"}}, cs[1].(map[string]any)["replies"])
}

func TestApply_PositionalWithoutElementFilter(t *testing.T) {
	root := docskema.NewID()
	raw := mustEncode(t, docskema.Document{"_id": root, "comments": []any{}})
	_, err := Apply(raw, docskema.Filter{Field: "_id", ID: root}, docskema.Update{Set: map[string]any{"comments.$.body": "x"}})
	require.Error(t, err)
}

func TestOps_PushToMissingArray(t *testing.T) {
	view := docskema.Document{"_id": "x"}
	ops, err := Ops(view, docskema.Filter{}, docskema.Update{Push: map[string][]any{"labels": {"a", "b"}}})
	require.NoError(t, err)
	want := []Op{
		{Op: "add", Path: "/labels", Value: []any{}},
		{Op: "add", Path: "/labels/-", Value: "a"},
		{Op: "add", Path: "/labels/-", Value: "b"},
	}
	if d := cmp.Diff(want, ops); d != "" {
		t.Fatalf("ops (-want +got):\n%s", d)
	}
	assert.Equal(t, []any{"a", "b"}, view["labels"])
}

func TestOps_PushOntoScalarFails(t *testing.T) {
	_, err := Ops(docskema.Document{"title": "t"}, docskema.Filter{}, docskema.Update{Push: map[string][]any{"title": {"a"}}})
	require.Error(t, err)
}

func TestUpdate_MatchAndModifiedCounts(t *testing.T) {
	root, c0 := docskema.NewID(), docskema.NewID()
	raw := mustEncode(t, docskema.Document{
		"_id":      root,
		"title":    "a",
		"comments": []any{map[string]any{"_id": c0}},
	})

	_, res, err := Update(raw, docskema.Filter{Field: "_id", ID: docskema.NewID()}, docskema.Update{Set: map[string]any{"title": "b"}})
	require.NoError(t, err)
	assert.Equal(t, docskema.UpdateResult{}, res)

	_, res, err = Update(raw, docskema.Filter{Field: "_id", ID: root}, docskema.Update{Set: map[string]any{"title": "a"}})
	require.NoError(t, err)
	assert.Equal(t, docskema.UpdateResult{Matched: 1}, res, "same value is not a modification")

	absent := docskema.Filter{Field: "_id", ID: root, Elem: &docskema.ElemFilter{Array: "comments", Field: "_id", ID: c0, Absent: true}}
	_, res, err = Update(raw, absent, docskema.Update{Push: map[string][]any{"comments": {map[string]any{"_id": c0}}}})
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Matched, "the element already exists")

	fresh := docskema.NewID()
	absent.Elem.ID = fresh
	out, res, err := Update(raw, absent, docskema.Update{Push: map[string][]any{"comments": {map[string]any{"_id": fresh}}}})
	require.NoError(t, err)
	assert.Equal(t, docskema.UpdateResult{Matched: 1, Modified: 1}, res)
	doc, err := Decode(out)
	require.NoError(t, err)
	assert.Len(t, doc["comments"], 2)
}

func TestMatches(t *testing.T) {
	root, c0 := docskema.NewID(), docskema.NewID()
	doc := docskema.Document{"_id": root.Hex(), "comments": []any{map[string]any{"_id": c0.Hex()}}}
	assert.True(t, Matches(doc, docskema.Filter{Field: "_id", ID: root}))
	assert.False(t, Matches(doc, docskema.Filter{Field: "_id", ID: c0}))

	elem := &docskema.ElemFilter{Array: "comments", Field: "_id", ID: c0}
	assert.True(t, Matches(doc, docskema.Filter{Field: "_id", ID: root, Elem: elem}))
	elem.Absent = true
	assert.False(t, Matches(doc, docskema.Filter{Field: "_id", ID: root, Elem: elem}))
}

func TestLookupAndExists(t *testing.T) {
	a, b := docskema.NewID(), docskema.NewID()
	docs := []docskema.Document{
		{"_id": a.Hex(), "tags": []any{"x", "y"}, "comments": []any{
			map[string]any{"code": "c1"},
			map[string]any{"code": "c2"},
		}},
		{"_id": b.Hex(), "ref": a.Hex()},
	}
	assert.Equal(t, []any{"c1", "c2"}, Lookup(docs[0], "comments.code"))
	assert.Equal(t, []any{[]any{"x", "y"}, "x", "y"}, Lookup(docs[0], "tags"))
	assert.Empty(t, Lookup(docs[0], "missing.path"))

	assert.True(t, Exists(docs, docskema.Query{Field: "comments.code", Value: "c2", IDField: "_id"}))
	assert.False(t, Exists(docs, docskema.Query{Field: "comments.code", Value: "c2", IDField: "_id", Exclude: a}))
	assert.True(t, Exists(docs, docskema.Query{Field: "tags", Value: "y", IDField: "_id"}))
	assert.True(t, Exists(docs, docskema.Query{Field: "ref", Value: a, IDField: "_id"}), "an identity equals its hex form")
}

func TestEqual(t *testing.T) {
	id := docskema.NewID()
	assert.True(t, Equal(id, id.Hex()))
	assert.True(t, Equal(int64(3), 3.0))
	assert.True(t, Equal(map[string]any{"a": 1, "b": 2}, map[string]any{"b": 2, "a": 1}))
	assert.False(t, Equal("3", 3))
}

func TestKey(t *testing.T) {
	id := docskema.NewID()
	k, err := Key(docskema.Document{"_id": id}, "_id")
	require.NoError(t, err)
	assert.Equal(t, id.Hex(), k)

	k, err = Key(docskema.Document{"uid": id.Hex()}, "uid")
	require.NoError(t, err)
	assert.Equal(t, id.Hex(), k)

	_, err = Key(docskema.Document{"_id": "nope"}, "_id")
	var fe *docskema.FormatError
	assert.ErrorAs(t, err, &fe)

	_, err = Key(docskema.Document{}, "_id")
	assert.Error(t, err)
	_, err = Key(docskema.Document{"_id": docskema.NilID}, "_id")
	assert.Error(t, err)
}

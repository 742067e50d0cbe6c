package docskema_test

import (
	"context"
	"errors"
	"testing"

	docskema "github.com/reoring/docskema"
	"github.com/reoring/docskema/dsl"
)

func TestValidate_CreateMintsIdentities(t *testing.T) {
	p := validate(t, postSchema(), map[string]any{
		"title":    "hello",
		"comments": []any{map[string]any{"body": "first"}},
	}, docskema.NilID, docskema.SaveOpt{})

	if p.Intent.Mode != docskema.ModeCreate || !p.Intent.HasID || p.Intent.ID.IsZero() {
		t.Fatalf("root intent: %+v", p.Intent)
	}
	c := p.Child("comments").Elems[0]
	if c.Intent.Mode != docskema.ModeCreate || c.Intent.ID.IsZero() {
		t.Fatalf("comment intent: %+v", c.Intent)
	}
	if c.Intent.ID == p.Intent.ID {
		t.Fatalf("identities must be distinct")
	}
	if got := p.Child("status").Value; got != "draft" {
		t.Fatalf("default status: %v", got)
	}
	if got := c.Child("votes").Value; got != int64(0) {
		t.Fatalf("default votes: %#v", got)
	}
}

func TestValidate_CreateKeepsSuppliedIdentity(t *testing.T) {
	id := docskema.NewID()
	p := validate(t, postSchema(), map[string]any{"_id": id.Hex(), "title": "x"}, docskema.NilID, docskema.SaveOpt{})
	if p.Intent.ID != id || p.Intent.Mode != docskema.ModeCreate {
		t.Fatalf("intent: %+v", p.Intent)
	}
}

func TestValidate_EveryNodeHasOneIntent(t *testing.T) {
	p := validate(t, postSchema(), map[string]any{
		"title":  "x",
		"author": map[string]any{"name": "ann"},
		"comments": []any{
			map[string]any{"body": "a", "replies": []any{map[string]any{"text": "r"}}},
		},
	}, docskema.NilID, docskema.SaveOpt{})
	intents := p.Intents()
	// root, title, status, author, author.name, comments, comment, body, votes, replies, reply, text
	if len(intents) != 12 {
		t.Fatalf("got %d intents", len(intents))
	}
	for _, in := range intents {
		if in.Mode != docskema.ModeCreate {
			t.Fatalf("created tree has %s node at %q", in.Mode, in.Path)
		}
	}
}

func TestValidate_ElementModes(t *testing.T) {
	root := docskema.NewID()
	c1 := docskema.NewID()
	p := validate(t, postSchema(), map[string]any{
		"comments": []any{
			map[string]any{"_id": c1.Hex(), "body": "edited"},
			map[string]any{"body": "new"},
		},
	}, root, docskema.SaveOpt{Partial: true})

	elems := p.Child("comments").Elems
	edited, added := elems[0], elems[1]
	if edited.Intent.Mode != docskema.ModeEdit || edited.Intent.ID != c1 {
		t.Fatalf("edited: %+v", edited.Intent)
	}
	if edited.Intent.Path != "comments.$" {
		t.Fatalf("edited path: %q", edited.Intent.Path)
	}
	m := edited.Intent.Match
	if m == nil || m.Array != "comments" || m.Field != "_id" || m.ID != c1 {
		t.Fatalf("match: %+v", m)
	}
	if got := edited.Child("body").Intent.Path; got != "comments.$.body" {
		t.Fatalf("body path: %q", got)
	}
	if added.Intent.Mode != docskema.ModeCreate || added.Intent.ID.IsZero() {
		t.Fatalf("added: %+v", added.Intent)
	}
	if added.Intent.Path != "comments" {
		t.Fatalf("appended element must use the bare array path, got %q", added.Intent.Path)
	}
}

func TestValidate_EditingSelf(t *testing.T) {
	root := docskema.NewID()
	p := validate(t, postSchema(), map[string]any{
		"title":  "x",
		"author": map[string]any{"_id": root.Hex(), "name": "ann"},
	}, root, docskema.SaveOpt{Partial: true})
	a := p.Child("author")
	if !a.Intent.Self || a.Intent.Mode != docskema.ModeReplace {
		t.Fatalf("author intent: %+v", a.Intent)
	}
	if _, ok := a.Document()["_id"]; ok {
		t.Fatalf("self identity must not be written: %v", a.Document())
	}
}

func TestValidate_RootIdentityIsImmutable(t *testing.T) {
	root := docskema.NewID()
	_, err := docskema.Validate(context.Background(), postSchema(), map[string]any{"_id": docskema.NewID().Hex(), "title": "x"}, root, docskema.SaveOpt{})
	if !hasIssue(issuesOf(t, err), "/_id", docskema.CodeImmutable) {
		t.Fatalf("expected immutable issue, got %v", err)
	}

	p := validate(t, postSchema(), map[string]any{"_id": root.Hex(), "title": "x"}, root, docskema.SaveOpt{})
	if !p.Intent.Self {
		t.Fatalf("same identity is editing self")
	}
}

func TestValidate_AggregatesIssues(t *testing.T) {
	_, err := docskema.Validate(context.Background(), postSchema(), map[string]any{
		"title":  "this title is far too long",
		"status": "archived",
		"comments": []any{
			map[string]any{"body": ""},
			map[string]any{"votes": -1},
		},
	}, docskema.NilID, docskema.SaveOpt{})
	iss := issuesOf(t, err)
	for _, want := range []struct{ path, code string }{
		{"/title", docskema.CodeTooLong},
		{"/status", docskema.CodeInvalidEnum},
		{"/comments/0/body", docskema.CodeTooShort},
		{"/comments/1/body", docskema.CodeRequired},
		{"/comments/1/votes", docskema.CodeTooSmall},
	} {
		if !hasIssue(iss, want.path, want.code) {
			t.Errorf("missing %s at %s in %v", want.code, want.path, iss)
		}
	}
	if len(iss) != 5 {
		t.Fatalf("got %d issues: %v", len(iss), iss)
	}
}

func TestValidate_FailFast(t *testing.T) {
	_, err := docskema.Validate(context.Background(), postSchema(), map[string]any{
		"title":  "this title is far too long",
		"status": "archived",
	}, docskema.NilID, docskema.SaveOpt{FailFast: true})
	if iss := issuesOf(t, err); len(iss) != 1 || iss[0].Path != "/title" {
		t.Fatalf("fail fast: %v", iss)
	}
}

func TestValidate_RequiredSuppressedInPartialMode(t *testing.T) {
	inst := map[string]any{"summary": "s"}
	_, err := docskema.Validate(context.Background(), postSchema(), inst, docskema.NilID, docskema.SaveOpt{})
	if !hasIssue(issuesOf(t, err), "/title", docskema.CodeRequired) {
		t.Fatalf("create must require title: %v", err)
	}
	validate(t, postSchema(), inst, docskema.NewID(), docskema.SaveOpt{Partial: true})

	// present fields are still validated
	_, err = docskema.Validate(context.Background(), postSchema(), map[string]any{"title": 42}, docskema.NewID(), docskema.SaveOpt{Partial: true})
	if !hasIssue(issuesOf(t, err), "/title", docskema.CodeInvalidType) {
		t.Fatalf("expected invalid_type, got %v", err)
	}
}

func TestValidate_PartialStillRequiresInsideAppendedElements(t *testing.T) {
	_, err := docskema.Validate(context.Background(), postSchema(), map[string]any{
		"comments": []any{map[string]any{"votes": 1}},
	}, docskema.NewID(), docskema.SaveOpt{Partial: true})
	if !hasIssue(issuesOf(t, err), "/comments/0/body", docskema.CodeRequired) {
		t.Fatalf("appended element is created whole: %v", err)
	}
}

func TestValidate_Null(t *testing.T) {
	p := validate(t, postSchema(), map[string]any{"title": "x", "summary": nil}, docskema.NilID, docskema.SaveOpt{})
	s := p.Child("summary")
	if s == nil || !s.Null || !s.Flags.Has(docskema.PresenceWasNull) {
		t.Fatalf("nullable summary: %+v", s)
	}
	_, err := docskema.Validate(context.Background(), postSchema(), map[string]any{"title": nil}, docskema.NilID, docskema.SaveOpt{})
	if !hasIssue(issuesOf(t, err), "/title", docskema.CodeNull) {
		t.Fatalf("expected null issue: %v", err)
	}
}

func TestValidate_DefaultBeatsNullable(t *testing.T) {
	n := dsl.Object().
		Field("a", dsl.String()).Nullable().Default("x").
		Field("b", dsl.String()).Nullable().Optional().
		MustBuild()
	for _, tc := range []struct {
		inst  map[string]any
		wantA any
	}{
		{map[string]any{}, "x"},
		{map[string]any{"a": nil}, nil},
		{map[string]any{"a": "y"}, "y"},
	} {
		p := validate(t, n, tc.inst, docskema.NilID, docskema.SaveOpt{})
		a := p.Child("a")
		if a == nil || a.Value != tc.wantA {
			t.Fatalf("%v: a=%+v", tc.inst, a)
		}
		if b := p.Child("b"); b != nil {
			t.Fatalf("absent nullable without default must be skipped: %+v", b)
		}
	}
}

func TestValidate_UnknownKeys(t *testing.T) {
	inst := map[string]any{"title": "x", "zeta": 1, "alpha": 2}
	p := validate(t, postSchema(), inst, docskema.NilID, docskema.SaveOpt{})
	if _, ok := p.Document()["zeta"]; ok {
		t.Fatalf("unknown keys are stripped by default")
	}
	_, err := docskema.Validate(context.Background(), postSchema(), inst, docskema.NilID, docskema.SaveOpt{Unknown: docskema.UnknownStrict})
	iss := issuesOf(t, err)
	if len(iss) != 2 || iss[0].Path != "/alpha" || iss[1].Path != "/zeta" {
		t.Fatalf("strict: %v", iss)
	}
}

func TestValidate_MalformedIdentity(t *testing.T) {
	_, err := docskema.Validate(context.Background(), postSchema(), map[string]any{
		"comments": []any{map[string]any{"_id": "not-an-id", "body": "x"}},
	}, docskema.NewID(), docskema.SaveOpt{Partial: true})
	var fe *docskema.FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FormatError, got %T %v", err, err)
	}
	if fe.Path != "/comments/0/_id" || fe.Value != "not-an-id" {
		t.Fatalf("format error: %+v", fe)
	}
}

func TestValidate_UnsupportedShapes(t *testing.T) {
	for name, inst := range map[string]map[string]any{
		"array as object": {"author": []any{}},
		"object as array": {"comments": map[string]any{}},
	} {
		_, err := docskema.Validate(context.Background(), postSchema(), inst, docskema.NewID(), docskema.SaveOpt{Partial: true})
		var ue *docskema.UnsupportedShapeError
		if !errors.As(err, &ue) {
			t.Fatalf("%s: expected *UnsupportedShapeError, got %v", name, err)
		}
	}

	boxes := dsl.Object().Field("rows", dsl.Array(dsl.Array(dsl.Object().Field("n", dsl.Int()).Optional()))).Optional().MustBuild()
	validate(t, boxes, map[string]any{"rows": []any{[]any{map[string]any{"n": 1}}}}, docskema.NilID, docskema.SaveOpt{})
	_, err := docskema.Validate(context.Background(), boxes, map[string]any{"rows": []any{}}, docskema.NewID(), docskema.SaveOpt{})
	var ue *docskema.UnsupportedShapeError
	if !errors.As(err, &ue) || ue.Path != "/rows" {
		t.Fatalf("objects in nested arrays on update: %v", err)
	}
}

func TestValidate_RootNeedsIdentityField(t *testing.T) {
	n := dsl.Object().NoID().Field("title", dsl.String()).Optional().MustBuild()
	for name, id := range map[string]docskema.ID{"create": docskema.NilID, "update": docskema.NewID()} {
		_, err := docskema.Validate(context.Background(), n, map[string]any{"title": "t1"}, id, docskema.SaveOpt{})
		var ue *docskema.UnsupportedShapeError
		if !errors.As(err, &ue) || ue.Path != "/" {
			t.Fatalf("%s: expected *UnsupportedShapeError at /, got %v", name, err)
		}
	}
}

func TestValidate_ArrayBounds(t *testing.T) {
	n := dsl.Object().Field("tags", dsl.Array(dsl.String()).Min(1).Max(2)).Optional().MustBuild()
	_, err := docskema.Validate(context.Background(), n, map[string]any{"tags": []any{}}, docskema.NilID, docskema.SaveOpt{})
	iss := issuesOf(t, err)
	if !hasIssue(iss, "/tags", docskema.CodeTooShort) || iss[0].Params["min"] != 1 {
		t.Fatalf("too short: %v", iss)
	}
	_, err = docskema.Validate(context.Background(), n, map[string]any{"tags": []any{"a", "b", "c"}}, docskema.NilID, docskema.SaveOpt{})
	if !hasIssue(issuesOf(t, err), "/tags", docskema.CodeTooLong) {
		t.Fatalf("too long: %v", err)
	}
}

func TestValidate_GeneratedTimestamps(t *testing.T) {
	p := validate(t, stampedSchema(), map[string]any{"name": "n"}, docskema.NilID, docskema.SaveOpt{})
	for _, k := range []string{"created", "updated"} {
		c := p.Child(k)
		if c == nil || c.Value != fixedNow || !c.Flags.Has(docskema.PresenceGenerated) {
			t.Fatalf("%s on create: %+v", k, c)
		}
	}
	p = validate(t, stampedSchema(), map[string]any{"name": "n"}, docskema.NewID(), docskema.SaveOpt{Partial: true})
	if p.Child("created") != nil {
		t.Fatalf("created must not be regenerated on update")
	}
	if u := p.Child("updated"); u == nil || u.Value != fixedNow {
		t.Fatalf("updated on update: %+v", u)
	}
}

func TestValidate_Language(t *testing.T) {
	_, err := docskema.Validate(context.Background(), postSchema(), map[string]any{}, docskema.NilID, docskema.SaveOpt{Lang: "ja"})
	iss := issuesOf(t, err)
	if iss[0].Message != "必須プロパティが不足しています" {
		t.Fatalf("ja message: %q", iss[0].Message)
	}
	_, err = docskema.Validate(context.Background(), postSchema(), map[string]any{}, docskema.NilID, docskema.SaveOpt{})
	if msg := issuesOf(t, err)[0].Message; msg != "required property missing" {
		t.Fatalf("en message: %q", msg)
	}
}

func TestValidate_MalformedReference(t *testing.T) {
	n := dsl.Object().
		Field("owner", dsl.Ref()).Optional().
		Field("title", dsl.String()).Required().
		MustBuild()
	_, err := docskema.Validate(context.Background(), n, map[string]any{"owner": "123"}, docskema.NilID, docskema.SaveOpt{})
	var fe *docskema.FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FormatError before any issue, got %T %v", err, err)
	}
	if fe.Path != "/owner" {
		t.Fatalf("path: %q", fe.Path)
	}
}

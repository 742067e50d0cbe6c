package docskema_test

import (
	"context"
	"testing"
	"time"

	docskema "github.com/reoring/docskema"
	"github.com/reoring/docskema/dsl"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

// postSchema is a blog post with nested comments and replies.
func postSchema() *docskema.Node {
	reply := dsl.Object().
		Field("text", dsl.String().MinLen(1)).Required()
	comment := dsl.Object().
		Field("body", dsl.String().MinLen(1)).Required().
		Field("votes", dsl.Int().Min(0)).Default(0).
		Field("replies", dsl.Array(reply)).Optional()
	author := dsl.Object().
		Field("name", dsl.String()).Required().
		Field("email", dsl.String()).Optional()
	return dsl.Object().
		Field("title", dsl.String().MaxLen(20)).Required().
		Field("status", dsl.Enum("draft", "published")).Default("draft").
		Field("summary", dsl.String()).Nullable().Optional().
		Field("slug", dsl.String()).Unique().Optional().
		Field("author", author).Optional().
		Field("labels", dsl.Array(dsl.String())).Optional().
		Field("comments", dsl.Array(comment)).Optional().
		MustBuild()
}

// stampedSchema adds auto timestamps to a small document.
func stampedSchema() *docskema.Node {
	return dsl.Object().
		Field("name", dsl.String()).Required().
		Field("created", dsl.Time().AutoNowAdd()).Optional().
		Field("updated", dsl.Time().AutoNow()).Optional().
		MustBuild()
}

func validate(t *testing.T, n *docskema.Node, inst map[string]any, id docskema.ID, opt docskema.SaveOpt) *docskema.Payload {
	t.Helper()
	if opt.Now == nil {
		opt.Now = clock
	}
	p, err := docskema.Validate(context.Background(), n, inst, id, opt)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	return p
}

func issuesOf(t *testing.T, err error) docskema.Issues {
	t.Helper()
	iss, ok := docskema.AsIssues(err)
	if !ok {
		t.Fatalf("expected Issues, got %T: %v", err, err)
	}
	return iss
}

func hasIssue(iss docskema.Issues, path, code string) bool {
	for _, it := range iss {
		if it.Path == path && it.Code == code {
			return true
		}
	}
	return false
}

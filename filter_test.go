package docskema_test

import (
	"testing"

	docskema "github.com/reoring/docskema"
)

func keys(p *docskema.Payload) []string {
	var out []string
	for _, f := range p.Fields {
		out = append(out, f.Key)
	}
	return out
}

func TestFilterPartial_DropsFieldsNotSent(t *testing.T) {
	inst := map[string]any{"title": "x"}
	p := validate(t, postSchema(), inst, docskema.NewID(), docskema.SaveOpt{Partial: true})
	if p.Child("status") == nil {
		t.Fatalf("walker applies the default before filtering")
	}
	f := docskema.FilterPartial(p, inst)
	if got := keys(f); len(got) != 1 || got[0] != "title" {
		t.Fatalf("filtered fields: %v", got)
	}
	if p.Child("status") == nil {
		t.Fatalf("input payload must not be modified")
	}
}

func TestFilterPartial_PerLevel(t *testing.T) {
	c1 := docskema.NewID()
	inst := map[string]any{
		"author": map[string]any{"email": "a@example.com"},
		"comments": []any{
			map[string]any{"_id": c1.Hex(), "body": "edited"},
			map[string]any{"body": "new"},
		},
	}
	p := validate(t, postSchema(), inst, docskema.NewID(), docskema.SaveOpt{Partial: true})
	f := docskema.FilterPartial(p, inst)

	if got := keys(f.Child("author")); len(got) != 1 || got[0] != "email" {
		t.Fatalf("author fields: %v", got)
	}
	elems := f.Child("comments").Elems
	if got := keys(elems[0]); len(got) != 1 || got[0] != "body" {
		t.Fatalf("edited element keeps only sent fields, got %v", got)
	}
	if got := keys(elems[1]); len(got) != 2 {
		t.Fatalf("appended element is kept whole, got %v", got)
	}
}

func TestFilterPartial_KeepsGeneratedValues(t *testing.T) {
	inst := map[string]any{"name": "n"}
	p := validate(t, stampedSchema(), inst, docskema.NewID(), docskema.SaveOpt{Partial: true})
	f := docskema.FilterPartial(p, inst)
	if f.Child("updated") == nil {
		t.Fatalf("auto_now value must survive the filter: %v", keys(f))
	}
}

func TestFilterPartial_KeepsExplicitNull(t *testing.T) {
	inst := map[string]any{"summary": nil}
	p := validate(t, postSchema(), inst, docskema.NewID(), docskema.SaveOpt{Partial: true})
	f := docskema.FilterPartial(p, inst)
	if s := f.Child("summary"); s == nil || !s.Null {
		t.Fatalf("explicit null is a sent value: %v", keys(f))
	}
}

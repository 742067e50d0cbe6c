package codec

import (
	"context"
	"fmt"
	"time"

	docskema "github.com/reoring/docskema"
)

// Represent converts identities and times anywhere inside v to their string
// forms, producing a value safe to render as JSON or YAML. v is not modified.
func Represent(v any) any {
	switch t := v.(type) {
	case docskema.ID:
		return t.Hex()
	case time.Time:
		return FormatTime(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = Represent(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Represent(e)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Represent(e)
		}
		return out
	}
	return v
}

// Restore is the inverse of Represent guided by the schema: identity fields
// and scalar values are coerced back to their stored form. Keys without a
// schema field are kept as they are.
func Restore(ctx context.Context, n *docskema.Node, doc docskema.Document) (docskema.Document, error) {
	v, err := restore(ctx, n, doc, "")
	if err != nil {
		return nil, err
	}
	out, _ := v.(map[string]any)
	return out, nil
}

func restore(ctx context.Context, n *docskema.Node, v any, at string) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch n.Kind {
	case docskema.KindObject:
		m, ok := v.(map[string]any)
		if !ok {
			return nil, &docskema.UnsupportedShapeError{Path: pointerOrRoot(at), Reason: fmt.Sprintf("expected an object, got %T", v)}
		}
		out := make(map[string]any, len(m))
		for k, e := range m {
			if k == n.IDField && n.IDField != "" {
				if e == nil {
					out[k] = nil
					continue
				}
				id, err := DecodeID(ctx, e)
				if err != nil {
					return nil, atPointer(err, at+"/"+k)
				}
				out[k] = id
				continue
			}
			f := n.Field(k)
			if f == nil {
				out[k] = e
				continue
			}
			r, err := restore(ctx, f, e, at+"/"+k)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	case docskema.KindArray:
		list, ok := v.([]any)
		if !ok {
			return nil, &docskema.UnsupportedShapeError{Path: pointerOrRoot(at), Reason: fmt.Sprintf("expected an array, got %T", v)}
		}
		out := make([]any, len(list))
		for i, e := range list {
			r, err := restore(ctx, n.Elem, e, fmt.Sprintf("%s/%d", at, i))
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	default:
		r, err := n.Scalar.Coerce(ctx, v)
		if err != nil {
			return nil, atPointer(err, at)
		}
		return r, nil
	}
}

func atPointer(err error, at string) error {
	switch e := err.(type) {
	case *docskema.FormatError:
		if e.Path == "" {
			e.Path = pointerOrRoot(at)
		}
		return e
	case docskema.Issues:
		out := make(docskema.Issues, len(e))
		for i, it := range e {
			if it.Path == "" || it.Path == "/" {
				it.Path = pointerOrRoot(at)
			}
			out[i] = it
		}
		return out
	}
	return fmt.Errorf("restore %s: %w", pointerOrRoot(at), err)
}

func pointerOrRoot(at string) string {
	if at == "" {
		return "/"
	}
	return at
}

package docskema

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/reoring/docskema/i18n"
)

// scope is the per-node context threaded through a walk. It is passed by value
// and never shared between siblings.
type scope struct {
	path     Path
	create   bool // the enclosing subtree is being created
	partial  bool // absent fields are left untouched
	parentID ID   // identity of the nearest addressable ancestor
}

// errStop aborts a FailFast walk after the first issue has been recorded.
var errStop = errors.New("docskema: stop")

type walker struct {
	ctx context.Context
	opt SaveOpt
	now time.Time
	iss Issues
}

// Validate walks inst against the object schema root and returns the
// Validated Payload. A zero id means the instance creates a new document;
// otherwise it updates the document addressed by id (partially when
// opt.Partial is set).
//
// Field-level problems are collected and returned together as Issues.
// *FormatError and *UnsupportedShapeError are returned as soon as they are
// found.
func Validate(ctx context.Context, root *Node, inst map[string]any, id ID, opt SaveOpt) (*Payload, error) {
	if root == nil || root.Kind != KindObject {
		return nil, &UnsupportedShapeError{Path: "/", Reason: "root schema must be an object"}
	}
	if root.IDField == "" {
		return nil, &UnsupportedShapeError{Path: "/", Reason: "root schema must declare an identity field"}
	}
	if opt.Lang != "" {
		ctx = i18n.WithLanguage(ctx, opt.Lang)
	}
	w := &walker{ctx: ctx, opt: opt, now: opt.now()}
	p, err := w.root(root, inst, id)
	if err != nil && !errors.Is(err, errStop) {
		return nil, err
	}
	if len(w.iss) > 0 {
		return nil, w.iss
	}
	return p, nil
}

func (w *walker) issue(it Issue) error {
	w.iss = append(w.iss, it)
	if w.opt.FailFast {
		return errStop
	}
	return nil
}

func (w *walker) issues(iss Issues) error {
	if len(iss) == 0 {
		return nil
	}
	if w.opt.FailFast {
		return w.issue(iss[0])
	}
	w.iss = append(w.iss, iss...)
	return nil
}

func (w *walker) root(n *Node, inst map[string]any, id ID) (*Payload, error) {
	if inst == nil {
		inst = map[string]any{}
	}
	sc := scope{path: RootPath()}
	p := &Payload{Node: n, Pointer: "/", Flags: PresenceSeen}
	if id.IsZero() {
		sc.create = true
		res, err := resolveIdentity(n, inst, sc, false)
		if err != nil {
			return nil, err
		}
		p.Intent = Intent{Mode: ModeCreate, ID: res.id, HasID: !res.id.IsZero()}
	} else {
		sc.partial = w.opt.Partial
		p.Intent = Intent{Mode: ModeReplace, ID: id, HasID: true}
		if n.IDField != "" {
			ip := sc.path.Field(n.IDField)
			got, ok, err := idFromValue(inst[n.IDField], ip.Pointer())
			if err != nil {
				return nil, err
			}
			switch {
			case !ok:
			case got == id:
				p.Intent.Self = true
			default:
				msg := i18n.T(w.ctx, CodeImmutable, nil)
				if err := w.issue(ip.Issue(CodeImmutable, msg, "want", id.Hex(), "got", got.Hex())); err != nil {
					return p, err
				}
			}
		}
	}
	sc.parentID = p.Intent.ID
	return p, w.fields(p, n, inst, sc, p.Intent.Mode == ModeCreate)
}

// fields walks the declared fields of an object in declaration order.
// creating reports whether the object itself is being created, which drives
// generated values.
func (w *walker) fields(p *Payload, n *Node, inst map[string]any, sc scope, creating bool) error {
	p.Fields = make([]*Payload, 0, len(n.Fields))
	for _, f := range n.Fields {
		fsc := sc
		fsc.path = sc.path.Field(f.Name)
		raw, present := inst[f.Name]
		var (
			child *Payload
			err   error
		)
		switch {
		case !present:
			child, err = w.missing(f, fsc, creating)
		case raw == nil:
			child, err = w.null(f, fsc)
		default:
			child, err = w.value(f, raw, fsc, false)
		}
		if err != nil {
			return err
		}
		if child != nil {
			child.Key = f.Name
			p.Fields = append(p.Fields, child)
		}
	}
	if w.opt.Unknown == UnknownStrict {
		keys := make([]string, 0, len(inst))
		for k := range inst {
			if k == n.IDField || n.Field(k) != nil {
				continue
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg := i18n.T(w.ctx, CodeUnknownKey, map[string]string{"key": k})
			if err := w.issue(sc.path.Field(k).Issue(CodeUnknownKey, msg)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *walker) node(n *Node, sc scope, flags Presence) *Payload {
	mode := ModeReplace
	if sc.create {
		mode = ModeCreate
	}
	return &Payload{
		Node:    n,
		Pointer: sc.path.Pointer(),
		Flags:   flags,
		Intent:  Intent{Path: sc.path.Store(), Mode: mode},
	}
}

// missing handles a declared field absent from the instance: a generated
// value first, then the default (which wins over nullable), then skip or a
// required issue.
func (w *walker) missing(f *Node, sc scope, creating bool) (*Payload, error) {
	if f.Kind == KindScalar {
		if g, ok := f.Scalar.(Generator); ok {
			if v, ok := g.Generate(GenContext{Create: creating, Now: w.now}); ok {
				p := w.node(f, sc, PresenceGenerated)
				p.Value = v
				return p, nil
			}
		}
	}
	if f.HasDefault {
		p := w.node(f, sc, PresenceDefaultApplied)
		if f.Default == nil {
			p.Null = true
		}
		p.Value = f.Default
		return p, nil
	}
	if !f.Required || f.Nullable || sc.partial {
		return nil, nil
	}
	msg := i18n.T(w.ctx, CodeRequired, nil)
	it := sc.path.Issue(CodeRequired, msg)
	it.Hint = "required property missing"
	return nil, w.issue(it)
}

func (w *walker) null(f *Node, sc scope) (*Payload, error) {
	if !f.Nullable {
		msg := i18n.T(w.ctx, CodeNull, nil)
		return nil, w.issue(sc.path.Issue(CodeNull, msg))
	}
	p := w.node(f, sc, PresenceSeen|PresenceWasNull)
	p.Null = true
	return p, nil
}

func (w *walker) value(n *Node, raw any, sc scope, elem bool) (*Payload, error) {
	switch n.Kind {
	case KindObject:
		return w.object(n, raw, sc, elem)
	case KindArray:
		return w.array(n, raw, sc)
	default:
		return w.scalar(n, raw, sc)
	}
}

func (w *walker) scalar(n *Node, raw any, sc scope) (*Payload, error) {
	v, err := n.Scalar.Coerce(w.ctx, raw)
	if err != nil {
		if isFatal(err) {
			var fe *FormatError
			if errors.As(err, &fe) && fe.Path == "" {
				fe.Path = sc.path.Pointer()
			}
			return nil, err
		}
		if iss, ok := AsIssues(err); ok {
			return nil, w.issues(rebaseIssues(sc.path.Pointer(), iss))
		}
		it := sc.path.Issue(CodeInvalidType, i18n.T(w.ctx, CodeInvalidType, nil))
		it.Cause = err
		return nil, w.issue(it)
	}
	p := w.node(n, sc, PresenceSeen)
	p.Value = v
	return p, nil
}

func (w *walker) object(n *Node, raw any, sc scope, elem bool) (*Payload, error) {
	inst, ok := asMap(raw)
	if !ok {
		return nil, &UnsupportedShapeError{Path: sc.path.Pointer(), Reason: "expected an object, got " + typeName(raw)}
	}
	res, err := resolveIdentity(n, inst, sc, elem)
	if err != nil {
		return nil, err
	}
	path := sc.path
	var match *Match
	if elem && res.mode == ModeEdit {
		match = &Match{Array: path.Store(), Field: n.IDField, ID: res.id}
		path = path.Positional()
	}
	p := &Payload{
		Node:    n,
		Pointer: path.Pointer(),
		Flags:   PresenceSeen,
		Elem:    elem,
		Intent: Intent{
			Path:  path.Store(),
			Mode:  res.mode,
			ID:    res.id,
			HasID: !res.id.IsZero(),
			Self:  res.self,
			Match: match,
		},
	}
	child := sc
	child.path = path
	if sc.create || (elem && res.mode == ModeCreate) {
		// appended elements are written whole
		child.create = true
		child.partial = false
	}
	if p.Intent.HasID {
		child.parentID = res.id
	}
	return p, w.fields(p, n, inst, child, res.mode == ModeCreate)
}

func (w *walker) array(n *Node, raw any, sc scope) (*Payload, error) {
	list, ok := asList(raw)
	if !ok {
		return nil, &UnsupportedShapeError{Path: sc.path.Pointer(), Reason: "expected an array, got " + typeName(raw)}
	}
	if n.Elem.Kind == KindArray && innermost(n).Kind == KindObject && !sc.create {
		return nil, &UnsupportedShapeError{Path: sc.path.Pointer(), Reason: "objects in nested arrays can only be written when their document is created"}
	}
	p := w.node(n, sc, PresenceSeen)
	p.Elems = make([]*Payload, 0, len(list))
	if n.MinItems >= 0 && len(list) < n.MinItems {
		msg := i18n.T(w.ctx, CodeTooShort, nil)
		it := sc.path.Issue(CodeTooShort, msg, "min", n.MinItems, "got", len(list))
		it.Hint = "array is shorter than min"
		if err := w.issue(it); err != nil {
			return nil, err
		}
	}
	if n.MaxItems >= 0 && len(list) > n.MaxItems {
		msg := i18n.T(w.ctx, CodeTooLong, nil)
		it := sc.path.Issue(CodeTooLong, msg, "max", n.MaxItems, "got", len(list))
		it.Hint = "array is longer than max"
		if err := w.issue(it); err != nil {
			return nil, err
		}
	}
	for i, rv := range list {
		esc := sc
		esc.path = sc.path.Index(i)
		var (
			e   *Payload
			err error
		)
		if rv == nil {
			e, err = w.null(n.Elem, esc)
		} else {
			e, err = w.value(n.Elem, rv, esc, true)
		}
		if err != nil {
			return nil, err
		}
		if e != nil {
			e.Elem = true
			p.Elems = append(p.Elems, e)
		}
	}
	return p, nil
}

// innermost returns the element schema under every array level of n.
func innermost(n *Node) *Node {
	for n.Kind == KindArray {
		n = n.Elem
	}
	return n
}

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asList(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []map[string]any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = t[i]
		}
		return out, true
	}
	return nil, false
}

func typeName(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%T", v)
}

package docskema

// OpKind enumerates the store operations a plan is made of.
type OpKind uint8

const (
	OpInsertOne OpKind = iota
	OpUpdateSet
	OpPushArray
	OpBulkReconcileArray
)

func (k OpKind) String() string {
	switch k {
	case OpInsertOne:
		return "insert_one"
	case OpUpdateSet:
		return "update_set"
	case OpPushArray:
		return "push_array"
	case OpBulkReconcileArray:
		return "bulk_reconcile_array"
	}
	return "unknown"
}

// MatchedElem is an array element addressed by identity inside a
// BulkReconcileArray. Set and Push keys carry the positional marker. Doc is
// the element as it is appended when no stored element has that identity.
type MatchedElem struct {
	ID   ID
	Set  map[string]any
	Push map[string][]any
	Doc  Document
}

// Operation is one planned store operation.
type Operation struct {
	Kind   OpKind
	Filter Filter

	Doc Document       // OpInsertOne
	Set map[string]any // OpUpdateSet

	Path    string // array path: OpPushArray, OpBulkReconcileArray
	IDField string // element identity field: OpBulkReconcileArray
	Values  []any  // OpPushArray

	Matched   []MatchedElem // OpBulkReconcileArray
	Unmatched []Document    // OpBulkReconcileArray
}

// Plan converts a Validated Payload into the ordered operations that apply
// it. A created root is one InsertOne. An updated root yields its UpdateSet
// first (omitted when empty), then array operations in declaration order.
func Plan(p *Payload) ([]Operation, error) {
	if p == nil {
		return nil, nil
	}
	if p.Intent.Mode == ModeCreate {
		return []Operation{{Kind: OpInsertOne, Doc: p.Document()}}, nil
	}
	if p.Node.IDField == "" {
		return nil, &UnsupportedShapeError{Path: "/", Reason: "a document without identity field cannot be updated"}
	}
	pl := &planner{filter: Filter{Field: p.Node.IDField, ID: p.Intent.ID}}
	set := map[string]any{}
	if err := pl.object(p, set, nil, false); err != nil {
		return nil, err
	}
	var ops []Operation
	if len(set) > 0 {
		ops = append(ops, Operation{Kind: OpUpdateSet, Filter: pl.filter, Set: set})
	}
	return append(ops, pl.arrays...), nil
}

type planner struct {
	filter Filter
	arrays []Operation
}

// object flattens the fields of p into set. Inside an edited array element
// appends go to push instead of separate operations.
func (pl *planner) object(p *Payload, set map[string]any, push map[string][]any, inEdit bool) error {
	for _, f := range p.Fields {
		if err := pl.field(f, set, push, inEdit); err != nil {
			return err
		}
	}
	return nil
}

func (pl *planner) field(f *Payload, set map[string]any, push map[string][]any, inEdit bool) error {
	path := f.Intent.Path
	if countMarkers(path) > 1 {
		return &UnsupportedShapeError{Path: f.Pointer, Reason: "update crosses more than one array boundary"}
	}
	if f.Null {
		set[path] = nil
		return nil
	}
	switch f.Node.Kind {
	case KindObject:
		if f.Intent.Mode == ModeCreate && f.Intent.HasID && f.Node.IDField != "" {
			set[joinStore(path, f.Node.IDField)] = f.Intent.ID
		}
		return pl.object(f, set, push, inEdit)
	case KindArray:
		return pl.array(f, set, push, inEdit)
	default:
		set[path] = f.Value
		return nil
	}
}

func (pl *planner) array(a *Payload, set map[string]any, push map[string][]any, inEdit bool) error {
	path := a.Intent.Path
	if a.Node.Elem.Kind != KindObject {
		set[path] = a.value()
		return nil
	}
	if len(a.Elems) == 0 {
		return nil
	}
	edited := false
	for _, e := range a.Elems {
		if e.Intent.Mode == ModeEdit {
			edited = true
			break
		}
	}
	if !edited {
		values := make([]any, 0, len(a.Elems))
		for _, e := range a.Elems {
			values = append(values, e.value())
		}
		if inEdit {
			push[path] = append(push[path], values...)
			return nil
		}
		pl.arrays = append(pl.arrays, Operation{Kind: OpPushArray, Filter: pl.filter, Path: path, Values: values})
		return nil
	}
	if inEdit {
		return &UnsupportedShapeError{Path: a.Pointer, Reason: "array elements nested in an edited array element cannot be matched"}
	}
	op := Operation{Kind: OpBulkReconcileArray, Filter: pl.filter, Path: path, IDField: a.Node.Elem.IDField}
	for _, e := range a.Elems {
		if e.Intent.Mode != ModeEdit {
			op.Unmatched = append(op.Unmatched, e.Document())
			continue
		}
		m := MatchedElem{ID: e.Intent.ID, Set: map[string]any{}, Push: map[string][]any{}, Doc: e.Document()}
		if err := pl.object(e, m.Set, m.Push, true); err != nil {
			return err
		}
		if len(m.Set) == 0 {
			m.Set = nil
		}
		if len(m.Push) == 0 {
			m.Push = nil
		}
		op.Matched = append(op.Matched, m)
	}
	pl.arrays = append(pl.arrays, op)
	return nil
}

// WriteModels expands the operation into store write models. A reconcile
// becomes, per matched element, a positional update followed by a push of
// the whole element guarded on its absence, then one push of the unmatched
// elements.
func (op Operation) WriteModels() []WriteModel {
	switch op.Kind {
	case OpInsertOne:
		return []WriteModel{{Insert: op.Doc}}
	case OpUpdateSet:
		return []WriteModel{{Filter: op.Filter, Update: Update{Set: op.Set}}}
	case OpPushArray:
		return []WriteModel{{Filter: op.Filter, Update: Update{Push: map[string][]any{op.Path: op.Values}}}}
	case OpBulkReconcileArray:
		var out []WriteModel
		for _, m := range op.Matched {
			f := op.Filter
			f.Elem = &ElemFilter{Array: op.Path, Field: op.IDField, ID: m.ID}
			if u := (Update{Set: m.Set, Push: m.Push}); !u.IsZero() {
				out = append(out, WriteModel{Filter: f, Update: u})
			}
			g := op.Filter
			g.Elem = &ElemFilter{Array: op.Path, Field: op.IDField, ID: m.ID, Absent: true}
			out = append(out, WriteModel{Filter: g, Update: Update{Push: map[string][]any{op.Path: {m.Doc}}}})
		}
		if len(op.Unmatched) > 0 {
			vals := make([]any, len(op.Unmatched))
			for i, d := range op.Unmatched {
				vals[i] = d
			}
			out = append(out, WriteModel{Filter: op.Filter, Update: Update{Push: map[string][]any{op.Path: vals}}})
		}
		return out
	}
	return nil
}

package docskema

import (
	"context"
	"errors"
)

// Document is a stored document or sub-document.
type Document = map[string]any

// ErrNotFound is returned by stores when no document matches a filter.
var ErrNotFound = errors.New("docskema: document not found")

// Filter selects one document by identity and, for positional updates, one
// element of an array inside it.
type Filter struct {
	Field string // identity field of the root document
	ID    ID
	Elem  *ElemFilter
}

// ElemFilter narrows a Filter to the array element whose identity is ID.
// With Absent set it matches only when no such element exists.
type ElemFilter struct {
	Array  string // dotted store path of the array
	Field  string // identity field inside the element
	ID     ID
	Absent bool
}

// Key returns the dotted path queried by the element filter ("comments._id").
func (f ElemFilter) Key() string { return joinStore(f.Array, f.Field) }

// Update is a set/push update. Set keys and Push keys are dotted store paths
// that may contain one positional marker resolved against Filter.Elem.
type Update struct {
	Set  map[string]any
	Push map[string][]any
}

// IsZero reports whether the update writes nothing.
func (u Update) IsZero() bool { return len(u.Set) == 0 && len(u.Push) == 0 }

// WriteModel is one entry of a bulk write: either an insert or a filtered
// update.
type WriteModel struct {
	Insert Document
	Filter Filter
	Update Update
}

// UpdateResult reports how many documents matched and were modified.
type UpdateResult struct {
	Matched  int64
	Modified int64
}

// Query looks for a document whose Field equals Value, ignoring the
// document whose identity is Exclude.
type Query struct {
	Field   string
	Value   any
	IDField string
	Exclude ID
}

// Store is the document store protocol the engine writes through. One Store
// addresses one collection.
type Store interface {
	InsertOne(ctx context.Context, doc Document) error
	InsertMany(ctx context.Context, docs []Document) error
	UpdateOne(ctx context.Context, f Filter, u Update) (UpdateResult, error)
	// BulkWrite applies models in order as one batch call and stops at the
	// first failure.
	BulkWrite(ctx context.Context, models []WriteModel) (UpdateResult, error)
	FindOne(ctx context.Context, f Filter) (Document, error)
	Exists(ctx context.Context, q Query) (bool, error)
}

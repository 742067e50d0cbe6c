package docskema

import (
	"context"
	"fmt"

	"github.com/reoring/docskema/i18n"
)

// UniqueChecker consults the store for field uniqueness before a plan is
// committed.
type UniqueChecker struct {
	Store   Store
	IDField string
}

// Check looks for another document whose field equals value. exclude is the
// identity of the document being edited, NilID on create. A match yields a
// *ConflictError carrying msg, or the translated default message when msg is
// empty.
func (u UniqueChecker) Check(ctx context.Context, field string, value any, exclude ID, msg string) error {
	idf := u.IDField
	if idf == "" {
		idf = DefaultIDField
	}
	found, err := u.Store.Exists(ctx, Query{Field: field, Value: value, IDField: idf, Exclude: exclude})
	if err != nil {
		return fmt.Errorf("unique %s: %w", field, err)
	}
	if !found {
		return nil
	}
	if msg == "" {
		msg = i18n.T(ctx, CodeConflict, nil)
	}
	return &ConflictError{Field: field, Value: value, Message: msg}
}

// CheckPayload runs Check for every unique field of p.
func (u UniqueChecker) CheckPayload(ctx context.Context, p *Payload, exclude ID) error {
	for _, c := range p.UniqueChecks() {
		if err := u.Check(ctx, c.Field, c.Value, exclude, c.Message); err != nil {
			if ce, ok := err.(*ConflictError); ok {
				ce.Path = c.Pointer
			}
			return err
		}
	}
	return nil
}

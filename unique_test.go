package docskema_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	docskema "github.com/reoring/docskema"
	"github.com/reoring/docskema/i18n"
	"github.com/reoring/docskema/store/memstore"
)

func TestUniqueChecker(t *testing.T) {
	ctx := context.Background()
	st := memstore.New("_id", nil)
	taken := docskema.NewID()
	require.NoError(t, st.InsertOne(ctx, docskema.Document{
		"_id":      taken,
		"email":    "a@example.com",
		"comments": []any{docskema.Document{"_id": docskema.NewID(), "code": "c-1"}},
	}))
	uc := docskema.UniqueChecker{Store: st, IDField: "_id"}

	require.NoError(t, uc.Check(ctx, "email", "b@example.com", docskema.NilID, ""))
	require.NoError(t, uc.Check(ctx, "email", "a@example.com", taken, ""), "the edited document is excluded")

	err := uc.Check(ctx, "email", "a@example.com", docskema.NilID, "email already registered")
	var ce *docskema.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "email already registered", ce.Message)
	assert.Equal(t, "email", ce.Field)

	err = uc.Check(i18n.WithLanguage(ctx, "ja"), "comments.code", "c-1", docskema.NilID, "")
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "値は一意である必要があります", ce.Message)
	assert.Equal(t, docskema.CodeConflict, ce.Issues()[0].Code)
}

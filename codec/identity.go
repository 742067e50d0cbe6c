package codec

import (
	"context"

	docskema "github.com/reoring/docskema"
)

// Identity returns a Codec between the canonical 24-hex string and an ID.
// Malformed strings fail with *docskema.FormatError.
func Identity() Codec[string, docskema.ID] { return identityCodec{} }

type identityCodec struct{}

func (identityCodec) Decode(ctx context.Context, a string) (docskema.ID, error) {
	return docskema.ParseID(a)
}

func (identityCodec) Encode(ctx context.Context, b docskema.ID) (string, error) {
	return b.Hex(), nil
}

// DecodeID accepts an ID or its string form.
func DecodeID(ctx context.Context, v any) (docskema.ID, error) {
	switch t := v.(type) {
	case docskema.ID:
		return t, nil
	case string:
		return Identity().Decode(ctx, t)
	}
	return docskema.NilID, invalidType(ctx, "expected identity string")
}

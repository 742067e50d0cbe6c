package dsl

import (
	"context"

	docskema "github.com/reoring/docskema"
	"github.com/reoring/docskema/codec"
	js "github.com/reoring/docskema/jsonschema"
)

// RefSchema is an identity scalar referencing another document. A malformed
// identity string fails the whole walk with *docskema.FormatError.
type RefSchema struct{}

// Ref returns an identity scalar.
func Ref() *RefSchema { return &RefSchema{} }

func (s *RefSchema) TypeName() string { return "id" }

func (s *RefSchema) Coerce(ctx context.Context, v any) (any, error) {
	id, err := codec.DecodeID(ctx, v)
	if err != nil {
		return nil, err
	}
	return id, nil
}

func (s *RefSchema) JSONSchema() *js.Schema { return &js.Schema{Type: "string", Format: "objectid"} }

func (s *RefSchema) build() (*docskema.Node, error) { return scalarNode(s, nil) }

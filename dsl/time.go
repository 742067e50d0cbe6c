package dsl

import (
	"context"

	docskema "github.com/reoring/docskema"
	"github.com/reoring/docskema/codec"
	js "github.com/reoring/docskema/jsonschema"
)

// auto selects when a time scalar generates its own value.
type auto struct {
	now    bool // on every write
	nowAdd bool // when the enclosing document is created
}

func (a auto) fire(gc docskema.GenContext) bool {
	return a.now || (a.nowAdd && gc.Create)
}

// TimeSchema is a date-time scalar stored as a UTC time.Time and accepted as
// an RFC3339 string.
type TimeSchema struct {
	auto
}

// Time returns an RFC3339 date-time scalar.
func Time() *TimeSchema { return &TimeSchema{} }

// AutoNow sets the value to the current time on every save that omits it.
func (s *TimeSchema) AutoNow() *TimeSchema { s.now = true; return s }

// AutoNowAdd sets the value to the current time when the document is created.
func (s *TimeSchema) AutoNowAdd() *TimeSchema { s.nowAdd = true; return s }

func (s *TimeSchema) TypeName() string { return "datetime" }

func (s *TimeSchema) Coerce(ctx context.Context, v any) (any, error) {
	t, err := codec.DecodeTime(ctx, v)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TimeSchema) Generate(gc docskema.GenContext) (any, bool) {
	if !s.fire(gc) {
		return nil, false
	}
	return gc.Now.UTC(), true
}

func (s *TimeSchema) JSONSchema() *js.Schema { return &js.Schema{Type: "string", Format: "date-time"} }

func (s *TimeSchema) build() (*docskema.Node, error) { return scalarNode(s, nil) }

// TimestampSchema is a Unix-seconds scalar stored as int64.
type TimestampSchema struct {
	auto
}

// Timestamp returns a Unix-seconds scalar.
func Timestamp() *TimestampSchema { return &TimestampSchema{} }

// AutoNow sets the value to the current time on every save that omits it.
func (s *TimestampSchema) AutoNow() *TimestampSchema { s.now = true; return s }

// AutoNowAdd sets the value to the current time when the document is created.
func (s *TimestampSchema) AutoNowAdd() *TimestampSchema { s.nowAdd = true; return s }

func (s *TimestampSchema) TypeName() string { return "timestamp" }

func (s *TimestampSchema) Coerce(ctx context.Context, v any) (any, error) {
	n, err := codec.DecodeTimestamp(ctx, v)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (s *TimestampSchema) Generate(gc docskema.GenContext) (any, bool) {
	if !s.fire(gc) {
		return nil, false
	}
	return gc.Now.Unix(), true
}

func (s *TimestampSchema) JSONSchema() *js.Schema { return &js.Schema{Type: "integer", Format: "unix-time"} }

func (s *TimestampSchema) build() (*docskema.Node, error) { return scalarNode(s, nil) }

var _ docskema.Generator = (*TimeSchema)(nil)
var _ docskema.Generator = (*TimestampSchema)(nil)

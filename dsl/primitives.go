package dsl

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"unicode/utf8"

	docskema "github.com/reoring/docskema"
	"github.com/reoring/docskema/i18n"
	js "github.com/reoring/docskema/jsonschema"
)

// StringSchema is a string scalar with optional length, choice and rule
// constraints.
type StringSchema struct {
	minLen  int
	maxLen  int
	choices []string
	rules   rules
}

// String returns a string scalar.
func String() *StringSchema { return &StringSchema{minLen: -1, maxLen: -1} }

// Enum returns a string scalar restricted to values.
func Enum(values ...string) *StringSchema { return String().OneOf(values...) }

// MinLen sets the minimum length in runes.
func (s *StringSchema) MinLen(n int) *StringSchema { s.minLen = n; return s }

// MaxLen sets the maximum length in runes.
func (s *StringSchema) MaxLen(n int) *StringSchema { s.maxLen = n; return s }

// OneOf restricts the value to the given choices.
func (s *StringSchema) OneOf(values ...string) *StringSchema {
	s.choices = append(s.choices, values...)
	return s
}

// Rule adds an expression that must evaluate to true for the value.
func (s *StringSchema) Rule(src string) *StringSchema { s.rules.add(src); return s }

func (s *StringSchema) TypeName() string {
	if len(s.choices) > 0 {
		return "enum"
	}
	return "string"
}

func (s *StringSchema) Coerce(ctx context.Context, v any) (any, error) {
	str, ok := v.(string)
	if !ok {
		return nil, invalidType(ctx, "expected string")
	}
	var iss docskema.Issues
	n := utf8.RuneCountInString(str)
	if s.minLen >= 0 && n < s.minLen {
		iss = docskema.AppendIssues(iss, docskema.Issue{Path: "/", Code: docskema.CodeTooShort, Message: i18n.T(ctx, docskema.CodeTooShort, nil), Hint: "string is shorter than min", Params: map[string]any{"min": s.minLen, "got": n}})
	}
	if s.maxLen >= 0 && n > s.maxLen {
		iss = docskema.AppendIssues(iss, docskema.Issue{Path: "/", Code: docskema.CodeTooLong, Message: i18n.T(ctx, docskema.CodeTooLong, nil), Hint: "string is longer than max", Params: map[string]any{"max": s.maxLen, "got": n}})
	}
	if len(s.choices) > 0 && !contains(s.choices, str) {
		iss = docskema.AppendIssues(iss, docskema.Issue{Path: "/", Code: docskema.CodeInvalidEnum, Message: i18n.T(ctx, docskema.CodeInvalidEnum, nil), Params: map[string]any{"allowed": s.choices}})
	}
	iss = append(iss, s.rules.check(ctx, str)...)
	if len(iss) > 0 {
		return nil, iss
	}
	return str, nil
}

func (s *StringSchema) JSONSchema() *js.Schema {
	out := &js.Schema{Type: "string"}
	if s.minLen >= 0 {
		v := s.minLen
		out.MinLength = &v
	}
	if s.maxLen >= 0 {
		v := s.maxLen
		out.MaxLength = &v
	}
	for _, c := range s.choices {
		out.Enum = append(out.Enum, c)
	}
	return out
}

func (s *StringSchema) build() (*docskema.Node, error) { return scalarNode(s, s.rules.err) }

// IntSchema is an integer scalar stored as int64.
type IntSchema struct {
	bounds
	rules rules
}

// Int returns an integer scalar.
func Int() *IntSchema { return &IntSchema{} }

// Min sets the inclusive lower bound.
func (s *IntSchema) Min(n int64) *IntSchema { s.setMin(float64(n)); return s }

// Max sets the inclusive upper bound.
func (s *IntSchema) Max(n int64) *IntSchema { s.setMax(float64(n)); return s }

// Rule adds an expression that must evaluate to true for the value.
func (s *IntSchema) Rule(src string) *IntSchema { s.rules.add(src); return s }

func (s *IntSchema) TypeName() string { return "int" }

func (s *IntSchema) Coerce(ctx context.Context, v any) (any, error) {
	n, ok := toInt64(v)
	if !ok {
		return nil, invalidType(ctx, "expected integer")
	}
	iss := s.check(ctx, float64(n))
	iss = append(iss, s.rules.check(ctx, n)...)
	if len(iss) > 0 {
		return nil, iss
	}
	return n, nil
}

func (s *IntSchema) JSONSchema() *js.Schema {
	out := &js.Schema{Type: "integer"}
	s.project(out)
	return out
}

func (s *IntSchema) build() (*docskema.Node, error) { return scalarNode(s, s.rules.err) }

// FloatSchema is a floating point scalar stored as float64.
type FloatSchema struct {
	bounds
	rules rules
}

// Float returns a floating point scalar.
func Float() *FloatSchema { return &FloatSchema{} }

// Min sets the inclusive lower bound.
func (s *FloatSchema) Min(f float64) *FloatSchema { s.setMin(f); return s }

// Max sets the inclusive upper bound.
func (s *FloatSchema) Max(f float64) *FloatSchema { s.setMax(f); return s }

// Rule adds an expression that must evaluate to true for the value.
func (s *FloatSchema) Rule(src string) *FloatSchema { s.rules.add(src); return s }

func (s *FloatSchema) TypeName() string { return "float" }

func (s *FloatSchema) Coerce(ctx context.Context, v any) (any, error) {
	f, ok := toFloat64(v)
	if !ok {
		return nil, invalidType(ctx, "expected number")
	}
	iss := s.check(ctx, f)
	iss = append(iss, s.rules.check(ctx, f)...)
	if len(iss) > 0 {
		return nil, iss
	}
	return f, nil
}

func (s *FloatSchema) JSONSchema() *js.Schema {
	out := &js.Schema{Type: "number"}
	s.project(out)
	return out
}

func (s *FloatSchema) build() (*docskema.Node, error) { return scalarNode(s, s.rules.err) }

// BoolSchema is a boolean scalar.
type BoolSchema struct{}

// Bool returns a boolean scalar.
func Bool() *BoolSchema { return &BoolSchema{} }

func (s *BoolSchema) TypeName() string { return "bool" }

func (s *BoolSchema) Coerce(ctx context.Context, v any) (any, error) {
	b, ok := v.(bool)
	if !ok {
		return nil, invalidType(ctx, "expected boolean")
	}
	return b, nil
}

func (s *BoolSchema) JSONSchema() *js.Schema { return &js.Schema{Type: "boolean"} }

func (s *BoolSchema) build() (*docskema.Node, error) { return scalarNode(s, nil) }

// ---- helpers ----

type bounds struct {
	min, max *float64
}

func (b *bounds) setMin(f float64) { b.min = &f }
func (b *bounds) setMax(f float64) { b.max = &f }

func (b *bounds) check(ctx context.Context, f float64) docskema.Issues {
	var iss docskema.Issues
	if b.min != nil && f < *b.min {
		iss = docskema.AppendIssues(iss, docskema.Issue{Path: "/", Code: docskema.CodeTooSmall, Message: i18n.T(ctx, docskema.CodeTooSmall, nil), Params: map[string]any{"min": *b.min, "got": f}})
	}
	if b.max != nil && f > *b.max {
		iss = docskema.AppendIssues(iss, docskema.Issue{Path: "/", Code: docskema.CodeTooBig, Message: i18n.T(ctx, docskema.CodeTooBig, nil), Params: map[string]any{"max": *b.max, "got": f}})
	}
	return iss
}

func (b *bounds) project(s *js.Schema) {
	s.Minimum = b.min
	s.Maximum = b.max
}

func scalarNode(s docskema.Scalar, err error) (*docskema.Node, error) {
	if err != nil {
		return nil, err
	}
	return &docskema.Node{Kind: docskema.KindScalar, Scalar: s, MinItems: -1, MaxItems: -1}, nil
}

func invalidType(ctx context.Context, hint string) error {
	return docskema.Issues{{Path: "/", Code: docskema.CodeInvalidType, Message: i18n.T(ctx, docskema.CodeInvalidType, nil), Hint: hint}}
}

func contains(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}

func toInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int8:
		return int64(t), true
	case int16:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case uint8:
		return int64(t), true
	case uint16:
		return int64(t), true
	case uint32:
		return int64(t), true
	case float32:
		return toInt64(float64(t))
	case float64:
		if t != math.Trunc(t) || math.IsInf(t, 0) || t >= 1<<63 || t < math.MinInt64 {
			return 0, false
		}
		return int64(t), true
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(string(t), 64); err == nil {
			return toInt64(f)
		}
	}
	return 0, false
}

func toFloat64(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	}
	if n, ok := toInt64(v); ok {
		return float64(n), true
	}
	return 0, false
}

package codec

import (
	"context"
	"time"

	docskema "github.com/reoring/docskema"
	"github.com/reoring/docskema/i18n"
)

// TimeRFC3339 returns a Codec that converts between RFC3339 strings and time.Time.
func TimeRFC3339() Codec[string, time.Time] { return rfc3339Codec{} }

type rfc3339Codec struct{}

func (rfc3339Codec) Decode(ctx context.Context, a string) (time.Time, error) {
	t, err := parseRFC3339(a)
	if err != nil {
		return time.Time{}, docskema.Issues{{Path: "/", Code: docskema.CodeInvalidFormat, Message: i18n.T(ctx, docskema.CodeInvalidFormat, nil), Hint: "rfc3339", Cause: err}}
	}
	return t.UTC(), nil
}

func (rfc3339Codec) Encode(ctx context.Context, b time.Time) (string, error) {
	return formatRFC3339Canonical(b), nil
}

// DecodeTime accepts a time.Time or an RFC3339 string and returns the UTC time.
func DecodeTime(ctx context.Context, v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		return TimeRFC3339().Decode(ctx, t)
	}
	return time.Time{}, invalidType(ctx, "expected RFC3339 string")
}

// FormatTime renders t in the canonical RFC3339 form used for representations.
func FormatTime(t time.Time) string { return formatRFC3339Canonical(t) }

func parseRFC3339(s string) (time.Time, error) {
	// Accept RFC3339Nano (trailing zeros optional)
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		if t2, err2 := time.Parse(time.RFC3339, s); err2 == nil {
			return t2, nil
		}
		return time.Time{}, err
	}
	return t, nil
}

func formatRFC3339Canonical(t time.Time) string {
	// Normalize to UTC and format using RFC3339Nano (Go trims trailing zeros)
	return t.UTC().Format(time.RFC3339Nano)
}

func invalidType(ctx context.Context, hint string) error {
	return docskema.Issues{{Path: "/", Code: docskema.CodeInvalidType, Message: i18n.T(ctx, docskema.CodeInvalidType, nil), Hint: hint}}
}

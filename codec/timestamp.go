package codec

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"time"

	docskema "github.com/reoring/docskema"
	"github.com/reoring/docskema/i18n"
)

// UnixTimestamp returns a Codec between Unix seconds and time.Time.
func UnixTimestamp() Codec[int64, time.Time] { return unixCodec{} }

type unixCodec struct{}

func (unixCodec) Decode(ctx context.Context, a int64) (time.Time, error) {
	return time.Unix(a, 0).UTC(), nil
}

func (unixCodec) Encode(ctx context.Context, b time.Time) (int64, error) {
	return b.Unix(), nil
}

// DecodeTimestamp accepts Unix seconds in any numeric form, a decimal string
// or a time.Time, and returns Unix seconds.
func DecodeTimestamp(ctx context.Context, v any) (int64, error) {
	switch t := v.(type) {
	case time.Time:
		return t.Unix(), nil
	case int:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case int64:
		return t, nil
	case float64:
		if t != math.Trunc(t) {
			return 0, badTimestamp(ctx)
		}
		return int64(t), nil
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0, badTimestamp(ctx)
		}
		return n, nil
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return 0, badTimestamp(ctx)
		}
		return n, nil
	}
	return 0, invalidType(ctx, "expected unix seconds")
}

func badTimestamp(ctx context.Context) error {
	return docskema.Issues{{Path: "/", Code: docskema.CodeInvalidFormat, Message: i18n.T(ctx, docskema.CodeInvalidFormat, nil), Hint: "unix seconds"}}
}

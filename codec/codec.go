// Package codec converts scalar values between their wire form and the
// canonical form the engine stores, and renders stored documents for display.
package codec

import "context"

// Codec converts a wire value A into its stored form B and back.
type Codec[A, B any] interface {
	Decode(ctx context.Context, a A) (B, error)
	Encode(ctx context.Context, b B) (A, error)
}

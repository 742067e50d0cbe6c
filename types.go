package docskema

import "time"

// Kind is the shape of a schema node. It is fixed when the schema is built.
type Kind uint8

const (
	KindScalar Kind = iota
	KindObject
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	}
	return "unknown"
}

// Mode is the update intent resolved for one node of a payload.
type Mode uint8

const (
	ModeCreate  Mode = iota // New document or sub-document; identity is minted when missing.
	ModeReplace             // Existing scalar/object field is overwritten.
	ModeEdit                // Existing array element matched by identity; fields set in place.
)

func (m Mode) String() string {
	switch m {
	case ModeCreate:
		return "create"
	case ModeReplace:
		return "replace"
	case ModeEdit:
		return "edit"
	}
	return "unknown"
}

// UnknownPolicy controls how instance keys without a schema field are handled.
type UnknownPolicy int

const (
	UnknownStrip  UnknownPolicy = iota // Drop unknown keys.
	UnknownStrict                      // Reject unknown keys with an issue.
)

// SaveOpt bundles per-call options. The zero value is a full (non-partial)
// save with collected issues, English messages and unknown keys stripped.
type SaveOpt struct {
	// Partial suppresses required checks for absent fields and writes only the
	// fields present in the instance.
	Partial bool
	// FailFast stops the walk at the first field issue.
	FailFast bool
	// Lang selects the language of issue messages ("en", "ja").
	Lang    string
	Unknown UnknownPolicy
	// Now is the clock used for generated timestamps. Nil means time.Now.
	Now func() time.Time
}

func (o SaveOpt) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

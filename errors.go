package docskema

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeInvalidType   = "invalid_type"
	CodeInvalidFormat = "invalid_format"
	CodeRequired      = "required"
	CodeNull          = "null"
	CodeUnknownKey    = "unknown_key"
	CodeTooSmall      = "too_small"
	CodeTooBig        = "too_big"
	CodeTooShort      = "too_short"
	CodeTooLong       = "too_long"
	CodeInvalidEnum   = "invalid_enum"
	CodeRule          = "rule"
	CodeImmutable     = "immutable"
	CodeConflict      = "conflict"
)

// Issue represents a single field-level validation entry.
type Issue struct {
	Path    string // JSON Pointer into the instance (for example: /comments/2/body).
	Code    string // One of the codes listed above.
	Message string
	Hint    string // Optional: remediation hints, format names, etc.
	Cause   error  // Optional: underlying error.
	// Params carries structured parameters (e.g., {"min":1, "max":10, "got":42})
	// for i18n and observability.
	Params map[string]any
}

// Issues is the aggregated validation error of one walk. It implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. invalid_type at /path
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Fields groups issue messages by pointer, the shape most callers render.
func (iss Issues) Fields() map[string][]string {
	out := make(map[string][]string, len(iss))
	for _, it := range iss {
		out[it.Path] = append(out[it.Path], it.Message)
	}
	return out
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// rebaseIssues moves issues reported relative to a value ("/" or "/sub") under
// the pointer base.
func rebaseIssues(base string, child Issues) Issues {
	out := make(Issues, 0, len(child))
	for _, it := range child {
		p := it.Path
		switch {
		case p == "" || p == "/":
			p = base
		case p[0] == '/':
			p = joinPointer(base, p)
		default:
			p = joinPointer(base, "/"+p)
		}
		it.Path = p
		out = append(out, it)
	}
	return out
}

func joinPointer(base, rel string) string {
	if base == "/" {
		return rel
	}
	return base + rel
}

// FormatError reports a malformed identity string. It is surfaced immediately
// and never aggregated with field issues.
type FormatError struct {
	Path  string // JSON Pointer of the offending value, when known.
	Value string
	Err   error
}

func (e *FormatError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("docskema: malformed identity %q at %s", e.Value, e.Path)
	}
	return fmt.Sprintf("docskema: malformed identity %q", e.Value)
}

func (e *FormatError) Unwrap() error { return e.Err }

// ConflictError reports a uniqueness violation on one field.
type ConflictError struct {
	Path    string // JSON Pointer of the field in the instance.
	Field   string // Dotted store path that was queried.
	Value   any
	Message string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("docskema: %s at %s", e.Message, e.Path)
}

// Issues renders the conflict as a validation issue on the offending field.
func (e *ConflictError) Issues() Issues {
	return Issues{{Path: e.Path, Code: CodeConflict, Message: e.Message, Params: map[string]any{"field": e.Field}}}
}

// UnsupportedShapeError reports data or nesting the engine refuses to plan:
// a value that is not the expected object/array form, or an update that would
// cross more than one unresolved array boundary. It is a usage error, not a
// user input error.
type UnsupportedShapeError struct {
	Path   string
	Reason string
}

func (e *UnsupportedShapeError) Error() string {
	return fmt.Sprintf("docskema: unsupported shape at %s: %s", e.Path, e.Reason)
}

// StoreError wraps a failure returned by the document store. Committed counts
// the operations of the batch that had already been applied.
type StoreError struct {
	Op        string
	Committed int
	Err       error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("docskema: store %s failed after %d committed operation(s): %v", e.Op, e.Committed, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// isFatal reports whether err must short-circuit a walk instead of being
// aggregated.
func isFatal(err error) bool {
	var fe *FormatError
	var ue *UnsupportedShapeError
	return errors.As(err, &fe) || errors.As(err, &ue)
}

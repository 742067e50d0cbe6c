// Package source decodes caller instances into the generic tree the walker
// consumes: map[string]any objects, []any arrays and scalars, with JSON
// numbers kept as json.Number so integers never lose precision.
package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	j "github.com/goccy/go-json"

	docskema "github.com/reoring/docskema"
)

// CodeDuplicateKey marks an object key that appears twice in one object.
const CodeDuplicateKey = "duplicate_key"

// DecodeJSON reads exactly one JSON object from r. Duplicate keys are
// reported as docskema.Issues; malformed JSON as a plain error.
func DecodeJSON(r io.Reader) (map[string]any, error) {
	dec := j.NewDecoder(r)
	dec.UseNumber()
	d := &decoder{dec: dec}
	v, err := d.value("")
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("source: trailing data after JSON value")
	}
	if len(d.dups) > 0 {
		return nil, d.dups
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, &docskema.UnsupportedShapeError{Path: "/", Reason: "instance must be a JSON object"}
	}
	return m, nil
}

// DecodeJSONBytes is DecodeJSON over a byte slice.
func DecodeJSONBytes(b []byte) (map[string]any, error) { return DecodeJSON(bytes.NewReader(b)) }

type decoder struct {
	dec  *j.Decoder
	dups docskema.Issues
}

func (d *decoder) value(at string) (any, error) {
	tok, err := d.dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("source: unexpected end of JSON at %s", orRoot(at))
		}
		return nil, fmt.Errorf("source: %w", err)
	}
	switch v := tok.(type) {
	case j.Delim:
		switch v {
		case '{':
			return d.object(at)
		case '[':
			return d.array(at)
		}
		return nil, fmt.Errorf("source: unexpected %q at %s", rune(v), orRoot(at))
	case j.Number:
		return json.Number(string(v)), nil
	case float64:
		return json.Number(strconv.FormatFloat(v, 'g', -1, 64)), nil
	case string, bool, nil:
		return v, nil
	}
	return nil, fmt.Errorf("source: unexpected token %T at %s", tok, orRoot(at))
}

func (d *decoder) object(at string) (map[string]any, error) {
	out := map[string]any{}
	for d.dec.More() {
		tok, err := d.dec.Token()
		if err != nil {
			return nil, fmt.Errorf("source: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("source: expected object key at %s", orRoot(at))
		}
		kp := at + "/" + escape(key)
		v, err := d.value(kp)
		if err != nil {
			return nil, err
		}
		if _, dup := out[key]; dup {
			d.dups = append(d.dups, docskema.Issue{Path: kp, Code: CodeDuplicateKey, Message: "duplicate key", Hint: key})
			continue
		}
		out[key] = v
	}
	if _, err := d.dec.Token(); err != nil { // '}'
		return nil, fmt.Errorf("source: %w", err)
	}
	return out, nil
}

func (d *decoder) array(at string) ([]any, error) {
	out := []any{}
	for i := 0; d.dec.More(); i++ {
		v, err := d.value(at + "/" + strconv.Itoa(i))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if _, err := d.dec.Token(); err != nil { // ']'
		return nil, fmt.Errorf("source: %w", err)
	}
	return out, nil
}

func escape(key string) string {
	return strings.ReplaceAll(strings.ReplaceAll(key, "~", "~0"), "/", "~1")
}

func orRoot(at string) string {
	if at == "" {
		return "/"
	}
	return at
}

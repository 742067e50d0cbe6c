package source

import (
	"bytes"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	docskema "github.com/reoring/docskema"
)

// DecodeYAML reads one YAML document holding a mapping. Non-string keys are
// dropped.
func DecodeYAML(r io.Reader) (map[string]any, error) {
	var v any
	if err := yaml.NewDecoder(r).Decode(&v); err != nil {
		if err == io.EOF {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("source: %w", err)
	}
	m := yamlAnyToStringMap(v)
	if m == nil {
		return nil, &docskema.UnsupportedShapeError{Path: "/", Reason: "instance must be a YAML mapping"}
	}
	return m, nil
}

// DecodeYAMLBytes is DecodeYAML over a byte slice.
func DecodeYAMLBytes(b []byte) (map[string]any, error) { return DecodeYAML(bytes.NewReader(b)) }

func yamlAnyToStringMap(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = yamlNormalizeValue(vv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			ks, ok := k.(string)
			if !ok {
				continue
			}
			out[ks] = yamlNormalizeValue(vv)
		}
		return out
	default:
		return nil
	}
}

func yamlNormalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any, map[any]any:
		return yamlAnyToStringMap(t)
	case []any:
		arr := make([]any, len(t))
		for i := range t {
			arr[i] = yamlNormalizeValue(t[i])
		}
		return arr
	default:
		return v
	}
}

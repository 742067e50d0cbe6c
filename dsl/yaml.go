package dsl

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	docskema "github.com/reoring/docskema"
)

// yamlField is one field (or the root object) of a YAML schema document:
//
//	fields:
//	  title: {type: string, required: true, max_len: 140}
//	  status: {type: enum, values: [draft, published], default: draft}
//	  comments:
//	    type: array
//	    items:
//	      type: object
//	      fields:
//	        body: {type: string, required: true}
//
// Field order in the mapping is the declaration order.
type yamlField struct {
	Type          string    `yaml:"type"`
	Required      bool      `yaml:"required"`
	Nullable      bool      `yaml:"nullable"`
	Default       yaml.Node `yaml:"default"`
	Unique        bool      `yaml:"unique"`
	UniqueMessage string    `yaml:"unique_message"`

	MinLen *int     `yaml:"min_len"`
	MaxLen *int     `yaml:"max_len"`
	Min    *float64 `yaml:"min"`
	Max    *float64 `yaml:"max"`
	Values []string `yaml:"values"`
	Rules  []string `yaml:"rules"`

	AutoNow    bool `yaml:"auto_now"`
	AutoNowAdd bool `yaml:"auto_now_add"`

	Items    *yamlField `yaml:"items"`
	MinItems *int       `yaml:"min_items"`
	MaxItems *int       `yaml:"max_items"`

	Fields  yaml.Node `yaml:"fields"`
	IDField *string   `yaml:"id_field"`
	NoID    bool      `yaml:"no_id"`
}

// LoadYAML builds a root object schema from a YAML document.
func LoadYAML(data []byte) (*docskema.Node, error) {
	var root yamlField
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("dsl: parse schema: %w", err)
	}
	if root.Type == "" {
		root.Type = "object"
	}
	if root.Type != "object" {
		return nil, fmt.Errorf("dsl: root schema must be an object, got %q", root.Type)
	}
	ob, err := root.object("")
	if err != nil {
		return nil, err
	}
	return ob.Build()
}

// LoadYAMLFile reads and builds a YAML schema file.
func LoadYAMLFile(path string) (*docskema.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dsl: read schema: %w", err)
	}
	return LoadYAML(data)
}

func (y *yamlField) object(at string) (*objectBuilder, error) {
	ob := Object()
	switch {
	case y.NoID:
		ob.NoID()
	case y.IDField != nil:
		ob.IDField(*y.IDField)
	}
	if y.Fields.Kind == 0 {
		return ob, nil
	}
	if y.Fields.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("dsl: %s: fields must be a mapping", orRoot(at))
	}
	for i := 0; i+1 < len(y.Fields.Content); i += 2 {
		name := y.Fields.Content[i].Value
		var f yamlField
		if err := y.Fields.Content[i+1].Decode(&f); err != nil {
			return nil, fmt.Errorf("dsl: %s/%s: %w", at, name, err)
		}
		s, err := f.schema(at + "/" + name)
		if err != nil {
			return nil, err
		}
		step := ob.Field(name, s)
		if f.Nullable {
			step.Nullable()
		}
		if f.Unique {
			step.Unique(f.UniqueMessage)
		}
		if f.Default.Kind != 0 {
			var v any
			if err := f.Default.Decode(&v); err != nil {
				return nil, fmt.Errorf("dsl: %s/%s: default: %w", at, name, err)
			}
			step.Default(v)
		}
		if f.Required {
			step.Required()
		}
	}
	return ob, nil
}

func (y *yamlField) schema(at string) (Schema, error) {
	switch y.Type {
	case "string", "enum":
		s := String()
		if y.MinLen != nil {
			s.MinLen(*y.MinLen)
		}
		if y.MaxLen != nil {
			s.MaxLen(*y.MaxLen)
		}
		if len(y.Values) > 0 {
			s.OneOf(y.Values...)
		} else if y.Type == "enum" {
			return nil, fmt.Errorf("dsl: %s: enum without values", at)
		}
		for _, r := range y.Rules {
			s.Rule(r)
		}
		return s, nil
	case "int", "integer":
		s := Int()
		if y.Min != nil {
			s.Min(int64(*y.Min))
		}
		if y.Max != nil {
			s.Max(int64(*y.Max))
		}
		for _, r := range y.Rules {
			s.Rule(r)
		}
		return s, nil
	case "float", "number":
		s := Float()
		if y.Min != nil {
			s.Min(*y.Min)
		}
		if y.Max != nil {
			s.Max(*y.Max)
		}
		for _, r := range y.Rules {
			s.Rule(r)
		}
		return s, nil
	case "bool", "boolean":
		return Bool(), nil
	case "datetime":
		s := Time()
		if y.AutoNow {
			s.AutoNow()
		}
		if y.AutoNowAdd {
			s.AutoNowAdd()
		}
		return s, nil
	case "timestamp":
		s := Timestamp()
		if y.AutoNow {
			s.AutoNow()
		}
		if y.AutoNowAdd {
			s.AutoNowAdd()
		}
		return s, nil
	case "id", "ref":
		return Ref(), nil
	case "object":
		return y.object(at)
	case "array":
		if y.Items == nil {
			return nil, fmt.Errorf("dsl: %s: array without items", at)
		}
		es, err := y.Items.schema(at + "/*")
		if err != nil {
			return nil, err
		}
		a := Array(es)
		if y.MinItems != nil {
			a.Min(*y.MinItems)
		}
		if y.MaxItems != nil {
			a.Max(*y.MaxItems)
		}
		return a, nil
	case "":
		return nil, fmt.Errorf("dsl: %s: missing type", orRoot(at))
	}
	return nil, fmt.Errorf("dsl: %s: unknown type %q", orRoot(at), y.Type)
}

func orRoot(at string) string {
	if at == "" {
		return "/"
	}
	return at
}

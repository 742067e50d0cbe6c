package docskema

import (
	"context"
	"fmt"
	"time"

	js "github.com/reoring/docskema/jsonschema"
)

// Scalar coerces one leaf value into its canonical on-disk representation.
// Implementations report field problems as Issues rooted at "/" and malformed
// identities as *FormatError.
type Scalar interface {
	TypeName() string
	Coerce(ctx context.Context, v any) (any, error)
	JSONSchema() *js.Schema
}

// GenContext tells a Generator which kind of write is running.
type GenContext struct {
	Create bool
	Now    time.Time
}

// Generator is implemented by scalars that produce a value when the caller
// omits the field (auto timestamps). ok=false means "nothing to generate".
type Generator interface {
	Generate(gc GenContext) (v any, ok bool)
}

// UniqueRule marks a field whose value must not appear in another document.
type UniqueRule struct {
	Message string
}

// Node is one node of the Schema Tree. Nodes are built once (see package dsl)
// and are immutable afterwards; walks never mutate them.
type Node struct {
	Kind Kind
	Name string

	// Object
	Fields  []*Node
	IDField string // identity field of the sub-document; "" when not addressable

	// Array
	Elem     *Node
	MinItems int // -1 when unset
	MaxItems int // -1 when unset

	// Scalar
	Scalar Scalar

	Required   bool
	Nullable   bool
	HasDefault bool
	Default    any
	Unique     *UniqueRule

	index map[string]*Node
}

// Field returns the child field named name, or nil.
func (n *Node) Field(name string) *Node {
	if n == nil || n.Kind != KindObject {
		return nil
	}
	if n.index != nil {
		return n.index[name]
	}
	for _, f := range n.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Seal checks the tree and caches lookups. Builders call it once; calling it
// again is harmless.
func (n *Node) Seal() error {
	return n.seal("/")
}

func (n *Node) seal(at string) error {
	switch n.Kind {
	case KindScalar:
		if n.Scalar == nil {
			return fmt.Errorf("docskema: scalar %s has no type", at)
		}
	case KindObject:
		n.index = make(map[string]*Node, len(n.Fields))
		for _, f := range n.Fields {
			if f == nil || f.Name == "" {
				return fmt.Errorf("docskema: unnamed field in %s", at)
			}
			if _, dup := n.index[f.Name]; dup {
				return fmt.Errorf("docskema: duplicate field %q in %s", f.Name, at)
			}
			if n.IDField != "" && f.Name == n.IDField {
				return fmt.Errorf("docskema: field %q in %s collides with the identity field", f.Name, at)
			}
			n.index[f.Name] = f
			if err := f.seal(joinPointer(at, "/"+f.Name)); err != nil {
				return err
			}
		}
	case KindArray:
		if n.Elem == nil {
			return fmt.Errorf("docskema: array %s has no element schema", at)
		}
		if err := n.Elem.seal(joinPointer(at, "/*")); err != nil {
			return err
		}
	default:
		return fmt.Errorf("docskema: unknown kind at %s", at)
	}
	if n.HasDefault && n.Kind != KindScalar && n.Default != nil {
		return fmt.Errorf("docskema: only scalar fields may declare a non-null default (%s)", at)
	}
	if n.Unique != nil && n.Kind != KindScalar {
		return fmt.Errorf("docskema: only scalar fields may be unique (%s)", at)
	}
	return nil
}

// JSONSchema projects the node into a JSON Schema representation.
func (n *Node) JSONSchema() *js.Schema {
	var s *js.Schema
	switch n.Kind {
	case KindScalar:
		s = n.Scalar.JSONSchema()
		if s == nil {
			s = &js.Schema{}
		}
	case KindObject:
		s = &js.Schema{Type: "object", Properties: map[string]*js.Schema{}}
		if n.IDField != "" {
			s.Properties[n.IDField] = &js.Schema{Type: "string", Format: "objectid"}
		}
		for _, f := range n.Fields {
			s.Properties[f.Name] = f.JSONSchema()
			if f.Required && !f.HasDefault {
				s.Required = append(s.Required, f.Name)
			}
		}
	case KindArray:
		s = &js.Schema{Type: "array", Items: n.Elem.JSONSchema()}
		if n.MinItems >= 0 {
			v := n.MinItems
			s.MinItems = &v
		}
		if n.MaxItems >= 0 {
			v := n.MaxItems
			s.MaxItems = &v
		}
	}
	if n.HasDefault {
		s.Default = n.Default
	}
	return s
}

package dsl

import (
	"context"
	"fmt"

	docskema "github.com/reoring/docskema"
)

// Schema is anything that builds a schema node: scalars, Object() and Array().
type Schema interface {
	build() (*docskema.Node, error)
}

type fieldDef struct {
	name       string
	schema     Schema
	required   bool
	nullable   bool
	hasDefault bool
	def        any
	unique     *docskema.UniqueRule
}

type objectBuilder struct {
	fields  []*fieldDef
	idField string
	err     error
}

type fieldStep struct {
	b *objectBuilder
	f *fieldDef
}

// Object creates a new object builder. Objects carry the "_id" identity field
// unless NoID or IDField says otherwise. Fields are optional by default.
func Object() *objectBuilder {
	return &objectBuilder{idField: docskema.DefaultIDField}
}

// Field registers a field. Declaration order is the walk and plan order.
func (b *objectBuilder) Field(name string, s Schema) *fieldStep {
	for _, f := range b.fields {
		if f.name == name && b.err == nil {
			b.err = fmt.Errorf("dsl: duplicate field %q", name)
		}
	}
	f := &fieldDef{name: name, schema: s}
	b.fields = append(b.fields, f)
	return &fieldStep{b: b, f: f}
}

// NoID declares an object without identity: it cannot be matched inside an
// array, only appended or replaced.
func (b *objectBuilder) NoID() *objectBuilder { b.idField = ""; return b }

// IDField renames the identity field.
func (b *objectBuilder) IDField(name string) *objectBuilder { b.idField = name; return b }

// Required marks the field as required and returns the builder.
func (f *fieldStep) Required() *objectBuilder {
	f.f.required = true
	return f.b
}

// Optional marks the field as optional (default) and returns the builder.
func (f *fieldStep) Optional() *objectBuilder {
	f.f.required = false
	return f.b
}

// Nullable accepts an explicit null and lets the field be omitted.
func (f *fieldStep) Nullable() *fieldStep {
	f.f.nullable = true
	return f
}

// Unique requires the value not to appear in any other document. The optional
// message replaces the default conflict message.
func (f *fieldStep) Unique(message ...string) *fieldStep {
	r := &docskema.UniqueRule{}
	if len(message) > 0 {
		r.Message = message[0]
	}
	f.f.unique = r
	return f
}

// Default sets the value used when the field is absent. It wins over
// Nullable. The value is coerced by the field schema at Build.
func (f *fieldStep) Default(v any) *objectBuilder {
	f.f.hasDefault = true
	f.f.def = v
	return f.b
}

func (f *fieldStep) Field(name string, s Schema) *fieldStep { return f.b.Field(name, s) }
func (f *fieldStep) NoID() *objectBuilder                   { return f.b.NoID() }
func (f *fieldStep) IDField(name string) *objectBuilder     { return f.b.IDField(name) }
func (f *fieldStep) Build() (*docskema.Node, error)         { return f.b.Build() }
func (f *fieldStep) MustBuild() *docskema.Node              { return f.b.MustBuild() }
func (f *fieldStep) build() (*docskema.Node, error)         { return f.b.build() }

// Build validates the builder and returns the sealed root node.
func (b *objectBuilder) Build() (*docskema.Node, error) {
	n, err := b.build()
	if err != nil {
		return nil, err
	}
	if err := n.Seal(); err != nil {
		return nil, err
	}
	return n, nil
}

// MustBuild is Build that panics on error.
func (b *objectBuilder) MustBuild() *docskema.Node {
	n, err := b.Build()
	if err != nil {
		panic(err)
	}
	return n
}

func (b *objectBuilder) build() (*docskema.Node, error) {
	if b.err != nil {
		return nil, b.err
	}
	n := &docskema.Node{Kind: docskema.KindObject, IDField: b.idField, MinItems: -1, MaxItems: -1}
	for _, fd := range b.fields {
		if fd.schema == nil {
			return nil, fmt.Errorf("dsl: field %q has no schema", fd.name)
		}
		fn, err := fd.schema.build()
		if err != nil {
			return nil, fmt.Errorf("dsl: field %q: %w", fd.name, err)
		}
		fn.Name = fd.name
		fn.Required = fd.required
		fn.Nullable = fd.nullable
		fn.Unique = fd.unique
		if fd.hasDefault {
			fn.HasDefault = true
			if fd.def != nil {
				if fn.Kind != docskema.KindScalar {
					return nil, fmt.Errorf("dsl: field %q: only scalar fields take a non-null default", fd.name)
				}
				v, err := fn.Scalar.Coerce(context.Background(), fd.def)
				if err != nil {
					return nil, fmt.Errorf("dsl: field %q: invalid default: %w", fd.name, err)
				}
				fn.Default = v
			}
		}
		n.Fields = append(n.Fields, fn)
	}
	return n, nil
}

type arrayBuilder struct {
	elem   Schema
	minLen int
	maxLen int
}

// Array returns an array schema with the given element schema. Arrays of
// objects with identity are reconciled element by element on update; other
// arrays are written whole.
func Array(elem Schema) *arrayBuilder {
	return &arrayBuilder{elem: elem, minLen: -1, maxLen: -1}
}

// Min sets the minimum length.
func (a *arrayBuilder) Min(n int) *arrayBuilder { a.minLen = n; return a }

// Max sets the maximum length.
func (a *arrayBuilder) Max(n int) *arrayBuilder { a.maxLen = n; return a }

func (a *arrayBuilder) build() (*docskema.Node, error) {
	if a.elem == nil {
		return nil, fmt.Errorf("dsl: array without element schema")
	}
	en, err := a.elem.build()
	if err != nil {
		return nil, err
	}
	return &docskema.Node{Kind: docskema.KindArray, Elem: en, MinItems: a.minLen, MaxItems: a.maxLen}, nil
}

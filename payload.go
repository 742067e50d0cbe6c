package docskema

import "strings"

// Intent is the update decision attached to one payload node.
type Intent struct {
	Path  string // dotted store path ("" for the root)
	Mode  Mode
	ID    ID
	HasID bool
	// Self is set when a sub-document carries its parent's own identity.
	Self  bool
	Match *Match // set for array elements edited in place
}

// Match locates an existing array element by identity.
type Match struct {
	Array string // dotted store path of the array
	Field string // identity field name inside the element
	ID    ID
}

// Payload is the Validated Payload: a tree mirroring the instance where every
// node carries its Intent and scalars hold their canonical value.
type Payload struct {
	Node    *Node
	Key     string // field name; "" for the root and for array elements
	Pointer string
	Flags   Presence
	Intent  Intent
	Null    bool // explicit or defaulted null object/array

	Value  any        // scalars only
	Fields []*Payload // objects, in declaration order
	Elems  []*Payload // arrays
	Elem   bool       // node is an array element
}

// walk visits p and its descendants in order. Returning false from fn skips
// the children of the visited node.
func (p *Payload) walk(fn func(*Payload) bool) {
	if p == nil || !fn(p) {
		return
	}
	for _, f := range p.Fields {
		f.walk(fn)
	}
	for _, e := range p.Elems {
		e.walk(fn)
	}
}

// Child returns the direct field payload named key, or nil.
func (p *Payload) Child(key string) *Payload {
	for _, f := range p.Fields {
		if f.Key == key {
			return f
		}
	}
	return nil
}

// Intents lists the Intent of every node in walk order.
func (p *Payload) Intents() []Intent {
	var out []Intent
	p.walk(func(n *Payload) bool {
		out = append(out, n.Intent)
		return true
	})
	return out
}

// Document renders an object payload as a store document, identities included.
func (p *Payload) Document() Document {
	d, _ := p.value().(Document)
	return d
}

func (p *Payload) value() any {
	if p.Null {
		return nil
	}
	switch p.Node.Kind {
	case KindObject:
		d := make(Document, len(p.Fields)+1)
		if p.Node.IDField != "" && p.Intent.HasID && !p.Intent.Self {
			d[p.Node.IDField] = p.Intent.ID
		}
		for _, f := range p.Fields {
			d[f.Key] = f.value()
		}
		return d
	case KindArray:
		out := make([]any, 0, len(p.Elems))
		for _, e := range p.Elems {
			out = append(out, e.value())
		}
		return out
	default:
		return p.Value
	}
}

// UniqueCheck is one uniqueness lookup derived from a payload.
type UniqueCheck struct {
	Pointer string
	Field   string // dotted store path without positional markers
	Value   any
	Message string
}

// UniqueChecks lists the lookups required by fields declared unique. Fields
// holding null are skipped.
func (p *Payload) UniqueChecks() []UniqueCheck {
	var out []UniqueCheck
	p.walk(func(n *Payload) bool {
		if n.Node.Unique == nil || n.Null || n.Value == nil {
			return true
		}
		msg := n.Node.Unique.Message
		out = append(out, UniqueCheck{
			Pointer: n.Pointer,
			Field:   stripMarkers(n.Intent.Path),
			Value:   n.Value,
			Message: msg,
		})
		return true
	})
	return out
}

func stripMarkers(storePath string) string {
	segs := strings.Split(storePath, ".")
	out := segs[:0]
	for _, s := range segs {
		if s != Positional {
			out = append(out, s)
		}
	}
	return strings.Join(out, ".")
}

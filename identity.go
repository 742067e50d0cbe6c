package docskema

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ID is the identity token of a document or sub-document. Its canonical string
// form is 24 lowercase hex characters.
type ID = primitive.ObjectID

// NilID is the zero identity; it means "no identity supplied".
var NilID ID

// DefaultIDField is the identity field name used when a schema does not set one.
const DefaultIDField = "_id"

// NewID mints a fresh identity.
func NewID() ID { return primitive.NewObjectID() }

// ParseID decodes the canonical string form. Malformed input yields a
// *FormatError.
func ParseID(s string) (ID, error) {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return NilID, &FormatError{Value: s, Err: err}
	}
	return id, nil
}

// idFromValue reads an identity from an instance value. ok is false when the
// value is absent (nil). Strings are parsed; IDs pass through.
func idFromValue(v any, pointer string) (id ID, ok bool, err error) {
	switch t := v.(type) {
	case nil:
		return NilID, false, nil
	case ID:
		if t.IsZero() {
			return NilID, false, nil
		}
		return t, true, nil
	case string:
		if t == "" {
			return NilID, false, nil
		}
		id, err := ParseID(t)
		if err != nil {
			fe := err.(*FormatError)
			fe.Path = pointer
			return NilID, false, fe
		}
		return id, true, nil
	default:
		return NilID, false, &FormatError{Path: pointer, Value: typeName(v)}
	}
}

// resolution is the outcome of resolving the identity of one object node.
type resolution struct {
	id   ID
	mode Mode
	self bool
}

// resolveIdentity decides whether an object instance represents a new
// sub-document or an existing one.
//
//   - no identity supplied: a fresh identity is minted and the node is Create,
//     both for a root creation and for a sub-document introduced during an update
//   - identity supplied inside a subtree being created: kept, still Create
//   - array elements carrying an identity: Edit
//   - object field carrying the parent's own identity: editing self, Replace
//   - other object fields: Replace
func resolveIdentity(n *Node, inst map[string]any, sc scope, elem bool) (resolution, error) {
	if n.IDField == "" {
		if sc.create {
			return resolution{mode: ModeCreate}, nil
		}
		if elem {
			// elements without an identity field can only be appended
			return resolution{mode: ModeCreate}, nil
		}
		return resolution{mode: ModeReplace}, nil
	}
	id, ok, err := idFromValue(inst[n.IDField], sc.path.Field(n.IDField).Pointer())
	if err != nil {
		return resolution{}, err
	}
	if !ok {
		return resolution{id: NewID(), mode: ModeCreate}, nil
	}
	if sc.create {
		return resolution{id: id, mode: ModeCreate}, nil
	}
	if elem {
		return resolution{id: id, mode: ModeEdit}, nil
	}
	if !sc.parentID.IsZero() && id == sc.parentID {
		return resolution{id: id, mode: ModeReplace, self: true}, nil
	}
	return resolution{id: id, mode: ModeReplace}, nil
}

// Package id provides the stable identifiers used across the asset
// property graph: item identities for entries of identifiable collections
// and dictionaries, index selectors, and node paths rooted at an asset's
// root node.
package id

import (
	"fmt"

	"github.com/google/uuid"
)

// ItemId is the 128-bit opaque identity of an entry inside an
// identifiable collection or dictionary, independent of its index or key.
type ItemId uuid.UUID

// Empty is the sentinel ItemId used where "no identity" is meant.
var Empty = ItemId{}

// NewItemId generates a fresh, non-empty ItemId.
func NewItemId() ItemId {
	return ItemId(uuid.New())
}

// IsEmpty reports whether id is the Empty sentinel.
func (i ItemId) IsEmpty() bool {
	return i == Empty
}

func (i ItemId) String() string {
	return uuid.UUID(i).String()
}

// ParseItemId parses the canonical string form of an ItemId.
func ParseItemId(s string) (ItemId, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return Empty, fmt.Errorf("parsing item id %q: %w", s, err)
	}
	return ItemId(u), nil
}

// Index selects a position within an IndexedObject: either an integer
// position (collections) or an arbitrary key value (dictionaries).
// EmptyIndex selects "no index", used for plain member content.
type Index struct {
	valid bool
	isInt bool
	asInt int
	asKey interface{}
}

// EmptyIndex is the zero Index value, selecting no position.
var EmptyIndex = Index{}

// IntIndex builds an integer (collection) index.
func IntIndex(i int) Index {
	return Index{valid: true, isInt: true, asInt: i}
}

// KeyIndex builds an arbitrary-key (dictionary) index.
func KeyIndex(key interface{}) Index {
	return Index{valid: true, isInt: false, asKey: key}
}

// IsEmpty reports whether this is the EmptyIndex sentinel.
func (x Index) IsEmpty() bool {
	return !x.valid
}

// IsInt reports whether this index is an integer collection position.
func (x Index) IsInt() bool {
	return x.valid && x.isInt
}

// Int returns the integer position. Only valid when IsInt() is true.
func (x Index) Int() int {
	return x.asInt
}

// Key returns the dictionary key value. Only valid when IsInt() is false
// and IsEmpty() is false.
func (x Index) Key() interface{} {
	return x.asKey
}

// Value returns the index's selector as a plain interface{}: an int for
// collection positions, the raw key for dictionary entries. Used when
// building NodePath steps from a live index.
func (x Index) Value() interface{} {
	if x.isInt {
		return x.asInt
	}
	return x.asKey
}

// Equal reports value equality between two indexes.
func (x Index) Equal(other Index) bool {
	if x.valid != other.valid {
		return false
	}
	if !x.valid {
		return true
	}
	if x.isInt != other.isInt {
		return false
	}
	if x.isInt {
		return x.asInt == other.asInt
	}
	return x.asKey == other.asKey
}

func (x Index) String() string {
	if !x.valid {
		return "<empty>"
	}
	if x.isInt {
		return fmt.Sprintf("[%d]", x.asInt)
	}
	return fmt.Sprintf("[%v]", x.asKey)
}

// StepKind classifies a single NodePath step.
type StepKind int

const (
	StepMember StepKind = iota
	StepIndex
	StepItemId
)

// Step is one element of a NodePath: a member name, an arbitrary index
// value, or an ItemId.
type Step struct {
	Kind   StepKind
	Name   string      // valid when Kind == StepMember
	Value  interface{} // valid when Kind == StepIndex
	ItemId ItemId      // valid when Kind == StepItemId
}

// Member builds a member-name path step.
func Member(name string) Step { return Step{Kind: StepMember, Name: name} }

// IndexStep builds an index-value path step.
func IndexStep(value interface{}) Step { return Step{Kind: StepIndex, Value: value} }

// ItemIdStep builds an ItemId path step.
func ItemIdStep(itemID ItemId) Step { return Step{Kind: StepItemId, ItemId: itemID} }

func (s Step) String() string {
	switch s.Kind {
	case StepMember:
		return "." + s.Name
	case StepIndex:
		return fmt.Sprintf("[%v]", s.Value)
	case StepItemId:
		return fmt.Sprintf("{%s}", s.ItemId)
	default:
		return "?"
	}
}

// NodePath is an ordered list of steps rooted at the asset's root node.
type NodePath []Step

// String renders a NodePath as a human-readable dotted/bracketed path.
func (p NodePath) String() string {
	out := "$"
	for _, s := range p {
		out += s.String()
	}
	return out
}

// Append returns a new NodePath with step appended.
func (p NodePath) Append(s Step) NodePath {
	next := make(NodePath, len(p), len(p)+1)
	copy(next, p)
	return append(next, s)
}

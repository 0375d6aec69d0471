// Package node implements the tagged-variant node graph that materializes
// an asset as a navigable tree of members, objects, collections, and
// dictionaries (spec component B).
package node

import (
	"fmt"

	"github.com/kailayerhq/assetgraph/errs"
	"github.com/kailayerhq/assetgraph/id"
)

// Kind tags which of the four node variants a Node is.
type Kind int

const (
	KindMember Kind = iota
	KindObject
	KindCollection
	KindDictionary
)

func (k Kind) String() string {
	switch k {
	case KindMember:
		return "Member"
	case KindObject:
		return "Object"
	case KindCollection:
		return "Collection"
	case KindDictionary:
		return "Dictionary"
	default:
		return "Unknown"
	}
}

// ChangeKind classifies an IndexedObject mutation.
type ChangeKind int

const (
	CollectionAdd ChangeKind = iota
	CollectionRemove
	CollectionUpdate
)

// ContentRef is an attached reference carrying (id, url) to another asset
// document (glossary: content reference), as opposed to an object
// reference which points within the same asset.
type ContentRef struct {
	ID  string
	URL string
}

// Node is the common tag shared by all four variants.
type Node interface {
	Kind() Kind
}

// EventSink receives raw mutation notifications. node mutators call it
// directly (never through a subscription list), using the sink of the
// node being mutated. A value inserted into a collection or dictionary,
// or assigned to a member, keeps whatever sink it already had (none for
// a freshly built or cloned node); mutators do not wire it (spec
// component C).
type EventSink interface {
	Changing(m *MemberNode, oldValue interface{})
	Changed(m *MemberNode, oldValue, newValue interface{})
	ItemChanging(n IndexedObject, kind ChangeKind, idx id.Index, oldValue interface{})
	ItemChanged(n IndexedObject, kind ChangeKind, idx id.Index, newValue interface{})
}

// Item is one (index, identity, value) triple of an IndexedObject,
// returned in traversal order.
type Item struct {
	Index  id.Index
	ItemId id.ItemId // id.Empty when the owning node is not identifiable
	Value  interface{}
}

// IndexedObject is the shared contract for CollectionNode and
// DictionaryNode (spec §3.1).
type IndexedObject interface {
	Node
	Identifiable() bool
	ElementsAreReferences() bool
	SetSink(s EventSink)
	Len() int
	Retrieve(idx id.Index) (interface{}, bool)
	Update(newValue interface{}, idx id.Index) error
	Add(value interface{}, idx id.Index) (id.ItemId, error)
	Remove(idx id.Index) (interface{}, id.ItemId, error)
	Restore(value interface{}, idx id.Index, itemID id.ItemId) error
	IndexedTarget(idx id.Index) (*ObjectNode, bool)
	ItemIdAt(idx id.Index) id.ItemId
	IndexOf(itemID id.ItemId) (id.Index, bool)
	Items() []Item
}

// ErrIndexOutOfRange reports an index that does not address a live item.
var ErrIndexOutOfRange = fmt.Errorf("%w: index out of range", errs.InvalidArgument)

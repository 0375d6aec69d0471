package node

import "github.com/kailayerhq/assetgraph/id"

// CollectionNode is an ordered sequence of items, each addressable by
// integer index and, if identifiable, by a stable ItemId.
type CollectionNode struct {
	identifiable bool
	// elementsAreReferences marks that each item is an *ObjectNode
	// reference rather than an owned primitive value.
	elementsAreReferences bool

	items []interface{}
	ids   []id.ItemId // parallel to items; id.Empty entries when not identifiable

	sink EventSink
}

// NewCollectionNode creates an empty collection.
func NewCollectionNode(identifiable, elementsAreReferences bool) *CollectionNode {
	return &CollectionNode{identifiable: identifiable, elementsAreReferences: elementsAreReferences}
}

func (c *CollectionNode) Kind() Kind                  { return KindCollection }
func (c *CollectionNode) Identifiable() bool          { return c.identifiable }
func (c *CollectionNode) Len() int                    { return len(c.items) }
func (c *CollectionNode) SetSink(s EventSink)          { c.sink = s }
func (c *CollectionNode) ElementsAreReferences() bool { return c.elementsAreReferences }

func (c *CollectionNode) Retrieve(idx id.Index) (interface{}, bool) {
	pos := idx.Int()
	if pos < 0 || pos >= len(c.items) {
		return nil, false
	}
	return c.items[pos], true
}

func (c *CollectionNode) Update(newValue interface{}, idx id.Index) error {
	pos := idx.Int()
	if pos < 0 || pos >= len(c.items) {
		return ErrIndexOutOfRange
	}
	old := c.items[pos]
	if c.sink != nil {
		c.sink.ItemChanging(c, CollectionUpdate, idx, old)
	}
	c.items[pos] = newValue
	if c.sink != nil {
		c.sink.ItemChanged(c, CollectionUpdate, idx, newValue)
	}
	return nil
}

// Add inserts value at position idx, generating a fresh ItemId when the
// collection is identifiable, and returns that id (id.Empty otherwise).
func (c *CollectionNode) Add(value interface{}, idx id.Index) (id.ItemId, error) {
	itemID := id.Empty
	if c.identifiable {
		itemID = id.NewItemId()
	}
	if err := c.insert(idx.Int(), value, itemID, CollectionAdd); err != nil {
		return id.Empty, err
	}
	return itemID, nil
}

// Restore is identical to Add but preserves an externally chosen ItemId
// instead of generating one — used by the reconciler to restore items
// without disturbing their identity (spec §4.1).
func (c *CollectionNode) Restore(value interface{}, idx id.Index, itemID id.ItemId) error {
	return c.insert(idx.Int(), value, itemID, CollectionAdd)
}

func (c *CollectionNode) insert(pos int, value interface{}, itemID id.ItemId, kind ChangeKind) error {
	if pos < 0 || pos > len(c.items) {
		return ErrIndexOutOfRange
	}
	idx := id.IntIndex(pos)
	if c.sink != nil {
		c.sink.ItemChanging(c, kind, idx, nil)
	}
	c.items = append(c.items, nil)
	copy(c.items[pos+1:], c.items[pos:])
	c.items[pos] = value

	if c.identifiable {
		c.ids = append(c.ids, id.Empty)
		copy(c.ids[pos+1:], c.ids[pos:])
		c.ids[pos] = itemID
	}
	if c.sink != nil {
		c.sink.ItemChanged(c, kind, idx, value)
	}
	return nil
}

func (c *CollectionNode) Remove(idx id.Index) (interface{}, id.ItemId, error) {
	pos := idx.Int()
	if pos < 0 || pos >= len(c.items) {
		return nil, id.Empty, ErrIndexOutOfRange
	}
	old := c.items[pos]
	if c.sink != nil {
		c.sink.ItemChanging(c, CollectionRemove, idx, old)
	}
	itemID := id.Empty
	if c.identifiable {
		itemID = c.ids[pos]
		c.ids = append(c.ids[:pos], c.ids[pos+1:]...)
	}
	c.items = append(c.items[:pos], c.items[pos+1:]...)
	if c.sink != nil {
		c.sink.ItemChanged(c, CollectionRemove, idx, old)
	}
	return old, itemID, nil
}

func (c *CollectionNode) IndexedTarget(idx id.Index) (*ObjectNode, bool) {
	if !c.elementsAreReferences {
		return nil, false
	}
	v, ok := c.Retrieve(idx)
	if !ok {
		return nil, false
	}
	obj, ok := v.(*ObjectNode)
	return obj, ok
}

func (c *CollectionNode) ItemIdAt(idx id.Index) id.ItemId {
	pos := idx.Int()
	if !c.identifiable || pos < 0 || pos >= len(c.ids) {
		return id.Empty
	}
	return c.ids[pos]
}

func (c *CollectionNode) IndexOf(itemID id.ItemId) (id.Index, bool) {
	if !c.identifiable || itemID.IsEmpty() {
		return id.EmptyIndex, false
	}
	for i, existing := range c.ids {
		if existing == itemID {
			return id.IntIndex(i), true
		}
	}
	return id.EmptyIndex, false
}

func (c *CollectionNode) Items() []Item {
	out := make([]Item, len(c.items))
	for i, v := range c.items {
		itemID := id.Empty
		if c.identifiable {
			itemID = c.ids[i]
		}
		out[i] = Item{Index: id.IntIndex(i), ItemId: itemID, Value: v}
	}
	return out
}

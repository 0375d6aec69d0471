package node

import "github.com/kailayerhq/assetgraph/id"

// DictionaryNode is an unordered key→value mapping; if identifiable, each
// entry carries an ItemId independent of its key.
type DictionaryNode struct {
	identifiable          bool
	elementsAreReferences bool

	keys   []interface{} // insertion order, for deterministic iteration
	values map[interface{}]interface{}
	ids    map[interface{}]id.ItemId

	sink EventSink
}

// NewDictionaryNode creates an empty dictionary.
func NewDictionaryNode(identifiable, elementsAreReferences bool) *DictionaryNode {
	return &DictionaryNode{
		identifiable:          identifiable,
		elementsAreReferences: elementsAreReferences,
		values:                make(map[interface{}]interface{}),
		ids:                   make(map[interface{}]id.ItemId),
	}
}

func (d *DictionaryNode) Kind() Kind                  { return KindDictionary }
func (d *DictionaryNode) Identifiable() bool          { return d.identifiable }
func (d *DictionaryNode) Len() int                    { return len(d.keys) }
func (d *DictionaryNode) SetSink(s EventSink)          { d.sink = s }
func (d *DictionaryNode) ElementsAreReferences() bool { return d.elementsAreReferences }

func (d *DictionaryNode) HasKey(key interface{}) bool {
	_, ok := d.values[key]
	return ok
}

func (d *DictionaryNode) Retrieve(idx id.Index) (interface{}, bool) {
	v, ok := d.values[idx.Key()]
	return v, ok
}

func (d *DictionaryNode) Update(newValue interface{}, idx id.Index) error {
	key := idx.Key()
	if _, ok := d.values[key]; !ok {
		return ErrIndexOutOfRange
	}
	old := d.values[key]
	if d.sink != nil {
		d.sink.ItemChanging(d, CollectionUpdate, idx, old)
	}
	d.values[key] = newValue
	if d.sink != nil {
		d.sink.ItemChanged(d, CollectionUpdate, idx, newValue)
	}
	return nil
}

func (d *DictionaryNode) Add(value interface{}, idx id.Index) (id.ItemId, error) {
	itemID := id.Empty
	if d.identifiable {
		itemID = id.NewItemId()
	}
	if err := d.insert(idx.Key(), value, itemID); err != nil {
		return id.Empty, err
	}
	return itemID, nil
}

func (d *DictionaryNode) Restore(value interface{}, idx id.Index, itemID id.ItemId) error {
	return d.insert(idx.Key(), value, itemID)
}

func (d *DictionaryNode) insert(key interface{}, value interface{}, itemID id.ItemId) error {
	if _, exists := d.values[key]; exists {
		return ErrIndexOutOfRange
	}
	idx := id.KeyIndex(key)
	if d.sink != nil {
		d.sink.ItemChanging(d, CollectionAdd, idx, nil)
	}
	d.keys = append(d.keys, key)
	d.values[key] = value
	if d.identifiable {
		d.ids[key] = itemID
	}
	if d.sink != nil {
		d.sink.ItemChanged(d, CollectionAdd, idx, value)
	}
	return nil
}

func (d *DictionaryNode) Remove(idx id.Index) (interface{}, id.ItemId, error) {
	key := idx.Key()
	old, ok := d.values[key]
	if !ok {
		return nil, id.Empty, ErrIndexOutOfRange
	}
	if d.sink != nil {
		d.sink.ItemChanging(d, CollectionRemove, idx, old)
	}
	itemID := id.Empty
	if d.identifiable {
		itemID = d.ids[key]
		delete(d.ids, key)
	}
	delete(d.values, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
	if d.sink != nil {
		d.sink.ItemChanged(d, CollectionRemove, idx, old)
	}
	return old, itemID, nil
}

// Rekey moves the entry at oldKey to newKey, preserving its ItemId and
// value without regenerating identity — used by the reconciler when a
// base-side key rename needs to be mirrored (spec §4.6.2).
func (d *DictionaryNode) Rekey(oldKey, newKey interface{}) error {
	value, ok := d.values[oldKey]
	if !ok {
		return ErrIndexOutOfRange
	}
	if _, collide := d.values[newKey]; collide {
		return ErrIndexOutOfRange
	}
	itemID := id.Empty
	if d.identifiable {
		itemID = d.ids[oldKey]
	}
	oldIdx := id.KeyIndex(oldKey)
	newIdx := id.KeyIndex(newKey)
	if d.sink != nil {
		d.sink.ItemChanging(d, CollectionRemove, oldIdx, value)
	}
	delete(d.values, oldKey)
	if d.identifiable {
		delete(d.ids, oldKey)
	}
	for i, k := range d.keys {
		if k == oldKey {
			d.keys[i] = newKey
			break
		}
	}
	d.values[newKey] = value
	if d.identifiable {
		d.ids[newKey] = itemID
	}
	if d.sink != nil {
		d.sink.ItemChanged(d, CollectionAdd, newIdx, value)
	}
	return nil
}

func (d *DictionaryNode) IndexedTarget(idx id.Index) (*ObjectNode, bool) {
	if !d.elementsAreReferences {
		return nil, false
	}
	v, ok := d.Retrieve(idx)
	if !ok {
		return nil, false
	}
	obj, ok := v.(*ObjectNode)
	return obj, ok
}

func (d *DictionaryNode) ItemIdAt(idx id.Index) id.ItemId {
	if !d.identifiable {
		return id.Empty
	}
	return d.ids[idx.Key()]
}

func (d *DictionaryNode) IndexOf(itemID id.ItemId) (id.Index, bool) {
	if !d.identifiable || itemID.IsEmpty() {
		return id.EmptyIndex, false
	}
	for _, k := range d.keys {
		if d.ids[k] == itemID {
			return id.KeyIndex(k), true
		}
	}
	return id.EmptyIndex, false
}

func (d *DictionaryNode) Items() []Item {
	out := make([]Item, 0, len(d.keys))
	for _, k := range d.keys {
		itemID := id.Empty
		if d.identifiable {
			itemID = d.ids[k]
		}
		out = append(out, Item{Index: id.KeyIndex(k), ItemId: itemID, Value: d.values[k]})
	}
	return out
}

package node

import "github.com/kailayerhq/assetgraph/id"

// Arena caches ObjectNode instances by stable identity so that building a
// graph containing object-reference cycles terminates, and so that two
// references to the same identifiable object resolve to one shared
// instance (spec §9: "Store objects in an arena keyed by stable id").
type Arena struct {
	objects map[id.ItemId]*ObjectNode
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{objects: make(map[id.ItemId]*ObjectNode)}
}

// GetOrCreate returns the cached object for itemID, building it with
// build() on first request. A build() in progress for the same id (a
// reference cycle) is handled by callers reserving a placeholder before
// recursing — see Reserve.
func (a *Arena) GetOrCreate(itemID id.ItemId, build func() *ObjectNode) *ObjectNode {
	if itemID.IsEmpty() {
		return build()
	}
	if existing, ok := a.objects[itemID]; ok {
		return existing
	}
	obj := build()
	a.objects[itemID] = obj
	return obj
}

// Reserve inserts a not-yet-populated placeholder for itemID so that a
// cyclic reference encountered while building it resolves to the same
// instance instead of recursing forever.
func (a *Arena) Reserve(itemID id.ItemId, placeholder *ObjectNode) {
	if itemID.IsEmpty() {
		return
	}
	a.objects[itemID] = placeholder
}

// Lookup returns the cached object for itemID, if any.
func (a *Arena) Lookup(itemID id.ItemId) (*ObjectNode, bool) {
	o, ok := a.objects[itemID]
	return o, ok
}


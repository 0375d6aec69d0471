// Package override tracks per-node override bits: content override for
// members, item/key override and deleted-item sets for identifiable
// collections and dictionaries (spec component E).
package override

import (
	"github.com/kailayerhq/assetgraph/events"
	"github.com/kailayerhq/assetgraph/id"
	"github.com/kailayerhq/assetgraph/node"
)

// Content is a node's content override state. Only Base and New are ever
// produced by this implementation; Sealed is reserved (spec §3.4).
type Content int

const (
	Base Content = iota
	New
	Sealed
)

func (c Content) String() string {
	switch c {
	case Base:
		return "Base"
	case New:
		return "New"
	case Sealed:
		return "Sealed"
	default:
		return "Unknown"
	}
}

type itemSets struct {
	itemOverrides map[id.ItemId]bool
	keyOverrides  map[id.ItemId]bool
	deletedItems  map[id.ItemId]bool
}

func newItemSets() *itemSets {
	return &itemSets{
		itemOverrides: make(map[id.ItemId]bool),
		keyOverrides:  make(map[id.ItemId]bool),
		deletedItems:  make(map[id.ItemId]bool),
	}
}

// Store is the per-graph override store. One Store is owned by exactly
// one AssetPropertyGraph.
type Store struct {
	content map[node.Node]Content
	items   map[node.IndexedObject]*itemSets

	listener *events.Listener

	// reconciling is true for the whole duration of a reconciler pass
	// (whether triggered directly via Graph.ReconcileWithBase or via
	// base-driven propagation, spec §4.6.3). It is the one signal §4.4
	// uses to decide whether a member/item change is locally authored
	// (→ New) or base-driven (→ Base), and it suppresses re-marking
	// deleted items during the reconciler's own removals.
	reconciling bool

	pendingMemberOverride map[*node.MemberNode]Content
	pendingRemovedItemId  map[node.IndexedObject]id.ItemId
}

// NewStore creates an override store wired to listener's raw event
// stream. listener must be the same Listener shared by every node under
// the owning graph.
func NewStore(listener *events.Listener) *Store {
	s := &Store{
		content:               make(map[node.Node]Content),
		items:                 make(map[node.IndexedObject]*itemSets),
		listener:              listener,
		pendingMemberOverride: make(map[*node.MemberNode]Content),
		pendingRemovedItemId:  make(map[node.IndexedObject]id.ItemId),
	}
	listener.OnChanging(s.onChanging)
	listener.OnChanged(s.onChanged)
	listener.OnItemChanging(s.onItemChanging)
	listener.OnItemChanged(s.onItemChanged)
	return s
}

// SetReconciling toggles the reconciling guard described above. The
// reconciler calls this around every pass it runs.
func (s *Store) SetReconciling(v bool) { s.reconciling = v }

// Reconciling reports whether a reconciliation pass is currently running.
func (s *Store) Reconciling() bool { return s.reconciling }

// --- content override ---

// ContentOverride returns n's content override, defaulting to Base.
func (s *Store) ContentOverride(n node.Node) Content {
	return s.content[n]
}

// SetContentOverride sets n's content override directly, enforcing
// invariant I1: a member with CanOverride==false always stays Base.
func (s *Store) SetContentOverride(n node.Node, v Content) {
	if m, ok := n.(*node.MemberNode); ok && !m.CanOverride {
		s.content[n] = Base
		return
	}
	s.content[n] = v
}

func (s *Store) onChanging(m *node.MemberNode, _ interface{}) {
	s.pendingMemberOverride[m] = s.ContentOverride(m)
}

func (s *Store) onChanged(m *node.MemberNode, _, _ interface{}) {
	prev := s.pendingMemberOverride[m]
	delete(s.pendingMemberOverride, m)

	next := New
	if s.reconciling {
		next = Base
	}
	s.SetContentOverride(m, next)
	s.listener.FireContentChanged(m, int(prev), int(next), id.Empty)
}

// --- item/key override and deleted-item sets ---

func (s *Store) sets(io node.IndexedObject) *itemSets {
	sets, ok := s.items[io]
	if !ok {
		sets = newItemSets()
		s.items[io] = sets
	}
	return sets
}

// ItemOverridden reports whether itemID's value has been locally
// overridden within io.
func (s *Store) ItemOverridden(io node.IndexedObject, itemID id.ItemId) bool {
	return s.sets(io).itemOverrides[itemID]
}

// KeyOverridden reports whether itemID's dictionary key has been locally
// overridden within io.
func (s *Store) KeyOverridden(io node.IndexedObject, itemID id.ItemId) bool {
	return s.sets(io).keyOverrides[itemID]
}

// IsDeleted reports whether itemID is recorded as an overriding deletion
// within io.
func (s *Store) IsDeleted(io node.IndexedObject, itemID id.ItemId) bool {
	return s.sets(io).deletedItems[itemID]
}

// DeletedItems returns the live set of deleted item ids for io.
func (s *Store) DeletedItems(io node.IndexedObject) map[id.ItemId]bool {
	return s.sets(io).deletedItems
}

// MarkItemOverride records itemID's value as locally overridden.
func (s *Store) MarkItemOverride(io node.IndexedObject, itemID id.ItemId) {
	if itemID.IsEmpty() {
		return
	}
	s.sets(io).itemOverrides[itemID] = true
}

// ClearItemOverride removes itemID's item-override bit.
func (s *Store) ClearItemOverride(io node.IndexedObject, itemID id.ItemId) {
	delete(s.sets(io).itemOverrides, itemID)
}

// MarkKeyOverride records itemID's dictionary key as locally overridden.
func (s *Store) MarkKeyOverride(io node.IndexedObject, itemID id.ItemId) {
	if itemID.IsEmpty() {
		return
	}
	s.sets(io).keyOverrides[itemID] = true
}

// ClearKeyOverride removes itemID's key-override bit.
func (s *Store) ClearKeyOverride(io node.IndexedObject, itemID id.ItemId) {
	delete(s.sets(io).keyOverrides, itemID)
}

// MarkDeleted records itemID as an overriding deletion, maintaining
// invariant I2 (DeletedItems ∩ live_ids = ∅) by also clearing any
// item/key override bit the id might still carry.
func (s *Store) MarkDeleted(io node.IndexedObject, itemID id.ItemId) {
	if itemID.IsEmpty() {
		return
	}
	sets := s.sets(io)
	sets.deletedItems[itemID] = true
	delete(sets.itemOverrides, itemID)
	delete(sets.keyOverrides, itemID)
}

// UnmarkDeleted removes itemID from the deleted-item set — used when the
// basis for a deletion (the base no longer has that item either) no
// longer exists (spec §4.6.2 pass 1).
func (s *Store) UnmarkDeleted(io node.IndexedObject, itemID id.ItemId) {
	delete(s.sets(io).deletedItems, itemID)
}

func (s *Store) onItemChanging(io node.IndexedObject, kind node.ChangeKind, idx id.Index, _ interface{}) {
	if kind != node.CollectionRemove {
		return
	}
	s.pendingRemovedItemId[io] = io.ItemIdAt(idx)
}

func (s *Store) onItemChanged(io node.IndexedObject, kind node.ChangeKind, idx id.Index, _ interface{}) {
	switch kind {
	case node.CollectionAdd, node.CollectionUpdate:
		if s.reconciling {
			return
		}
		itemID := io.ItemIdAt(idx)
		s.MarkItemOverride(io, itemID)

	case node.CollectionRemove:
		itemID := s.pendingRemovedItemId[io]
		delete(s.pendingRemovedItemId, io)
		if itemID.IsEmpty() {
			return
		}
		if s.reconciling {
			// A reconciliation-driven removal is restoring the node to
			// base shape, not recording an overriding deletion.
			return
		}
		s.MarkDeleted(io, itemID)
	}
}

// Reset clears every override bit recorded for n. For a plain member
// node only the content bit is cleared; for an IndexedObject its item,
// key, and deleted-item sets are cleared too. It does not recurse —
// callers use node.Walk to reach descendants (spec Graph.reset_override).
func (s *Store) Reset(n node.Node) {
	delete(s.content, n)
	if io, ok := n.(node.IndexedObject); ok {
		delete(s.items, io)
	}
}

// Snapshot captures every override bit this store currently holds, keyed
// by node identity, for clear_all_overrides/restore_overrides (spec §6).
type Snapshot struct {
	Content map[node.Node]Content
	Items   map[node.IndexedObject]*itemSets
}

// Clone returns a deep-enough copy of this store's state for later
// restoration via Restore.
func (s *Store) Clone() Snapshot {
	content := make(map[node.Node]Content, len(s.content))
	for k, v := range s.content {
		content[k] = v
	}
	items := make(map[node.IndexedObject]*itemSets, len(s.items))
	for k, v := range s.items {
		cp := newItemSets()
		for id_, ok := range v.itemOverrides {
			if ok {
				cp.itemOverrides[id_] = true
			}
		}
		for id_, ok := range v.keyOverrides {
			if ok {
				cp.keyOverrides[id_] = true
			}
		}
		for id_, ok := range v.deletedItems {
			if ok {
				cp.deletedItems[id_] = true
			}
		}
		items[k] = cp
	}
	return Snapshot{Content: content, Items: items}
}

// ClearAll drops every override bit this store holds.
func (s *Store) ClearAll() {
	s.content = make(map[node.Node]Content)
	s.items = make(map[node.IndexedObject]*itemSets)
}

// Restore replaces this store's state with a previously captured
// Snapshot (spec §6 restore_overrides, invariant I5).
func (s *Store) Restore(snap Snapshot) {
	s.content = make(map[node.Node]Content, len(snap.Content))
	for k, v := range snap.Content {
		s.content[k] = v
	}
	s.items = make(map[node.IndexedObject]*itemSets, len(snap.Items))
	for k, v := range snap.Items {
		s.items[k] = v
	}
}

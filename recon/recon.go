// Package recon implements the reconciler: the algorithm that enforces
// "unoverridden ⇒ equal to base" across members, collections, and
// dictionaries (spec component G, §4.6).
package recon

import (
	"reflect"

	"github.com/kailayerhq/assetgraph/cas"
	"github.com/kailayerhq/assetgraph/clone"
	"github.com/kailayerhq/assetgraph/id"
	"github.com/kailayerhq/assetgraph/link"
	"github.com/kailayerhq/assetgraph/node"
	"github.com/kailayerhq/assetgraph/override"
	"github.com/kailayerhq/assetgraph/policy"
)

// Reconciler runs reconciliation passes over a linked derived graph.
type Reconciler struct {
	store  *override.Store
	linker *link.Linker
	policy policy.Policy
}

// New creates a Reconciler wired to store and linker, applying p's
// extension-point overrides.
func New(store *override.Store, linker *link.Linker, p policy.Policy) *Reconciler {
	return &Reconciler{store: store, linker: linker, policy: p}
}

// Run reconciles every linked node reachable from root (spec
// "reconcile_with_base" invoked with no node argument: the whole tree).
// It is idempotent (invariant I4): a second call finds nothing left to
// change and mutates nothing.
func (r *Reconciler) Run(root *node.ObjectNode) {
	r.store.SetReconciling(true)
	defer r.store.SetReconciling(false)
	r.reconcileObject(root, make(map[*node.ObjectNode]bool))
}

// ReconcileNode reconciles n and everything reachable below it (spec
// Graph API "reconcile_with_base(node?)").
func (r *Reconciler) ReconcileNode(n node.Node) {
	r.store.SetReconciling(true)
	defer r.store.SetReconciling(false)
	r.reconcileAny(n, make(map[*node.ObjectNode]bool))
}

func (r *Reconciler) reconcileAny(n node.Node, seen map[*node.ObjectNode]bool) {
	switch v := n.(type) {
	case *node.ObjectNode:
		r.reconcileObject(v, seen)
	case *node.MemberNode:
		r.reconcileMemberDeep(v, seen)
	case node.IndexedObject:
		r.reconcileIndexedDeep(v, seen)
	}
}

func (r *Reconciler) reconcileObject(o *node.ObjectNode, seen map[*node.ObjectNode]bool) {
	if o == nil || seen[o] {
		return
	}
	seen[o] = true
	for _, m := range o.Children() {
		r.reconcileMemberDeep(m, seen)
	}
}

func (r *Reconciler) reconcileMemberDeep(m *node.MemberNode, seen map[*node.ObjectNode]bool) {
	if baseNode, ok := r.linker.BaseOf(m); ok {
		if bm, ok := baseNode.(*node.MemberNode); ok {
			r.reconcileMember(m, bm)
		}
	}
	if !m.IsReference {
		return
	}
	tgt, ok := m.Target()
	if !ok {
		return
	}
	switch t := tgt.(type) {
	case *node.ObjectNode:
		r.reconcileObject(t, seen)
	case node.IndexedObject:
		r.reconcileIndexedDeep(t, seen)
	}
}

func (r *Reconciler) reconcileIndexedDeep(io node.IndexedObject, seen map[*node.ObjectNode]bool) {
	if baseNode, ok := r.linker.BaseOf(io); ok {
		if bio, ok := baseNode.(node.IndexedObject); ok {
			r.reconcileIndexed(io, bio)
		}
	}
	for _, item := range io.Items() {
		if obj, ok := item.Value.(*node.ObjectNode); ok {
			r.reconcileObject(obj, seen)
		}
	}
}

// --- §4.6.1 member reconciliation ---

func (r *Reconciler) reconcileMember(derived, base *node.MemberNode) {
	if !derived.CanOverride {
		return
	}
	if r.store.ContentOverride(derived) == override.New {
		return
	}
	if !r.shouldReconcileMember(derived, base) {
		return
	}

	baseValue := base.Retrieve()

	if r.isObjectReferenceMember(base, baseValue) {
		resolved := r.resolveBaseToDerived(baseValue)
		if resolved != nil {
			derived.Rebind(resolved)
		}
		return
	}

	cloned := clone.Value(baseValue)
	if obj := asObjectNode(cloned.Value); obj != nil {
		link.FixupObjectReferences(obj, r.linker.Registry())
	}
	if derived.IsReference {
		if n, ok := cloned.Value.(node.Node); ok {
			derived.Rebind(n)
		}
		return
	}
	derived.Update(cloned.Value)
}

func (r *Reconciler) shouldReconcileMember(derived, base *node.MemberNode) bool {
	baseValue := base.Retrieve()

	if r.isObjectReferenceMember(base, baseValue) {
		resolved := r.resolveBaseToDerived(baseValue)
		return derived.Retrieve() != interfaceOf(resolved)
	}
	if derived.IsReference || base.IsReference {
		return reflect.TypeOf(derived.Retrieve()) != reflect.TypeOf(base.Retrieve())
	}
	if bcr, ok := baseValue.(node.ContentRef); ok {
		dcr, ok2 := derived.Retrieve().(node.ContentRef)
		return !ok2 || dcr != bcr
	}
	return !valuesEqual(derived.Retrieve(), baseValue)
}

func (r *Reconciler) isObjectReferenceMember(base *node.MemberNode, baseValue interface{}) bool {
	if base.IsObjectReference {
		return true
	}
	return r.policy.ObjectReference(base, id.EmptyIndex, baseValue)
}

func (r *Reconciler) resolveBaseToDerived(v interface{}) node.Node {
	obj, ok := v.(*node.ObjectNode)
	if !ok {
		return nil
	}
	derived, ok := r.linker.Registry().Resolve(obj)
	if !ok {
		return nil
	}
	return derived
}

func interfaceOf(n node.Node) interface{} {
	if n == nil {
		return nil
	}
	return n
}

func asObjectNode(v interface{}) *node.ObjectNode {
	obj, _ := v.(*node.ObjectNode)
	return obj
}

func isReferenceValue(v interface{}) bool {
	_, ok := v.(node.Node)
	return ok
}

// --- §4.6.2 identifiable collection/dictionary reconciliation ---

func (r *Reconciler) reconcileIndexed(derived, base node.IndexedObject) {
	if !derived.Identifiable() || !base.Identifiable() {
		return
	}

	baseIds := make(map[id.ItemId]bool)
	for _, it := range base.Items() {
		if !it.ItemId.IsEmpty() {
			baseIds[it.ItemId] = true
		}
	}

	// Pass 1: identify removals and clean up the deleted-item set.
	var removeIds []id.ItemId
	var corrupted []id.Index
	for _, it := range derived.Items() {
		if it.ItemId.IsEmpty() {
			corrupted = append(corrupted, it.Index)
			continue
		}
		if r.store.ItemOverridden(derived, it.ItemId) {
			continue
		}
		if !baseIds[it.ItemId] {
			removeIds = append(removeIds, it.ItemId)
		}
	}
	for delID := range snapshotDeletedIds(r.store.DeletedItems(derived)) {
		if !baseIds[delID] {
			r.store.UnmarkDeleted(derived, delID)
		}
	}

	// Pass 2: additions and value/key reconciliation.
	derivedIdx := make(map[id.ItemId]id.Index)
	for _, it := range derived.Items() {
		if !it.ItemId.IsEmpty() {
			derivedIdx[it.ItemId] = it.Index
		}
	}

	dict, isDict := derived.(*node.DictionaryNode)
	var toInsert []id.ItemId

	for _, bit := range base.Items() {
		if bit.ItemId.IsEmpty() {
			continue
		}
		if r.store.IsDeleted(derived, bit.ItemId) {
			continue
		}
		dIdx, exists := derivedIdx[bit.ItemId]
		if !exists {
			if isDict && dict.HasKey(bit.Index.Key()) {
				r.store.MarkDeleted(derived, bit.ItemId)
				continue
			}
			if !r.policy.AllowsUpdate(derived, node.CollectionAdd, bit.Index, bit.Value) {
				r.store.MarkDeleted(derived, bit.ItemId)
				continue
			}
			toInsert = append(toInsert, bit.ItemId)
			continue
		}

		if !r.store.ItemOverridden(derived, bit.ItemId) {
			dVal, _ := derived.Retrieve(dIdx)
			if r.shouldReconcileItem(dVal, bit.Value, base, bit.Index) {
				cloned := clone.Value(bit.Value)
				if obj := asObjectNode(cloned.Value); obj != nil {
					link.FixupObjectReferences(obj, r.linker.Registry())
				}
				_ = derived.Update(cloned.Value, dIdx)
			}
		}
		if isDict && !r.store.KeyOverridden(derived, bit.ItemId) {
			if !dIdx.Equal(bit.Index) {
				_ = dict.Rekey(dIdx.Key(), bit.Index.Key())
			}
		}
	}

	// Apply pass 1 removals. Corrupted (empty-id) entries first, in
	// reverse traversal order so that in a collection earlier removals
	// don't shift later positions; then id-based removals, relocated via
	// IndexOf since collection positions may have shifted.
	for i := len(corrupted) - 1; i >= 0; i-- {
		_, _, _ = derived.Remove(corrupted[i])
	}
	for _, rid := range removeIds {
		if idx, ok := derived.IndexOf(rid); ok {
			_, _, _ = derived.Remove(idx)
		}
	}

	// Apply pass 2 insertions, preserving base order.
	for _, insID := range toInsert {
		bidx, ok := base.IndexOf(insID)
		if !ok {
			continue
		}
		bval, _ := base.Retrieve(bidx)
		cloned := clone.Value(bval)
		if obj := asObjectNode(cloned.Value); obj != nil {
			link.FixupObjectReferences(obj, r.linker.Registry())
		}
		if isDict {
			_ = dict.Restore(cloned.Value, id.KeyIndex(bidx.Key()), insID)
		} else if coll, ok := derived.(*node.CollectionNode); ok {
			pos := findInsertionPosition(coll, base, bidx)
			_ = coll.Restore(cloned.Value, id.IntIndex(pos), insID)
		}
	}
}

// findInsertionPosition implements §4.6.2's ordering rule: scan base
// indices immediately preceding bidx; the first one that also exists in
// derived anchors the insertion at derived_position(id)+1; if none is
// found, insert at the front.
func findInsertionPosition(derived *node.CollectionNode, base node.IndexedObject, bidx id.Index) int {
	baseItems := base.Items()
	for i := bidx.Int() - 1; i >= 0; i-- {
		candID := baseItems[i].ItemId
		if candID.IsEmpty() {
			continue
		}
		if dpos, ok := derived.IndexOf(candID); ok {
			return dpos.Int() + 1
		}
	}
	return 0
}

func (r *Reconciler) shouldReconcileItem(dVal, bVal interface{}, baseIO node.IndexedObject, bIdx id.Index) bool {
	if r.policy.ObjectReference(baseIO, bIdx, bVal) {
		resolved := r.resolveBaseToDerived(bVal)
		return dVal != interfaceOf(resolved)
	}
	if isReferenceValue(dVal) || isReferenceValue(bVal) {
		return reflect.TypeOf(dVal) != reflect.TypeOf(bVal)
	}
	if bcr, ok := bVal.(node.ContentRef); ok {
		dcr, ok2 := dVal.(node.ContentRef)
		return !ok2 || dcr != bcr
	}
	return !valuesEqual(dVal, bVal)
}

// valuesEqual compares two owned values the way the reconciler's
// "else reconcile iff value differs" rule requires: by canonical BLAKE3
// fingerprint when both sides are JSON-representable (matching the
// teacher's cas package, used elsewhere in the pack for content-addressed
// comparisons), falling back to reflect.DeepEqual for values that aren't
// (e.g. containing non-JSON-able Go types).
func valuesEqual(a, b interface{}) bool {
	ah, aok := canonicalHash(a)
	bh, bok := canonicalHash(b)
	if aok && bok {
		return ah == bh
	}
	return reflect.DeepEqual(a, b)
}

func canonicalHash(v interface{}) (string, bool) {
	data, err := cas.CanonicalJSON(v)
	if err != nil {
		return "", false
	}
	return cas.Blake3HashHex(data), true
}

func snapshotDeletedIds(m map[id.ItemId]bool) map[id.ItemId]bool {
	out := make(map[id.ItemId]bool, len(m))
	for k, v := range m {
		if v {
			out[k] = true
		}
	}
	return out
}

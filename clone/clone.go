// Package clone implements the deep-clone-with-identifier-remapping used
// by the reconciler whenever it materializes a base value into the
// derived graph (spec §9 "Cloning with identifier remapping").
//
// An object-reference member (IsObjectReference) is never recursed into:
// it still addresses the original base-side object after the clone, and
// the caller (the base→derived registry, via the reconciler) walks the
// freshly cloned subtree afterward and rebinds each such member to the
// registered derived counterpart — see link.FixupObjectReferences. Only
// structurally-owned content (plain values, and reference members that
// are not object references, such as a collection/dictionary target) is
// deep-cloned, with every identifiable object/item along the way
// assigned a fresh ItemId and recorded in the returned old→new id map.
package clone

import (
	"github.com/kailayerhq/assetgraph/cas"
	"github.com/kailayerhq/assetgraph/id"
	"github.com/kailayerhq/assetgraph/node"
)

// Result is the outcome of a clone: the cloned value plus the mapping
// from every source ItemId that was cloned to its fresh replacement.
type Result struct {
	Value interface{}
	IdMap map[id.ItemId]id.ItemId
}

// Value deep-clones v (a primitive, *node.ObjectNode, *node.CollectionNode,
// or *node.DictionaryNode), assigning fresh ItemIds throughout.
func Value(v interface{}) Result {
	idMap := make(map[id.ItemId]id.ItemId)
	seen := make(map[*node.ObjectNode]*node.ObjectNode)
	cloned := cloneValue(v, idMap, seen)
	return Result{Value: cloned, IdMap: idMap}
}

// Fingerprint returns the canonical BLAKE3 fingerprint of v's owned
// (non-reference) content — members and their primitive/content-ref
// values, recursively — for tests asserting "derived equals a deep clone
// of base up to identifier remapping" (spec invariant I3). Reference
// members are fingerprinted by their target's own structural content,
// not by the target's ItemId, so the remapping a clone performs never
// changes the fingerprint.
func Fingerprint(v interface{}) (string, bool) {
	shape := canonicalShape(v)
	data, err := cas.CanonicalJSON(shape)
	if err != nil {
		return "", false
	}
	return cas.Blake3HashHex(data), true
}

func canonicalShape(v interface{}) interface{} {
	switch t := v.(type) {
	case *node.ObjectNode:
		out := make(map[string]interface{}, len(t.Children()))
		for _, m := range t.Children() {
			out[m.Name] = canonicalShape(m.Retrieve())
		}
		return out
	case *node.CollectionNode:
		items := t.Items()
		out := make([]interface{}, len(items))
		for i, it := range items {
			out[i] = canonicalShape(it.Value)
		}
		return out
	case *node.DictionaryNode:
		items := t.Items()
		out := make(map[string]interface{}, len(items))
		for _, it := range items {
			out[keyString(it.Index.Key())] = canonicalShape(it.Value)
		}
		return out
	default:
		return v
	}
}

func keyString(k interface{}) string {
	if s, ok := k.(string); ok {
		return s
	}
	data, err := cas.CanonicalJSON(k)
	if err != nil {
		return ""
	}
	return string(data)
}

// seen maps a source *node.ObjectNode already visited in this clone to the
// clone produced for it, so a structural cycle (or two paths converging on
// the same object) re-enters the same instance instead of recursing again
// or duplicating it — mirroring the cycle safety node.Walk and the
// reconciler's own traversal get from visiting by identity.
func cloneValue(v interface{}, idMap map[id.ItemId]id.ItemId, seen map[*node.ObjectNode]*node.ObjectNode) interface{} {
	switch t := v.(type) {
	case *node.ObjectNode:
		return cloneObject(t, idMap, seen)
	case *node.CollectionNode:
		return cloneCollection(t, idMap, seen)
	case *node.DictionaryNode:
		return cloneDictionary(t, idMap, seen)
	default:
		// Primitives and node.ContentRef are plain Go values: copying the
		// interface{} already copies them.
		return v
	}
}

func cloneObject(o *node.ObjectNode, idMap map[id.ItemId]id.ItemId, seen map[*node.ObjectNode]*node.ObjectNode) *node.ObjectNode {
	if existing, ok := seen[o]; ok {
		return existing
	}
	out := node.NewObjectNode(o.TypeName)
	if !o.ItemId.IsEmpty() {
		newID := id.NewItemId()
		idMap[o.ItemId] = newID
		out.ItemId = newID
	}
	seen[o] = out
	for _, m := range o.Children() {
		cm := node.NewMemberNode(m.Name, m.DeclaredType, m.CanOverride)
		cm.IsObjectReference = m.IsObjectReference
		switch {
		case m.IsObjectReference:
			// Addresses an identifiable object by id rather than owning it;
			// leave it pointing at the original base-side object.
			// link.FixupObjectReferences rebinds it to the derived
			// counterpart once the registry is populated.
			if tgt, ok := m.Target(); ok {
				cm.SetTarget(tgt)
			}
		case m.IsReference:
			if tgt, ok := m.Target(); ok {
				cm.SetTarget(cloneValue(tgt, idMap, seen).(node.Node))
			}
		default:
			cm.SetValueSilent(cloneValue(m.Retrieve(), idMap, seen))
		}
		out.AddMember(cm)
	}
	return out
}

func cloneCollection(c *node.CollectionNode, idMap map[id.ItemId]id.ItemId, seen map[*node.ObjectNode]*node.ObjectNode) *node.CollectionNode {
	out := node.NewCollectionNode(c.Identifiable(), c.ElementsAreReferences())
	for _, item := range c.Items() {
		val := cloneValue(item.Value, idMap, seen)
		newID := id.Empty
		if c.Identifiable() {
			newID = id.NewItemId()
			if !item.ItemId.IsEmpty() {
				idMap[item.ItemId] = newID
			}
		}
		_ = out.Restore(val, id.IntIndex(out.Len()), newID)
	}
	return out
}

func cloneDictionary(d *node.DictionaryNode, idMap map[id.ItemId]id.ItemId, seen map[*node.ObjectNode]*node.ObjectNode) *node.DictionaryNode {
	out := node.NewDictionaryNode(d.Identifiable(), d.ElementsAreReferences())
	for _, item := range d.Items() {
		val := cloneValue(item.Value, idMap, seen)
		newID := id.Empty
		if d.Identifiable() {
			newID = id.NewItemId()
			if !item.ItemId.IsEmpty() {
				idMap[item.ItemId] = newID
			}
		}
		_ = out.Restore(val, item.Index, newID)
	}
	return out
}

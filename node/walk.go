package node

import "github.com/kailayerhq/assetgraph/id"

// Visitor receives callbacks as Walk descends the graph, each paired with
// the NodePath that would resolve back to it. Any field may be nil.
type Visitor struct {
	Object  func(o *ObjectNode, path id.NodePath)
	Member  func(m *MemberNode, owner *ObjectNode, path id.NodePath)
	Indexed func(io IndexedObject, path id.NodePath)
	Item    func(io IndexedObject, item Item, path id.NodePath)
}

// Walk descends the graph from root, calling visitor callbacks in
// depth-first, declaration order, building the NodePath to each node as
// it goes. It follows reference members/items to keep descending (so
// metadata paths can address nested content reached through a
// reference), but never visits the same structural ObjectNode twice —
// satisfying the cycle-safety requirement of spec §4.1.
func Walk(root *ObjectNode, visitor Visitor) {
	walkObject(root, id.NodePath{}, make(map[*ObjectNode]bool), visitor)
}

func walkObject(o *ObjectNode, path id.NodePath, seen map[*ObjectNode]bool, visitor Visitor) {
	if o == nil || seen[o] {
		return
	}
	seen[o] = true
	if visitor.Object != nil {
		visitor.Object(o, path)
	}
	for _, m := range o.Children() {
		mPath := path.Append(id.Member(m.Name))
		if visitor.Member != nil {
			visitor.Member(m, o, mPath)
		}
		if !m.IsReference {
			continue
		}
		tgt, ok := m.Target()
		if !ok {
			continue
		}
		switch t := tgt.(type) {
		case *ObjectNode:
			walkObject(t, mPath, seen, visitor)
		case IndexedObject:
			walkIndexed(t, mPath, seen, visitor)
		}
	}
}

func walkIndexed(io IndexedObject, path id.NodePath, seen map[*ObjectNode]bool, visitor Visitor) {
	if visitor.Indexed != nil {
		visitor.Indexed(io, path)
	}
	for _, item := range io.Items() {
		var itemPath id.NodePath
		if io.Identifiable() && !item.ItemId.IsEmpty() {
			itemPath = path.Append(id.ItemIdStep(item.ItemId))
		} else {
			itemPath = path.Append(id.IndexStep(item.Index.Value()))
		}
		if visitor.Item != nil {
			visitor.Item(io, item, itemPath)
		}
		if obj, ok := item.Value.(*ObjectNode); ok {
			walkObject(obj, itemPath, seen, visitor)
		}
	}
}

package node

import "github.com/kailayerhq/assetgraph/id"

// asObject follows a reference member to its ObjectNode target; a plain
// ObjectNode resolves to itself.
func asObject(n Node) (*ObjectNode, bool) {
	switch v := n.(type) {
	case *ObjectNode:
		return v, true
	case *MemberNode:
		return v.TargetObject()
	default:
		return nil, false
	}
}

// asIndexed follows a reference member to its IndexedObject target; a
// plain Collection/Dictionary resolves to itself.
func asIndexed(n Node) (IndexedObject, bool) {
	switch v := n.(type) {
	case IndexedObject:
		return v, true
	case *MemberNode:
		tgt, ok := v.Target()
		if !ok {
			return nil, false
		}
		io, ok := tgt.(IndexedObject)
		return io, ok
	default:
		return nil, false
	}
}

// Resolve walks path from root, returning the node/index reached and
// whether the last step was an index step (resolved_on_index). It never
// panics: an unreachable path returns (nil, EmptyIndex, false), which
// callers must treat as "skip this entry", per spec §4.2/§7
// (errs.PathUnreachable).
func Resolve(root *ObjectNode, path id.NodePath) (Node, id.Index, bool) {
	var current Node = root
	idx := id.EmptyIndex
	resolvedOnIndex := false

	for i, step := range path {
		last := i == len(path)-1

		switch step.Kind {
		case id.StepMember:
			obj, ok := asObject(current)
			if !ok {
				return nil, id.EmptyIndex, false
			}
			m, ok := obj.Child(step.Name)
			if !ok {
				return nil, id.EmptyIndex, false
			}
			current = m
			idx = id.EmptyIndex
			resolvedOnIndex = false

		case id.StepIndex:
			io, ok := asIndexed(current)
			if !ok {
				return nil, id.EmptyIndex, false
			}
			switch v := step.Value.(type) {
			case int:
				idx = id.IntIndex(v)
			default:
				idx = id.KeyIndex(step.Value)
			}
			resolvedOnIndex = true
			current = io
			if !last {
				tgt, ok := io.IndexedTarget(idx)
				if !ok {
					return nil, id.EmptyIndex, false
				}
				current = tgt
			}

		case id.StepItemId:
			io, ok := asIndexed(current)
			if !ok {
				return nil, id.EmptyIndex, false
			}
			found, ok := io.IndexOf(step.ItemId)
			if !ok {
				return nil, id.EmptyIndex, false
			}
			idx = found
			resolvedOnIndex = true
			current = io
			if !last {
				tgt, ok := io.IndexedTarget(found)
				if !ok {
					return nil, id.EmptyIndex, false
				}
				current = tgt
			}
		}
	}

	return current, idx, resolvedOnIndex
}

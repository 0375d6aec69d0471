// Package link implements the base linker and the base→derived registry
// (spec components D and F): it walks a derived graph and its base graph
// in lockstep, associating each derived node with its base counterpart
// and subscribing to base-side change events so the container can
// trigger reconciliation.
package link

import (
	"github.com/kailayerhq/assetgraph/events"
	"github.com/kailayerhq/assetgraph/id"
	"github.com/kailayerhq/assetgraph/node"
	"github.com/kailayerhq/assetgraph/policy"
)

// Registry is the reverse index from base-side identifiable objects to
// their derived-side counterparts, used to resolve intra-asset object
// references (spec component F).
type Registry struct {
	byBase map[*node.ObjectNode]*node.ObjectNode
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byBase: make(map[*node.ObjectNode]*node.ObjectNode)}
}

// Register records that base is mirrored by derived.
func (r *Registry) Register(base, derived *node.ObjectNode) {
	r.byBase[base] = derived
}

// Resolve returns the derived-side counterpart of a base-side object.
func (r *Registry) Resolve(base *node.ObjectNode) (*node.ObjectNode, bool) {
	d, ok := r.byBase[base]
	return d, ok
}

// Clear drops every registered association.
func (r *Registry) Clear() {
	r.byBase = make(map[*node.ObjectNode]*node.ObjectNode)
}

// Linker walks a derived graph and a base graph in lockstep, matching
// members by name and items by ItemId, and keeps the resulting links
// live via base-event subscriptions.
type Linker struct {
	policy   policy.Policy
	registry *Registry

	baseListener *events.Listener
	tokens       []events.Token
	baseOf       map[node.Node]node.Node // derived -> base
}

// NewLinker creates a linker using p for find_target redirection.
func NewLinker(p policy.Policy) *Linker {
	return &Linker{
		policy:   p,
		registry: NewRegistry(),
		baseOf:   make(map[node.Node]node.Node),
	}
}

// Registry exposes the base→derived registry populated by the last link.
func (l *Linker) Registry() *Registry { return l.registry }

// BaseOf returns the base-side counterpart of a derived-side node, if
// linked.
func (l *Linker) BaseOf(derived node.Node) (node.Node, bool) {
	b, ok := l.baseOf[derived]
	return b, ok
}

// ClearAllBaseLinks unsubscribes every previously wired base event
// handler and clears links. Idempotent and safe to call before
// re-linking or when there was never a base to begin with.
func (l *Linker) ClearAllBaseLinks() {
	if l.baseListener != nil {
		for _, t := range l.tokens {
			l.baseListener.Unsubscribe(t)
		}
	}
	l.tokens = nil
	l.baseOf = make(map[node.Node]node.Node)
	l.registry.Clear()
	l.baseListener = nil
}

// LinkToBase links derivedRoot to baseRoot, subscribing onBaseChange to
// every matched base-side Changed/ItemChanged event (spec §4.5). Passing
// a nil baseRoot is equivalent to ClearAllBaseLinks.
func (l *Linker) LinkToBase(derivedRoot *node.ObjectNode, baseRoot *node.ObjectNode, baseListener *events.Listener, onBaseChange func()) {
	l.ClearAllBaseLinks()
	if baseRoot == nil || derivedRoot == nil {
		return
	}
	l.baseListener = baseListener
	l.linkObjects(derivedRoot, baseRoot, onBaseChange, make(map[*node.ObjectNode]bool))
}

func (l *Linker) linkObjects(derived, base *node.ObjectNode, onBaseChange func(), seen map[*node.ObjectNode]bool) {
	if derived == nil || base == nil || seen[derived] {
		return
	}
	actualBase := l.policy.ResolveFindTarget(derived, base)
	if actualBase == nil {
		return
	}
	seen[derived] = true
	l.registry.Register(actualBase, derived)

	for _, dm := range derived.Children() {
		bm, ok := actualBase.Child(dm.Name)
		if !ok {
			continue
		}
		l.baseOf[dm] = bm
		l.subscribeMember(bm, onBaseChange)

		if !dm.IsReference || !bm.IsReference {
			continue
		}
		dTgt, ok1 := dm.Target()
		bTgt, ok2 := bm.Target()
		if !ok1 || !ok2 {
			continue
		}
		switch dv := dTgt.(type) {
		case *node.ObjectNode:
			if bv, ok := bTgt.(*node.ObjectNode); ok {
				l.linkObjects(dv, bv, onBaseChange, seen)
			}
		case node.IndexedObject:
			if bv, ok := bTgt.(node.IndexedObject); ok {
				l.linkIndexed(dv, bv, onBaseChange, seen)
			}
		}
	}
}

func (l *Linker) linkIndexed(derived, base node.IndexedObject, onBaseChange func(), seen map[*node.ObjectNode]bool) {
	l.baseOf[derived] = base
	l.subscribeIndexed(base, onBaseChange)

	if !derived.Identifiable() || !base.Identifiable() {
		return
	}
	for _, ditem := range derived.Items() {
		if ditem.ItemId.IsEmpty() {
			continue
		}
		bidx, ok := base.IndexOf(ditem.ItemId)
		if !ok {
			continue
		}
		bval, _ := base.Retrieve(bidx)
		if dObj, ok := ditem.Value.(*node.ObjectNode); ok {
			if bObj, ok := bval.(*node.ObjectNode); ok {
				l.linkObjects(dObj, bObj, onBaseChange, seen)
			}
		}
	}
}

func (l *Linker) subscribeMember(base node.Node, onBaseChange func()) {
	t := l.baseListener.OnNodeChanged(base, func(*node.MemberNode, interface{}, interface{}) {
		onBaseChange()
	})
	l.tokens = append(l.tokens, t)
}

func (l *Linker) subscribeIndexed(base node.Node, onBaseChange func()) {
	t := l.baseListener.OnNodeItemChanged(base, func(node.IndexedObject, node.ChangeKind, id.Index, interface{}) {
		onBaseChange()
	})
	l.tokens = append(l.tokens, t)
}

// FixupObjectReferences walks a freshly cloned subtree and rewrites every
// IsObjectReference member whose target is a base-side object (still
// pointing at the source subtree it was cloned from) to the corresponding
// derived-side object from registry. Lookup is by the base-side object
// pointer only; a member whose target is not registered is left as is.
func FixupObjectReferences(root *node.ObjectNode, registry *Registry) {
	node.Walk(root, node.Visitor{
		Member: func(m *node.MemberNode, _ *node.ObjectNode, _ id.NodePath) {
			if !m.IsObjectReference || !m.IsReference {
				return
			}
			tgt, ok := m.Target()
			if !ok {
				return
			}
			baseObj, ok := tgt.(*node.ObjectNode)
			if !ok {
				return
			}
			if derived, ok := registry.Resolve(baseObj); ok {
				m.Rebind(derived)
			}
		},
	})
}

// Package events implements the change-listener event stream over member
// value changes and collection/dictionary item changes (spec component
// C), plus the higher-level content-override and base-propagation events
// built on top of it (spec §4.4, §4.6.3, §6).
package events

import (
	"github.com/kailayerhq/assetgraph/id"
	"github.com/kailayerhq/assetgraph/node"
)

// Token identifies a single subscription so it can be released
// deterministically (spec §9: "handler tokens stored on the derived
// side, released deterministically in teardown").
type Token uint64

// ChangingHandler and friends are the raw per-node handlers.
type (
	ChangingHandler     func(m *node.MemberNode, old interface{})
	ChangedHandler      func(m *node.MemberNode, old, new interface{})
	ItemChangingHandler func(n node.IndexedObject, kind node.ChangeKind, idx id.Index, old interface{})
	ItemChangedHandler  func(n node.IndexedObject, kind node.ChangeKind, idx id.Index, new interface{})

	// ContentChangedHandler observes the override-store-level transition
	// produced after a raw member Changed event is stamped (spec §4.4).
	ContentChangedHandler func(m *node.MemberNode, prevOverride, newOverride int, itemID id.ItemId)

	// BaseContentChangedHandler observes the graph-level event fired
	// after a base-driven reconciliation pass completes (spec §4.6.3).
	BaseContentChangedHandler func()
)

type subscription[H any] struct {
	token   Token
	handler H
}

// Listener is the per-graph change-listener and event bus. Every node
// wired under one AssetPropertyGraph shares the same Listener instance as
// its node.EventSink. Wiring happens when the graph is created (and for
// members attached with AddMember to an already-wired object); a
// sub-object inserted later by Add, Update, Restore or reconciliation is
// not wired, and its own mutations fire no events until a sink is set on
// it.
type Listener struct {
	nextToken Token

	globalChanging     []subscription[ChangingHandler]
	globalChanged      []subscription[ChangedHandler]
	globalItemChanging []subscription[ItemChangingHandler]
	globalItemChanged  []subscription[ItemChangedHandler]

	nodeChanged     map[node.Node][]subscription[ChangedHandler]
	nodeItemChanged map[node.Node][]subscription[ItemChangedHandler]

	contentChanged     []subscription[ContentChangedHandler]
	baseContentChanged []subscription[BaseContentChangedHandler]
}

// NewListener creates an empty listener.
func NewListener() *Listener {
	return &Listener{
		nodeChanged:     make(map[node.Node][]subscription[ChangedHandler]),
		nodeItemChanged: make(map[node.Node][]subscription[ItemChangedHandler]),
	}
}

func (l *Listener) next() Token {
	l.nextToken++
	return l.nextToken
}

// --- node.EventSink implementation: fired in program order, Changing
// strictly before Changed, depth-first for nested mutations since Go
// call stacks already nest depth-first. ---

func (l *Listener) Changing(m *node.MemberNode, old interface{}) {
	for _, s := range l.globalChanging {
		s.handler(m, old)
	}
}

func (l *Listener) Changed(m *node.MemberNode, old, new interface{}) {
	for _, s := range l.globalChanged {
		s.handler(m, old, new)
	}
	for _, s := range l.nodeChanged[m] {
		s.handler(m, old, new)
	}
}

func (l *Listener) ItemChanging(n node.IndexedObject, kind node.ChangeKind, idx id.Index, old interface{}) {
	for _, s := range l.globalItemChanging {
		s.handler(n, kind, idx, old)
	}
}

func (l *Listener) ItemChanged(n node.IndexedObject, kind node.ChangeKind, idx id.Index, new interface{}) {
	for _, s := range l.globalItemChanged {
		s.handler(n, kind, idx, new)
	}
	for _, s := range l.nodeItemChanged[n] {
		s.handler(n, kind, idx, new)
	}
}

// --- Subscription API ---

// OnChanging registers a handler fired before every member update
// reachable from this listener's graph.
func (l *Listener) OnChanging(h ChangingHandler) Token {
	t := l.next()
	l.globalChanging = append(l.globalChanging, subscription[ChangingHandler]{t, h})
	return t
}

// OnChanged registers a handler fired after every member update.
func (l *Listener) OnChanged(h ChangedHandler) Token {
	t := l.next()
	l.globalChanged = append(l.globalChanged, subscription[ChangedHandler]{t, h})
	return t
}

// OnItemChanging registers a handler fired before every item mutation.
func (l *Listener) OnItemChanging(h ItemChangingHandler) Token {
	t := l.next()
	l.globalItemChanging = append(l.globalItemChanging, subscription[ItemChangingHandler]{t, h})
	return t
}

// OnItemChanged registers a handler fired after every item mutation.
func (l *Listener) OnItemChanged(h ItemChangedHandler) Token {
	t := l.next()
	l.globalItemChanged = append(l.globalItemChanged, subscription[ItemChangedHandler]{t, h})
	return t
}

// OnNodeChanged subscribes to Changed events for one specific member
// node only — used by the base linker to wire a derived node's
// reconciliation handler to its matched base-side member.
func (l *Listener) OnNodeChanged(n node.Node, h ChangedHandler) Token {
	t := l.next()
	l.nodeChanged[n] = append(l.nodeChanged[n], subscription[ChangedHandler]{t, h})
	return t
}

// OnNodeItemChanged subscribes to ItemChanged events for one specific
// IndexedObject node only.
func (l *Listener) OnNodeItemChanged(n node.Node, h ItemChangedHandler) Token {
	t := l.next()
	l.nodeItemChanged[n] = append(l.nodeItemChanged[n], subscription[ItemChangedHandler]{t, h})
	return t
}

// Unsubscribe releases a token obtained from any On* method. Idempotent:
// releasing an already-released or unknown token is a no-op, satisfying
// the base linker's "clear_all_base_links must be idempotent" contract.
func (l *Listener) Unsubscribe(t Token) {
	l.globalChanging = removeToken(l.globalChanging, t)
	l.globalChanged = removeToken(l.globalChanged, t)
	l.globalItemChanging = removeToken(l.globalItemChanging, t)
	l.globalItemChanged = removeToken(l.globalItemChanged, t)
	l.contentChanged = removeToken(l.contentChanged, t)
	l.baseContentChanged = removeToken(l.baseContentChanged, t)
	for n, subs := range l.nodeChanged {
		l.nodeChanged[n] = removeToken(subs, t)
	}
	for n, subs := range l.nodeItemChanged {
		l.nodeItemChanged[n] = removeToken(subs, t)
	}
}

func removeToken[H any](subs []subscription[H], t Token) []subscription[H] {
	for i, s := range subs {
		if s.token == t {
			return append(subs[:i:i], subs[i+1:]...)
		}
	}
	return subs
}

// FireContentChanged emits the higher-level override-transition event
// produced by override stamping (spec §4.4).
func (l *Listener) FireContentChanged(m *node.MemberNode, prevOverride, newOverride int, itemID id.ItemId) {
	for _, s := range l.contentChanged {
		s.handler(m, prevOverride, newOverride, itemID)
	}
}

// OnContentChanged subscribes to the higher-level override-transition
// event.
func (l *Listener) OnContentChanged(h ContentChangedHandler) Token {
	t := l.next()
	l.contentChanged = append(l.contentChanged, subscription[ContentChangedHandler]{t, h})
	return t
}

// FireBaseContentChanged emits the graph-level event fired after a
// base-driven reconciliation pass completes.
func (l *Listener) FireBaseContentChanged() {
	for _, s := range l.baseContentChanged {
		s.handler()
	}
}

// OnBaseContentChanged subscribes to the graph-level base-propagation
// event.
func (l *Listener) OnBaseContentChanged(h BaseContentChangedHandler) Token {
	t := l.next()
	l.baseContentChanged = append(l.baseContentChanged, subscription[BaseContentChangedHandler]{t, h})
	return t
}

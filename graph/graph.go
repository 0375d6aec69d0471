// Package graph wires every lower-level component (id, node, events,
// override, clone, link, recon, metadata, policy) into the asset property
// graph's external interfaces: AssetPropertyGraph and Container (spec
// component I, §6).
package graph

import (
	"log"

	"github.com/kailayerhq/assetgraph/events"
	"github.com/kailayerhq/assetgraph/id"
	"github.com/kailayerhq/assetgraph/link"
	"github.com/kailayerhq/assetgraph/metadata"
	"github.com/kailayerhq/assetgraph/node"
	"github.com/kailayerhq/assetgraph/override"
	"github.com/kailayerhq/assetgraph/policy"
	"github.com/kailayerhq/assetgraph/recon"
)

// AssetItem is the minimal document handle the container operates on: an
// identity, the constructed root node and its backing arena (needed to
// resolve object-reference GUIDs on load), and the metadata blob
// produced by PrepareForSave.
type AssetItem struct {
	ID       string
	Root     *node.ObjectNode
	Arena    *node.Arena
	Metadata metadata.Blob
}

// Graph is one asset's property graph: its node tree, event stream,
// override store, and (if based on another asset) its base link and
// reconciler.
type Graph struct {
	id     string
	root   *node.ObjectNode
	arena  *node.Arena
	logger *log.Logger

	listener   *events.Listener
	store      *override.Store
	linker     *link.Linker
	reconciler *recon.Reconciler
	policy     policy.Policy

	baseRoot     *node.ObjectNode
	baseListener *events.Listener

	container        *Container
	updatingFromBase bool
}

// RootNode returns the asset's root object node.
func (g *Graph) RootNode() *node.ObjectNode { return g.root }

// Store exposes the override store backing this graph, for callers that
// need to inspect override bits directly (e.g. editor presenters).
func (g *Graph) Store() *override.Store { return g.store }

// Listener exposes the shared event bus every node under this graph
// fires through.
func (g *Graph) Listener() *events.Listener { return g.listener }

// RefreshBase re-links this graph's root to a new base graph (or clears
// the base link entirely when baseRoot is nil), per spec §6
// `refresh_base(new_base_graph?)`.
func (g *Graph) RefreshBase(baseRoot *node.ObjectNode, baseListener *events.Listener) {
	g.baseRoot = baseRoot
	g.baseListener = baseListener
	if baseRoot == nil {
		g.linker.ClearAllBaseLinks()
		return
	}
	g.linker.LinkToBase(g.root, baseRoot, baseListener, g.onBaseChange)
}

// onBaseChange implements spec §4.6.3's base-driven propagation: set the
// re-entry guard, re-link conservatively from the root, reconcile from
// the root, clear the guard, then fire BaseContentChanged upward.
func (g *Graph) onBaseChange() {
	if g.updatingFromBase || g.container == nil || !g.container.PropagateChangesFromBase {
		return
	}
	g.updatingFromBase = true
	g.linker.LinkToBase(g.root, g.baseRoot, g.baseListener, g.onBaseChange)
	g.reconciler.Run(g.root)
	g.updatingFromBase = false
	g.listener.FireBaseContentChanged()
}

// ReconcileWithBase reconciles n and its descendants against the linked
// base, or the whole graph when n is nil (spec §6
// `reconcile_with_base(node?)`).
func (g *Graph) ReconcileWithBase(n node.Node) {
	if n == nil {
		g.reconciler.Run(g.root)
		return
	}
	g.reconciler.ReconcileNode(n)
}

// ResetOverride clears override bits on n and its descendants, then
// reconciles n back into sync with the linked base (spec §6
// `reset_override(node, index?)`).
func (g *Graph) ResetOverride(n node.Node) {
	resetNodeAndDescendants(g.store, n)
	g.ReconcileWithBase(n)
}

// ResetOverrideItem is the index-scoped form of ResetOverride: it clears
// only itemID's item/key/deleted bits within io before reconciling io.
func (g *Graph) ResetOverrideItem(io node.IndexedObject, idx id.Index) {
	itemID := io.ItemIdAt(idx)
	if !itemID.IsEmpty() {
		g.store.ClearItemOverride(io, itemID)
		g.store.ClearKeyOverride(io, itemID)
		g.store.UnmarkDeleted(io, itemID)
	}
	g.ReconcileWithBase(io)
}

// ClearAllOverrides snapshots and drops every override bit this graph
// holds, returning the snapshot for a later RestoreOverrides call (spec
// §6 `clear_all_overrides() -> Vec<NodeOverride>`, invariant I5).
func (g *Graph) ClearAllOverrides() override.Snapshot {
	snap := g.store.Clone()
	g.store.ClearAll()
	return snap
}

// RestoreOverrides restores a snapshot captured by ClearAllOverrides.
func (g *Graph) RestoreOverrides(snap override.Snapshot) {
	g.store.Restore(snap)
}

// PrepareForSave generates the override and object-reference metadata
// blobs and attaches them to item's metadata side-channel (spec §6
// `prepare_for_save(asset_item, logger)`).
func (g *Graph) PrepareForSave(item *AssetItem) {
	item.Metadata = metadata.Build(g.root, g.store)
}

func resetNodeAndDescendants(store *override.Store, n node.Node) {
	if n == nil {
		return
	}
	store.Reset(n)
	switch v := n.(type) {
	case *node.ObjectNode:
		node.Walk(v, node.Visitor{
			Member:  func(m *node.MemberNode, _ *node.ObjectNode, _ id.NodePath) { store.Reset(m) },
			Indexed: func(io node.IndexedObject, _ id.NodePath) { store.Reset(io) },
		})
	case *node.MemberNode:
		if tgt, ok := v.Target(); ok {
			resetNodeAndDescendants(store, tgt)
		}
	case node.IndexedObject:
		for _, item := range v.Items() {
			if obj, ok := item.Value.(*node.ObjectNode); ok {
				resetNodeAndDescendants(store, obj)
			}
		}
	}
}

func wireSink(root *node.ObjectNode, sink node.EventSink) {
	node.Walk(root, node.Visitor{
		Object:  func(o *node.ObjectNode, _ id.NodePath) { o.SetSink(sink) },
		Indexed: func(io node.IndexedObject, _ id.NodePath) { io.SetSink(sink) },
	})
}

// Container owns a set of graphs keyed by asset id and decides whether
// base changes propagate automatically (spec §6 Container API).
type Container struct {
	graphs map[string]*Graph

	// PropagateChangesFromBase gates onBaseChange for every graph this
	// container owns.
	PropagateChangesFromBase bool

	logger *log.Logger
}

// NewContainer creates an empty container. logger receives warnings from
// metadata application (non-fatal PathUnreachable entries).
func NewContainer(logger *log.Logger) *Container {
	if logger == nil {
		logger = log.Default()
	}
	return &Container{
		graphs:                   make(map[string]*Graph),
		PropagateChangesFromBase: true,
		logger:                   logger,
	}
}

// CreateGraph builds a Graph over item's already-constructed node tree,
// wiring a fresh event listener and override store and applying item's
// saved metadata (spec §6 `create_graph(asset_item, logger)`).
func (c *Container) CreateGraph(item *AssetItem, p policy.Policy) *Graph {
	listener := events.NewListener()
	store := override.NewStore(listener)
	wireSink(item.Root, listener)

	g := &Graph{
		id:        item.ID,
		root:      item.Root,
		arena:     item.Arena,
		logger:    c.logger,
		listener:  listener,
		store:     store,
		linker:    link.NewLinker(p),
		policy:    p,
		container: c,
	}
	g.reconciler = recon.New(store, g.linker, p)

	if item.Arena != nil {
		metadata.Apply(item.Root, store, item.Arena, item.Metadata, c.logger)
	}

	c.graphs[item.ID] = g
	return g
}

// Lookup returns the graph registered under assetID, if any.
func (c *Container) Lookup(assetID string) (*Graph, bool) {
	g, ok := c.graphs[assetID]
	return g, ok
}

// Remove tears down and forgets the graph registered under assetID,
// unsubscribing it from its base first (spec §5 "each graph's teardown
// first unsubscribing from its base").
func (c *Container) Remove(assetID string) {
	g, ok := c.graphs[assetID]
	if !ok {
		return
	}
	g.linker.ClearAllBaseLinks()
	delete(c.graphs, assetID)
}

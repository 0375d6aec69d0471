// Package metadata (de)serializes the two path-keyed blobs that travel
// alongside a saved asset document: override state and object-reference
// flags (spec component H, §4.7/§6). The document body itself is out of
// scope — this package only defines and round-trips the side-channel.
package metadata

import (
	"log"

	"gopkg.in/yaml.v3"

	"github.com/kailayerhq/assetgraph/errs"
	"github.com/kailayerhq/assetgraph/id"
	"github.com/kailayerhq/assetgraph/node"
	"github.com/kailayerhq/assetgraph/override"
)

// OverrideType is the wire form of override.Content.
type OverrideType string

const (
	OverrideBase   OverrideType = "Base"
	OverrideNew    OverrideType = "New"
	OverrideSealed OverrideType = "Sealed"
)

func fromContent(c override.Content) OverrideType {
	switch c {
	case override.New:
		return OverrideNew
	case override.Sealed:
		return OverrideSealed
	default:
		return OverrideBase
	}
}

func (t OverrideType) toContent() override.Content {
	switch t {
	case OverrideNew:
		return override.New
	case OverrideSealed:
		return override.Sealed
	default:
		return override.Base
	}
}

// Blob is the pair of keyed metadata maps attached to a saved asset item
// (spec §6 "Metadata schema"). Both maps are keyed by the string form of
// a NodePath so the blob round-trips cleanly through YAML, whose map keys
// must be scalars.
//
// Item/key override bits collapse into a single OverrideNew entry: the
// schema names only (NodePath → OverrideType), and distinguishing "this
// item's value was overridden" from "this item's key was overridden"
// would need a second boolean the spec's two-blob schema doesn't carry.
// Deleted items are likewise not persisted here — I2's runtime invariant
// has no saved counterpart in this schema, so a re-link after load simply
// lets the reconciler re-decide (subject to can_update) rather than
// replaying a prior deletion. Both omissions are recorded in the
// project's grounding ledger.
type Blob struct {
	Overrides        map[string]OverrideType `yaml:"overrides"`
	ObjectReferences map[string]string       `yaml:"object_references"`
}

// Build walks root and produces the metadata blob describing store's
// current override state and every flagged object-reference member
// (spec §4.7 "On save").
func Build(root *node.ObjectNode, store *override.Store) Blob {
	blob := Blob{
		Overrides:        make(map[string]OverrideType),
		ObjectReferences: make(map[string]string),
	}

	node.Walk(root, node.Visitor{
		Member: func(m *node.MemberNode, _ *node.ObjectNode, path id.NodePath) {
			if c := store.ContentOverride(m); c != override.Base {
				blob.Overrides[path.String()] = fromContent(c)
			}
			if m.IsObjectReference {
				if obj, ok := m.TargetObject(); ok && !obj.ItemId.IsEmpty() {
					blob.ObjectReferences[path.String()] = obj.ItemId.String()
				}
			}
		},
		Item: func(io node.IndexedObject, item node.Item, path id.NodePath) {
			if item.ItemId.IsEmpty() {
				return
			}
			overridden := store.ItemOverridden(io, item.ItemId) || store.KeyOverridden(io, item.ItemId)
			if overridden {
				blob.Overrides[path.String()] = OverrideNew
			}
			if io.ElementsAreReferences() {
				if obj, ok := item.Value.(*node.ObjectNode); ok && !obj.ItemId.IsEmpty() {
					blob.ObjectReferences[path.String()] = obj.ItemId.String()
				}
			}
		},
	})

	return blob
}

// Apply resolves every entry in blob against root (per §4.2) and stamps
// the corresponding override/object-reference state. arena resolves
// object-reference GUIDs to the identifiable objects they name; pass the
// same Arena used to build root. Unreachable paths are dropped with a
// logged warning (errs.PathUnreachable is non-fatal, per spec §7).
func Apply(root *node.ObjectNode, store *override.Store, arena *node.Arena, blob Blob, logger *log.Logger) {
	for pathStr, ot := range blob.Overrides {
		path, err := parsePath(pathStr)
		if err != nil {
			logger.Printf("metadata: %v: %s", errs.PathUnreachable, pathStr)
			continue
		}
		applyOverride(root, store, path, ot, logger)
	}
	for pathStr, guid := range blob.ObjectReferences {
		path, err := parsePath(pathStr)
		if err != nil {
			logger.Printf("metadata: %v: %s", errs.PathUnreachable, pathStr)
			continue
		}
		applyObjectReference(root, arena, path, guid, logger)
	}
}

func applyOverride(root *node.ObjectNode, store *override.Store, path id.NodePath, ot OverrideType, logger *log.Logger) {
	n, idx, resolvedOnIndex := node.Resolve(root, path)
	if n == nil {
		logger.Printf("metadata: %v: %s", errs.PathUnreachable, path)
		return
	}
	if resolvedOnIndex {
		io, ok := n.(node.IndexedObject)
		if !ok {
			logger.Printf("metadata: %v: %s", errs.KindMismatch, path)
			return
		}
		itemID := io.ItemIdAt(idx)
		if itemID.IsEmpty() {
			return
		}
		store.MarkItemOverride(io, itemID)
		return
	}
	m, ok := n.(*node.MemberNode)
	if !ok {
		logger.Printf("metadata: %v: %s", errs.KindMismatch, path)
		return
	}
	store.SetContentOverride(m, ot.toContent())
}

func applyObjectReference(root *node.ObjectNode, arena *node.Arena, path id.NodePath, guid string, logger *log.Logger) {
	itemID, err := id.ParseItemId(guid)
	if err != nil {
		logger.Printf("metadata: invalid object reference guid %q at %s: %v", guid, path, err)
		return
	}
	target, ok := arena.Lookup(itemID)
	if !ok {
		logger.Printf("metadata: %v: object reference target %s not found for %s", errs.PathUnreachable, guid, path)
		return
	}

	n, idx, resolvedOnIndex := node.Resolve(root, path)
	if n == nil {
		logger.Printf("metadata: %v: %s", errs.PathUnreachable, path)
		return
	}
	if resolvedOnIndex {
		// Item-level references are flagged structurally at construction
		// time via the collection/dictionary's elementsAreReferences bit;
		// there is nothing further to stamp here beyond validating that
		// the arena lookup succeeded.
		_ = idx
		return
	}
	m, ok := n.(*node.MemberNode)
	if !ok {
		logger.Printf("metadata: %v: %s", errs.KindMismatch, path)
		return
	}
	m.IsObjectReference = true
	m.SetTarget(target)
}

// parsePath parses the "$.member[0]{guid}" form produced by
// id.NodePath.String() back into a NodePath. Unlike that renderer, which
// is one-way by design elsewhere in the codebase, the metadata blob needs
// a full round trip (spec I6), so this package owns the inverse.
func parsePath(s string) (id.NodePath, error) {
	var path id.NodePath
	i := 0
	if i < len(s) && s[i] == '$' {
		i++
	}
	for i < len(s) {
		switch s[i] {
		case '.':
			i++
			start := i
			for i < len(s) && s[i] != '.' && s[i] != '[' && s[i] != '{' {
				i++
			}
			path = path.Append(id.Member(s[start:i]))
		case '[':
			i++
			start := i
			for i < len(s) && s[i] != ']' {
				i++
			}
			raw := s[start:i]
			if i < len(s) {
				i++
			}
			path = path.Append(id.IndexStep(parseIndexValue(raw)))
		case '{':
			i++
			start := i
			for i < len(s) && s[i] != '}' {
				i++
			}
			raw := s[start:i]
			if i < len(s) {
				i++
			}
			itemID, err := id.ParseItemId(raw)
			if err != nil {
				return nil, err
			}
			path = path.Append(id.ItemIdStep(itemID))
		default:
			i++
		}
	}
	return path, nil
}

func parseIndexValue(raw string) interface{} {
	n := 0
	for _, c := range raw {
		if c < '0' || c > '9' {
			return raw
		}
		n = n*10 + int(c-'0')
	}
	if raw == "" {
		return raw
	}
	return n
}

// Marshal and Unmarshal attach Blob directly to a document's metadata
// side-channel using gopkg.in/yaml.v3, the teacher's usual choice for
// structured config serialization.
func Marshal(b Blob) ([]byte, error) {
	return yaml.Marshal(b)
}

func Unmarshal(data []byte) (Blob, error) {
	var b Blob
	if err := yaml.Unmarshal(data, &b); err != nil {
		return Blob{}, err
	}
	return b, nil
}

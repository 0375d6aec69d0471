// Package policy defines the capability-polymorphism extension points an
// asset subtype plugs into the engine: which values are object
// references, how composite sub-entities redirect to an alternate base,
// and the reconciliation veto (spec §6 "Extension points").
package policy

import (
	"github.com/kailayerhq/assetgraph/id"
	"github.com/kailayerhq/assetgraph/node"
)

// IsObjectReferenceFunc decides which identifiable values are pointers
// rather than structurally-owned content.
type IsObjectReferenceFunc func(target node.Node, idx id.Index, value interface{}) bool

// FindTargetFunc lets a composite asset redirect a sub-tree to a
// different base root than the one the core engine would otherwise use.
type FindTargetFunc func(source node.Node, candidateBase *node.ObjectNode) *node.ObjectNode

// CanUpdateFunc vetoes an otherwise-valid reconciliation mutation —
// returning false refuses an impossible insert/update.
type CanUpdateFunc func(n node.IndexedObject, change node.ChangeKind, idx id.Index, value interface{}) bool

// IsReferencedPartFunc is a composite-asset helper identifying whether
// target is a part reached only through member's reference, defaulting
// to false for non-composite assets.
type IsReferencedPartFunc func(member *node.MemberNode, target node.Node) bool

// Policy bundles the four extension points. A zero Policy behaves like a
// non-composite, non-vetoing asset: every identifiable-and-flagged value
// is an object reference only if IsObjectReference says so (nil means
// never), find_target always returns the candidate unchanged, can_update
// always allows, is_referenced_part is always false.
type Policy struct {
	IsObjectReference IsObjectReferenceFunc
	FindTarget        FindTargetFunc
	CanUpdate         CanUpdateFunc
	IsReferencedPart  IsReferencedPartFunc
}

// Default returns the policy used when an asset subtype supplies none of
// its own: never an object reference, no base redirection, every update
// allowed, no referenced parts.
func Default() Policy {
	return Policy{}
}

func (p Policy) resolveFindTarget(source node.Node, candidateBase *node.ObjectNode) *node.ObjectNode {
	if p.FindTarget == nil {
		return candidateBase
	}
	if actual := p.FindTarget(source, candidateBase); actual != nil {
		return actual
	}
	return candidateBase
}

// ResolveFindTarget is the public entry the linker calls at every
// object-kind boundary (spec §4.5).
func (p Policy) ResolveFindTarget(source node.Node, candidateBase *node.ObjectNode) *node.ObjectNode {
	return p.resolveFindTarget(source, candidateBase)
}

// AllowsUpdate is the public entry the reconciler calls before an insert
// it would otherwise perform (spec §4.6.2, "can_update(Add) rejects").
func (p Policy) AllowsUpdate(n node.IndexedObject, change node.ChangeKind, idx id.Index, value interface{}) bool {
	if p.CanUpdate == nil {
		return true
	}
	return p.CanUpdate(n, change, idx, value)
}

// ObjectReference reports whether value at idx under target is an object
// reference per the asset subtype's rule.
func (p Policy) ObjectReference(target node.Node, idx id.Index, value interface{}) bool {
	if p.IsObjectReference == nil {
		return false
	}
	return p.IsObjectReference(target, idx, value)
}

// ReferencedPart reports whether target is a composite-asset referenced
// part reached via member.
func (p Policy) ReferencedPart(member *node.MemberNode, target node.Node) bool {
	if p.IsReferencedPart == nil {
		return false
	}
	return p.IsReferencedPart(member, target)
}

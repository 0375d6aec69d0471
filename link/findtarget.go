package link

import (
	"github.com/bmatcuk/doublestar/v4"

	"github.com/kailayerhq/assetgraph/node"
	"github.com/kailayerhq/assetgraph/policy"
)

// GlobRedirectRule maps a glob pattern over a sub-entity's declared type
// name to an alternate base root, mirroring how modulematch.Matcher maps
// file-path glob patterns to module names.
type GlobRedirectRule struct {
	Pattern string
	Base    *node.ObjectNode
}

// NewGlobFindTarget builds a find_target extension point (spec §4.5,
// §6) for composite assets: a sub-entity whose TypeName matches a rule's
// Pattern is redirected to that rule's Base instead of the base the core
// engine would otherwise walk to in lockstep. The first matching rule
// wins; no match falls back to candidateBase unchanged.
func NewGlobFindTarget(rules []GlobRedirectRule) policy.FindTargetFunc {
	return func(source node.Node, candidateBase *node.ObjectNode) *node.ObjectNode {
		obj, ok := source.(*node.ObjectNode)
		if !ok {
			return candidateBase
		}
		for _, r := range rules {
			matched, err := doublestar.Match(r.Pattern, obj.TypeName)
			if err == nil && matched {
				return r.Base
			}
		}
		return candidateBase
	}
}

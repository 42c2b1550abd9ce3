// Package hierarchy computes self-inclusive subtree closures over the
// org unit and asset type trees.
package hierarchy

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/nodewatch/nodewatch/internal/common/apperrors"
)

// Kind selects which tree a closure runs over.
type Kind int

const (
	KindOrgUnit Kind = iota
	KindAssetType
)

func (k Kind) String() string {
	if k == KindAssetType {
		return "asset_type"
	}
	return "org_unit"
}

// ChildSource provides one level of child lookups. The db facade satisfies
// it through the adapter in the checkmanager package; tests supply fakes.
type ChildSource interface {
	ChildIDs(ctx context.Context, kind Kind, parentID int64) ([]int64, apperrors.Error)
}

// Descendants returns the transitive closure of the tree rooted at rootID,
// including rootID itself. The traversal is an explicit worklist with a
// seen-set: a node already visited is a cycle-break, not an error, since the
// tree invariant is assumed rather than re-verified here.
//
// On a lookup failure the accumulated set is returned as-is; for a failure
// on the root itself that is the singleton {rootID}. A transient store error
// therefore narrows the scope instead of widening or failing it.
func Descendants(ctx context.Context, src ChildSource, kind Kind, rootID int64) map[int64]struct{} {
	seen := map[int64]struct{}{rootID: {}}
	worklist := []int64{rootID}

	for len(worklist) > 0 {
		current := worklist[0]
		worklist = worklist[1:]

		children, err := src.ChildIDs(ctx, kind, current)
		if err != nil {
			log.Ctx(ctx).Error().Err(err).
				Str("tree", kind.String()).
				Int64("root_id", rootID).
				Int64("node_id", current).
				Msg("hierarchy lookup failed, narrowing scope to nodes resolved so far")
			return seen
		}
		for _, child := range children {
			if _, ok := seen[child]; ok {
				continue
			}
			seen[child] = struct{}{}
			worklist = append(worklist, child)
		}
	}
	return seen
}

// DescendantsOfAll unions the closures of several roots.
func DescendantsOfAll(ctx context.Context, src ChildSource, kind Kind, rootIDs []int64) map[int64]struct{} {
	union := make(map[int64]struct{})
	for _, root := range rootIDs {
		for id := range Descendants(ctx, src, kind, root) {
			union[id] = struct{}{}
		}
	}
	return union
}

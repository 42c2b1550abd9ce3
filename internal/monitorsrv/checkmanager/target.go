package checkmanager

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/nodewatch/nodewatch/internal/common/apperrors"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/db"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/hierarchy"
)

// TargetSpec selects the assets an operation acts on. Exactly one of
// AssetIDs and Criteria must be set.
type TargetSpec struct {
	AssetIDs []int64         `json:"assetIds,omitempty"`
	Criteria *TargetCriteria `json:"criteria,omitempty"`
}

// TargetCriteria matches assets by org unit subtrees, asset type subtrees
// and a name glob. Empty criteria match all assets; the three axes compose
// as AND, the roots within one axis as a union of subtree closures.
type TargetCriteria struct {
	OrgUnits    []int64 `json:"orgUnits,omitempty"`
	AssetTypes  []int64 `json:"assetTypes,omitempty"`
	NamePattern string  `json:"namePattern,omitempty"`
}

// dbChildSource adapts the db facade to the hierarchy resolver.
type dbChildSource struct{}

func (dbChildSource) ChildIDs(ctx context.Context, kind hierarchy.Kind, parentID int64) ([]int64, apperrors.Error) {
	if kind == hierarchy.KindAssetType {
		return db.DB(ctx).ListAssetTypeChildIDs(ctx, parentID)
	}
	return db.DB(ctx).ListOrgUnitChildIDs(ctx, parentID)
}

// assetLister is the criteria query ResolveTargets hands the expanded
// subtree closures to. db.DB(ctx) satisfies it.
type assetLister interface {
	ListAssetIDsByCriteria(ctx context.Context, unitIDs, typeIDs []int64, namePattern string) ([]int64, apperrors.Error)
}

// ResolveTargets computes the concrete asset id set for a spec. Explicit ids
// are used as-is with no existence check at this layer.
func ResolveTargets(ctx context.Context, spec TargetSpec) ([]int64, apperrors.Error) {
	return resolveTargets(ctx, dbChildSource{}, db.DB(ctx), spec)
}

func resolveTargets(ctx context.Context, src hierarchy.ChildSource, lister assetLister, spec TargetSpec) ([]int64, apperrors.Error) {
	if err := validateTargetSpec(spec); err != nil {
		return nil, err
	}
	if len(spec.AssetIDs) > 0 {
		return spec.AssetIDs, nil
	}

	var unitIDs, typeIDs []int64
	if len(spec.Criteria.OrgUnits) > 0 {
		closure := hierarchy.DescendantsOfAll(ctx, src, hierarchy.KindOrgUnit, spec.Criteria.OrgUnits)
		unitIDs = setToSlice(closure)
	}
	if len(spec.Criteria.AssetTypes) > 0 {
		closure := hierarchy.DescendantsOfAll(ctx, src, hierarchy.KindAssetType, spec.Criteria.AssetTypes)
		typeIDs = setToSlice(closure)
	}

	ids, err := lister.ListAssetIDsByCriteria(ctx, unitIDs, typeIDs, spec.Criteria.NamePattern)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to resolve target criteria")
		return nil, err
	}
	return ids, nil
}

func setToSlice(set map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// validateTargetSpec is the pure part of ResolveTargets, split out so the
// both/neither rule is testable without a store.
func validateTargetSpec(spec TargetSpec) apperrors.Error {
	if (len(spec.AssetIDs) > 0) == (spec.Criteria != nil) {
		return ErrInvalidTargetSpec
	}
	return nil
}

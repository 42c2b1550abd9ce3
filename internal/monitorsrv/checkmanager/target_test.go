package checkmanager

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodewatch/nodewatch/internal/common/apperrors"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/hierarchy"
)

func TestValidateTargetSpec(t *testing.T) {
	tests := []struct {
		name    string
		spec    TargetSpec
		wantErr bool
	}{
		{
			name:    "explicit ids only",
			spec:    TargetSpec{AssetIDs: []int64{1, 2}},
			wantErr: false,
		},
		{
			name:    "criteria only",
			spec:    TargetSpec{Criteria: &TargetCriteria{OrgUnits: []int64{1}}},
			wantErr: false,
		},
		{
			name:    "empty criteria matches all",
			spec:    TargetSpec{Criteria: &TargetCriteria{}},
			wantErr: false,
		},
		{
			name:    "both supplied",
			spec:    TargetSpec{AssetIDs: []int64{1}, Criteria: &TargetCriteria{}},
			wantErr: true,
		},
		{
			name:    "neither supplied",
			spec:    TargetSpec{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTargetSpec(tt.spec)
			if tt.wantErr {
				assert.NotNil(t, err)
				assert.True(t, err.Is(ErrInvalidTargetSpec))
			} else {
				assert.Nil(t, err)
			}
		})
	}
}

type fakeChildSource map[hierarchy.Kind]map[int64][]int64

func (f fakeChildSource) ChildIDs(_ context.Context, kind hierarchy.Kind, parentID int64) ([]int64, apperrors.Error) {
	return f[kind][parentID], nil
}

// fakeAssetLister records the expanded closures handed to the criteria
// query.
type fakeAssetLister struct {
	unitIDs []int64
	typeIDs []int64
	pattern string
	called  bool
	ids     []int64
}

func (f *fakeAssetLister) ListAssetIDsByCriteria(_ context.Context, unitIDs, typeIDs []int64, namePattern string) ([]int64, apperrors.Error) {
	f.called = true
	f.unitIDs = unitIDs
	f.typeIDs = typeIDs
	f.pattern = namePattern
	return f.ids, nil
}

func TestResolveTargetsExplicitIDsBypassCriteria(t *testing.T) {
	lister := &fakeAssetLister{}
	ids, err := resolveTargets(context.Background(), fakeChildSource{}, lister, TargetSpec{AssetIDs: []int64{5, 9}})
	require.Nil(t, err)
	assert.Equal(t, []int64{5, 9}, ids)
	assert.False(t, lister.called)
}

func TestResolveTargetsExpandsOrgUnitSubtree(t *testing.T) {
	src := fakeChildSource{
		hierarchy.KindOrgUnit: {1: {2, 3}, 3: {4}},
	}
	lister := &fakeAssetLister{ids: []int64{10, 11}}

	ids, err := resolveTargets(context.Background(), src, lister, TargetSpec{
		Criteria: &TargetCriteria{OrgUnits: []int64{1}},
	})
	require.Nil(t, err)
	assert.Equal(t, []int64{10, 11}, ids)
	assert.ElementsMatch(t, []int64{1, 2, 3, 4}, lister.unitIDs)
	assert.Empty(t, lister.typeIDs)
}

func TestResolveTargetsCombinedCriteria(t *testing.T) {
	src := fakeChildSource{
		hierarchy.KindOrgUnit:   {1: {2}},
		hierarchy.KindAssetType: {7: {8, 9}},
	}
	lister := &fakeAssetLister{}

	_, err := resolveTargets(context.Background(), src, lister, TargetSpec{
		Criteria: &TargetCriteria{OrgUnits: []int64{1}, AssetTypes: []int64{7}, NamePattern: "db-*"},
	})
	require.Nil(t, err)
	assert.ElementsMatch(t, []int64{1, 2}, lister.unitIDs)
	assert.ElementsMatch(t, []int64{7, 8, 9}, lister.typeIDs)
	assert.Equal(t, "db-*", lister.pattern)
}

func TestResolveTargetsEmptyCriteriaMatchesAll(t *testing.T) {
	lister := &fakeAssetLister{ids: []int64{1, 2, 3}}
	ids, err := resolveTargets(context.Background(), fakeChildSource{}, lister, TargetSpec{
		Criteria: &TargetCriteria{},
	})
	require.Nil(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)
	assert.Empty(t, lister.unitIDs)
	assert.Empty(t, lister.typeIDs)
	assert.Equal(t, "", lister.pattern)
}

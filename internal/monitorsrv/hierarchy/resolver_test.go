package hierarchy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nodewatch/nodewatch/internal/common/apperrors"
)

type fakeSource struct {
	children map[int64][]int64
	failOn   map[int64]bool
}

func (f *fakeSource) ChildIDs(_ context.Context, _ Kind, parentID int64) ([]int64, apperrors.Error) {
	if f.failOn[parentID] {
		return nil, apperrors.New("lookup failed")
	}
	return f.children[parentID], nil
}

func ids(m map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	return out
}

func TestDescendants(t *testing.T) {
	// R -> {A, B}, A -> {C}
	src := &fakeSource{children: map[int64][]int64{
		1: {2, 3},
		2: {4},
	}}
	ctx := context.Background()

	assert.ElementsMatch(t, []int64{1, 2, 3, 4}, ids(Descendants(ctx, src, KindOrgUnit, 1)))
	assert.ElementsMatch(t, []int64{2, 4}, ids(Descendants(ctx, src, KindOrgUnit, 2)))
	assert.ElementsMatch(t, []int64{4}, ids(Descendants(ctx, src, KindOrgUnit, 4)))
}

func TestDescendantsCycleBreak(t *testing.T) {
	// Malformed data: 2 points back at 1. The seen-set breaks the loop.
	src := &fakeSource{children: map[int64][]int64{
		1: {2},
		2: {1, 3},
	}}
	got := Descendants(context.Background(), src, KindAssetType, 1)
	assert.ElementsMatch(t, []int64{1, 2, 3}, ids(got))
}

func TestDescendantsLookupFailureNarrowsScope(t *testing.T) {
	src := &fakeSource{
		children: map[int64][]int64{1: {2, 3}},
		failOn:   map[int64]bool{1: true},
	}
	got := Descendants(context.Background(), src, KindOrgUnit, 1)
	assert.ElementsMatch(t, []int64{1}, ids(got))
}

func TestDescendantsOfAll(t *testing.T) {
	src := &fakeSource{children: map[int64][]int64{
		1: {2},
		5: {6, 7},
	}}
	got := DescendantsOfAll(context.Background(), src, KindOrgUnit, []int64{1, 5})
	assert.ElementsMatch(t, []int64{1, 2, 5, 6, 7}, ids(got))
}

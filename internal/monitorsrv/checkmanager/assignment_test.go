package checkmanager

import (
	"context"
	"fmt"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodewatch/nodewatch/internal/common/apperrors"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/db/dberror"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/db/models"
)

// fakeAssignmentStore mimics the unique index on
// (asset_id, method_id, params_canon, criteria_canon): a second insert with
// the same key reports not-inserted instead of erroring.
type fakeAssignmentStore struct {
	rows   map[string]struct{}
	failOn int64
}

func newFakeAssignmentStore() *fakeAssignmentStore {
	return &fakeAssignmentStore{rows: make(map[string]struct{})}
}

func (f *fakeAssignmentStore) CreateAssignmentIfAbsent(_ context.Context, a *models.Assignment) (bool, apperrors.Error) {
	if f.failOn != 0 && a.AssetID == f.failOn {
		return false, dberror.ErrDatabase.Msg("insert failed")
	}
	key := fmt.Sprintf("%d|%d|%s|%s", a.AssetID, a.MethodID, a.ParamsCanon, a.CriteriaCanon)
	if _, ok := f.rows[key]; ok {
		return false, nil
	}
	f.rows[key] = struct{}{}
	return true, nil
}

func TestBulkCreateIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newFakeAssignmentStore()
	template := AssignmentTemplate{
		Method:          "reachability",
		Enabled:         true,
		Parameters:      jsoniter.RawMessage(`{"timeoutSeconds":5}`),
		IntervalSeconds: 60,
	}
	assets := []int64{1, 2, 3}

	res, err := bulkCreate(ctx, store, 7, template, assets)
	require.Nil(t, err)
	assert.Equal(t, 3, res.Resolved)
	assert.Equal(t, 3, res.Created)

	// Re-running the same request inserts nothing and is not an error.
	res, err = bulkCreate(ctx, store, 7, template, assets)
	require.Nil(t, err)
	assert.Equal(t, 3, res.Resolved)
	assert.Equal(t, 0, res.Created)
	assert.Len(t, store.rows, 3)
}

func TestBulkCreateEquivalentTemplatesShareKey(t *testing.T) {
	ctx := context.Background()
	store := newFakeAssignmentStore()
	first := AssignmentTemplate{
		Method:     "reachability",
		Parameters: jsoniter.RawMessage(`{"timeout": 5, "port": 443}`),
	}
	variants := []AssignmentTemplate{
		{Method: "reachability", Parameters: jsoniter.RawMessage(`{"port":443,"timeout":5}`)},
		{Method: "reachability", Parameters: jsoniter.RawMessage("{ \"port\" : 443,\n\"timeout\": 5 }")},
	}

	res, err := bulkCreate(ctx, store, 7, first, []int64{1})
	require.Nil(t, err)
	assert.Equal(t, 1, res.Created)

	for _, v := range variants {
		res, err = bulkCreate(ctx, store, 7, v, []int64{1})
		require.Nil(t, err)
		assert.Equal(t, 0, res.Created, "reordered and reformatted parameters dedup against the original")
	}
	assert.Len(t, store.rows, 1)
}

func TestBulkCreateNullParamsDedupAgainstAbsent(t *testing.T) {
	ctx := context.Background()
	store := newFakeAssignmentStore()
	absent := AssignmentTemplate{Method: "reachability"}
	null := AssignmentTemplate{Method: "reachability", Parameters: jsoniter.RawMessage(`null`)}

	res, err := bulkCreate(ctx, store, 7, absent, []int64{1})
	require.Nil(t, err)
	assert.Equal(t, 1, res.Created)

	res, err = bulkCreate(ctx, store, 7, null, []int64{1})
	require.Nil(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Len(t, store.rows, 1)
}

func TestBulkCreateDistinctParametersCreateNewRows(t *testing.T) {
	ctx := context.Background()
	store := newFakeAssignmentStore()
	a := AssignmentTemplate{Method: "reachability", Parameters: jsoniter.RawMessage(`{"port":22}`)}
	b := AssignmentTemplate{Method: "reachability", Parameters: jsoniter.RawMessage(`{"port":443}`)}

	res, err := bulkCreate(ctx, store, 7, a, []int64{1})
	require.Nil(t, err)
	assert.Equal(t, 1, res.Created)

	res, err = bulkCreate(ctx, store, 7, b, []int64{1})
	require.Nil(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Len(t, store.rows, 2)
}

func TestBulkCreateStoreFailureAborts(t *testing.T) {
	ctx := context.Background()
	store := newFakeAssignmentStore()
	store.failOn = 2
	template := AssignmentTemplate{Method: "reachability"}

	res, err := bulkCreate(ctx, store, 7, template, []int64{1, 2, 3})
	require.NotNil(t, err)
	assert.Nil(t, res)
	// Asset 1 was inserted before the failure; asset 3 was never attempted.
	assert.Len(t, store.rows, 1)
}

func TestBulkCreateRejectsMalformedParameters(t *testing.T) {
	ctx := context.Background()
	store := newFakeAssignmentStore()
	template := AssignmentTemplate{Method: "reachability", Parameters: jsoniter.RawMessage(`{not json`)}

	res, err := bulkCreate(ctx, store, 7, template, []int64{1})
	require.NotNil(t, err)
	assert.Nil(t, res)
	assert.True(t, err.Is(ErrValidationFailure))
	assert.Empty(t, store.rows)
}

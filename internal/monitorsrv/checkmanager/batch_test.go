package checkmanager

import (
	"context"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodewatch/nodewatch/internal/common/apperrors"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/db/dberror"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/db/models"
	"github.com/nodewatch/nodewatch/pkg/types"
)

// fakeResultWork stands in for the transactional store. Per-assignment
// overrides simulate unknown assignments and store-level failures.
type fakeResultWork struct {
	notFound   map[int64]bool
	failOn     map[int64]bool
	nextID     int64
	recorded   []*models.Result
	details    []*models.ResultDetail
	committed  bool
	rolledBack bool
}

func newFakeWork() *fakeResultWork {
	return &fakeResultWork{notFound: map[int64]bool{}, failOn: map[int64]bool{}}
}

func (w *fakeResultWork) Record(ctx context.Context, res *models.Result, detail *models.ResultDetail) apperrors.Error {
	if w.notFound[res.AssignmentID] {
		return dberror.ErrNotFound.Msg("assignment not found")
	}
	if w.failOn[res.AssignmentID] {
		return dberror.ErrDatabase.Msg("constraint violation")
	}
	w.nextID++
	res.ResultID = w.nextID
	w.recorded = append(w.recorded, res)
	if detail != nil {
		detail.ResultID = res.ResultID
		w.details = append(w.details, detail)
	}
	return nil
}

func (w *fakeResultWork) Commit(ctx context.Context) apperrors.Error {
	w.committed = true
	return nil
}

func (w *fakeResultWork) Rollback(ctx context.Context) {
	w.rolledBack = true
}

func items(raw ...string) []jsoniter.RawMessage {
	out := make([]jsoniter.RawMessage, 0, len(raw))
	for _, r := range raw {
		out = append(out, jsoniter.RawMessage(r))
	}
	return out
}

func TestIngestAllValid(t *testing.T) {
	work := newFakeWork()
	report := Ingest(context.Background(), work, items(
		`{"assignmentId":1,"available":true}`,
		`{"assignmentId":2,"available":"false"}`,
	), Versions{})

	assert.Equal(t, types.BatchSuccess, report.Status)
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 0, report.Failed)
	require.Len(t, work.recorded, 2)
	assert.True(t, work.recorded[0].Available)
	assert.False(t, work.recorded[1].Available)
}

func TestIngestValidationFailureContinues(t *testing.T) {
	work := newFakeWork()
	report := Ingest(context.Background(), work, items(
		`{"assignmentId":1,"available":true}`,
		`{"available":true}`,
		`{"assignmentId":3,"available":true}`,
	), Versions{})

	assert.Equal(t, types.BatchPartialError, report.Status)
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 1, report.Failed)
	// Result rows exist for items 1 and 3 only.
	require.Len(t, work.recorded, 2)
	assert.Equal(t, int64(1), work.recorded[0].AssignmentID)
	assert.Equal(t, int64(3), work.recorded[1].AssignmentID)
}

func TestIngestUnknownAssignmentContinues(t *testing.T) {
	work := newFakeWork()
	work.notFound[2] = true
	report := Ingest(context.Background(), work, items(
		`{"assignmentId":1,"available":true}`,
		`{"assignmentId":2,"available":true}`,
		`{"assignmentId":3,"available":true}`,
	), Versions{})

	assert.Equal(t, types.BatchPartialError, report.Status)
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 1, report.Failed)
	assert.Contains(t, report.Items[1].Error, "not found")
}

func TestIngestStoreFailurePoisonsRemainder(t *testing.T) {
	work := newFakeWork()
	work.failOn[2] = true
	report := Ingest(context.Background(), work, items(
		`{"assignmentId":1,"available":true}`,
		`{"assignmentId":2,"available":true}`,
		`{"assignmentId":3,"available":true}`,
		`{"assignmentId":4,"available":true}`,
	), Versions{})

	assert.Equal(t, types.BatchPartialError, report.Status)
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 3, report.Failed)
	// No store calls after the poisoning failure.
	require.Len(t, work.recorded, 1)
	assert.Equal(t, skipReason, report.Items[2].Error)
	assert.Equal(t, skipReason, report.Items[3].Error)
}

func TestIngestEmptyBatchIsSuccess(t *testing.T) {
	work := newFakeWork()
	report := Ingest(context.Background(), work, nil, Versions{})

	assert.Equal(t, types.BatchSuccess, report.Status)
	assert.Equal(t, 0, report.Processed)
	assert.Equal(t, 0, report.Failed)
}

func TestIngestAllFailedIsError(t *testing.T) {
	work := newFakeWork()
	report := Ingest(context.Background(), work, items(
		`{"available":true}`,
		`not json`,
	), Versions{})

	assert.Equal(t, types.BatchError, report.Status)
	assert.Equal(t, 0, report.Processed)
	assert.Equal(t, 2, report.Failed)
}

func TestIngestInputOrderPreserved(t *testing.T) {
	work := newFakeWork()
	report := Ingest(context.Background(), work, items(
		`{"assignmentId":10,"available":true}`,
		`{"bad":true}`,
		`{"assignmentId":30,"available":true}`,
	), Versions{})

	require.Len(t, report.Items, 3)
	for i, item := range report.Items {
		assert.Equal(t, i, item.Index)
	}
}

func TestNormalizeItemSharedVersionOverlay(t *testing.T) {
	shared := Versions{ConfigVersion: "cfg-9", ExecutorVersion: "ex-2"}

	in, err := normalizeItem([]byte(`{"assignmentId":1,"available":true}`), shared)
	require.NoError(t, err)
	assert.Equal(t, "cfg-9", in.ConfigVersion)
	assert.Equal(t, "ex-2", in.ExecutorVersion)

	// A per-item value wins over the batch-level tag.
	in, err = normalizeItem([]byte(`{"assignmentId":1,"available":true,"configVersion":"cfg-own"}`), shared)
	require.NoError(t, err)
	assert.Equal(t, "cfg-own", in.ConfigVersion)
	assert.Equal(t, "ex-2", in.ExecutorVersion)
}

func TestNormalizeItemSynthesizesDetail(t *testing.T) {
	in, err := normalizeItem([]byte(`{"assignmentId":1,"available":true}`), Versions{})
	require.NoError(t, err)
	assert.JSONEq(t, string(synthesizedDetail), string(in.Detail))
	assert.Equal(t, DetailTypeGeneric, in.DetailType)

	in, err = normalizeItem([]byte(`{"assignmentId":1,"available":true,"detail":{"output":"ok"}}`), Versions{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"output":"ok"}`, string(in.Detail))
}

func TestNormalizeItemRejectsBadInput(t *testing.T) {
	cases := []string{
		`not json`,
		`[1,2]`,
		`{"available":true}`,
		`{"assignmentId":0,"available":true}`,
		`{"assignmentId":1}`,
		`{"assignmentId":1,"available":"maybe"}`,
	}
	for _, raw := range cases {
		_, err := normalizeItem([]byte(raw), Versions{})
		assert.Error(t, err, "raw %s", raw)
	}
}

func TestNormalizeItemCoercesTimestamp(t *testing.T) {
	in, err := normalizeItem([]byte(`{"assignmentId":1,"available":true,"reportedAt":"2025-02-28 10:30:00"}`), Versions{})
	require.NoError(t, err)
	assert.Equal(t, "2025-02-28 10:30:00", in.ReportedAt)
}

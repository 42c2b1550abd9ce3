package checkmanager

import (
	"context"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/nodewatch/nodewatch/internal/common/apperrors"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/db"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/db/dberror"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/db/models"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/metrics"
	"github.com/nodewatch/nodewatch/pkg/types"
)

// Versions are batch-level tags overlaid onto every item that does not
// carry its own.
type Versions struct {
	ConfigVersion   string `json:"configVersion,omitempty"`
	ExecutorVersion string `json:"executorVersion,omitempty"`
}

// ItemOutcome is the per-item entry in a batch report. Index is the item's
// position in the input; input order is preserved.
type ItemOutcome struct {
	Index    int    `json:"index"`
	ResultID int64  `json:"resultId,omitempty"`
	Error    string `json:"error,omitempty"`
}

// BatchReport summarizes one batch ingestion.
type BatchReport struct {
	Status    types.BatchStatus `json:"status"`
	Processed int               `json:"processed"`
	Failed    int               `json:"failed"`
	Items     []ItemOutcome     `json:"items"`

	stored   []*models.Result
	poisoned bool
}

const skipReason = "skipped due to earlier failure"

// synthesizedDetail is attached when a batch item reports no detail of its
// own, so every offline-path result carries exactly one detail row.
var synthesizedDetail = []byte(`{"synthesized":true,"source":"batch"}`)

// Ingest normalizes and records the items in input order against the given
// unit of work. A validation failure or unknown assignment fails only its
// own item. A store failure leaves the transaction unusable, so every later
// item is failed with a skip reason and no further store calls are made.
// Committing or rolling back the work is the caller's responsibility.
func Ingest(ctx context.Context, work db.ResultWork, items []jsoniter.RawMessage, shared Versions) *BatchReport {
	report := &BatchReport{Items: make([]ItemOutcome, 0, len(items))}
	now := time.Now().UTC()

	for i, raw := range items {
		if report.poisoned {
			report.fail(i, skipReason)
			continue
		}

		in, err := normalizeItem(raw, shared)
		if err != nil {
			report.fail(i, err.Error())
			continue
		}

		res, detail := in.toModels(now)
		if recErr := work.Record(ctx, res, detail); recErr != nil {
			if recErr.Is(dberror.ErrNotFound) {
				report.fail(i, fmt.Sprintf("assignment %d not found", in.AssignmentID))
				continue
			}
			report.poisoned = true
			report.fail(i, recErr.Error())
			log.Ctx(ctx).Error().Err(recErr).Int("item", i).Msg("batch poisoned by store failure")
			continue
		}

		report.stored = append(report.stored, res)
		report.Processed++
		report.Items = append(report.Items, ItemOutcome{Index: i, ResultID: res.ResultID})
	}

	report.Status = batchStatus(report.Processed, report.Failed)
	return report
}

// IngestBatch runs a whole batch in one transaction. A poisoned batch rolls
// back; batches with only validation failures still commit the items that
// succeeded. Post-commit side effects fire once per stored result.
func IngestBatch(ctx context.Context, items []jsoniter.RawMessage, shared Versions) (*BatchReport, apperrors.Error) {
	work, err := db.DB(ctx).BeginResultWork(ctx)
	if err != nil {
		return nil, ErrStoreFailure.Err(err)
	}
	defer work.Rollback(ctx)

	report := Ingest(ctx, work, items, shared)
	if report.poisoned {
		work.Rollback(ctx)
		metrics.BatchesIngested.WithLabelValues(string(report.Status)).Inc()
		return report, nil
	}
	if err := work.Commit(ctx); err != nil {
		// Stored items are gone with the transaction; the report must not
		// claim them.
		for i := range report.Items {
			if report.Items[i].Error == "" {
				report.Items[i].Error = "transaction commit failed"
				report.Items[i].ResultID = 0
			}
		}
		report.Failed += report.Processed
		report.Processed = 0
		report.stored = nil
		report.Status = batchStatus(0, report.Failed)
		metrics.BatchesIngested.WithLabelValues(string(report.Status)).Inc()
		return report, nil
	}

	for _, res := range report.stored {
		afterRecord(ctx, res)
	}
	metrics.BatchesIngested.WithLabelValues(string(report.Status)).Inc()
	log.Ctx(ctx).Info().
		Int("processed", report.Processed).
		Int("failed", report.Failed).
		Str("status", string(report.Status)).
		Msg("batch ingested")
	return report, nil
}

func (r *BatchReport) fail(index int, reason string) {
	r.Failed++
	r.Items = append(r.Items, ItemOutcome{Index: index, Error: reason})
}

func batchStatus(processed, failed int) types.BatchStatus {
	switch {
	case failed == 0:
		return types.BatchSuccess
	case processed == 0:
		return types.BatchError
	default:
		return types.BatchPartialError
	}
}

// normalizeItem turns one raw batch item into a RecordInput. Batch items
// come from heterogeneous executors, so field shapes are coerced rather
// than rejected wherever an unambiguous reading exists.
func normalizeItem(raw []byte, shared Versions) (*RecordInput, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("malformed item")
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return nil, fmt.Errorf("item is not an object")
	}

	// Batch-level tags apply unless the item overrides them.
	if shared.ConfigVersion != "" && !doc.Get("configVersion").Exists() {
		raw, _ = sjson.SetBytes(raw, "configVersion", shared.ConfigVersion)
	}
	if shared.ExecutorVersion != "" && !doc.Get("executorVersion").Exists() {
		raw, _ = sjson.SetBytes(raw, "executorVersion", shared.ExecutorVersion)
	}
	doc = gjson.ParseBytes(raw)

	assignmentID := doc.Get("assignmentId")
	if !assignmentID.Exists() || assignmentID.Int() <= 0 {
		return nil, fmt.Errorf("missing or invalid assignmentId")
	}
	availableField := doc.Get("available")
	if !availableField.Exists() {
		return nil, fmt.Errorf("missing available")
	}
	available, ok := coerceBool(availableField)
	if !ok {
		return nil, fmt.Errorf("uninterpretable available value %q", availableField.Raw)
	}

	in := &RecordInput{
		AssignmentID:     assignmentID.Int(),
		Available:        available,
		ReportedAt:       doc.Get("reportedAt").String(),
		ExecutorOrgCode:  doc.Get("executorOrgCode").String(),
		ExecutorHost:     doc.Get("executorHost").String(),
		ResolutionMethod: doc.Get("resolutionMethod").String(),
		ConfigVersion:    doc.Get("configVersion").String(),
		ExecutorVersion:  doc.Get("executorVersion").String(),
		DetailType:       doc.Get("detailType").String(),
	}
	if detail := doc.Get("detail"); detail.Exists() {
		in.Detail = jsoniter.RawMessage(detail.Raw)
	} else {
		in.Detail = jsoniter.RawMessage(synthesizedDetail)
		if in.DetailType == "" {
			in.DetailType = DetailTypeGeneric
		}
	}
	return in, nil
}

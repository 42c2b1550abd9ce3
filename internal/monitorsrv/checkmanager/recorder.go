package checkmanager

import (
	"context"
	"database/sql"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"

	"github.com/nodewatch/nodewatch/internal/common/apperrors"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/audit"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/db"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/db/dberror"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/db/models"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/metrics"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/notify"
)

// RecordInput is one executed check outcome as reported by an agent.
type RecordInput struct {
	AssignmentID     int64               `json:"assignmentId" validate:"required,gt=0"`
	Available        bool                `json:"available"`
	ReportedAt       string              `json:"reportedAt,omitempty"`
	ExecutorOrgCode  string              `json:"executorOrgCode,omitempty"`
	ExecutorHost     string              `json:"executorHost,omitempty"`
	ResolutionMethod string              `json:"resolutionMethod,omitempty"`
	ConfigVersion    string              `json:"configVersion,omitempty"`
	ExecutorVersion  string              `json:"executorVersion,omitempty"`
	DetailType       string              `json:"detailType,omitempty"`
	Detail           jsoniter.RawMessage `json:"detail,omitempty"`
}

func (in *RecordInput) toModels(now time.Time) (*models.Result, *models.ResultDetail) {
	res := &models.Result{
		AssignmentID: in.AssignmentID,
		Available:    in.Available,
		ReportedAt:   parseReportedAt(in.ReportedAt, now),
	}
	setNullString(&res.ExecutorOrgCode, in.ExecutorOrgCode)
	setNullString(&res.ExecutorHost, in.ExecutorHost)
	setNullString(&res.ResolutionMethod, in.ResolutionMethod)
	setNullString(&res.ConfigVersion, in.ConfigVersion)
	setNullString(&res.ExecutorVersion, in.ExecutorVersion)

	var detail *models.ResultDetail
	if len(in.Detail) > 0 {
		detailType := in.DetailType
		if detailType == "" {
			detailType = InferDetailType(in.Detail)
		}
		detail = &models.ResultDetail{
			DetailType: detailType,
			Payload:    in.Detail,
		}
	}
	return res, detail
}

func setNullString(dst *sql.NullString, s string) {
	if s != "" {
		*dst = sql.NullString{String: s, Valid: true}
	}
}

// Record stores one result in its own transaction. An unknown assignment id
// maps to a not-found error; everything else is a store failure. Status
// subscribers and the audit trail are notified only after commit.
func Record(ctx context.Context, in RecordInput) (*models.Result, apperrors.Error) {
	if err := validate.Struct(&in); err != nil {
		return nil, ErrValidationFailure.Msg(err.Error())
	}

	work, err := db.DB(ctx).BeginResultWork(ctx)
	if err != nil {
		return nil, ErrStoreFailure.Err(err)
	}
	defer work.Rollback(ctx)

	res, detail := in.toModels(time.Now().UTC())
	if err := work.Record(ctx, res, detail); err != nil {
		if err.Is(dberror.ErrNotFound) {
			return nil, ErrAssignmentNotFound.Msg(err.Error())
		}
		return nil, ErrStoreFailure.Err(err)
	}
	if err := work.Commit(ctx); err != nil {
		return nil, ErrStoreFailure.Err(err)
	}

	afterRecord(ctx, res)
	return res, nil
}

// afterRecord runs the post-commit side effects. Failures here never undo
// the stored result; they only get logged by the subsystems themselves.
func afterRecord(ctx context.Context, res *models.Result) {
	metrics.ResultsRecorded.WithLabelValues(availabilityLabel(res.Available)).Inc()
	notify.PublishResult(ctx, res)
	audit.ResultRecorded(ctx, res)
	log.Ctx(ctx).Info().
		Int64("result_id", res.ResultID).
		Int64("assignment_id", res.AssignmentID).
		Bool("available", res.Available).
		Msg("result recorded")
}

func availabilityLabel(available bool) string {
	if available {
		return "available"
	}
	return "unavailable"
}

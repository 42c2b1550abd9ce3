package checkmanager

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgtype"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"

	"github.com/nodewatch/nodewatch/internal/common/apperrors"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/audit"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/db"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/db/models"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/hierarchy"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var validate = validator.New()

// AssignmentTemplate is the per-assignment payload applied to every resolved
// target asset during bulk creation. Parameters and success criteria are
// opaque to the pipeline.
type AssignmentTemplate struct {
	Method          string              `json:"method" validate:"required"`
	Enabled         bool                `json:"enabled"`
	Parameters      jsoniter.RawMessage `json:"parameters,omitempty"`
	SuccessCriteria jsoniter.RawMessage `json:"successCriteria,omitempty"`
	IntervalSeconds int                 `json:"intervalSeconds" validate:"gte=0"`
	Description     string              `json:"description,omitempty"`
}

// BulkCreateResult distinguishes "all targets already covered" (Created == 0,
// no error) from a targeting error, which surfaces as an apperrors.Error.
type BulkCreateResult struct {
	Resolved int `json:"resolved"`
	Created  int `json:"created"`
}

// assignmentCreator is the store slice bulk creation depends on. db.DB(ctx)
// satisfies it; tests drive the dedup counting with an in-memory fake.
type assignmentCreator interface {
	CreateAssignmentIfAbsent(ctx context.Context, a *models.Assignment) (bool, apperrors.Error)
}

// BulkCreate resolves the target spec and inserts one assignment per
// resolved asset, skipping assets already covered by an equivalent
// assignment. Equivalence is (method, parameters, success criteria) under
// canonical-null-aware comparison.
func BulkCreate(ctx context.Context, template AssignmentTemplate, target TargetSpec) (*BulkCreateResult, apperrors.Error) {
	if err := validate.Struct(template); err != nil {
		return nil, ErrValidationFailure.Msg(err.Error())
	}

	method, err := db.DB(ctx).GetCheckMethodByName(ctx, template.Method)
	if err != nil {
		return nil, ErrValidationFailure.MsgErr("unknown check method", err)
	}

	assetIDs, err := ResolveTargets(ctx, target)
	if err != nil {
		return nil, err
	}

	res, err := bulkCreate(ctx, db.DB(ctx), method.MethodID, template, assetIDs)
	if err != nil {
		return nil, err
	}

	if res.Created > 0 {
		metrics.AssignmentsCreated.Add(float64(res.Created))
		audit.BulkAssignmentsCreated(ctx, template.Method, res.Resolved, res.Created)
	}
	log.Ctx(ctx).Info().Int("resolved", res.Resolved).Int("created", res.Created).Msg("bulk assignment creation complete")
	return res, nil
}

func bulkCreate(ctx context.Context, store assignmentCreator, methodID int64, template AssignmentTemplate, assetIDs []int64) (*BulkCreateResult, apperrors.Error) {
	created := 0
	for _, assetID := range assetIDs {
		a, buildErr := buildAssignment(assetID, methodID, template)
		if buildErr != nil {
			return nil, buildErr
		}

		inserted, err := store.CreateAssignmentIfAbsent(ctx, a)
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Int64("asset_id", assetID).Msg("bulk create aborted")
			return nil, err
		}
		if inserted {
			created++
		}
	}
	return &BulkCreateResult{Resolved: len(assetIDs), Created: created}, nil
}

// CreateOne inserts a single assignment for one asset. Unlike BulkCreate it
// reports an existing equivalent assignment as a conflict instead of
// skipping it, since the caller named the asset explicitly.
func CreateOne(ctx context.Context, assetID int64, template AssignmentTemplate) (*models.Assignment, apperrors.Error) {
	if err := validate.Struct(template); err != nil {
		return nil, ErrValidationFailure.Msg(err.Error())
	}
	method, err := db.DB(ctx).GetCheckMethodByName(ctx, template.Method)
	if err != nil {
		return nil, ErrValidationFailure.MsgErr("unknown check method", err)
	}

	a, buildErr := buildAssignment(assetID, method.MethodID, template)
	if buildErr != nil {
		return nil, buildErr
	}
	if err := db.DB(ctx).CreateAssignment(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Update replaces an assignment's template fields, recomputing the
// canonical forms so dedup equality stays consistent with the payloads.
func Update(ctx context.Context, assignmentID int64, template AssignmentTemplate) (*models.Assignment, apperrors.Error) {
	if err := validate.Struct(template); err != nil {
		return nil, ErrValidationFailure.Msg(err.Error())
	}
	existing, err := db.DB(ctx).GetAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	method, err := db.DB(ctx).GetCheckMethodByName(ctx, template.Method)
	if err != nil {
		return nil, ErrValidationFailure.MsgErr("unknown check method", err)
	}

	a, buildErr := buildAssignment(existing.AssetID, method.MethodID, template)
	if buildErr != nil {
		return nil, buildErr
	}
	a.AssignmentID = assignmentID
	if err := db.DB(ctx).UpdateAssignment(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func buildAssignment(assetID, methodID int64, template AssignmentTemplate) (*models.Assignment, apperrors.Error) {
	a := &models.Assignment{
		AssetID:         assetID,
		MethodID:        methodID,
		Enabled:         template.Enabled,
		ParamsCanon:     canonicalKey(template.Parameters),
		CriteriaCanon:   canonicalKey(template.SuccessCriteria),
		IntervalSeconds: template.IntervalSeconds,
	}
	if template.Description != "" {
		a.Description = sql.NullString{String: template.Description, Valid: true}
	}
	if err := setJSONB(&a.Parameters, template.Parameters); err != nil {
		return nil, ErrValidationFailure.MsgErr("malformed parameters", err)
	}
	if err := setJSONB(&a.SuccessCriteria, template.SuccessCriteria); err != nil {
		return nil, ErrValidationFailure.MsgErr("malformed success criteria", err)
	}
	return a, nil
}

func setJSONB(dst *pgtype.JSONB, raw []byte) error {
	if len(raw) == 0 {
		return dst.Set(nil)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	return dst.Set(v)
}

// ActiveAssignmentsForScope lists the enabled assignments whose asset falls
// under the given org unit's subtree. This is the agent pull query.
func ActiveAssignmentsForScope(ctx context.Context, orgUnitID int64) ([]*models.ActiveAssignment, apperrors.Error) {
	closure := hierarchy.Descendants(ctx, dbChildSource{}, hierarchy.KindOrgUnit, orgUnitID)
	return db.DB(ctx).ListActiveAssignmentsForUnits(ctx, setToSlice(closure))
}

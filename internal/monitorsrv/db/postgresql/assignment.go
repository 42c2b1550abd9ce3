package postgresql

import (
	"context"
	"database/sql"

	"github.com/jackc/pgconn"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/nodewatch/nodewatch/internal/common/apperrors"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/db/dberror"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/db/models"
)

const assignmentColumns = `assignment_id, asset_id, method_id, enabled, parameters, params_canon,
	success_criteria, criteria_canon, interval_seconds, description, last_result_id, last_checked_at,
	created_at, updated_at`

func scanAssignment(row interface{ Scan(...any) error }) (*models.Assignment, error) {
	var a models.Assignment
	err := row.Scan(&a.AssignmentID, &a.AssetID, &a.MethodID, &a.Enabled, &a.Parameters, &a.ParamsCanon,
		&a.SuccessCriteria, &a.CriteriaCanon, &a.IntervalSeconds, &a.Description, &a.LastResultID,
		&a.LastCheckedAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (pm *pipelineManager) CreateAssignment(ctx context.Context, a *models.Assignment) apperrors.Error {
	query := `
		INSERT INTO assignments (asset_id, method_id, enabled, parameters, params_canon,
			success_criteria, criteria_canon, interval_seconds, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING assignment_id, created_at, updated_at;
	`
	row := pm.conn().QueryRowContext(ctx, query,
		a.AssetID, a.MethodID, a.Enabled, a.Parameters, a.ParamsCanon,
		a.SuccessCriteria, a.CriteriaCanon, a.IntervalSeconds, a.Description)
	err := row.Scan(&a.AssignmentID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok {
			if pgErr.Code == "23505" {
				return dberror.ErrAlreadyExists.Msg("equivalent assignment already exists")
			}
			if pgErr.Code == "23503" {
				return dberror.ErrInvalidInput.Msg("asset or check method not found")
			}
		}
		log.Ctx(ctx).Error().Err(err).Int64("asset_id", a.AssetID).Msg("failed to insert assignment")
		return dberror.ErrDatabase.Err(err)
	}
	return nil
}

// CreateAssignmentIfAbsent inserts unless an equivalent assignment already
// covers the asset. Equivalence is (asset, method, params_canon,
// criteria_canon); the canonical columns are precomputed by the caller so
// absent and explicit-null payloads collide as required.
func (pm *pipelineManager) CreateAssignmentIfAbsent(ctx context.Context, a *models.Assignment) (bool, apperrors.Error) {
	query := `
		INSERT INTO assignments (asset_id, method_id, enabled, parameters, params_canon,
			success_criteria, criteria_canon, interval_seconds, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (asset_id, method_id, params_canon, criteria_canon) DO NOTHING
		RETURNING assignment_id, created_at, updated_at;
	`
	row := pm.conn().QueryRowContext(ctx, query,
		a.AssetID, a.MethodID, a.Enabled, a.Parameters, a.ParamsCanon,
		a.SuccessCriteria, a.CriteriaCanon, a.IntervalSeconds, a.Description)
	err := row.Scan(&a.AssignmentID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			// already covered
			return false, nil
		}
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23503" {
			return false, dberror.ErrInvalidInput.Msg("asset or check method not found")
		}
		log.Ctx(ctx).Error().Err(err).Int64("asset_id", a.AssetID).Msg("failed to insert assignment")
		return false, dberror.ErrDatabase.Err(err)
	}
	return true, nil
}

func (pm *pipelineManager) GetAssignment(ctx context.Context, id int64) (*models.Assignment, apperrors.Error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE assignment_id = $1;`
	a, err := scanAssignment(pm.conn().QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, dberror.ErrNotFound.Msg("assignment not found")
		}
		log.Ctx(ctx).Error().Err(err).Int64("assignment_id", id).Msg("failed to get assignment")
		return nil, dberror.ErrDatabase.Err(err)
	}
	return a, nil
}

func (pm *pipelineManager) UpdateAssignment(ctx context.Context, a *models.Assignment) apperrors.Error {
	query := `
		UPDATE assignments
		SET enabled = $2, parameters = $3, params_canon = $4, success_criteria = $5,
			criteria_canon = $6, interval_seconds = $7, description = $8, updated_at = now()
		WHERE assignment_id = $1;
	`
	res, err := pm.conn().ExecContext(ctx, query,
		a.AssignmentID, a.Enabled, a.Parameters, a.ParamsCanon, a.SuccessCriteria,
		a.CriteriaCanon, a.IntervalSeconds, a.Description)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return dberror.ErrAlreadyExists.Msg("equivalent assignment already exists")
		}
		log.Ctx(ctx).Error().Err(err).Int64("assignment_id", a.AssignmentID).Msg("failed to update assignment")
		return dberror.ErrDatabase.Err(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return dberror.ErrNotFound.Msg("assignment not found")
	}
	return nil
}

func (pm *pipelineManager) DeleteAssignment(ctx context.Context, id int64) apperrors.Error {
	res, err := pm.conn().ExecContext(ctx, `DELETE FROM assignments WHERE assignment_id = $1;`, id)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Int64("assignment_id", id).Msg("failed to delete assignment")
		return dberror.ErrDatabase.Err(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return dberror.ErrNotFound.Msg("assignment not found")
	}
	return nil
}

func (pm *pipelineManager) ListAssignmentsForAsset(ctx context.Context, assetID int64) ([]*models.Assignment, apperrors.Error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE asset_id = $1 ORDER BY assignment_id;`
	rows, err := pm.conn().QueryContext(ctx, query, assetID)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Int64("asset_id", assetID).Msg("failed to list assignments")
		return nil, dberror.ErrDatabase.Err(err)
	}
	defer rows.Close()

	var out []*models.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, dberror.ErrDatabase.Err(err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, dberror.ErrDatabase.Err(err)
	}
	return out, nil
}

// ListActiveAssignmentsForUnits returns the flattened enabled assignments
// whose asset belongs to one of the given org units. The unit set is the
// already-computed hierarchy closure of the caller's scope.
func (pm *pipelineManager) ListActiveAssignmentsForUnits(ctx context.Context, unitIDs []int64) ([]*models.ActiveAssignment, apperrors.Error) {
	query := `
		SELECT a.assignment_id, a.asset_id, s.name, COALESCE(s.address, ''), m.name,
			a.parameters, a.success_criteria, a.interval_seconds
		FROM assignments a
		JOIN assets s ON s.asset_id = a.asset_id
		JOIN check_methods m ON m.method_id = a.method_id
		WHERE a.enabled AND s.org_unit_id = ANY($1)
		ORDER BY a.assignment_id;
	`
	rows, err := pm.conn().QueryContext(ctx, query, pq.Array(unitIDs))
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to list active assignments")
		return nil, dberror.ErrDatabase.Err(err)
	}
	defer rows.Close()

	out := []*models.ActiveAssignment{}
	for rows.Next() {
		var aa models.ActiveAssignment
		if err := rows.Scan(&aa.AssignmentID, &aa.AssetID, &aa.AssetName, &aa.AssetAddress, &aa.MethodName,
			&aa.Parameters, &aa.SuccessCriteria, &aa.IntervalSeconds); err != nil {
			return nil, dberror.ErrDatabase.Err(err)
		}
		out = append(out, &aa)
	}
	if err := rows.Err(); err != nil {
		return nil, dberror.ErrDatabase.Err(err)
	}
	return out, nil
}

package postgresql

import (
	"context"
	"database/sql"

	"github.com/jackc/pgconn"
	"github.com/rs/zerolog/log"

	"github.com/nodewatch/nodewatch/internal/common/apperrors"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/db/dberror"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/db/models"
)

// CreateOrgUnit inserts a new org unit. The code must be unique across the
// fleet; a duplicate returns ErrAlreadyExists.
func (im *inventoryManager) CreateOrgUnit(ctx context.Context, ou *models.OrgUnit) apperrors.Error {
	query := `
		INSERT INTO org_units (code, name, parent_id, priority, routing_code)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (code) DO NOTHING
		RETURNING org_unit_id, created_at, updated_at;
	`
	row := im.conn().QueryRowContext(ctx, query, ou.Code, ou.Name, ou.ParentID, ou.Priority, ou.RoutingCode)
	err := row.Scan(&ou.OrgUnitID, &ou.CreatedAt, &ou.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Ctx(ctx).Info().Str("code", ou.Code).Msg("org unit already exists")
			return dberror.ErrAlreadyExists.Msg("org unit already exists")
		}
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23503" {
			log.Ctx(ctx).Error().Str("code", ou.Code).Msg("parent org unit not found")
			return dberror.ErrInvalidInput.Msg("parent org unit not found")
		}
		log.Ctx(ctx).Error().Err(err).Str("code", ou.Code).Msg("failed to insert org unit")
		return dberror.ErrDatabase.Err(err)
	}
	return nil
}

func (im *inventoryManager) GetOrgUnit(ctx context.Context, id int64) (*models.OrgUnit, apperrors.Error) {
	query := `
		SELECT org_unit_id, code, name, parent_id, priority, routing_code, created_at, updated_at
		FROM org_units
		WHERE org_unit_id = $1;
	`
	var ou models.OrgUnit
	err := im.conn().QueryRowContext(ctx, query, id).
		Scan(&ou.OrgUnitID, &ou.Code, &ou.Name, &ou.ParentID, &ou.Priority, &ou.RoutingCode, &ou.CreatedAt, &ou.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, dberror.ErrNotFound.Msg("org unit not found")
		}
		log.Ctx(ctx).Error().Err(err).Int64("org_unit_id", id).Msg("failed to get org unit")
		return nil, dberror.ErrDatabase.Err(err)
	}
	return &ou, nil
}

func (im *inventoryManager) GetOrgUnitByCode(ctx context.Context, code string) (*models.OrgUnit, apperrors.Error) {
	query := `
		SELECT org_unit_id, code, name, parent_id, priority, routing_code, created_at, updated_at
		FROM org_units
		WHERE code = $1;
	`
	var ou models.OrgUnit
	err := im.conn().QueryRowContext(ctx, query, code).
		Scan(&ou.OrgUnitID, &ou.Code, &ou.Name, &ou.ParentID, &ou.Priority, &ou.RoutingCode, &ou.CreatedAt, &ou.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, dberror.ErrNotFound.Msg("org unit not found")
		}
		log.Ctx(ctx).Error().Err(err).Str("code", code).Msg("failed to get org unit by code")
		return nil, dberror.ErrDatabase.Err(err)
	}
	return &ou, nil
}

func (im *inventoryManager) UpdateOrgUnit(ctx context.Context, ou *models.OrgUnit) apperrors.Error {
	query := `
		UPDATE org_units
		SET code = $2, name = $3, parent_id = $4, priority = $5, routing_code = $6, updated_at = now()
		WHERE org_unit_id = $1;
	`
	res, err := im.conn().ExecContext(ctx, query, ou.OrgUnitID, ou.Code, ou.Name, ou.ParentID, ou.Priority, ou.RoutingCode)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Int64("org_unit_id", ou.OrgUnitID).Msg("failed to update org unit")
		return dberror.ErrDatabase.Err(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return dberror.ErrNotFound.Msg("org unit not found")
	}
	return nil
}

func (im *inventoryManager) DeleteOrgUnit(ctx context.Context, id int64) apperrors.Error {
	res, err := im.conn().ExecContext(ctx, `DELETE FROM org_units WHERE org_unit_id = $1;`, id)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23503" {
			return dberror.ErrInvalidInput.Msg("org unit still owns assets or child units")
		}
		log.Ctx(ctx).Error().Err(err).Int64("org_unit_id", id).Msg("failed to delete org unit")
		return dberror.ErrDatabase.Err(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return dberror.ErrNotFound.Msg("org unit not found")
	}
	return nil
}

// ListOrgUnitChildIDs returns the direct children of the given unit. The
// hierarchy resolver drives the closure; this is one level only.
func (im *inventoryManager) ListOrgUnitChildIDs(ctx context.Context, parentID int64) ([]int64, apperrors.Error) {
	rows, err := im.conn().QueryContext(ctx, `SELECT org_unit_id FROM org_units WHERE parent_id = $1;`, parentID)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Int64("parent_id", parentID).Msg("failed to list org unit children")
		return nil, dberror.ErrDatabase.Err(err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, dberror.ErrDatabase.Err(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, dberror.ErrDatabase.Err(err)
	}
	return ids, nil
}

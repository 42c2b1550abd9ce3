package postgresql

import (
	"context"
	"database/sql"

	"github.com/jackc/pgconn"
	"github.com/rs/zerolog/log"

	"github.com/nodewatch/nodewatch/internal/common/apperrors"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/db/dberror"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/db/models"
	"github.com/nodewatch/nodewatch/pkg/types"
)

func (im *inventoryManager) CreateAssetType(ctx context.Context, at *models.AssetType) apperrors.Error {
	query := `
		INSERT INTO asset_types (asset_type_id, name, parent_id, priority)
		VALUES (COALESCE(NULLIF($1, 0::bigint), nextval('asset_types_id_seq')), $2, $3, $4)
		RETURNING asset_type_id, created_at, updated_at;
	`
	row := im.conn().QueryRowContext(ctx, query, at.AssetTypeID, at.Name, at.ParentID, at.Priority)
	err := row.Scan(&at.AssetTypeID, &at.CreatedAt, &at.UpdatedAt)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok {
			if pgErr.Code == "23505" {
				return dberror.ErrAlreadyExists.Msg("asset type already exists")
			}
			if pgErr.Code == "23503" {
				return dberror.ErrInvalidInput.Msg("parent asset type not found")
			}
		}
		log.Ctx(ctx).Error().Err(err).Str("name", at.Name).Msg("failed to insert asset type")
		return dberror.ErrDatabase.Err(err)
	}
	return nil
}

func (im *inventoryManager) GetAssetType(ctx context.Context, id int64) (*models.AssetType, apperrors.Error) {
	query := `
		SELECT asset_type_id, name, parent_id, priority, created_at, updated_at
		FROM asset_types
		WHERE asset_type_id = $1;
	`
	var at models.AssetType
	err := im.conn().QueryRowContext(ctx, query, id).
		Scan(&at.AssetTypeID, &at.Name, &at.ParentID, &at.Priority, &at.CreatedAt, &at.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, dberror.ErrNotFound.Msg("asset type not found")
		}
		log.Ctx(ctx).Error().Err(err).Int64("asset_type_id", id).Msg("failed to get asset type")
		return nil, dberror.ErrDatabase.Err(err)
	}
	return &at, nil
}

func (im *inventoryManager) UpdateAssetType(ctx context.Context, at *models.AssetType) apperrors.Error {
	query := `
		UPDATE asset_types
		SET name = $2, parent_id = $3, priority = $4, updated_at = now()
		WHERE asset_type_id = $1;
	`
	res, err := im.conn().ExecContext(ctx, query, at.AssetTypeID, at.Name, at.ParentID, at.Priority)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Int64("asset_type_id", at.AssetTypeID).Msg("failed to update asset type")
		return dberror.ErrDatabase.Err(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return dberror.ErrNotFound.Msg("asset type not found")
	}
	return nil
}

// DeleteAssetType removes a type. The distinguished root type is protected.
func (im *inventoryManager) DeleteAssetType(ctx context.Context, id int64) apperrors.Error {
	if id == types.RootAssetTypeID {
		return dberror.ErrProtected.Msg("the root asset type may not be deleted")
	}
	res, err := im.conn().ExecContext(ctx, `DELETE FROM asset_types WHERE asset_type_id = $1;`, id)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23503" {
			return dberror.ErrInvalidInput.Msg("asset type still referenced by assets or child types")
		}
		log.Ctx(ctx).Error().Err(err).Int64("asset_type_id", id).Msg("failed to delete asset type")
		return dberror.ErrDatabase.Err(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return dberror.ErrNotFound.Msg("asset type not found")
	}
	return nil
}

func (im *inventoryManager) ListAssetTypeChildIDs(ctx context.Context, parentID int64) ([]int64, apperrors.Error) {
	rows, err := im.conn().QueryContext(ctx, `SELECT asset_type_id FROM asset_types WHERE parent_id = $1;`, parentID)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Int64("parent_id", parentID).Msg("failed to list asset type children")
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

package postgresql

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jackc/pgconn"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/nodewatch/nodewatch/internal/common/apperrors"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/db/dberror"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/db/models"
)

func (im *inventoryManager) CreateAsset(ctx context.Context, a *models.Asset) apperrors.Error {
	query := `
		INSERT INTO assets (name, org_unit_id, asset_type_id, address, description, staleness_seconds)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING asset_id, created_at, updated_at;
	`
	row := im.conn().QueryRowContext(ctx, query,
		a.Name, a.OrgUnitID, a.AssetTypeID, a.Address, a.Description, a.StalenessSeconds)
	err := row.Scan(&a.AssetID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23503" {
			log.Ctx(ctx).Error().Str("name", a.Name).Msg("owning org unit or asset type not found")
			return dberror.ErrInvalidInput.Msg("owning org unit or asset type not found")
		}
		log.Ctx(ctx).Error().Err(err).Str("name", a.Name).Msg("failed to insert asset")
		return dberror.ErrDatabase.Err(err)
	}
	return nil
}

func (im *inventoryManager) GetAsset(ctx context.Context, id int64) (*models.Asset, apperrors.Error) {
	query := `
		SELECT asset_id, name, org_unit_id, asset_type_id, address, description, staleness_seconds, created_at, updated_at
		FROM assets
		WHERE asset_id = $1;
	`
	var a models.Asset
	err := im.conn().QueryRowContext(ctx, query, id).
		Scan(&a.AssetID, &a.Name, &a.OrgUnitID, &a.AssetTypeID, &a.Address, &a.Description, &a.StalenessSeconds, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, dberror.ErrNotFound.Msg("asset not found")
		}
		log.Ctx(ctx).Error().Err(err).Int64("asset_id", id).Msg("failed to get asset")
		return nil, dberror.ErrDatabase.Err(err)
	}
	return &a, nil
}

func (im *inventoryManager) UpdateAsset(ctx context.Context, a *models.Asset) apperrors.Error {
	query := `
		UPDATE assets
		SET name = $2, org_unit_id = $3, asset_type_id = $4, address = $5, description = $6, staleness_seconds = $7, updated_at = now()
		WHERE asset_id = $1;
	`
	res, err := im.conn().ExecContext(ctx, query,
		a.AssetID, a.Name, a.OrgUnitID, a.AssetTypeID, a.Address, a.Description, a.StalenessSeconds)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23503" {
			return dberror.ErrInvalidInput.Msg("owning org unit or asset type not found")
		}
		log.Ctx(ctx).Error().Err(err).Int64("asset_id", a.AssetID).Msg("failed to update asset")
		return dberror.ErrDatabase.Err(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return dberror.ErrNotFound.Msg("asset not found")
	}
	return nil
}

// DeleteAsset removes the asset. The cascade takes its assignments and
// results with it; that history is gone for good.
func (im *inventoryManager) DeleteAsset(ctx context.Context, id int64) apperrors.Error {
	res, err := im.conn().ExecContext(ctx, `DELETE FROM assets WHERE asset_id = $1;`, id)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Int64("asset_id", id).Msg("failed to delete asset")
		return dberror.ErrDatabase.Err(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return dberror.ErrNotFound.Msg("asset not found")
	}
	return nil
}

func (im *inventoryManager) ListAssets(ctx context.Context) ([]*models.Asset, apperrors.Error) {
	query := `
		SELECT asset_id, name, org_unit_id, asset_type_id, address, description, staleness_seconds, created_at, updated_at
		FROM assets
		ORDER BY asset_id;
	`
	rows, err := im.conn().QueryContext(ctx, query)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to list assets")
		return nil, dberror.ErrDatabase.Err(err)
	}
	defer rows.Close()

	var out []*models.Asset
	for rows.Next() {
		var a models.Asset
		if err := rows.Scan(&a.AssetID, &a.Name, &a.OrgUnitID, &a.AssetTypeID, &a.Address, &a.Description, &a.StalenessSeconds, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, dberror.ErrDatabase.Err(err)
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, dberror.ErrDatabase.Err(err)
	}
	return out, nil
}

// ListAssetIDsByCriteria returns the asset ids matching the already-resolved
// criteria sets. A nil slice means "no filter on that axis"; an empty
// non-nil slice matches nothing. namePattern is a glob; it is translated to
// a LIKE pattern and evaluated by the store.
func (im *inventoryManager) ListAssetIDsByCriteria(ctx context.Context, unitIDs, typeIDs []int64, namePattern string) ([]int64, apperrors.Error) {
	query := `
		SELECT asset_id FROM assets
		WHERE ($1::bigint[] IS NULL OR org_unit_id = ANY($1))
		  AND ($2::bigint[] IS NULL OR asset_type_id = ANY($2))
		  AND ($3::text IS NULL OR name LIKE $3)
		ORDER BY asset_id;
	`
	var unitArg, typeArg interface{}
	if unitIDs != nil {
		unitArg = pq.Array(unitIDs)
	}
	if typeIDs != nil {
		typeArg = pq.Array(typeIDs)
	}
	var nameArg interface{}
	if namePattern != "" {
		nameArg = globToLike(namePattern)
	}

	rows, err := im.conn().QueryContext(ctx, query, unitArg, typeArg, nameArg)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to list assets by criteria")
		return nil, dberror.ErrDatabase.Err(err)
	}
	defer rows.Close()

	ids := []int64{}
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

// globToLike rewrites a shell-style glob into a SQL LIKE pattern. Literal
// %, _ and \ are escaped so they cannot widen the match.
func globToLike(glob string) string {
	var b strings.Builder
	for _, r := range glob {
		switch r {
		case '*':
			b.WriteByte('%')
		case '?':
			b.WriteByte('_')
		case '%', '_', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

package postgresql

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/nodewatch/nodewatch/internal/common/apperrors"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/db/dberror"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/db/models"
	"github.com/nodewatch/nodewatch/pkg/types"
)

func (im *inventoryManager) CreateApiKey(ctx context.Context, k *models.ApiKey) apperrors.Error {
	if k.KeyID == uuid.Nil {
		k.KeyID = uuid.New()
	}
	query := `
		INSERT INTO api_keys (key_id, key_hash, description, role, org_unit_id, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at;
	`
	err := im.conn().QueryRowContext(ctx, query,
		k.KeyID, k.KeyHash, k.Description, string(k.Role), k.OrgUnitID, k.Active).Scan(&k.CreatedAt)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("key_id", k.KeyID.String()).Msg("failed to insert api key")
		return dberror.ErrDatabase.Err(err)
	}
	return nil
}

func (im *inventoryManager) GetApiKey(ctx context.Context, keyID uuid.UUID) (*models.ApiKey, apperrors.Error) {
	query := `
		SELECT key_id, key_hash, description, role, org_unit_id, active, last_used_at, created_at
		FROM api_keys
		WHERE key_id = $1;
	`
	var k models.ApiKey
	var role string
	err := im.conn().QueryRowContext(ctx, query, keyID).
		Scan(&k.KeyID, &k.KeyHash, &k.Description, &role, &k.OrgUnitID, &k.Active, &k.LastUsedAt, &k.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, dberror.ErrNotFound.Msg("api key not found")
		}
		log.Ctx(ctx).Error().Err(err).Str("key_id", keyID.String()).Msg("failed to get api key")
		return nil, dberror.ErrDatabase.Err(err)
	}
	k.Role = types.ParseRole(role)
	return &k, nil
}

func (im *inventoryManager) SetApiKeyActive(ctx context.Context, keyID uuid.UUID, active bool) apperrors.Error {
	res, err := im.conn().ExecContext(ctx,
		`UPDATE api_keys SET active = $2 WHERE key_id = $1;`, keyID, active)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("key_id", keyID.String()).Msg("failed to update api key")
		return dberror.ErrDatabase.Err(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return dberror.ErrNotFound.Msg("api key not found")
	}
	return nil
}

// TouchApiKey advances the last-used timestamp. Callers treat this as
// fire-and-forget; a miss is not an error worth surfacing.
func (im *inventoryManager) TouchApiKey(ctx context.Context, keyID uuid.UUID) apperrors.Error {
	_, err := im.conn().ExecContext(ctx,
		`UPDATE api_keys SET last_used_at = now() WHERE key_id = $1;`, keyID)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("key_id", keyID.String()).Msg("failed to touch api key")
		return dberror.ErrDatabase.Err(err)
	}
	return nil
}

func (im *inventoryManager) DeleteApiKey(ctx context.Context, keyID uuid.UUID) apperrors.Error {
	res, err := im.conn().ExecContext(ctx, `DELETE FROM api_keys WHERE key_id = $1;`, keyID)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("key_id", keyID.String()).Msg("failed to delete api key")
		return dberror.ErrDatabase.Err(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return dberror.ErrNotFound.Msg("api key not found")
	}
	return nil
}

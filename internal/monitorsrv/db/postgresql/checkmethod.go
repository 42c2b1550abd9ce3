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

func (im *inventoryManager) CreateCheckMethod(ctx context.Context, m *models.CheckMethod) apperrors.Error {
	query := `
		INSERT INTO check_methods (name, description)
		VALUES ($1, $2)
		RETURNING method_id, created_at;
	`
	err := im.conn().QueryRowContext(ctx, query, m.Name, m.Description).Scan(&m.MethodID, &m.CreatedAt)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return dberror.ErrAlreadyExists.Msg("check method already exists")
		}
		log.Ctx(ctx).Error().Err(err).Str("name", m.Name).Msg("failed to insert check method")
		return dberror.ErrDatabase.Err(err)
	}
	return nil
}

func (im *inventoryManager) GetCheckMethod(ctx context.Context, id int64) (*models.CheckMethod, apperrors.Error) {
	var m models.CheckMethod
	err := im.conn().QueryRowContext(ctx,
		`SELECT method_id, name, description, created_at FROM check_methods WHERE method_id = $1;`, id).
		Scan(&m.MethodID, &m.Name, &m.Description, &m.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, dberror.ErrNotFound.Msg("check method not found")
		}
		log.Ctx(ctx).Error().Err(err).Int64("method_id", id).Msg("failed to get check method")
		return nil, dberror.ErrDatabase.Err(err)
	}
	return &m, nil
}

func (im *inventoryManager) GetCheckMethodByName(ctx context.Context, name string) (*models.CheckMethod, apperrors.Error) {
	var m models.CheckMethod
	err := im.conn().QueryRowContext(ctx,
		`SELECT method_id, name, description, created_at FROM check_methods WHERE name = $1;`, name).
		Scan(&m.MethodID, &m.Name, &m.Description, &m.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, dberror.ErrNotFound.Msg("check method not found")
		}
		log.Ctx(ctx).Error().Err(err).Str("name", name).Msg("failed to get check method by name")
		return nil, dberror.ErrDatabase.Err(err)
	}
	return &m, nil
}

func (im *inventoryManager) ListCheckMethods(ctx context.Context) ([]*models.CheckMethod, apperrors.Error) {
	rows, err := im.conn().QueryContext(ctx,
		`SELECT method_id, name, description, created_at FROM check_methods ORDER BY method_id;`)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to list check methods")
		return nil, dberror.ErrDatabase.Err(err)
	}
	defer rows.Close()

	var out []*models.CheckMethod
	for rows.Next() {
		var m models.CheckMethod
		if err := rows.Scan(&m.MethodID, &m.Name, &m.Description, &m.CreatedAt); err != nil {
			return nil, dberror.ErrDatabase.Err(err)
		}
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, dberror.ErrDatabase.Err(err)
	}
	return out, nil
}

func (im *inventoryManager) DeleteCheckMethod(ctx context.Context, id int64) apperrors.Error {
	res, err := im.conn().ExecContext(ctx, `DELETE FROM check_methods WHERE method_id = $1;`, id)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23503" {
			return dberror.ErrInvalidInput.Msg("check method still referenced by assignments")
		}
		log.Ctx(ctx).Error().Err(err).Int64("method_id", id).Msg("failed to delete check method")
		return dberror.ErrDatabase.Err(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return dberror.ErrNotFound.Msg("check method not found")
	}
	return nil
}

package postgresql

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/nodewatch/nodewatch/internal/common/apperrors"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/db/dberror"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/db/models"
)

// AppendEvent writes one audit record. Callers do not await it; errors are
// logged and returned only so tests can observe them.
func (im *inventoryManager) AppendEvent(ctx context.Context, ev *models.Event) apperrors.Error {
	query := `
		INSERT INTO events (event_type, payload)
		VALUES ($1, $2)
		RETURNING event_id, created_at;
	`
	err := im.conn().QueryRowContext(ctx, query, ev.EventType, ev.Payload).Scan(&ev.EventID, &ev.CreatedAt)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("event_type", ev.EventType).Msg("failed to append event")
		return dberror.ErrDatabase.Err(err)
	}
	return nil
}

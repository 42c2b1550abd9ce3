// Package audit appends pipeline events to the audit trail. Appends run on
// their own store handle after the triggering transaction commits, so an
// audit outage degrades the trail, never the pipeline.
package audit

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nodewatch/nodewatch/internal/monitorsrv/db"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/db/models"
)

const appendTimeout = 5 * time.Second

const (
	EventResultRecorded    = "result_recorded"
	EventAssignmentsBulk   = "assignments_bulk_created"
	EventBundleGenerated   = "bundle_generated"
	EventAssignmentDeleted = "assignment_deleted"
)

// appendEvent writes one event on a fresh connection, detached from the
// caller's request lifetime.
func appendEvent(parent context.Context, eventType string, payload map[string]any) {
	logger := log.Ctx(parent).With().Str("event_type", eventType).Logger()

	go func() {
		ctx, cancel := context.WithTimeout(logger.WithContext(context.Background()), appendTimeout)
		defer cancel()

		ctx = db.ConnCtx(ctx)
		store := db.DB(ctx)
		if store == nil {
			logger.Error().Msg("audit append skipped, no store handle")
			return
		}
		defer store.Close(ctx)

		ev := &models.Event{EventType: eventType}
		if err := ev.Payload.Set(payload); err != nil {
			logger.Error().Err(err).Msg("audit payload encoding failed")
			return
		}
		if err := store.AppendEvent(ctx, ev); err != nil {
			logger.Error().Err(err).Msg("audit append failed")
		}
	}()
}

// ResultRecorded notes one committed result.
func ResultRecorded(ctx context.Context, res *models.Result) {
	appendEvent(ctx, EventResultRecorded, map[string]any{
		"resultId":     res.ResultID,
		"assetId":      res.AssetID,
		"assignmentId": res.AssignmentID,
		"available":    res.Available,
	})
}

// BulkAssignmentsCreated notes one bulk-create call that inserted rows.
func BulkAssignmentsCreated(ctx context.Context, method string, resolved, created int) {
	appendEvent(ctx, EventAssignmentsBulk, map[string]any{
		"method":   method,
		"resolved": resolved,
		"created":  created,
	})
}

// BundleGenerated notes one offline bundle generation.
func BundleGenerated(ctx context.Context, orgUnitCode, configVersion string, checks int) {
	appendEvent(ctx, EventBundleGenerated, map[string]any{
		"orgUnitCode":   orgUnitCode,
		"configVersion": configVersion,
		"checks":        checks,
	})
}

// AssignmentDeleted notes an assignment removal.
func AssignmentDeleted(ctx context.Context, assignmentID int64) {
	appendEvent(ctx, EventAssignmentDeleted, map[string]any{
		"assignmentId": assignmentID,
	})
}

package models

import (
	"time"

	"github.com/jackc/pgtype"
)

/*
   Column      |          Type           | Collation | Nullable | Default
---------------+-------------------------+-----------+----------+---------------------
 event_id      | bigint                  |           | not null | generated identity
 event_type    | character varying(64)   |           | not null |
 payload       | jsonb                   |           |          |
 created_at    | timestamptz             |           | not null | now()
*/

// Event is an audit record. Appends are fire-and-forget and never awaited
// by pipeline callers.
type Event struct {
	EventID   int64        `db:"event_id"`
	EventType string       `db:"event_type"`
	Payload   pgtype.JSONB `db:"payload"`
	CreatedAt time.Time    `db:"created_at"`
}

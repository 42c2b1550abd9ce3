package models

import (
	"database/sql"
	"time"
)

/*
   Column      |          Type           | Collation | Nullable | Default
---------------+-------------------------+-----------+----------+---------------------
 method_id     | bigint                  |           | not null | generated identity
 name          | character varying(64)   |           | not null | unique
 description   | text                    |           |          |
 created_at    | timestamptz             |           | not null | now()
*/

// CheckMethod is reference data naming an executor-side check
// (e.g. reachability, service-state). Rarely mutated.
type CheckMethod struct {
	MethodID    int64          `db:"method_id"`
	Name        string         `db:"name"`
	Description sql.NullString `db:"description"`
	CreatedAt   time.Time      `db:"created_at"`
}

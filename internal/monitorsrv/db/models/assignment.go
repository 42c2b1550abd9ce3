package models

import (
	"database/sql"
	"time"

	"github.com/jackc/pgtype"
)

/*
   Column          |          Type           | Collation | Nullable | Default
-------------------+-------------------------+-----------+----------+---------------------
 assignment_id     | bigint                  |           | not null | generated identity
 asset_id          | bigint                  |           | not null | fk assets on delete cascade
 method_id         | bigint                  |           | not null | fk check_methods
 enabled           | boolean                 |           | not null | true
 parameters        | jsonb                   |           |          |
 params_canon      | text                    |           | not null | ''
 success_criteria  | jsonb                   |           |          |
 criteria_canon    | text                    |           | not null | ''
 interval_seconds  | integer                 |           | not null | 300
 description       | text                    |           |          |
 last_result_id    | bigint                  |           |          |
 last_checked_at   | timestamptz             |           |          |
 created_at        | timestamptz             |           | not null | now()
 updated_at        | timestamptz             |           | not null | now()

 UNIQUE (asset_id, method_id, params_canon, criteria_canon) backs bulk-create
 de-duplication. params_canon/criteria_canon hold the RFC 8785 canonical form
 of the payloads; null, empty and absent payloads all canonicalize to ''.
*/

// Assignment binds one CheckMethod to one Asset. Parameters and
// success criteria are opaque to the pipeline and interpreted by the
// executor/UI. The last-result pointer is the only mutable field contended
// by concurrent recorders; last-committed-wins.
type Assignment struct {
	AssignmentID    int64          `db:"assignment_id"`
	AssetID         int64          `db:"asset_id"`
	MethodID        int64          `db:"method_id"`
	Enabled         bool           `db:"enabled"`
	Parameters      pgtype.JSONB   `db:"parameters"`
	ParamsCanon     string         `db:"params_canon"`
	SuccessCriteria pgtype.JSONB   `db:"success_criteria"`
	CriteriaCanon   string         `db:"criteria_canon"`
	IntervalSeconds int            `db:"interval_seconds"`
	Description     sql.NullString `db:"description"`
	LastResultID    sql.NullInt64  `db:"last_result_id"`
	LastCheckedAt   sql.NullTime   `db:"last_checked_at"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

// ActiveAssignment is the flattened row agents and bundles consume.
type ActiveAssignment struct {
	AssignmentID    int64        `db:"assignment_id"`
	AssetID         int64        `db:"asset_id"`
	AssetName       string       `db:"asset_name"`
	AssetAddress    string       `db:"asset_address"`
	MethodName      string       `db:"method_name"`
	Parameters      pgtype.JSONB `db:"parameters"`
	SuccessCriteria pgtype.JSONB `db:"success_criteria"`
	IntervalSeconds int          `db:"interval_seconds"`
}

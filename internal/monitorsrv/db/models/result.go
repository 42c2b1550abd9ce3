package models

import (
	"database/sql"
	"time"
)

/*
 results
   Column            |          Type           | Collation | Nullable | Default
---------------------+-------------------------+-----------+----------+---------------------
 result_id           | bigint                  |           | not null | generated identity
 asset_id            | bigint                  |           | not null | fk assets on delete cascade
 assignment_id       | bigint                  |           | not null | fk assignments on delete cascade
 method_id           | bigint                  |           | not null |
 available           | boolean                 |           | not null |
 received_at         | timestamptz             |           | not null | now()
 reported_at         | timestamptz             |           | not null |
 executor_org_code   | character varying(64)   |           |          |
 executor_host       | character varying(256)  |           |          |
 resolution_method   | character varying(64)   |           |          |
 config_version      | character varying(128)  |           |          |
 executor_version    | character varying(128)  |           |          |

 result_details
   Column      |          Type           | Collation | Nullable | Default
---------------+-------------------------+-----------+----------+---------------------
 detail_id     | bigint                  |           | not null | generated identity
 result_id     | bigint                  |           | not null | fk results on delete cascade
 detail_type   | character varying(64)   |           | not null |
 payload       | bytea                   |           | not null |
 compressed    | boolean                 |           | not null | false
*/

// Result is one reported outcome of executing an Assignment. Rows are
// append-only; only the owning assignment's back-pointer ever moves.
type Result struct {
	ResultID         int64          `db:"result_id"`
	AssetID          int64          `db:"asset_id"`
	AssignmentID     int64          `db:"assignment_id"`
	MethodID         int64          `db:"method_id"`
	Available        bool           `db:"available"`
	ReceivedAt       time.Time      `db:"received_at"`
	ReportedAt       time.Time      `db:"reported_at"`
	ExecutorOrgCode  sql.NullString `db:"executor_org_code"`
	ExecutorHost     sql.NullString `db:"executor_host"`
	ResolutionMethod sql.NullString `db:"resolution_method"`
	ConfigVersion    sql.NullString `db:"config_version"`
	ExecutorVersion  sql.NullString `db:"executor_version"`
}

// ResultDetail is the zero-or-one polymorphic payload attached to a Result.
// The payload is opaque to the pipeline; large payloads are stored
// snappy-compressed.
type ResultDetail struct {
	DetailID   int64  `db:"detail_id"`
	ResultID   int64  `db:"result_id"`
	DetailType string `db:"detail_type"`
	Payload    []byte `db:"payload"`
	Compressed bool   `db:"compressed"`
}

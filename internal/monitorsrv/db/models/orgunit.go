package models

import (
	"database/sql"
	"time"
)

/*
   Column       |          Type           | Collation | Nullable | Default
----------------+-------------------------+-----------+----------+---------------------
 org_unit_id    | bigint                  |           | not null | generated identity
 code           | character varying(64)   |           | not null | unique
 name           | character varying(256)  |           | not null |
 parent_id      | bigint                  |           |          | fk org_units
 priority       | integer                 |           | not null | 0
 routing_code   | character varying(64)   |           |          |
 created_at     | timestamptz             |           | not null | now()
 updated_at     | timestamptz             |           | not null | now()
*/

// OrgUnit is an organizational/location grouping arranged in a tree.
// Root units have a null parent; the tree is assumed acyclic.
type OrgUnit struct {
	OrgUnitID   int64          `db:"org_unit_id"`
	Code        string         `db:"code"`
	Name        string         `db:"name"`
	ParentID    sql.NullInt64  `db:"parent_id"`
	Priority    int            `db:"priority"`
	RoutingCode sql.NullString `db:"routing_code"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

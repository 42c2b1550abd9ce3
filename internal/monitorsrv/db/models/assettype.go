package models

import (
	"database/sql"
	"time"
)

/*
   Column       |          Type           | Collation | Nullable | Default
----------------+-------------------------+-----------+----------+---------------------
 asset_type_id  | bigint                  |           | not null |
 name           | character varying(128)  |           | not null |
 parent_id      | bigint                  |           |          | fk asset_types
 priority       | integer                 |           | not null | 0
 created_at     | timestamptz             |           | not null | now()
 updated_at     | timestamptz             |           | not null | now()
*/

// AssetType is a taxonomy classification arranged in a tree. The
// distinguished root type (id 0) may never be deleted.
type AssetType struct {
	AssetTypeID int64         `db:"asset_type_id"`
	Name        string        `db:"name"`
	ParentID    sql.NullInt64 `db:"parent_id"`
	Priority    int           `db:"priority"`
	CreatedAt   time.Time     `db:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at"`
}

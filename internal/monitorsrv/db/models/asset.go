package models

import (
	"database/sql"
	"time"
)

/*
   Column           |          Type           | Collation | Nullable | Default
--------------------+-------------------------+-----------+----------+---------------------
 asset_id           | bigint                  |           | not null | generated identity
 name               | character varying(256)  |           | not null |
 org_unit_id        | bigint                  |           | not null | fk org_units
 asset_type_id      | bigint                  |           |          | fk asset_types
 address            | character varying(256)  |           |          |
 description        | text                    |           |          |
 staleness_seconds  | integer                 |           |          |
 created_at         | timestamptz             |           | not null | now()
 updated_at         | timestamptz             |           | not null | now()

 Deleting an asset cascades to its assignments and results. The history is
 irrecoverable after that.
*/

// Asset is a monitored endpoint owned by an OrgUnit.
type Asset struct {
	AssetID          int64          `db:"asset_id"`
	Name             string         `db:"name"`
	OrgUnitID        int64          `db:"org_unit_id"`
	AssetTypeID      sql.NullInt64  `db:"asset_type_id"`
	Address          sql.NullString `db:"address"`
	Description      sql.NullString `db:"description"`
	StalenessSeconds sql.NullInt32  `db:"staleness_seconds"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

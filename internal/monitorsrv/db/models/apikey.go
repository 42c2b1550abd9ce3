package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/nodewatch/nodewatch/pkg/types"
)

/*
   Column       |          Type           | Collation | Nullable | Default
----------------+-------------------------+-----------+----------+---------------------
 key_id         | uuid                    |           | not null |
 key_hash       | bytea                   |           | not null | salt || argon2id(secret)
 description    | character varying(256)  |           |          |
 role           | character varying(32)   |           | not null |
 org_unit_id    | bigint                  |           |          | fk org_units
 active         | boolean                 |           | not null | true
 last_used_at   | timestamptz             |           |          |
 created_at     | timestamptz             |           | not null | now()
*/

// ApiKey is a presented-credential row. Only the one-way hash of the secret
// is stored; the secret itself is shown once at creation time.
type ApiKey struct {
	KeyID       uuid.UUID      `db:"key_id"`
	KeyHash     []byte         `db:"key_hash"`
	Description sql.NullString `db:"description"`
	Role        types.Role     `db:"role"`
	OrgUnitID   sql.NullInt64  `db:"org_unit_id"`
	Active      bool           `db:"active"`
	LastUsedAt  sql.NullTime   `db:"last_used_at"`
	CreatedAt   time.Time      `db:"created_at"`
}

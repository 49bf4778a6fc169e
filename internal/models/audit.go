package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type AuditEntry struct {
	bun.BaseModel `bun:"table:audit_log,alias:audit"`

	ID        uuid.UUID              `bun:"id,pk,type:uuid" json:"id"`
	Action    string                 `bun:"action,notnull" json:"action"`
	Entity    string                 `bun:"entity,notnull" json:"entity"`
	EntityID  string                 `bun:"entity_id,notnull" json:"entity_id"`
	Actor     int64                  `bun:"actor,nullzero" json:"actor,omitempty"`
	Detail    map[string]interface{} `bun:"detail,type:jsonb" json:"detail,omitempty"`
	CreatedAt time.Time              `bun:"created_at,notnull" json:"created_at"`
}

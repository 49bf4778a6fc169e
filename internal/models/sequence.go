package models

import (
	"github.com/uptrace/bun"
)

// Sequence is the per-kind, per-window counter behind generated identifiers.
type Sequence struct {
	bun.BaseModel `bun:"table:sequences,alias:sequence"`

	ID        int64  `bun:"id,pk,autoincrement"`
	Kind      string `bun:"kind,notnull,unique:kind_window"`
	WindowKey string `bun:"window_key,notnull,unique:kind_window"`
	LastValue int64  `bun:"last_value,notnull"`
}

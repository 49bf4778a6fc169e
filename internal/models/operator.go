package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Operator is an office user allowed to record enquiries, admissions, payments and bills.
type Operator struct {
	bun.BaseModel `bun:"table:operators,alias:operator"`

	ID           int64     `bun:"id,pk,autoincrement" json:"id"`
	Name         string    `bun:"name,notnull" json:"name"`
	Mobile       string    `bun:"mobile,notnull,unique" json:"mobile"`
	Email        string    `bun:"email,notnull,unique" json:"email"`
	PasswordHash string    `bun:"password_hash,notnull" json:"-"`
	IsActive     bool      `bun:"is_active,notnull,default:true" json:"is_active"`
	CreatedAt    time.Time `bun:"created_at,notnull" json:"created_at"`
}

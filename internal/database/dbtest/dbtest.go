// Package dbtest provides a schema-ready in-memory SQLite database for package tests.
package dbtest

import (
	"context"
	"testing"

	"ms-backoffice/internal/database"

	"github.com/uptrace/bun"
)

func NewSQLite(t testing.TB) *bun.DB {
	t.Helper()

	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	if err := database.CreateSchema(context.Background(), db); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

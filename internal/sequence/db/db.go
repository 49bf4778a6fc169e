package db

import (
	"context"
	"database/sql"
	"errors"

	"ms-backoffice/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

const incrementQuery = `INSERT INTO sequences (kind, window_key, last_value) VALUES (?, ?, 1)
ON CONFLICT (kind, window_key) DO UPDATE SET last_value = sequences.last_value + 1
RETURNING last_value`

// Increment bumps the (kind, window) counter in one statement and returns the new value.
func (d *DB) Increment(ctx context.Context, idb bun.IDB, kind, windowKey string) (int64, error) {
	if idb == nil {
		idb = d.Bun
	}
	var value int64
	if err := idb.NewRaw(incrementQuery, kind, windowKey).Scan(ctx, &value); err != nil {
		return 0, err
	}
	return value, nil
}

const raiseQuery = `INSERT INTO sequences (kind, window_key, last_value) VALUES (?, ?, ?)
ON CONFLICT (kind, window_key) DO UPDATE SET last_value =
CASE WHEN sequences.last_value < excluded.last_value THEN excluded.last_value ELSE sequences.last_value END`

// RaiseTo moves the counter up to value outside any transaction. It never lowers it.
func (d *DB) RaiseTo(ctx context.Context, kind, windowKey string, value int64) error {
	_, err := d.Bun.NewRaw(raiseQuery, kind, windowKey, value).Exec(ctx)
	return err
}

// HighestIdentifier returns the largest identifier in table.column that starts with prefix, or ""
// when there is none. Longer identifiers sort first so unpadded overflow numbers win.
func (d *DB) HighestIdentifier(ctx context.Context, table, column, prefix string) (string, error) {
	var id string
	err := d.Bun.NewSelect().
		TableExpr("?", bun.Ident(table)).
		ColumnExpr("?", bun.Ident(column)).
		Where("? LIKE ?", bun.Ident(column), prefix+"%").
		OrderExpr("LENGTH(?) DESC", bun.Ident(column)).
		OrderExpr("? DESC", bun.Ident(column)).
		Limit(1).
		Scan(ctx, &id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return id, err
}

// Current returns the last value handed out in the window, 0 when none.
func (d *DB) Current(ctx context.Context, kind, windowKey string) (int64, error) {
	var seq models.Sequence
	err := d.Bun.NewSelect().
		Model(&seq).
		Where("kind = ?", kind).
		Where("window_key = ?", windowKey).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return seq.LastValue, nil
}

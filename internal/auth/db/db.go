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

// ErrNotFound is returned when no operator matches.
var ErrNotFound = errors.New("operator not found")

func (d *DB) CreateOperator(ctx context.Context, op *models.Operator) error {
	_, err := d.Bun.NewInsert().Model(op).Exec(ctx)
	return err
}

func (d *DB) getBy(ctx context.Context, column string, value interface{}) (*models.Operator, error) {
	var op models.Operator
	err := d.Bun.NewSelect().
		Model(&op).
		Where("? = ?", bun.Ident(column), value).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &op, nil
}

func (d *DB) GetOperatorByID(ctx context.Context, id int64) (*models.Operator, error) {
	return d.getBy(ctx, "id", id)
}

func (d *DB) GetOperatorByEmail(ctx context.Context, email string) (*models.Operator, error) {
	return d.getBy(ctx, "email", email)
}

func (d *DB) GetOperatorByMobile(ctx context.Context, mobile string) (*models.Operator, error) {
	return d.getBy(ctx, "mobile", mobile)
}

func (d *DB) SetActive(ctx context.Context, id int64, active bool) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Operator)(nil)).
		Set("is_active = ?", active).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

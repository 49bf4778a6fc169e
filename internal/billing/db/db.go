package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"ms-backoffice/internal/models"

	"github.com/uptrace/bun"
)

var ErrNotFound = errors.New("bill not found")

type DB struct {
	Bun *bun.DB
}

func (d *DB) idb(idb bun.IDB) bun.IDB {
	if idb == nil {
		return d.Bun
	}
	return idb
}

// InsertBill writes the bill and then its items with the new bill id.
func (d *DB) InsertBill(ctx context.Context, tx bun.IDB, b *models.Bill) error {
	if _, err := tx.NewInsert().Model(b).Exec(ctx); err != nil {
		return err
	}
	if len(b.Items) == 0 {
		return nil
	}
	for _, it := range b.Items {
		it.BillID = b.ID
	}
	_, err := tx.NewInsert().Model(&b.Items).Exec(ctx)
	return err
}

func (d *DB) GetByReceipt(ctx context.Context, idb bun.IDB, receiptNo string) (*models.Bill, error) {
	b := new(models.Bill)
	err := d.idb(idb).NewSelect().
		Model(b).
		Relation("Items", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("bill_item.id ASC")
		}).
		Where("bill.receipt_no = ?", receiptNo).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

func (d *DB) Delete(ctx context.Context, tx bun.IDB, id int64) error {
	if _, err := tx.NewDelete().Model((*models.BillItem)(nil)).Where("bill_id = ?", id).Exec(ctx); err != nil {
		return err
	}
	_, err := tx.NewDelete().Model((*models.Bill)(nil)).Where("id = ?", id).Exec(ctx)
	return err
}

// ListByDate returns the bills of one calendar date with their items, newest first. customer is a
// case-insensitive substring of the customer name.
func (d *DB) ListByDate(ctx context.Context, date time.Time, customer string) ([]models.Bill, error) {
	var bills []models.Bill
	q := d.Bun.NewSelect().
		Model(&bills).
		Relation("Items", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("bill_item.id ASC")
		}).
		Where("bill.bill_date = ?", date).
		Order("bill.id DESC")
	if c := strings.TrimSpace(customer); c != "" {
		q = q.Where("LOWER(bill.customer_name) LIKE ?", "%"+strings.ToLower(c)+"%")
	}
	err := q.Scan(ctx)
	return bills, err
}

package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"ms-backoffice/internal/models"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

var ErrNotFound = errors.New("record not found")

func (d *DB) idb(idb bun.IDB) bun.IDB {
	if idb == nil {
		return d.Bun
	}
	return idb
}

// GetAdmissionByFormNo reads the admission the payment is recorded against.
func (d *DB) GetAdmissionByFormNo(ctx context.Context, idb bun.IDB, formNo string) (*models.Admission, error) {
	var adm models.Admission
	err := d.idb(idb).NewSelect().
		Model(&adm).
		Where("form_no = ?", formNo).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &adm, nil
}

func (d *DB) InsertPayment(ctx context.Context, idb bun.IDB, p *models.Payment) error {
	_, err := d.idb(idb).NewInsert().Model(p).Exec(ctx)
	return err
}

// AddPaid increases paid_fee by amount only while the result stays within total_fee.
// It returns false when the guard rejected the update. SQLite adds NUMERIC columns as floats, so
// the sum is rounded to paise before it is stored or compared.
func (d *DB) AddPaid(ctx context.Context, idb bun.IDB, admissionID int64, amount decimal.Decimal, now time.Time) (bool, error) {
	res, err := d.idb(idb).NewUpdate().
		Model((*models.Admission)(nil)).
		Set("paid_fee = ROUND(paid_fee + ?, 2)", amount).
		Set("updated_at = ?", now).
		Where("id = ?", admissionID).
		Where("ROUND(paid_fee + ?, 2) <= total_fee", amount).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (d *DB) GetPaymentByReceipt(ctx context.Context, receiptNo string) (*models.Payment, error) {
	var p models.Payment
	err := d.Bun.NewSelect().
		Model(&p).
		Relation("Admission").
		Where("payment.receipt_no = ?", receiptNo).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// PaymentsForAdmission returns an admission's payments in the order they were recorded.
func (d *DB) PaymentsForAdmission(ctx context.Context, idb bun.IDB, admissionID int64) ([]models.Payment, error) {
	var payments []models.Payment
	err := d.idb(idb).NewSelect().
		Model(&payments).
		Where("admission_id = ?", admissionID).
		Order("id ASC").
		Scan(ctx)
	return payments, err
}

// ListPayments filters by paid_at range, admission and a free-text search over receipt number,
// form number and student name.
func (d *DB) ListPayments(ctx context.Context, f models.PaymentFilter) ([]models.Payment, error) {
	var payments []models.Payment
	q := d.Bun.NewSelect().
		Model(&payments).
		Relation("Admission").
		Order("payment.paid_at DESC", "payment.id DESC")

	if f.From != nil {
		q = q.Where("payment.paid_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("payment.paid_at < ?", *f.To)
	}
	if f.AdmissionID != 0 {
		q = q.Where("payment.admission_id = ?", f.AdmissionID)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("LOWER(payment.receipt_no) LIKE ?", like).
				WhereOr("LOWER(admission.form_no) LIKE ?", like).
				WhereOr("LOWER(admission.first_name) LIKE ?", like).
				WhereOr("LOWER(admission.last_name) LIKE ?", like)
		})
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	err := q.Scan(ctx)
	return payments, err
}

package dashboard

import (
	"context"
	"time"

	"ms-backoffice/internal/models"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// DB runs the dashboard aggregates
type DB struct {
	bun *bun.DB
}

// NewDB creates a new dashboard DB handler
func NewDB(db *bun.DB) *DB {
	return &DB{bun: db}
}

func sum(ctx context.Context, q *bun.SelectQuery) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	if err := q.Scan(ctx, &total); err != nil || !total.Valid {
		return decimal.Zero, err
	}
	return total.Decimal.Round(2), nil
}

// CountEnquiriesOn counts enquiries taken on a calendar date
func (db *DB) CountEnquiriesOn(ctx context.Context, date time.Time) (int, error) {
	return db.bun.NewSelect().Model((*models.Enquiry)(nil)).Where("enquiry_date = ?", date).Count(ctx)
}

// CountAdmissionsBetween counts admissions with from <= admission_date < to
func (db *DB) CountAdmissionsBetween(ctx context.Context, from, to time.Time) (int, error) {
	return db.bun.NewSelect().
		Model((*models.Admission)(nil)).
		Where("admission_date >= ?", from).
		Where("admission_date < ?", to).
		Count(ctx)
}

// CountActiveAdmissions counts admissions still marked active
func (db *DB) CountActiveAdmissions(ctx context.Context) (int, error) {
	return db.bun.NewSelect().Model((*models.Admission)(nil)).Where("is_active = ?", true).Count(ctx)
}

// CollectedBetween sums payments with from <= paid_at < to
func (db *DB) CollectedBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	return sum(ctx, db.bun.NewSelect().
		Model((*models.Payment)(nil)).
		ColumnExpr("SUM(amount)").
		Where("paid_at >= ?", from.UTC()).
		Where("paid_at < ?", to.UTC()))
}

// Outstanding sums the unpaid fee of active admissions
func (db *DB) Outstanding(ctx context.Context) (decimal.Decimal, error) {
	return sum(ctx, db.bun.NewSelect().
		Model((*models.Admission)(nil)).
		ColumnExpr("SUM(total_fee - paid_fee)").
		Where("is_active = ?", true))
}

// BillsOn returns the number and total of bills on a calendar date
func (db *DB) BillsOn(ctx context.Context, date time.Time) (int, decimal.Decimal, error) {
	count, err := db.bun.NewSelect().Model((*models.Bill)(nil)).Where("bill_date = ?", date).Count(ctx)
	if err != nil {
		return 0, decimal.Zero, err
	}
	total, err := sum(ctx, db.bun.NewSelect().
		Model((*models.Bill)(nil)).
		ColumnExpr("SUM(total_amount)").
		Where("bill_date = ?", date))
	return count, total, err
}

// PaymentsBetween retrieves payments with from <= paid_at < to
func (db *DB) PaymentsBetween(ctx context.Context, from, to time.Time) ([]models.Payment, error) {
	var payments []models.Payment
	err := db.bun.NewSelect().
		Model(&payments).
		Column("id", "amount", "paid_at").
		Where("paid_at >= ?", from.UTC()).
		Where("paid_at < ?", to.UTC()).
		Scan(ctx)
	return payments, err
}

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

var ErrNotFound = errors.New("admission not found")

type DB struct {
	Bun *bun.DB
}

func (d *DB) idb(idb bun.IDB) bun.IDB {
	if idb == nil {
		return d.Bun
	}
	return idb
}

func (d *DB) Insert(ctx context.Context, idb bun.IDB, a *models.Admission) error {
	_, err := d.idb(idb).NewInsert().Model(a).Exec(ctx)
	return err
}

func (d *DB) GetByFormNo(ctx context.Context, idb bun.IDB, formNo string) (*models.Admission, error) {
	a := new(models.Admission)
	err := d.idb(idb).NewSelect().Model(a).Where("form_no = ?", formNo).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

// UpdateDetails writes the personal fields and total_fee. The write only happens while the new
// total still covers paid_fee, so a payment committed after the read cannot be undercut.
func (d *DB) UpdateDetails(ctx context.Context, idb bun.IDB, a *models.Admission) (bool, error) {
	res, err := d.idb(idb).NewUpdate().
		Model(a).
		Column("admission_date", "course_name", "batch", "first_name", "middle_name", "last_name",
			"birth_date", "mobile_own", "mobile_parents", "address", "qualification", "installments",
			"total_fee", "updated_at").
		WherePK().
		Where("ROUND(paid_fee, 2) <= ROUND(?, 2)", a.TotalFee).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (d *DB) SetActive(ctx context.Context, idb bun.IDB, id int64, active bool, now time.Time) error {
	_, err := d.idb(idb).NewUpdate().
		Model((*models.Admission)(nil)).
		Set("is_active = ?", active).
		Set("updated_at = ?", now).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (d *DB) SetPhoto(ctx context.Context, idb bun.IDB, id int64, path string, now time.Time) error {
	_, err := d.idb(idb).NewUpdate().
		Model((*models.Admission)(nil)).
		Set("photo_path = ?", path).
		Set("updated_at = ?", now).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (d *DB) Payments(ctx context.Context, idb bun.IDB, admissionID int64) ([]models.Payment, error) {
	var payments []models.Payment
	err := d.idb(idb).NewSelect().
		Model(&payments).
		Where("admission_id = ?", admissionID).
		Order("id ASC").
		Scan(ctx)
	return payments, err
}

// DeleteWithPayments removes the admission's payments and then the admission itself.
func (d *DB) DeleteWithPayments(ctx context.Context, tx bun.IDB, admissionID int64) error {
	if _, err := tx.NewDelete().Model((*models.Payment)(nil)).Where("admission_id = ?", admissionID).Exec(ctx); err != nil {
		return err
	}
	_, err := tx.NewDelete().Model((*models.Admission)(nil)).Where("id = ?", admissionID).Exec(ctx)
	return err
}

func (d *DB) List(ctx context.Context, f models.AdmissionFilter) ([]models.Admission, error) {
	var admissions []models.Admission
	q := d.Bun.NewSelect().Model(&admissions).Order("admission.admission_date DESC", "admission.id DESC")

	if f.Batch != "" {
		q = q.Where("admission.batch = ?", f.Batch)
	}
	if f.Course != "" {
		q = q.Where("admission.course_name = ?", f.Course)
	}
	if f.Active != nil {
		q = q.Where("admission.is_active = ?", *f.Active)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("LOWER(admission.form_no) LIKE ?", like).
				WhereOr("LOWER(admission.first_name) LIKE ?", like).
				WhereOr("LOWER(admission.middle_name) LIKE ?", like).
				WhereOr("LOWER(admission.last_name) LIKE ?", like).
				WhereOr("admission.mobile_own LIKE ?", like)
		})
	}
	err := q.Scan(ctx)
	return admissions, err
}

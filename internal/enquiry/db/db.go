package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"ms-backoffice/internal/models"

	"github.com/uptrace/bun"
)

var ErrNotFound = errors.New("enquiry not found")

type DB struct {
	Bun *bun.DB
}

func (d *DB) idb(idb bun.IDB) bun.IDB {
	if idb == nil {
		return d.Bun
	}
	return idb
}

func (d *DB) Insert(ctx context.Context, idb bun.IDB, e *models.Enquiry) error {
	_, err := d.idb(idb).NewInsert().Model(e).Exec(ctx)
	return err
}

func (d *DB) GetByNo(ctx context.Context, idb bun.IDB, enquiryNo string) (*models.Enquiry, error) {
	e := new(models.Enquiry)
	err := d.idb(idb).NewSelect().Model(e).Where("enquiry_no = ?", enquiryNo).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

// Update writes the editable columns. The enquiry number never changes.
func (d *DB) Update(ctx context.Context, idb bun.IDB, e *models.Enquiry) error {
	_, err := d.idb(idb).NewUpdate().
		Model(e).
		Column("student_name", "mobile_no", "course", "address", "enquiry_date", "updated_at").
		WherePK().
		Exec(ctx)
	return err
}

func (d *DB) Delete(ctx context.Context, idb bun.IDB, id int64) error {
	_, err := d.idb(idb).NewDelete().Model((*models.Enquiry)(nil)).Where("id = ?", id).Exec(ctx)
	return err
}

// List returns enquiries newest first.
func (d *DB) List(ctx context.Context, f models.EnquiryFilter) ([]models.Enquiry, error) {
	var enquiries []models.Enquiry
	q := d.Bun.NewSelect().Model(&enquiries).Order("enquiry.enquiry_date DESC", "enquiry.id DESC")

	if f.Date != nil {
		q = q.Where("enquiry.enquiry_date = ?", *f.Date)
	}
	if f.Course != "" {
		q = q.Where("enquiry.course = ?", f.Course)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("LOWER(enquiry.enquiry_no) LIKE ?", like).
				WhereOr("LOWER(enquiry.student_name) LIKE ?", like).
				WhereOr("enquiry.mobile_no LIKE ?", like)
		})
	}
	err := q.Scan(ctx)
	return enquiries, err
}

// Package database opens the bun connection for the configured driver and owns the schema
// bootstrap used by SQLite deployments and tests.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"ms-backoffice/internal/config"
	"ms-backoffice/internal/logger"
	"ms-backoffice/internal/models"

	"github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const (
	maxRetries = 5
	retryDelay = 2 * time.Second
)

// Open connects to Postgres (lib/pq) or SQLite depending on cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*bun.DB, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return openPostgres(ctx, cfg, log)
	case config.DriverSQLite:
		db, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Info("DATABASE", fmt.Sprintf("✅ SQLite database ready at %s", cfg.SQLitePath))
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func openPostgres(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*bun.DB, error) {
	var sqldb *sql.DB
	var err error

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(retryDelay)
			continue
		}

		err = sqldb.PingContext(ctx)
		if err == nil {
			break
		}

		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect to postgres after %d attempts: %w", maxRetries, err)
	}

	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.MaxLifetime)

	log.Info("DATABASE", "✅ PostgreSQL connection successful")
	return bun.NewDB(sqldb, pgdialect.New()), nil
}

// OpenSQLite opens a SQLite database. A single connection keeps ":memory:" databases shared and
// serializes writers the way SQLite expects.
func OpenSQLite(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqldb.SetMaxOpenConns(1)
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// OpenPgDriver connects through bun's native pgdriver. Used by integration tests and tools that
// want to avoid lib/pq.
func OpenPgDriver(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

var schemaModels = []interface{}{
	(*models.Operator)(nil),
	(*models.Sequence)(nil),
	(*models.Enquiry)(nil),
	(*models.Admission)(nil),
	(*models.Payment)(nil),
	(*models.Bill)(nil),
	(*models.BillItem)(nil),
	(*models.AuditEntry)(nil),
}

// CreateSchema creates every table from the bun models. Postgres deployments use the SQL
// migrations instead; this is for SQLite and tests.
func CreateSchema(ctx context.Context, db bun.IDB) error {
	for _, model := range schemaModels {
		q := db.NewCreateTable().Model(model).IfNotExists()
		switch model.(type) {
		case *models.Payment:
			q = q.ForeignKey(`("admission_id") REFERENCES "admissions" ("id")`)
		case *models.BillItem:
			q = q.ForeignKey(`("bill_id") REFERENCES "bills" ("id") ON DELETE CASCADE`)
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", model, err)
		}
	}

	indexes := []struct {
		model  interface{}
		name   string
		column string
	}{
		{(*models.Payment)(nil), "idx_payments_admission_id", "admission_id"},
		{(*models.Payment)(nil), "idx_payments_paid_at", "paid_at"},
		{(*models.Enquiry)(nil), "idx_enquiries_enquiry_date", "enquiry_date"},
		{(*models.Bill)(nil), "idx_bills_bill_date", "bill_date"},
		{(*models.BillItem)(nil), "idx_bill_items_bill_id", "bill_id"},
	}
	for _, idx := range indexes {
		if _, err := db.NewCreateIndex().Model(idx.model).Index(idx.name).Column(idx.column).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
	}
	return nil
}

// IsUniqueViolation reports whether err is a unique constraint violation from any supported driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

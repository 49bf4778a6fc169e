package migrations

import (
	"errors"
	"fmt"
	"os"

	"ms-backoffice/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/uptrace/bun"
)

type Options struct {
	// MigrationsDir is the directory containing NNNNNN_name.{up,down}.sql files
	MigrationsDir string
	// AutoMigrate applies pending migrations when the server starts. Ignored by cmd/migrate.
	AutoMigrate bool
}

// Runner applies the Postgres schema migrations through golang-migrate.
type Runner struct {
	bunDB    *bun.DB
	options  Options
	log      *logger.Logger
	migrator *migrate.Migrate
}

func NewRunner(bunDB *bun.DB, opts Options, log *logger.Logger) *Runner {
	return &Runner{
		bunDB:   bunDB,
		options: opts,
		log:     log,
	}
}

func (r *Runner) Initialize() error {
	if _, err := os.Stat(r.options.MigrationsDir); os.IsNotExist(err) {
		return fmt.Errorf("migrations directory does not exist: %s", r.options.MigrationsDir)
	}

	driver, err := postgres.WithInstance(r.bunDB.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create postgres migration driver: %w", err)
	}

	migrator, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", r.options.MigrationsDir),
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	r.migrator = migrator
	return nil
}

func (r *Runner) ensure() error {
	if r.migrator != nil {
		return nil
	}
	return r.Initialize()
}

// Up applies all pending migrations, repairing a dirty version first.
func (r *Runner) Up() error {
	if err := r.ensure(); err != nil {
		return err
	}

	version, dirty, err := r.migrator.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get migration version: %w", err)
	}
	if dirty {
		r.log.Warn("MIGRATE", fmt.Sprintf("Detected dirty migration at version %d, forcing", version))
		if err := r.migrator.Force(int(version)); err != nil {
			return fmt.Errorf("failed to fix dirty migration: %w", err)
		}
	}

	if err := r.migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return r.logVersion()
}

func (r *Runner) Down() error {
	if err := r.ensure(); err != nil {
		return err
	}
	if err := r.migrator.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration down failed: %w", err)
	}
	return nil
}

// To migrates up or down to version.
func (r *Runner) To(version uint) error {
	if err := r.ensure(); err != nil {
		return err
	}
	if err := r.migrator.Migrate(version); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration to version %d failed: %w", version, err)
	}
	return r.logVersion()
}

func (r *Runner) Version() (uint, bool, error) {
	if err := r.ensure(); err != nil {
		return 0, false, err
	}
	return r.migrator.Version()
}

func (r *Runner) logVersion() error {
	version, _, err := r.migrator.Version()
	if err == nil {
		r.log.Info("MIGRATE", fmt.Sprintf("Current schema version: %d", version))
		return nil
	}
	if errors.Is(err, migrate.ErrNilVersion) {
		return nil
	}
	return fmt.Errorf("failed to get migration version: %w", err)
}

func (r *Runner) Close() error {
	if r.migrator != nil {
		sourceErr, databaseErr := r.migrator.Close()
		if sourceErr != nil {
			return fmt.Errorf("error closing migrator source: %w", sourceErr)
		}
		if databaseErr != nil {
			return fmt.Errorf("error closing migrator database: %w", databaseErr)
		}
	}
	return nil
}

package migrations

import (
	"context"
	"fmt"
	"testing"
	"time"

	"ms-backoffice/internal/config"
	"ms-backoffice/internal/database"
	"ms-backoffice/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
)

const migrationsDir = "../../../migrations"

func startPostgres(t *testing.T) *bun.DB {
	if testing.Short() {
		t.Skip("Skipping migration test in short mode")
	}

	ctx := context.Background()
	pg, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "backoffice",
				"POSTGRES_PASSWORD": "backoffice",
				"POSTGRES_DB":       "backoffice",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("Postgres container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	host, err := pg.Host(ctx)
	require.NoError(t, err)
	port, err := pg.MappedPort(ctx, "5432")
	require.NoError(t, err)

	bunDB, err := database.Open(ctx, config.DatabaseConfig{
		Driver:       config.DriverPostgres,
		PostgresDSN:  fmt.Sprintf("postgres://backoffice:backoffice@%s:%s/backoffice?sslmode=disable", host, port.Port()),
		MaxOpenConns: 5,
		MaxIdleConns: 2,
		MaxLifetime:  time.Minute,
	}, logger.NewDiscard())
	require.NoError(t, err)
	return bunDB
}

func tableExists(t *testing.T, db *bun.DB, name string) bool {
	var n int
	err := db.NewSelect().
		TableExpr("information_schema.tables").
		ColumnExpr("COUNT(*)").
		Where("table_schema = 'public' AND table_name = ?", name).
		Scan(context.Background(), &n)
	require.NoError(t, err)
	return n == 1
}

func TestUpAndDown(t *testing.T) {
	bunDB := startPostgres(t)
	runner := NewRunner(bunDB, Options{MigrationsDir: migrationsDir}, logger.NewDiscard())
	// Closing the runner closes the shared connection pool.
	t.Cleanup(func() { _ = runner.Close() })

	require.NoError(t, runner.Up())
	version, dirty, err := runner.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
	for _, table := range []string{"operators", "sequences", "enquiries", "admissions", "payments", "bills", "bill_items", "audit_log"} {
		assert.True(t, tableExists(t, bunDB, table), table)
	}

	// Up is a no-op once applied.
	require.NoError(t, runner.Up())

	require.NoError(t, runner.Down())
	assert.False(t, tableExists(t, bunDB, "payments"))
}

func TestMissingDirectory(t *testing.T) {
	runner := NewRunner(nil, Options{MigrationsDir: "./does-not-exist"}, logger.NewDiscard())
	assert.Error(t, runner.Initialize())
}

package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(overrides map[string]interface{}) *viper.Viper {
	v := viper.New()
	defaults(v)
	for k, val := range overrides {
		v.Set(k, val)
	}
	return v
}

func TestDefaults(t *testing.T) {
	cfg, err := fromViper(newViper(nil))
	require.NoError(t, err)

	assert.Equal(t, ":8085", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Equal(t, "", cfg.Redis.Addr)
	assert.Equal(t, 10*time.Second, cfg.Redis.LockTTL)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Office.DefaultTotalFee.Equal(decimal.RequireFromString("5000")))
	assert.Equal(t, int64(5<<20), cfg.Media.MaxPhotoBytes)
	assert.Equal(t, 12*time.Hour, cfg.Auth.TokenTTL)
}

func TestPostgresRequiresDSN(t *testing.T) {
	_, err := fromViper(newViper(map[string]interface{}{"DB_DRIVER": "postgres"}))
	assert.Error(t, err)

	cfg, err := fromViper(newViper(map[string]interface{}{
		"DB_DRIVER":    "Postgres",
		"POSTGRES_DSN": "postgres://u:p@localhost:5432/backoffice?sslmode=disable",
	}))
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Driver)
}

func TestUnsupportedDriver(t *testing.T) {
	_, err := fromViper(newViper(map[string]interface{}{"DB_DRIVER": "oracle"}))
	assert.Error(t, err)
}

func TestBrokerList(t *testing.T) {
	cfg, err := fromViper(newViper(map[string]interface{}{"KAFKA_BROKERS": "k1:9092, k2:9092,,"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestInvalidDefaultFee(t *testing.T) {
	_, err := fromViper(newViper(map[string]interface{}{"DEFAULT_TOTAL_FEE": "five thousand"}))
	assert.Error(t, err)
}

func TestLocationFallback(t *testing.T) {
	assert.Equal(t, time.UTC, OfficeConfig{Timezone: "Nowhere/Land"}.Location())
	assert.Equal(t, "Asia/Kolkata", OfficeConfig{Timezone: "Asia/Kolkata"}.Location().String())
}

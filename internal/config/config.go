package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Auth     AuthConfig
	Office   OfficeConfig
	Media    MediaConfig
	PDF      PDFConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Driver        string // postgres | sqlite
	PostgresDSN   string
	SQLitePath    string
	MaxOpenConns  int
	MaxIdleConns  int
	MaxLifetime   time.Duration
	MigrationsDir string
	AutoMigrate   bool
}

// RedisConfig is optional. An empty Addr disables the payment lock and the token deny-list.
type RedisConfig struct {
	Addr          string
	LockTTL       time.Duration
	LockWait      time.Duration
	DenyKeyPrefix string
}

type KafkaConfig struct {
	Brokers     []string
	Enabled     bool
	TopicPrefix string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
	Issuer    string
}

type OfficeConfig struct {
	InstituteName   string
	Timezone        string
	DefaultTotalFee decimal.Decimal
}

type MediaConfig struct {
	Dir            string
	MaxPhotoBytes  int64
	PhotoMaxWidth  int
	PhotoMaxHeight int
}

type PDFConfig struct {
	FontPath    string
	QRSecretKey string
}

type LogConfig struct {
	Dir    string
	Prefix string
}

// Location resolves the office time zone, falling back to UTC when the name is unknown.
func (o OfficeConfig) Location() *time.Location {
	loc, err := time.LoadLocation(o.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func defaults(v *viper.Viper) {
	v.SetDefault("PORT", ":8085")
	v.SetDefault("READ_TIMEOUT", 15*time.Second)
	v.SetDefault("WRITE_TIMEOUT", 30*time.Second)
	v.SetDefault("IDLE_TIMEOUT", 60*time.Second)

	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("POSTGRES_DSN", "")
	v.SetDefault("SQLITE_PATH", "backoffice.db")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_MAX_LIFETIME_MINUTES", 5)
	v.SetDefault("MIGRATIONS_DIR", "./migrations")
	v.SetDefault("AUTO_MIGRATE", true)

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("PAYMENT_LOCK_TTL_SECONDS", 10)
	v.SetDefault("PAYMENT_LOCK_WAIT_MS", 3000)
	v.SetDefault("TOKEN_DENY_PREFIX", "backoffice:revoked:")

	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_ENABLED", false)
	v.SetDefault("KAFKA_TOPIC_PREFIX", "backoffice")

	v.SetDefault("JWT_SECRET", "change-me-in-production")
	v.SetDefault("JWT_TTL_HOURS", 12)
	v.SetDefault("JWT_ISSUER", "backoffice")

	v.SetDefault("INSTITUTE_NAME", "Training Institute")
	v.SetDefault("OFFICE_TIMEZONE", "Asia/Kolkata")
	v.SetDefault("DEFAULT_TOTAL_FEE", "5000.00")

	v.SetDefault("MEDIA_DIR", "./media")
	v.SetDefault("MAX_PHOTO_MB", 5)
	v.SetDefault("PHOTO_MAX_WIDTH", 600)
	v.SetDefault("PHOTO_MAX_HEIGHT", 600)

	v.SetDefault("PDF_FONT_PATH", "./fonts/DejaVuSans.ttf")
	v.SetDefault("QR_SECRET_KEY", "receipt-qr-secret")

	v.SetDefault("LOG_DIR", "logs")
	v.SetDefault("LOG_PREFIX", "backoffice")
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	v := viper.New()
	defaults(v)
	v.AutomaticEnv()
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	totalFee, err := decimal.NewFromString(v.GetString("DEFAULT_TOTAL_FEE"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_TOTAL_FEE: %w", err)
	}

	driver := strings.ToLower(v.GetString("DB_DRIVER"))
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
	if driver == DriverPostgres && v.GetString("POSTGRES_DSN") == "" {
		return nil, fmt.Errorf("POSTGRES_DSN not set")
	}

	var brokers []string
	for _, b := range strings.Split(v.GetString("KAFKA_BROKERS"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}

	return &Config{
		Server: ServerConfig{
			Port:         v.GetString("PORT"),
			ReadTimeout:  v.GetDuration("READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("WRITE_TIMEOUT"),
			IdleTimeout:  v.GetDuration("IDLE_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Driver:        driver,
			PostgresDSN:   v.GetString("POSTGRES_DSN"),
			SQLitePath:    v.GetString("SQLITE_PATH"),
			MaxOpenConns:  v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:  v.GetInt("DB_MAX_IDLE_CONNS"),
			MaxLifetime:   time.Duration(v.GetInt("DB_MAX_LIFETIME_MINUTES")) * time.Minute,
			MigrationsDir: v.GetString("MIGRATIONS_DIR"),
			AutoMigrate:   v.GetBool("AUTO_MIGRATE"),
		},
		Redis: RedisConfig{
			Addr:          v.GetString("REDIS_ADDR"),
			LockTTL:       time.Duration(v.GetInt("PAYMENT_LOCK_TTL_SECONDS")) * time.Second,
			LockWait:      time.Duration(v.GetInt("PAYMENT_LOCK_WAIT_MS")) * time.Millisecond,
			DenyKeyPrefix: v.GetString("TOKEN_DENY_PREFIX"),
		},
		Kafka: KafkaConfig{
			Brokers:     brokers,
			Enabled:     v.GetBool("KAFKA_ENABLED"),
			TopicPrefix: v.GetString("KAFKA_TOPIC_PREFIX"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("JWT_SECRET"),
			TokenTTL:  time.Duration(v.GetInt("JWT_TTL_HOURS")) * time.Hour,
			Issuer:    v.GetString("JWT_ISSUER"),
		},
		Office: OfficeConfig{
			InstituteName:   v.GetString("INSTITUTE_NAME"),
			Timezone:        v.GetString("OFFICE_TIMEZONE"),
			DefaultTotalFee: totalFee,
		},
		Media: MediaConfig{
			Dir:            v.GetString("MEDIA_DIR"),
			MaxPhotoBytes:  int64(v.GetInt("MAX_PHOTO_MB")) << 20,
			PhotoMaxWidth:  v.GetInt("PHOTO_MAX_WIDTH"),
			PhotoMaxHeight: v.GetInt("PHOTO_MAX_HEIGHT"),
		},
		PDF: PDFConfig{
			FontPath:    v.GetString("PDF_FONT_PATH"),
			QRSecretKey: v.GetString("QR_SECRET_KEY"),
		},
		Log: LogConfig{
			Dir:    v.GetString("LOG_DIR"),
			Prefix: v.GetString("LOG_PREFIX"),
		},
	}, nil
}

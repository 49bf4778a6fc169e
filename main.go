package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ms-backoffice/internal/config"
	"ms-backoffice/internal/database"
	"ms-backoffice/internal/database/migrations"
	"ms-backoffice/internal/kafka"
	"ms-backoffice/internal/logger"
	"ms-backoffice/internal/server"

	"github.com/go-redis/redis/v8"
	"github.com/uptrace/bun"
)

func prepareSchema(ctx context.Context, cfg *config.Config, bunDB *bun.DB, log *logger.Logger) error {
	if cfg.Database.Driver == config.DriverSQLite {
		log.Info("DATABASE", "Creating SQLite schema from models")
		return database.CreateSchema(ctx, bunDB)
	}

	opts := migrations.Options{MigrationsDir: cfg.Database.MigrationsDir, AutoMigrate: cfg.Database.AutoMigrate}
	if !opts.AutoMigrate {
		log.Info("MIGRATE", "AUTO_MIGRATE disabled, run cmd/migrate to apply migrations")
		return nil
	}
	log.Info("MIGRATE", fmt.Sprintf("Applying migrations from %s", opts.MigrationsDir))
	return migrations.NewRunner(bunDB, opts, log).Up()
}

func connectRedis(ctx context.Context, cfg *config.Config, log *logger.Logger) *redis.Client {
	if cfg.Redis.Addr == "" {
		return nil
	}
	client, err := database.OpenRedis(ctx, cfg.Redis.Addr, log)
	if err != nil {
		log.Fatal("REDIS", fmt.Sprintf("Redis connection error: %v", err))
	}
	return client
}

func connectKafka(ctx context.Context, cfg *config.Config, log *logger.Logger) (kafka.Publisher, func()) {
	if !cfg.Kafka.Enabled {
		log.Info("KAFKA", "Kafka disabled, domain events will not be published")
		return kafka.NopPublisher{}, func() {}
	}

	log.Info("KAFKA", fmt.Sprintf("Using Kafka brokers: %v", cfg.Kafka.Brokers))
	if err := kafka.EnsureTopicsExist(ctx, cfg.Kafka.Brokers, kafka.Topics(cfg.Kafka.TopicPrefix), log); err != nil {
		log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	} else {
		log.Info("KAFKA", "Required topics ensured successfully")
	}

	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicPrefix, log)
	return producer, func() {
		if err := producer.Close(); err != nil {
			log.Error("KAFKA", fmt.Sprintf("Failed to close producer: %v", err))
		}
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg.Log.Dir, cfg.Log.Prefix)
	defer log.Close()
	log.Info("APP", "Starting back office initialization")

	ctx := context.Background()

	bunDB, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	if err := prepareSchema(ctx, cfg, bunDB, log); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to prepare schema: %v", err))
	}

	redisClient := connectRedis(ctx, cfg, log)
	if redisClient != nil {
		defer redisClient.Close()
	}

	publisher, closeKafka := connectKafka(ctx, cfg, log)
	defer closeKafka()

	app, err := server.NewApp(server.Deps{
		Config:    cfg,
		DB:        bunDB,
		Redis:     redisClient,
		Publisher: publisher,
		Logger:    log,
	})
	if err != nil {
		log.Fatal("APP", fmt.Sprintf("Failed to wire application: %v", err))
	}

	// Payment streams hang on the base context so shutdown can end them.
	baseCtx, cancelStreams := context.WithCancel(ctx)
	defer cancelStreams()

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      app.Handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return baseCtx },
	}
	srv.RegisterOnShutdown(cancelStreams)

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Back office running on %s", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	log.Info("SSE", fmt.Sprintf("Closing %d payment stream(s)", app.Feed.Clients()))

	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "✅ Back office shutdown complete")
	}
}

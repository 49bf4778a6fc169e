package database

import (
	"context"
	"fmt"
	"time"

	"ms-backoffice/internal/logger"

	"github.com/go-redis/redis/v8"
)

// OpenRedis connects to addr and pings it. Callers treat an empty addr as "Redis disabled" and
// never call this.
func OpenRedis(ctx context.Context, addr string, log *logger.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		DB:       0,
		PoolSize: 10,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection error: %w", err)
	}

	log.Info("DATABASE", fmt.Sprintf("✅ Redis connection successful to %s (DB: %d)", addr, client.Options().DB))
	return client, nil
}

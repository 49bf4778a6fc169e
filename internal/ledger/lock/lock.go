// Package lock serializes payment recording per admission across server instances.
package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ms-backoffice/internal/apperr"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Release is safe to call more than once.
type Release func()

type Locker interface {
	Acquire(ctx context.Context, key string) (Release, error)
}

// NopLocker is used when Redis is not configured; the ledger's conditional update still
// protects the balance.
type NopLocker struct{}

func (NopLocker) Acquire(context.Context, string) (Release, error) { return func() {}, nil }

// Deletes the key only while it still holds our token, so an expired lock taken over by
// another request is left alone.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisLocker struct {
	Client *redis.Client
	Prefix string
	TTL    time.Duration
	Wait   time.Duration
	Retry  time.Duration
}

func NewRedisLocker(client *redis.Client, ttl, wait time.Duration) *RedisLocker {
	return &RedisLocker{
		Client: client,
		Prefix: "payment_lock:",
		TTL:    ttl,
		Wait:   wait,
		Retry:  50 * time.Millisecond,
	}
}

// Acquire takes the lock for key, polling until Wait elapses. Contention beyond that is a
// ConflictError.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (Release, error) {
	redisKey := l.Prefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(l.Wait)

	for {
		ok, err := l.Client.SetNX(ctx, redisKey, token, l.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire payment lock %s: %w", key, err)
		}
		if ok {
			var once sync.Once
			return func() {
				once.Do(func() {
					_ = unlockScript.Run(context.Background(), l.Client, []string{redisKey}, token).Err()
				})
			}, nil
		}
		if !time.Now().Before(deadline) {
			return nil, apperr.Conflict("payment already in progress for %s", key)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.Retry):
		}
	}
}

package lock

import (
	"context"
	"testing"
	"time"

	"ms-backoffice/internal/apperr"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	l := NewRedisLocker(client, 10*time.Second, 100*time.Millisecond)
	l.Retry = 10 * time.Millisecond
	return l, mr
}

func TestAcquireAndRelease(t *testing.T) {
	l, mr := setupLocker(t)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "SSC20250001")
	require.NoError(t, err)
	assert.True(t, mr.Exists("payment_lock:SSC20250001"))
	assert.Equal(t, 10*time.Second, mr.TTL("payment_lock:SSC20250001"))

	_, err = l.Acquire(ctx, "SSC20250001")
	assert.True(t, apperr.IsConflict(err))

	other, err := l.Acquire(ctx, "SSC20250002")
	require.NoError(t, err)
	other()

	release()
	release()
	assert.False(t, mr.Exists("payment_lock:SSC20250001"))

	again, err := l.Acquire(ctx, "SSC20250001")
	require.NoError(t, err)
	again()
}

func TestStaleReleaseKeepsNewOwner(t *testing.T) {
	l, mr := setupLocker(t)
	ctx := context.Background()

	stale, err := l.Acquire(ctx, "SSC20250001")
	require.NoError(t, err)

	// The first holder's lock expires and another request takes it over.
	mr.FastForward(11 * time.Second)
	current, err := l.Acquire(ctx, "SSC20250001")
	require.NoError(t, err)

	stale()
	assert.True(t, mr.Exists("payment_lock:SSC20250001"))

	current()
	assert.False(t, mr.Exists("payment_lock:SSC20250001"))
}

func TestAcquireWaitsForRelease(t *testing.T) {
	l, _ := setupLocker(t)
	l.Wait = time.Second
	ctx := context.Background()

	release, err := l.Acquire(ctx, "SSC20250003")
	require.NoError(t, err)

	go func() {
		time.Sleep(50 * time.Millisecond)
		release()
	}()

	next, err := l.Acquire(ctx, "SSC20250003")
	require.NoError(t, err)
	next()
}

func TestNopLocker(t *testing.T) {
	release, err := NopLocker{}.Acquire(context.Background(), "x")
	require.NoError(t, err)
	release()
}

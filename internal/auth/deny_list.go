package auth

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// DenyList remembers revoked token ids until the token would have expired anyway.
type DenyList interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type RedisDenyList struct {
	Client *redis.Client
	Prefix string
}

func NewRedisDenyList(client *redis.Client, prefix string) *RedisDenyList {
	return &RedisDenyList{Client: client, Prefix: prefix}
}

func (d *RedisDenyList) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return d.Client.Set(ctx, d.Prefix+tokenID, "1", ttl).Err()
}

func (d *RedisDenyList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.Client.Exists(ctx, d.Prefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MemoryDenyList is used when Redis is not configured. Revocations do not survive a restart.
type MemoryDenyList struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewMemoryDenyList() *MemoryDenyList {
	return &MemoryDenyList{revoked: make(map[string]time.Time)}
}

func (d *MemoryDenyList) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := time.Now()
	for id, exp := range d.revoked {
		if now.After(exp) {
			delete(d.revoked, id)
		}
	}
	if ttl > 0 {
		d.revoked[tokenID] = now.Add(ttl)
	}
	return nil
}

func (d *MemoryDenyList) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	exp, ok := d.revoked[tokenID]
	return ok && time.Now().Before(exp), nil
}

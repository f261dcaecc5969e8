// Package tokens keeps the list of revoked token ids. A logged-out token
// stays revoked until it would have expired on its own.
package tokens

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Denylist records revoked token ids.
type Denylist interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

const keyPrefix = "budgetapp:revoked:"

func revokedKey(tokenID string) string {
	return keyPrefix + tokenID
}

// RedisDenylist stores revoked ids as keys that expire with the token.
type RedisDenylist struct {
	client *redis.Client
}

// NewRedisDenylist wraps an existing client.
func NewRedisDenylist(client *redis.Client) *RedisDenylist {
	return &RedisDenylist{client: client}
}

// Connect opens a client for addr and checks it answers.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return client, nil
}

// Revoke marks tokenID revoked until expiresAt. Already expired tokens are ignored.
func (d *RedisDenylist) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return d.client.Set(ctx, revokedKey(tokenID), "1", ttl).Err()
}

// IsRevoked reports whether tokenID was revoked.
func (d *RedisDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.client.Exists(ctx, revokedKey(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MemoryDenylist keeps revoked ids in process. Used when no Redis is
// configured; revocations do not survive a restart.
type MemoryDenylist struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

// NewMemoryDenylist creates an empty in-process denylist.
func NewMemoryDenylist() *MemoryDenylist {
	return &MemoryDenylist{revoked: make(map[string]time.Time), now: time.Now}
}

// Revoke marks tokenID revoked until expiresAt.
func (d *MemoryDenylist) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	for id, exp := range d.revoked {
		if !exp.After(now) {
			delete(d.revoked, id)
		}
	}
	if expiresAt.After(now) {
		d.revoked[tokenID] = expiresAt
	}
	return nil
}

// IsRevoked reports whether tokenID was revoked and has not yet expired.
func (d *MemoryDenylist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	exp, ok := d.revoked[tokenID]
	return ok && exp.After(d.now()), nil
}

package memory

import (
	"context"
	"sync"
	"time"

	"github.com/syberry/bakery-api/internal/ports"
)

// SecretCache is an in-process ports.SecretCache with expiry-after-write
// semantics. It backs development mode and tests; production deployments use
// the redis adapter.
type SecretCache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]entry
}

type entry struct {
	value     string
	expiresAt time.Time
}

var _ ports.SecretCache = (*SecretCache)(nil)

// NewSecretCache builds a cache whose entries expire ttl after the last Put.
func NewSecretCache(ttl time.Duration) *SecretCache {
	return &SecretCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

// Put stores value under key, replacing any previous value and restarting the
// expiry clock.
func (c *SecretCache) Put(_ context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expiresAt: c.now().Add(c.ttl)}
	return nil
}

// Get returns the live value for key. Expired entries are removed lazily and
// reported identically to absent ones.
func (c *SecretCache) Get(_ context.Context, key string) (string, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return "", ports.ErrSecretNotFound
	}
	if !c.now().Before(e.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Put may have refreshed it.
		if cur, still := c.entries[key]; still && !c.now().Before(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return "", ports.ErrSecretNotFound
	}
	return e.value, nil
}

// Invalidate removes the entry for key if present.
func (c *SecretCache) Invalidate(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

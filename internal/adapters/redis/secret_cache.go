package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/syberry/bakery-api/internal/ports"
)

// SecretCache implements ports.SecretCache on Redis. Every Put is a SET with
// TTL, which both supersedes the previous value and restarts the expiry clock
// in one atomic command; Redis then enforces expiry server-side so absent and
// expired keys are indistinguishable to Get.
type SecretCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ ports.SecretCache = (*SecretCache)(nil)

// NewSecretCache builds a cache over client. The prefix namespaces keys so
// several caches with different TTLs can share one Redis database.
func NewSecretCache(client redis.UniversalClient, prefix string, ttl time.Duration) *SecretCache {
	return &SecretCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *SecretCache) Put(ctx context.Context, key, value string) error {
	if err := c.client.Set(ctx, c.key(key), value, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *SecretCache) Get(ctx context.Context, key string) (string, error) {
	value, err := c.client.Get(ctx, c.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ports.ErrSecretNotFound
		}
		return "", fmt.Errorf("redis get: %w", err)
	}
	return value, nil
}

func (c *SecretCache) Invalidate(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (c *SecretCache) key(key string) string {
	return c.prefix + ":" + key
}

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/codershubham350/discover-places-backend/internal/domain/providers"
	redisclient "github.com/codershubham350/discover-places-backend/internal/infrastructure/clients/redis"
)

// RedisAdapter backs the place and geocode caches with Redis. Keys are
// namespaced by the client; values are opaque bytes.
type RedisAdapter struct {
	client *redisclient.Client
}

// NewRedisAdapter creates a new Redis cache adapter
func NewRedisAdapter(client *redisclient.Client) providers.CacheProvider {
	return &RedisAdapter{client: client}
}

// Get returns providers.ErrCacheMiss for absent keys so callers can tell a
// miss from a broken connection.
func (a *RedisAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := a.client.Client().Get(ctx, a.client.Key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, providers.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s from cache: %w", key, err)
	}
	return result, nil
}

// Set stores value for expirationSeconds. Zero or less means no expiry.
func (a *RedisAdapter) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	var ttl time.Duration
	if expirationSeconds > 0 {
		ttl = time.Duration(expirationSeconds) * time.Second
	}
	if err := a.client.Client().Set(ctx, a.client.Key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s in cache: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (a *RedisAdapter) Delete(ctx context.Context, key string) error {
	if err := a.client.Client().Del(ctx, a.client.Key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete %s from cache: %w", key, err)
	}
	return nil
}

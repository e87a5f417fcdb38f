package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/codershubham350/discover-places-backend/pkg/config"
	"github.com/codershubham350/discover-places-backend/pkg/retry"
)

// Client wraps a go-redis client and the key namespace this service owns.
type Client struct {
	client    *redis.Client
	keyPrefix string
}

// NewClient creates a new Redis client and checks it is reachable. Redis is
// optional for this service, so it gives up after a few quick attempts.
func NewClient(cfg *config.RedisConfig) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	startup := retry.Config{
		MaxAttempts:     3,
		InitialDelay:    200 * time.Millisecond,
		MaxDelay:        time.Second,
		BackoffFactor:   2,
		MaxTotalTimeout: 10 * time.Second,
	}
	err := retry.Do(context.Background(), startup, "Redis",
		func(ctx context.Context) error {
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			return client.Ping(pingCtx).Err()
		},
		func(attempt int, err error, nextDelay time.Duration) {
			log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", nextDelay).Msg("Redis connection attempt failed")
		},
	)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewClientFromRedis(client, cfg.KeyPrefix), nil
}

// NewClientFromRedis wraps an existing go-redis client. Every key the cache
// adapter touches is prefixed with keyPrefix.
func NewClientFromRedis(client *redis.Client, keyPrefix string) *Client {
	return &Client{client: client, keyPrefix: keyPrefix}
}

// Client returns the underlying Redis client
func (c *Client) Client() *redis.Client {
	return c.client
}

// Key namespaces key for this service.
func (c *Client) Key(key string) string {
	return c.keyPrefix + key
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.client.Close()
}

// Ping verifies the connection to Redis
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

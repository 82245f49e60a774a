package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/edudesk/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const summaryKeyPrefix = "ledger:summary:"

// RedisSummaryCache implements SummaryCache using Redis. Suitable for
// deployments where multiple instances serve reads for the same obligations.
type RedisSummaryCache struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisSummaryCache creates a cache with its own Redis client
func NewRedisSummaryCache(cfg *config.RedisConfig) (*RedisSummaryCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisSummaryCache{
		client:    client,
		keyPrefix: summaryKeyPrefix,
	}, nil
}

// NewRedisSummaryCacheWithClient creates a cache over an existing client.
// Useful for testing or when sharing a client across components.
func NewRedisSummaryCacheWithClient(client *redis.Client, keyPrefix string) *RedisSummaryCache {
	if keyPrefix == "" {
		keyPrefix = summaryKeyPrefix
	}
	return &RedisSummaryCache{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Get returns the cached payload and whether the key was present
func (c *RedisSummaryCache) Get(ctx context.Context, obligationID uuid.UUID) ([]byte, bool, error) {
	payload, err := c.client.Get(ctx, c.key(obligationID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read summary cache: %w", err)
	}
	return payload, true, nil
}

// Set stores the payload with a TTL
func (c *RedisSummaryCache) Set(ctx context.Context, obligationID uuid.UUID, payload []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.key(obligationID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write summary cache: %w", err)
	}
	return nil
}

// Invalidate drops the key
func (c *RedisSummaryCache) Invalidate(ctx context.Context, obligationID uuid.UUID) error {
	if err := c.client.Del(ctx, c.key(obligationID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate summary cache: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisSummaryCache) Close() error {
	return c.client.Close()
}

func (c *RedisSummaryCache) key(obligationID uuid.UUID) string {
	return c.keyPrefix + obligationID.String()
}

var _ SummaryCache = (*RedisSummaryCache)(nil)

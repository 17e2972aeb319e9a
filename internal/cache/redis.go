// Package cache stores computed fund performance in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"fund-valuation/internal/domain"
)

// DefaultTTL is used when a non-positive TTL is configured.
const DefaultTTL = 10 * time.Minute

// Cache stores FundPerformance results by key.
type Cache interface {
	// Get returns (nil, false, nil) on a miss.
	Get(ctx context.Context, key string) (*domain.FundPerformance, bool, error)
	Set(ctx context.Context, key string, perf *domain.FundPerformance) error
}

// RedisCache implements Cache on a go-redis client.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient connects to Redis and verifies the connection with PING.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

// NewRedisCache creates a cache over client with the given entry TTL.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

// Key builds the cache key for a calculation. strategy distinguishes results
// produced under different price alignments.
func Key(address string, reference uint32, strategy string) string {
	return fmt.Sprintf("performance:%s:%d:%s", address, reference, strategy)
}

type entry struct {
	FundAddress        string       `json:"fundAddress"`
	ReferenceTimestamp uint32       `json:"referenceTimestamp"`
	Values             []entryValue `json:"values"`
}

type entryValue struct {
	Timestamp uint32          `json:"timestamp"`
	Value     decimal.Decimal `json:"value"`
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, key string) (*domain.FundPerformance, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get cached performance: %w", err)
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached performance: %w", err)
	}

	perf := &domain.FundPerformance{
		FundAddress:        e.FundAddress,
		ReferenceTimestamp: e.ReferenceTimestamp,
		Values:             make([]domain.BucketValue, len(e.Values)),
	}
	for i, v := range e.Values {
		perf.Values[i] = domain.BucketValue{Timestamp: v.Timestamp, Value: v.Value}
	}
	return perf, true, nil
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, key string, perf *domain.FundPerformance) error {
	e := entry{
		FundAddress:        perf.FundAddress,
		ReferenceTimestamp: perf.ReferenceTimestamp,
		Values:             make([]entryValue, len(perf.Values)),
	}
	for i, v := range perf.Values {
		e.Values[i] = entryValue{Timestamp: v.Timestamp, Value: v.Value}
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal performance: %w", err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set cached performance: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

var _ Cache = (*RedisCache)(nil)

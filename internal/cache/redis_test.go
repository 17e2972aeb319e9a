package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"fund-valuation/internal/domain"
)

func setupRedis(t *testing.T) (*RedisCache, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client, err := NewRedisClient(ctx, fmt.Sprintf("%s:%s", host, port.Port()), "", 0)
	require.NoError(t, err)

	c := NewRedisCache(client, time.Minute)
	cleanup := func() {
		_ = c.Close()
		_ = container.Terminate(ctx)
	}
	return c, cleanup
}

func TestKey(t *testing.T) {
	assert.Equal(t, "performance:0xabc:1601316060:nearest", Key("0xabc", 1601316060, "nearest"))
}

func TestRedisCache_SetAndGet(t *testing.T) {
	c, cleanup := setupRedis(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))

	perf := &domain.FundPerformance{
		FundAddress:        "0xfund",
		ReferenceTimestamp: 8210,
		Values: []domain.BucketValue{
			{Timestamp: 1000, Value: decimal.RequireFromString("200")},
			{Timestamp: 4600, Value: decimal.RequireFromString("380.5")},
		},
	}
	key := Key(perf.FundAddress, perf.ReferenceTimestamp, "positional")
	require.NoError(t, c.Set(ctx, key, perf))

	got, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, perf.FundAddress, got.FundAddress)
	assert.Equal(t, perf.ReferenceTimestamp, got.ReferenceTimestamp)
	require.Len(t, got.Values, 2)
	for i := range perf.Values {
		assert.Equal(t, perf.Values[i].Timestamp, got.Values[i].Timestamp)
		assert.True(t, perf.Values[i].Value.Equal(got.Values[i].Value))
	}

	ttl, err := c.client.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestRedisCache_Miss(t *testing.T) {
	c, cleanup := setupRedis(t)
	defer cleanup()

	got, ok, err := c.Get(context.Background(), "performance:none:0:positional")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

package fixtures

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fund-valuation/internal/performance"
	"fund-valuation/internal/storage/memory"
	"fund-valuation/internal/valuation"
)

func loadedService(t *testing.T, opts ...performance.Option) *performance.Service {
	t.Helper()
	funds := memory.NewFundStore()
	allocs := memory.NewAllocationEventStore()
	prices := memory.NewPriceHistoryStore()
	require.NoError(t, LoadFixtures(context.Background(), funds, allocs, prices))
	return performance.NewService(funds, allocs, prices, opts...)
}

func TestLoadFixtures_DemoFund(t *testing.T) {
	svc := loadedService(t)

	perf, err := svc.Calculate(context.Background(), DemoFundAddress, DemoReference)
	require.NoError(t, err)
	require.Len(t, perf.Values, DemoHours)

	// first bucket: 10 ETH at 340 + 5000 DAI at 1.000
	first := perf.Values[0]
	assert.Equal(t, uint32(demoDepositStart), first.Timestamp)
	assert.True(t, first.Value.Equal(decimal.RequireFromString("8400")), "got %s", first.Value)

	for i := 1; i < len(perf.Values); i++ {
		assert.Less(t, perf.Values[i-1].Timestamp, perf.Values[i].Timestamp)
		assert.True(t, perf.Values[i].Value.IsPositive())
	}
}

func TestLoadFixtures_EmptyFund(t *testing.T) {
	svc := loadedService(t)

	_, err := svc.Calculate(context.Background(), EmptyFundAddress, DemoReference)
	assert.ErrorIs(t, err, performance.ErrNoAllocationData)
}

func TestLoadFixtures_NearestAlignment(t *testing.T) {
	svc := loadedService(t, performance.WithAlignment(valuation.NearestPriceAlignment{}))

	perf, err := svc.Calculate(context.Background(), DemoFundAddress, DemoReference)
	require.NoError(t, err)
	require.Len(t, perf.Values, DemoHours)

	// ETH is sampled 17s after the hour, so the first bucket falls back to the
	// earliest ETH row and matches the positional result.
	assert.True(t, perf.Values[0].Value.Equal(decimal.RequireFromString("8400")), "got %s", perf.Values[0].Value)
}

func TestLoadFixtures_Twice(t *testing.T) {
	funds := memory.NewFundStore()
	allocs := memory.NewAllocationEventStore()
	prices := memory.NewPriceHistoryStore()
	ctx := context.Background()

	require.NoError(t, LoadFixtures(ctx, funds, allocs, prices))
	assert.Error(t, LoadFixtures(ctx, funds, allocs, prices))
}

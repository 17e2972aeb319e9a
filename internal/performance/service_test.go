package performance

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fund-valuation/internal/domain"
	"fund-valuation/internal/storage/memory"
	"fund-valuation/internal/valuation"
)

type testStores struct {
	funds  *memory.FundStore
	allocs *memory.AllocationEventStore
	prices *memory.PriceHistoryStore
}

func seededStores(t *testing.T) testStores {
	t.Helper()
	ctx := context.Background()

	s := testStores{
		funds:  memory.NewFundStore(),
		allocs: memory.NewAllocationEventStore(),
		prices: memory.NewPriceHistoryStore(),
	}
	require.NoError(t, s.funds.Insert(ctx, &domain.Fund{ID: 7, Address: "0xfund", DepositStartTimestamp: 1000}))
	require.NoError(t, s.funds.Insert(ctx, &domain.Fund{ID: 8, Address: "0xempty", DepositStartTimestamp: 1000}))
	require.NoError(t, s.allocs.InsertBulk(ctx, []*domain.AllocationEvent{
		{ID: 1, FundID: 7, Symbol: "ETH", Quantity: 2, Timestamp: 900},
		{ID: 2, FundID: 7, Symbol: "ETH", Quantity: 3, Timestamp: 5000},
		{ID: 3, FundID: 7, Symbol: "DAI", Quantity: 50, Timestamp: 5000},
	}))
	require.NoError(t, s.prices.InsertBulk(ctx, []domain.PriceRow{
		{Symbol: "ETH", Timestamp: 120, USDPrice: 110},
		{Symbol: "ETH", Timestamp: 100, USDPrice: 100},
		{Symbol: "DAI", Timestamp: 4600, USDPrice: 1.01},
		{Symbol: "ETH", Timestamp: 140, USDPrice: 120},
	}))
	return s
}

func (s testStores) service(opts ...Option) *Service {
	return NewService(s.funds, s.allocs, s.prices, opts...)
}

func TestService_Calculate(t *testing.T) {
	svc := seededStores(t).service()

	perf, err := svc.Calculate(context.Background(), "0xfund", 1000+3*3600+10)
	require.NoError(t, err)

	assert.Equal(t, "0xfund", perf.FundAddress)
	assert.Equal(t, uint32(1000+3*3600+10), perf.ReferenceTimestamp)

	got := perf.ValuesByTimestamp()
	require.Len(t, got, 3)
	assert.True(t, got[1000].Equal(decimal.RequireFromString("200")), "bucket 1000: %s", got[1000])
	assert.True(t, got[4600].Equal(decimal.RequireFromString("380.5")), "bucket 4600: %s", got[4600])
	assert.True(t, got[8200].Equal(decimal.RequireFromString("360")), "bucket 8200: %s", got[8200])
}

func TestService_Calculate_FundNotFound(t *testing.T) {
	svc := seededStores(t).service()

	_, err := svc.Calculate(context.Background(), "0xmissing", 5000)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFundNotFound), "expected ErrFundNotFound, got %v", err)
}

func TestService_Calculate_NoAllocationData(t *testing.T) {
	svc := seededStores(t).service()

	_, err := svc.Calculate(context.Background(), "0xempty", 5000)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoAllocationData), "expected ErrNoAllocationData, got %v", err)
}

func TestService_Calculate_InvalidAddress(t *testing.T) {
	svc := seededStores(t).service()

	_, err := svc.Calculate(context.Background(), "  ", 5000)
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestService_Calculate_ReferenceBeforeDeposit(t *testing.T) {
	svc := seededStores(t).service()

	perf, err := svc.Calculate(context.Background(), "0xfund", 500)
	require.NoError(t, err)
	assert.Empty(t, perf.Values)
}

func TestService_Calculate_NearestAlignment(t *testing.T) {
	svc := seededStores(t).service(WithAlignment(valuation.NearestPriceAlignment{}))

	perf, err := svc.Calculate(context.Background(), "0xfund", 1000+3*3600+10)
	require.NoError(t, err)

	// every bucket is after the last ETH row (140), so ETH prices at 120.
	got := perf.ValuesByTimestamp()
	require.Len(t, got, 3)
	assert.True(t, got[1000].Equal(decimal.RequireFromString("240")), "bucket 1000: %s", got[1000])
	assert.True(t, got[4600].Equal(decimal.RequireFromString("410.5")), "bucket 4600: %s", got[4600])
	assert.True(t, got[8200].Equal(decimal.RequireFromString("410.5")), "bucket 8200: %s", got[8200])
}

func TestService_Calculate_Logs(t *testing.T) {
	var buf bytes.Buffer
	svc := seededStores(t).service(WithLogger(log.New(&buf, "", 0)))

	_, err := svc.Calculate(context.Background(), "0xfund", 5000)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Calculated 0xfund at 5000")

	buf.Reset()
	_, _ = svc.Calculate(context.Background(), "0xmissing", 5000)
	assert.Contains(t, buf.String(), "Calculation for 0xmissing failed")
}

type failingPrices struct {
	*memory.PriceHistoryStore
}

func (failingPrices) GetAll(context.Context) ([]domain.PriceRow, error) {
	return nil, errors.New("connection reset")
}

func TestService_Calculate_StoreError(t *testing.T) {
	s := seededStores(t)
	svc := NewService(s.funds, s.allocs, failingPrices{s.prices})

	_, err := svc.Calculate(context.Background(), "0xfund", 5000)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get price history")
	assert.False(t, errors.Is(err, ErrFundNotFound))
}

func TestService_AlignmentName(t *testing.T) {
	s := seededStores(t)
	assert.Equal(t, valuation.AlignmentPositional, s.service().AlignmentName())
	assert.Equal(t, valuation.AlignmentNearest, s.service(WithAlignment(valuation.NearestPriceAlignment{})).AlignmentName())
}

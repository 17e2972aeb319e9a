package cache

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fund-valuation/internal/domain"
	"fund-valuation/internal/performance"
)

type mapCache struct {
	mu      sync.Mutex
	entries map[string]*domain.FundPerformance
	getErr  error
	setErr  error
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string]*domain.FundPerformance)}
}

func (m *mapCache) Get(_ context.Context, key string) (*domain.FundPerformance, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	p, ok := m.entries[key]
	return p, ok, nil
}

func (m *mapCache) Set(_ context.Context, key string, perf *domain.FundPerformance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.entries[key] = perf
	return nil
}

type countingCalculator struct {
	calls int
	err   error
}

func (c *countingCalculator) Calculate(_ context.Context, address string, reference uint32) (*domain.FundPerformance, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return &domain.FundPerformance{
		FundAddress:        address,
		ReferenceTimestamp: reference,
		Values:             []domain.BucketValue{{Timestamp: 1000, Value: decimal.RequireFromString("23.45")}},
	}, nil
}

func TestCachedCalculator_MissThenHit(t *testing.T) {
	next := &countingCalculator{}
	c := newMapCache()
	calc := NewCachedCalculator(next, c, "positional", nil)
	ctx := context.Background()

	first, err := calc.Calculate(ctx, "0xfund", 5000)
	require.NoError(t, err)
	second, err := calc.Calculate(ctx, "0xfund", 5000)
	require.NoError(t, err)

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, first, second)
	assert.Contains(t, c.entries, "performance:0xfund:5000:positional")
}

func TestCachedCalculator_KeyIncludesReference(t *testing.T) {
	next := &countingCalculator{}
	calc := NewCachedCalculator(next, newMapCache(), "positional", nil)
	ctx := context.Background()

	_, err := calc.Calculate(ctx, "0xfund", 5000)
	require.NoError(t, err)
	_, err = calc.Calculate(ctx, "0xfund", 8600)
	require.NoError(t, err)

	assert.Equal(t, 2, next.calls)
}

func TestCachedCalculator_ErrorsNotCached(t *testing.T) {
	next := &countingCalculator{err: performance.ErrFundNotFound}
	c := newMapCache()
	calc := NewCachedCalculator(next, c, "positional", nil)

	_, err := calc.Calculate(context.Background(), "0xmissing", 5000)
	assert.ErrorIs(t, err, performance.ErrFundNotFound)
	assert.Empty(t, c.entries)
}

func TestCachedCalculator_CacheFailuresFallThrough(t *testing.T) {
	next := &countingCalculator{}
	c := newMapCache()
	c.getErr = errors.New("connection refused")
	c.setErr = errors.New("connection refused")
	calc := NewCachedCalculator(next, c, "positional", nil)

	perf, err := calc.Calculate(context.Background(), "0xfund", 5000)
	require.NoError(t, err)
	assert.Equal(t, "0xfund", perf.FundAddress)
	assert.Equal(t, 1, next.calls)
}

func TestCachedCalculator_AddressTrimmedForKey(t *testing.T) {
	next := &countingCalculator{}
	c := newMapCache()
	calc := NewCachedCalculator(next, c, "positional", nil)
	ctx := context.Background()

	_, err := calc.Calculate(ctx, "0xfund", 5000)
	require.NoError(t, err)
	perf, err := calc.Calculate(ctx, "  0xfund\t", 5000)
	require.NoError(t, err)

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, "0xfund", perf.FundAddress)
	assert.Len(t, c.entries, 1)
}

package cache

import (
	"context"
	"io"
	"log"
	"strings"

	"fund-valuation/internal/domain"
	"fund-valuation/internal/observability"
	"fund-valuation/internal/performance"
)

// CachedCalculator serves results from a Cache and falls back to the wrapped
// Calculator on a miss. Cache failures are logged and never fail a request.
type CachedCalculator struct {
	next     performance.Calculator
	cache    Cache
	strategy string
	logger   *log.Logger
}

// NewCachedCalculator wraps next. strategy is part of every cache key.
func NewCachedCalculator(next performance.Calculator, c Cache, strategy string, logger *log.Logger) *CachedCalculator {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &CachedCalculator{next: next, cache: c, strategy: strategy, logger: logger}
}

// Calculate implements performance.Calculator.
// The address is trimmed before keying, matching the lookup the service performs.
func (c *CachedCalculator) Calculate(ctx context.Context, address string, reference uint32) (*domain.FundPerformance, error) {
	address = strings.TrimSpace(address)
	key := Key(address, reference, c.strategy)

	perf, ok, err := c.cache.Get(ctx, key)
	switch {
	case err != nil:
		observability.RecordCacheResult(observability.CacheError)
		c.logger.Printf("Cache get %s failed: %v", key, err)
	case ok:
		observability.RecordCacheResult(observability.CacheHit)
		return perf, nil
	default:
		observability.RecordCacheResult(observability.CacheMiss)
	}

	perf, err = c.next.Calculate(ctx, address, reference)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, perf); err != nil {
		observability.RecordCacheResult(observability.CacheError)
		c.logger.Printf("Cache set %s failed: %v", key, err)
	}
	return perf, nil
}

var _ performance.Calculator = (*CachedCalculator)(nil)

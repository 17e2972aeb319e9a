// Package performance computes a fund's historical USD valuation from stored
// allocations and price history.
package performance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"fund-valuation/internal/domain"
	"fund-valuation/internal/observability"
	"fund-valuation/internal/storage"
	"fund-valuation/internal/valuation"
)

// Errors returned by Calculate.
var (
	ErrFundNotFound     = errors.New("fund not found")
	ErrNoAllocationData = valuation.ErrNoAllocationData
	ErrInvalidAddress   = errors.New("invalid fund address")
)

// Calculator computes the performance of one fund up to a reference time.
type Calculator interface {
	Calculate(ctx context.Context, address string, reference uint32) (*domain.FundPerformance, error)
}

// Service implements Calculator on top of the fund, allocation and price stores.
// It holds no per-calculation state and is safe for concurrent use.
type Service struct {
	funds     storage.FundStore
	allocs    storage.AllocationEventStore
	prices    storage.PriceHistoryStore
	alignment valuation.AlignmentStrategy
	interval  uint32
	logger    *log.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithAlignment sets the price alignment strategy.
func WithAlignment(a valuation.AlignmentStrategy) Option {
	return func(s *Service) {
		if a != nil {
			s.alignment = a
		}
	}
}

// WithInterval sets the bucket width in seconds.
func WithInterval(seconds uint32) Option {
	return func(s *Service) {
		if seconds > 0 {
			s.interval = seconds
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a new performance service.
func NewService(
	funds storage.FundStore,
	allocs storage.AllocationEventStore,
	prices storage.PriceHistoryStore,
	opts ...Option,
) *Service {
	s := &Service{
		funds:     funds,
		allocs:    allocs,
		prices:    prices,
		alignment: valuation.PositionalAlignment{Symbol: valuation.DefaultAlignmentSymbol},
		interval:  valuation.HourlyInterval,
		logger:    log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AlignmentName returns the name of the configured alignment strategy.
func (s *Service) AlignmentName() string {
	return s.alignment.Name()
}

// Calculate returns the hourly valuation of the fund at address from its
// deposit start up to reference (Unix seconds).
func (s *Service) Calculate(ctx context.Context, address string, reference uint32) (*domain.FundPerformance, error) {
	start := time.Now()

	perf, res, err := s.calculate(ctx, address, reference)

	status := observability.StatusSuccess
	switch {
	case errors.Is(err, ErrFundNotFound):
		status = observability.StatusNotFound
	case errors.Is(err, ErrNoAllocationData):
		status = observability.StatusNoData
	case err != nil:
		status = observability.StatusError
	}

	var buckets, values int
	if res != nil {
		buckets, values = res.Buckets, len(res.Values)
	}
	observability.RecordCalculation(status, time.Since(start).Seconds(), buckets, values)

	if err != nil {
		s.logger.Printf("Calculation for %s failed after %v: %v", address, time.Since(start), err)
		return nil, err
	}

	s.logger.Printf("Calculated %s at %d: %d buckets, %d snapshots, %d price rows, %d values in %v",
		address, reference, res.Buckets, res.Snapshots, res.PriceRows, len(res.Values), time.Since(start))
	return perf, nil
}

func (s *Service) calculate(ctx context.Context, address string, reference uint32) (*domain.FundPerformance, *valuation.Result, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, nil, ErrInvalidAddress
	}

	fund, err := s.funds.GetByAddress(ctx, address)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: %s", ErrFundNotFound, address)
		}
		return nil, nil, fmt.Errorf("get fund: %w", err)
	}

	// The two reads are independent; both must finish before valuation.
	var (
		events []*domain.AllocationEvent
		prices []domain.PriceRow
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		events, err = s.allocs.GetByFundID(gctx, fund.ID)
		if err != nil {
			return fmt.Errorf("get allocation events: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		prices, err = s.prices.GetAll(gctx)
		if err != nil {
			return fmt.Errorf("get price history: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	res, err := valuation.Compute(valuation.Input{
		Fund:      fund,
		Events:    events,
		Prices:    prices,
		Reference: reference,
		Interval:  s.interval,
		Alignment: s.alignment,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("value fund %s: %w", address, err)
	}

	return &domain.FundPerformance{
		FundAddress:        fund.Address,
		ReferenceTimestamp: reference,
		Values:             res.Values,
	}, res, nil
}

var _ Calculator = (*Service)(nil)

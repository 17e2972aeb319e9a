package valuation

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"fund-valuation/internal/domain"
	"fund-valuation/internal/lookup"
)

var (
	// ErrNoAllocationData is returned when a fund has no allocation snapshots to match.
	ErrNoAllocationData = errors.New("no allocation data")
	// ErrNonFiniteValue is returned when a bucket total is NaN or infinite,
	// from a non-finite price or a product that overflows float64.
	ErrNonFiniteValue = errors.New("non-finite bucket value")
)

// valuePlaces is the number of decimal places kept in bucket values.
const valuePlaces = 2

// priceGroup holds the rows sharing one timestamp, in input order.
type priceGroup struct {
	rows []domain.PriceRow
}

// find returns the first row for symbol.
func (g *priceGroup) find(symbol string) (domain.PriceRow, bool) {
	for _, r := range g.rows {
		if r.Symbol == symbol {
			return r, true
		}
	}
	return domain.PriceRow{}, false
}

// groupByTimestamp groups rows by timestamp, preserving input order inside each group.
func groupByTimestamp(rows []domain.PriceRow) map[uint32]*priceGroup {
	groups := make(map[uint32]*priceGroup)
	for _, r := range rows {
		g, ok := groups[r.Timestamp]
		if !ok {
			g = &priceGroup{}
			groups[r.Timestamp] = g
		}
		g.rows = append(g.rows, r)
	}
	return groups
}

// Valuate computes one value per bucket.
//
// assignment[i] is the index into snapshots matched to buckets[i]. Buckets are
// visited in the given order; buckets with no price row at exactly their
// timestamp are skipped. Holdings without a price in the bucket contribute
// nothing. Totals are rounded half away from zero to 2 decimal places.
// A NaN or infinite total fails the whole valuation with ErrNonFiniteValue.
func Valuate(
	buckets []uint32,
	snapshots []domain.AllocationSnapshot,
	assignment []int,
	rows []domain.PriceRow,
) ([]domain.BucketValue, error) {
	groups := groupByTimestamp(rows)

	values := make([]domain.BucketValue, 0, len(buckets))
	for i, b := range buckets {
		g, ok := groups[b]
		if !ok {
			continue
		}
		if i >= len(assignment) || assignment[i] < 0 || assignment[i] >= len(snapshots) {
			continue
		}

		var total float64
		for _, h := range snapshots[assignment[i]].Holdings {
			if p, found := g.find(h.Symbol); found {
				total += float64(h.Quantity) * p.USDPrice
			}
		}
		if math.IsNaN(total) || math.IsInf(total, 0) {
			return nil, fmt.Errorf("value bucket %d: %w", b, ErrNonFiniteValue)
		}

		values = append(values, domain.BucketValue{
			Timestamp: b,
			Value:     roundValue(total),
		})
	}

	return values, nil
}

// roundValue rounds a finite USD total to valuePlaces.
func roundValue(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(valuePlaces)
}

// Input is everything needed to value one fund.
type Input struct {
	Fund      *domain.Fund
	Events    []*domain.AllocationEvent
	Prices    []domain.PriceRow
	Reference uint32 // Unix seconds; buckets end before this time
	Interval  uint32 // bucket width; zero means HourlyInterval
	Alignment AlignmentStrategy
}

// Result carries the values plus intermediate counts useful for logging.
type Result struct {
	Values    []domain.BucketValue
	Buckets   int
	Snapshots int
	PriceRows int // rows after alignment
}

// Compute runs the full valuation: buckets, snapshot matching, price alignment
// and aggregation. It returns ErrNoAllocationData when events is empty.
func Compute(in Input) (*Result, error) {
	if in.Fund == nil {
		return nil, fmt.Errorf("compute valuation: fund is required")
	}

	interval := in.Interval
	if interval == 0 {
		interval = HourlyInterval
	}
	alignment := in.Alignment
	if alignment == nil {
		alignment = PositionalAlignment{Symbol: DefaultAlignmentSymbol}
	}

	snapshots := IndexAllocations(in.Events)
	if len(snapshots) == 0 {
		return nil, ErrNoAllocationData
	}

	buckets := BucketTimestamps(in.Fund.DepositStartTimestamp, in.Reference, interval)

	assignment, err := lookup.MatchNearest(buckets, SnapshotTimestamps(snapshots))
	if err != nil {
		if errors.Is(err, lookup.ErrEmptyCandidateSet) {
			return nil, ErrNoAllocationData
		}
		return nil, err
	}

	aligned := alignment.Align(in.Prices, buckets)

	values, err := Valuate(buckets, snapshots, assignment, aligned)
	if err != nil {
		return nil, err
	}

	return &Result{
		Values:    values,
		Buckets:   len(buckets),
		Snapshots: len(snapshots),
		PriceRows: len(aligned),
	}, nil
}

package valuation

import (
	"fmt"
	"sort"
	"strings"

	"fund-valuation/internal/domain"
	"fund-valuation/internal/lookup"
)

// Alignment strategy names accepted by ParseAlignment.
const (
	AlignmentPositional = "positional"
	AlignmentNearest    = "nearest"
)

// DefaultAlignmentSymbol is the only symbol the positional strategy relabels by default.
const DefaultAlignmentSymbol = "ETH"

// AlignmentStrategy rewrites price rows so that rows meant for a bucket carry
// exactly that bucket's timestamp. The valuator joins on timestamp equality.
// Implementations must not modify rows.
type AlignmentStrategy interface {
	Name() string
	Align(rows []domain.PriceRow, buckets []uint32) []domain.PriceRow
}

// PositionalAlignment relabels the rows of a single symbol with bucket timestamps.
//
// Rows of Symbol are ordered by original timestamp; the i-th of them gets the
// i-th bucket timestamp. Rows beyond the bucket count keep their timestamps, as
// do all rows of other symbols, which therefore only join a bucket when their
// recorded time already equals it.
type PositionalAlignment struct {
	Symbol string
}

// Name returns AlignmentPositional.
func (a PositionalAlignment) Name() string { return AlignmentPositional }

// Align implements AlignmentStrategy.
func (a PositionalAlignment) Align(rows []domain.PriceRow, buckets []uint32) []domain.PriceRow {
	out := make([]domain.PriceRow, len(rows))
	copy(out, rows)

	var idx []int
	for i, r := range out {
		if r.Symbol == a.Symbol {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return out[idx[i]].Timestamp < out[idx[j]].Timestamp
	})

	for i := 0; i < len(idx) && i < len(buckets); i++ {
		out[idx[i]].Timestamp = buckets[i]
	}

	return out
}

// NearestPriceAlignment prices every symbol at every bucket.
//
// For each symbol (in first-seen order) and each bucket it emits one row at the
// bucket timestamp carrying the latest price recorded at or before the bucket,
// or the earliest price when none precedes it.
type NearestPriceAlignment struct{}

// Name returns AlignmentNearest.
func (NearestPriceAlignment) Name() string { return AlignmentNearest }

// Align implements AlignmentStrategy.
func (NearestPriceAlignment) Align(rows []domain.PriceRow, buckets []uint32) []domain.PriceRow {
	var symbols []string
	bySymbol := make(map[string][]domain.PriceRow)
	for _, r := range rows {
		if _, ok := bySymbol[r.Symbol]; !ok {
			symbols = append(symbols, r.Symbol)
		}
		bySymbol[r.Symbol] = append(bySymbol[r.Symbol], r)
	}

	out := make([]domain.PriceRow, 0, len(symbols)*len(buckets))
	for _, sym := range symbols {
		series := bySymbol[sym]
		sort.SliceStable(series, func(i, j int) bool {
			return series[i].Timestamp < series[j].Timestamp
		})
		for _, b := range buckets {
			r, err := lookup.PriceAt(b, series)
			if err != nil {
				continue
			}
			out = append(out, domain.PriceRow{Symbol: sym, Timestamp: b, USDPrice: r.USDPrice})
		}
	}

	return out
}

// ParseAlignment returns the strategy registered under name.
// symbol is used by the positional strategy; empty means DefaultAlignmentSymbol.
func ParseAlignment(name, symbol string) (AlignmentStrategy, error) {
	if symbol == "" {
		symbol = DefaultAlignmentSymbol
	}

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", AlignmentPositional:
		return PositionalAlignment{Symbol: symbol}, nil
	case AlignmentNearest:
		return NearestPriceAlignment{}, nil
	default:
		return nil, fmt.Errorf("unknown alignment strategy %q", name)
	}
}

package lookup

import (
	"errors"

	"fund-valuation/internal/domain"
)

// Errors returned by lookup functions.
var (
	ErrEmptyCandidateSet = errors.New("empty candidate set")
	ErrNoPriceData       = errors.New("no price data available")
)

// Distance returns |a - b| for two Unix-second timestamps.
// Both operands are widened to int64 before subtracting, so a > b and a < b
// are symmetric and never wrap.
func Distance(a, b uint32) int64 {
	d := int64(a) - int64(b)
	if d < 0 {
		return -d
	}
	return d
}

// NearestIndex returns the index of the candidate closest to query.
// On a tie the lowest index wins.
// Returns ErrEmptyCandidateSet if candidates is empty.
func NearestIndex(query uint32, candidates []uint32) (int, error) {
	if len(candidates) == 0 {
		return 0, ErrEmptyCandidateSet
	}

	best := 0
	bestDist := Distance(query, candidates[0])
	for j := 1; j < len(candidates); j++ {
		// strict less-than keeps the first index on ties
		if d := Distance(query, candidates[j]); d < bestDist {
			best = j
			bestDist = d
		}
	}
	return best, nil
}

// MatchNearest maps every query timestamp to the index of its nearest candidate.
// result[i] is the candidate index for queries[i].
func MatchNearest(queries, candidates []uint32) ([]int, error) {
	if len(candidates) == 0 {
		return nil, ErrEmptyCandidateSet
	}

	result := make([]int, len(queries))
	for i, q := range queries {
		idx, err := NearestIndex(q, candidates)
		if err != nil {
			return nil, err
		}
		result[i] = idx
	}
	return result, nil
}

// PriceAt returns the price row at or before target.
// rows must be sorted by timestamp ascending.
// If no row precedes target, the first row is returned.
// Returns ErrNoPriceData if rows is empty.
func PriceAt(target uint32, rows []domain.PriceRow) (domain.PriceRow, error) {
	if len(rows) == 0 {
		return domain.PriceRow{}, ErrNoPriceData
	}

	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].Timestamp <= target {
			return rows[i], nil
		}
	}

	return rows[0], nil
}

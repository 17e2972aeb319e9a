package domain

import "github.com/shopspring/decimal"

// BucketValue is the fund valuation for one hourly bucket.
type BucketValue struct {
	Timestamp uint32          // bucket start, Unix seconds
	Value     decimal.Decimal // USD, rounded to 2 decimal places
}

// FundPerformance is the valuation timeline of a fund.
// Values are ordered by ascending bucket timestamp, one entry per bucket at most.
type FundPerformance struct {
	FundAddress        string
	ReferenceTimestamp uint32
	Values             []BucketValue
}

// ValuesByTimestamp returns the valuation keyed by bucket timestamp.
func (p *FundPerformance) ValuesByTimestamp() map[uint32]decimal.Decimal {
	m := make(map[uint32]decimal.Decimal, len(p.Values))
	for _, v := range p.Values {
		m[v.Timestamp] = v.Value
	}
	return m
}

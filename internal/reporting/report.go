// Package reporting renders fund performance as Markdown and CSV reports.
package reporting

import (
	"time"

	"github.com/shopspring/decimal"

	"fund-valuation/internal/domain"
	"fund-valuation/internal/idhash"
)

// Report represents a rendered view of one fund performance result.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	FundAddress string
	Reference   uint32
	Alignment   string
	ResultHash  string

	Summary Summary

	// Values in bucket order
	Rows []domain.BucketValue
}

// Summary contains aggregate figures over the valued buckets.
// All fields are zero when no bucket was valued.
type Summary struct {
	Buckets        int
	FirstTimestamp uint32
	LastTimestamp  uint32
	StartValue     decimal.Decimal
	EndValue       decimal.Decimal
	MinValue       decimal.Decimal
	MaxValue       decimal.Decimal
	Change         decimal.Decimal // EndValue - StartValue
	ChangePct      decimal.Decimal // Change / StartValue * 100, 0 if StartValue == 0
	MaxDrawdownPct decimal.Decimal // largest peak-to-trough decline in percent
}

// pctPlaces is the precision of percentage figures.
const pctPlaces = 2

var hundred = decimal.NewFromInt(100)

// BuildReport summarizes perf. generatedAt is passed in so output is reproducible.
func BuildReport(perf *domain.FundPerformance, alignment string, generatedAt time.Time) *Report {
	r := &Report{
		GeneratedAt: generatedAt,
		FundAddress: perf.FundAddress,
		Reference:   perf.ReferenceTimestamp,
		Alignment:   alignment,
		ResultHash:  idhash.ComputeResultHash(perf),
		Rows:        append([]domain.BucketValue(nil), perf.Values...),
		Summary:     summarize(perf.Values),
	}
	return r
}

func summarize(values []domain.BucketValue) Summary {
	var s Summary
	if len(values) == 0 {
		return s
	}

	first, last := values[0], values[len(values)-1]
	s.Buckets = len(values)
	s.FirstTimestamp = first.Timestamp
	s.LastTimestamp = last.Timestamp
	s.StartValue = first.Value
	s.EndValue = last.Value
	s.MinValue = first.Value
	s.MaxValue = first.Value
	s.Change = last.Value.Sub(first.Value)
	if !first.Value.IsZero() {
		s.ChangePct = s.Change.Div(first.Value).Mul(hundred).Round(pctPlaces)
	}

	peak := first.Value
	for _, v := range values {
		if v.Value.LessThan(s.MinValue) {
			s.MinValue = v.Value
		}
		if v.Value.GreaterThan(s.MaxValue) {
			s.MaxValue = v.Value
		}
		if v.Value.GreaterThan(peak) {
			peak = v.Value
		}
		if peak.IsPositive() {
			dd := peak.Sub(v.Value).Div(peak).Mul(hundred)
			if dd.GreaterThan(s.MaxDrawdownPct) {
				s.MaxDrawdownPct = dd
			}
		}
	}
	s.MaxDrawdownPct = s.MaxDrawdownPct.Round(pctPlaces)

	return s
}

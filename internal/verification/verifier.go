// Package verification checks that fund performance calculations are
// replayable: recomputing the same (fund, reference) must give identical output.
package verification

import (
	"context"
	"fmt"

	"fund-valuation/internal/domain"
	"fund-valuation/internal/idhash"
	"fund-valuation/internal/performance"
)

// Divergence represents a mismatch between two runs of the same calculation.
type Divergence struct {
	Field    string // "FundAddress", "ReferenceTimestamp", "Length" or "Value@<ts>"
	Expected string // first run
	Actual   string // second run
}

// VerificationResult contains the result of verifying one calculation.
type VerificationResult struct {
	FundAddress string
	Reference   uint32
	Match       bool
	Divergences []Divergence
	Hash        string // fingerprint of the first run
	ReplayHash  string // fingerprint of the second run
	Err         error  // set when either run failed
}

// VerificationReport contains results for batch verification.
type VerificationReport struct {
	Total     int
	Matched   int
	Divergent int
	Results   []VerificationResult
}

// Request identifies one calculation to verify.
type Request struct {
	FundAddress string
	Reference   uint32
}

// Verifier runs every calculation twice through a Calculator and compares.
type Verifier struct {
	calc performance.Calculator
}

// NewVerifier creates a new Verifier. calc must not cache results.
func NewVerifier(calc performance.Calculator) *Verifier {
	return &Verifier{calc: calc}
}

// Verify recomputes one calculation and compares both runs.
// Calculation errors are reported in the result, not returned.
func (v *Verifier) Verify(ctx context.Context, req Request) VerificationResult {
	res := VerificationResult{FundAddress: req.FundAddress, Reference: req.Reference}

	first, err := v.calc.Calculate(ctx, req.FundAddress, req.Reference)
	if err != nil {
		res.Err = fmt.Errorf("first run: %w", err)
		return res
	}
	second, err := v.calc.Calculate(ctx, req.FundAddress, req.Reference)
	if err != nil {
		res.Err = fmt.Errorf("replay: %w", err)
		return res
	}

	res.Hash = idhash.ComputeResultHash(first)
	res.ReplayHash = idhash.ComputeResultHash(second)
	res.Divergences = CompareResults(first, second)
	res.Match = len(res.Divergences) == 0 && res.Hash == res.ReplayHash
	return res
}

// VerifyAll verifies every request in order.
func (v *Verifier) VerifyAll(ctx context.Context, reqs []Request) *VerificationReport {
	report := &VerificationReport{
		Total:   len(reqs),
		Results: make([]VerificationResult, 0, len(reqs)),
	}

	for _, req := range reqs {
		res := v.Verify(ctx, req)
		report.Results = append(report.Results, res)
		if res.Match {
			report.Matched++
		} else {
			report.Divergent++
		}
	}

	return report
}

// CompareResults compares two results bucket by bucket and returns divergences.
// Values compare as amounts, so 380.5 equals 380.50.
func CompareResults(expected, actual *domain.FundPerformance) []Divergence {
	var divergences []Divergence

	if expected.FundAddress != actual.FundAddress {
		divergences = append(divergences, Divergence{
			Field:    "FundAddress",
			Expected: expected.FundAddress,
			Actual:   actual.FundAddress,
		})
	}

	if expected.ReferenceTimestamp != actual.ReferenceTimestamp {
		divergences = append(divergences, Divergence{
			Field:    "ReferenceTimestamp",
			Expected: fmt.Sprint(expected.ReferenceTimestamp),
			Actual:   fmt.Sprint(actual.ReferenceTimestamp),
		})
	}

	if len(expected.Values) != len(actual.Values) {
		divergences = append(divergences, Divergence{
			Field:    "Length",
			Expected: fmt.Sprint(len(expected.Values)),
			Actual:   fmt.Sprint(len(actual.Values)),
		})
	}

	n := min(len(expected.Values), len(actual.Values))
	for i := 0; i < n; i++ {
		e, a := expected.Values[i], actual.Values[i]
		if e.Timestamp != a.Timestamp {
			divergences = append(divergences, Divergence{
				Field:    fmt.Sprintf("Timestamp[%d]", i),
				Expected: fmt.Sprint(e.Timestamp),
				Actual:   fmt.Sprint(a.Timestamp),
			})
			continue
		}
		if !e.Value.Equal(a.Value) {
			divergences = append(divergences, Divergence{
				Field:    fmt.Sprintf("Value@%d", e.Timestamp),
				Expected: e.Value.String(),
				Actual:   a.Value.String(),
			})
		}
	}

	return divergences
}

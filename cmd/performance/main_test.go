package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"fund-valuation/internal/domain"
	"fund-valuation/internal/verification"
)

func samplePerformance() *domain.FundPerformance {
	return &domain.FundPerformance{
		FundAddress:        "0xfund",
		ReferenceTimestamp: 8210,
		Values: []domain.BucketValue{
			{Timestamp: 1000, Value: decimal.RequireFromString("200")},
			{Timestamp: 4600, Value: decimal.RequireFromString("380.5")},
		},
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, samplePerformance()); err != nil {
		t.Fatalf("writeJSON failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{`"fundAddress": "0xfund"`, `"referenceTimestamp": 8210`, `"1000": "200"`, `"4600": "380.5"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %s, got:\n%s", want, out)
		}
	}
}

func TestPrintVerification(t *testing.T) {
	var buf bytes.Buffer
	ok := printVerification(&buf, verification.VerificationResult{FundAddress: "0xfund", Reference: 10, Match: true, Hash: "abc"})
	if !ok || buf.String() != "OK 0xfund at 10 sha256=abc\n" {
		t.Errorf("unexpected output %q (ok=%v)", buf.String(), ok)
	}

	buf.Reset()
	ok = printVerification(&buf, verification.VerificationResult{
		FundAddress: "0xfund",
		Reference:   10,
		Divergences: []verification.Divergence{{Field: "Value@1000", Expected: "1", Actual: "2"}},
	})
	if ok || !strings.Contains(buf.String(), "Value@1000: 1 != 2") {
		t.Errorf("unexpected output %q (ok=%v)", buf.String(), ok)
	}
}

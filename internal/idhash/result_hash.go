package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"fund-valuation/internal/domain"
)

// ComputeResultHash computes a deterministic fingerprint of a performance result.
// Formula: SHA256(fund_address|reference_timestamp|ts1=value1|ts2=value2|...)
// with values in bucket order and printed at two decimals.
// Returns hex-encoded hash (64 characters).
func ComputeResultHash(perf *domain.FundPerformance) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%d", perf.FundAddress, perf.ReferenceTimestamp)
	for _, v := range perf.Values {
		fmt.Fprintf(&b, "|%d=%s", v.Timestamp, v.Value.StringFixed(2))
	}

	hash := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(hash[:])
}

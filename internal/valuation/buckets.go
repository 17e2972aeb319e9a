// Package valuation reconstructs a fund's USD value over hourly buckets from
// allocation snapshots and token price history.
//
// Everything in this package is pure: inputs are fully materialized slices,
// outputs depend only on inputs, and no function reads a clock.
package valuation

// HourlyInterval is the bucket width in seconds.
const HourlyInterval uint32 = 3600

// BucketTimestamps returns the bucket start times from depositStart up to reference.
//
// count = floor((reference - depositStart) / interval), computed in int64 and
// clamped at zero, so a reference earlier than depositStart yields no buckets.
// The i-th bucket is depositStart + i*interval.
func BucketTimestamps(depositStart, reference, interval uint32) []uint32 {
	if interval == 0 {
		return nil
	}

	diff := int64(reference) - int64(depositStart)
	if diff <= 0 {
		return nil
	}

	count := diff / int64(interval)
	buckets := make([]uint32, 0, count)
	for i := int64(0); i < count; i++ {
		buckets = append(buckets, uint32(int64(depositStart)+i*int64(interval)))
	}
	return buckets
}

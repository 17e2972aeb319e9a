package valuation

import (
	"sort"

	"fund-valuation/internal/domain"
)

// IndexAllocations groups allocation events into one snapshot per distinct timestamp.
//
// Grouping is by timestamp only: two events for the same symbol at the same
// timestamp stay separate holdings. Snapshots are ordered newest first and
// holdings keep the relative order of their events. events is not modified.
func IndexAllocations(events []*domain.AllocationEvent) []domain.AllocationSnapshot {
	if len(events) == 0 {
		return nil
	}

	sorted := make([]*domain.AllocationEvent, 0, len(events))
	for _, e := range events {
		if e != nil {
			sorted = append(sorted, e)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp > sorted[j].Timestamp
	})

	var snapshots []domain.AllocationSnapshot
	for _, e := range sorted {
		n := len(snapshots)
		if n == 0 || snapshots[n-1].Timestamp != e.Timestamp {
			snapshots = append(snapshots, domain.AllocationSnapshot{Timestamp: e.Timestamp})
			n++
		}
		snapshots[n-1].Holdings = append(snapshots[n-1].Holdings, domain.TokenQuantity{
			Symbol:   e.Symbol,
			Quantity: e.Quantity,
		})
	}

	return snapshots
}

// SnapshotTimestamps returns the timestamps of snapshots in the same order.
func SnapshotTimestamps(snapshots []domain.AllocationSnapshot) []uint32 {
	ts := make([]uint32, len(snapshots))
	for i, s := range snapshots {
		ts[i] = s.Timestamp
	}
	return ts
}

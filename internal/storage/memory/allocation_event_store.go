package memory

import (
	"context"
	"sort"
	"sync"

	"fund-valuation/internal/domain"
	"fund-valuation/internal/storage"
)

// AllocationEventStore is an in-memory implementation of storage.AllocationEventStore.
type AllocationEventStore struct {
	mu   sync.RWMutex
	data map[int64]*domain.AllocationEvent // keyed by event id
}

// NewAllocationEventStore creates a new in-memory allocation event store.
func NewAllocationEventStore() *AllocationEventStore {
	return &AllocationEventStore{
		data: make(map[int64]*domain.AllocationEvent),
	}
}

// InsertBulk adds multiple events. Fails entire batch on duplicate id.
func (s *AllocationEventStore) InsertBulk(_ context.Context, events []*domain.AllocationEvent) error {
	if len(events) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[int64]struct{}, len(events))

	// First pass: validate and check duplicates (existing + intra-batch)
	for _, e := range events {
		if e == nil || e.Symbol == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[e.ID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[e.ID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[e.ID] = struct{}{}
	}

	// Second pass: insert all
	for _, e := range events {
		eventCopy := *e
		s.data[e.ID] = &eventCopy
	}

	return nil
}

// GetByFundID retrieves all events for a fund, ordered by timestamp DESC, id ASC.
func (s *AllocationEventStore) GetByFundID(_ context.Context, fundID int64) ([]*domain.AllocationEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.AllocationEvent
	for _, e := range s.data {
		if e.FundID == fundID {
			eventCopy := *e
			result = append(result, &eventCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Timestamp != result[j].Timestamp {
			return result[i].Timestamp > result[j].Timestamp
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

var _ storage.AllocationEventStore = (*AllocationEventStore)(nil)

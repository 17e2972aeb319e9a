package memory

import (
	"context"
	"sync"

	"fund-valuation/internal/domain"
	"fund-valuation/internal/storage"
)

// FundStore is an in-memory implementation of storage.FundStore.
type FundStore struct {
	mu        sync.RWMutex
	byID      map[int64]*domain.Fund  // keyed by id
	byAddress map[string]*domain.Fund // keyed by address (unique)
}

// NewFundStore creates a new in-memory fund store.
func NewFundStore() *FundStore {
	return &FundStore{
		byID:      make(map[int64]*domain.Fund),
		byAddress: make(map[string]*domain.Fund),
	}
}

// Insert adds a new fund. Returns ErrDuplicateKey if id or address already exists.
func (s *FundStore) Insert(_ context.Context, f *domain.Fund) error {
	if f == nil || f.Address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[f.ID]; exists {
		return storage.ErrDuplicateKey
	}
	if _, exists := s.byAddress[f.Address]; exists {
		return storage.ErrDuplicateKey
	}

	fundCopy := *f
	s.byID[f.ID] = &fundCopy
	s.byAddress[f.Address] = &fundCopy
	return nil
}

// GetByID retrieves a fund by ID. Returns ErrNotFound if not exists.
func (s *FundStore) GetByID(_ context.Context, id int64) (*domain.Fund, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, exists := s.byID[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	fundCopy := *f
	return &fundCopy, nil
}

// GetByAddress retrieves a fund by address. Returns ErrNotFound if not exists.
func (s *FundStore) GetByAddress(_ context.Context, address string) (*domain.Fund, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, exists := s.byAddress[address]
	if !exists {
		return nil, storage.ErrNotFound
	}

	fundCopy := *f
	return &fundCopy, nil
}

var _ storage.FundStore = (*FundStore)(nil)

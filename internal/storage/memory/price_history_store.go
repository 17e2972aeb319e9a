package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"fund-valuation/internal/domain"
	"fund-valuation/internal/storage"
)

// PriceHistoryStore is an in-memory implementation of storage.PriceHistoryStore.
type PriceHistoryStore struct {
	mu   sync.RWMutex
	data map[string]domain.PriceRow // keyed by (symbol, timestamp)
}

// NewPriceHistoryStore creates a new in-memory price history store.
func NewPriceHistoryStore() *PriceHistoryStore {
	return &PriceHistoryStore{
		data: make(map[string]domain.PriceRow),
	}
}

// priceKey generates a unique key for a price row.
func priceKey(symbol string, timestamp uint32) string {
	return fmt.Sprintf("%s|%d", symbol, timestamp)
}

// InsertBulk adds multiple rows. Fails entire batch on duplicate, and with
// ErrInvalidInput on an empty symbol or a NaN or infinite price.
func (s *PriceHistoryStore) InsertBulk(_ context.Context, rows []domain.PriceRow) error {
	if len(rows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(rows))

	for _, r := range rows {
		if r.Symbol == "" || math.IsNaN(r.USDPrice) || math.IsInf(r.USDPrice, 0) {
			return storage.ErrInvalidInput
		}
		key := priceKey(r.Symbol, r.Timestamp)

		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, r := range rows {
		s.data[priceKey(r.Symbol, r.Timestamp)] = r
	}

	return nil
}

// GetAll retrieves every row, ordered by timestamp ASC, symbol ASC.
func (s *PriceHistoryStore) GetAll(_ context.Context) ([]domain.PriceRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.PriceRow, 0, len(s.data))
	for _, r := range s.data {
		result = append(result, r)
	}

	sortPriceRows(result)
	return result, nil
}

// GetBySymbol retrieves all rows for a symbol, ordered by timestamp ASC.
func (s *PriceHistoryStore) GetBySymbol(_ context.Context, symbol string) ([]domain.PriceRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.PriceRow
	for _, r := range s.data {
		if r.Symbol == symbol {
			result = append(result, r)
		}
	}

	sortPriceRows(result)
	return result, nil
}

func sortPriceRows(rows []domain.PriceRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Timestamp != rows[j].Timestamp {
			return rows[i].Timestamp < rows[j].Timestamp
		}
		return rows[i].Symbol < rows[j].Symbol
	})
}

var _ storage.PriceHistoryStore = (*PriceHistoryStore)(nil)

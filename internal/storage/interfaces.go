package storage

import (
	"context"
	"errors"

	"fund-valuation/internal/domain"
)

// Errors returned by every store implementation.
var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrInvalidInput covers nil records and references to missing parents.
	ErrInvalidInput = errors.New("invalid input")
)

// FundStore provides access to funds storage.
type FundStore interface {
	// Insert adds a new fund. Returns ErrDuplicateKey if id or address exists.
	Insert(ctx context.Context, f *domain.Fund) error

	// GetByID retrieves a fund by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id int64) (*domain.Fund, error)

	// GetByAddress retrieves a fund by its on-chain address. Returns ErrNotFound if not exists.
	GetByAddress(ctx context.Context, address string) (*domain.Fund, error)
}

// AllocationEventStore provides access to fund_tokens storage.
type AllocationEventStore interface {
	// InsertBulk adds multiple events atomically. Fails entire batch on any duplicate id.
	InsertBulk(ctx context.Context, events []*domain.AllocationEvent) error

	// GetByFundID retrieves all events for a fund, ordered by timestamp DESC, id ASC.
	GetByFundID(ctx context.Context, fundID int64) ([]*domain.AllocationEvent, error)
}

// PriceHistoryStore provides access to token_price_history storage.
type PriceHistoryStore interface {
	// InsertBulk adds multiple rows. Fails entire batch on duplicate (symbol, timestamp).
	InsertBulk(ctx context.Context, rows []domain.PriceRow) error

	// GetAll retrieves every row across all symbols, ordered by timestamp ASC, symbol ASC.
	GetAll(ctx context.Context) ([]domain.PriceRow, error)

	// GetBySymbol retrieves all rows for a symbol, ordered by timestamp ASC.
	GetBySymbol(ctx context.Context, symbol string) ([]domain.PriceRow, error)
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"fund-valuation/internal/domain"
	"fund-valuation/internal/storage"
)

// FundStore implements storage.FundStore using PostgreSQL.
type FundStore struct {
	pool *Pool
}

// NewFundStore creates a new FundStore.
func NewFundStore(pool *Pool) *FundStore {
	return &FundStore{pool: pool}
}

// Compile-time interface check.
var _ storage.FundStore = (*FundStore)(nil)

// Insert adds a new fund. Returns ErrDuplicateKey if id or fund_address exists.
func (s *FundStore) Insert(ctx context.Context, f *domain.Fund) error {
	if f == nil || f.Address == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO funds (id, fund_address, deposit_start_timestamp)
		VALUES ($1, $2, $3)
	`

	_, err := s.pool.Exec(ctx, query, f.ID, f.Address, int64(f.DepositStartTimestamp))
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert fund: %w", err)
	}
	return nil
}

// GetByID retrieves a fund by ID. Returns ErrNotFound if not exists.
func (s *FundStore) GetByID(ctx context.Context, id int64) (*domain.Fund, error) {
	query := `
		SELECT id, fund_address, deposit_start_timestamp
		FROM funds
		WHERE id = $1
	`

	start := time.Now()
	f, err := scanFund(s.pool.QueryRow(ctx, query, id))
	observe("get_fund_by_id", start, err)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get fund by id: %w", err)
	}
	return f, nil
}

// GetByAddress retrieves a fund by address. Returns ErrNotFound if not exists.
func (s *FundStore) GetByAddress(ctx context.Context, address string) (*domain.Fund, error) {
	query := `
		SELECT id, fund_address, deposit_start_timestamp
		FROM funds
		WHERE fund_address = $1
	`

	start := time.Now()
	f, err := scanFund(s.pool.QueryRow(ctx, query, address))
	observe("get_fund_by_address", start, err)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get fund by address: %w", err)
	}
	return f, nil
}

// scanFund scans a single row into Fund.
func scanFund(row pgx.Row) (*domain.Fund, error) {
	var f domain.Fund
	var depositStart int64

	if err := row.Scan(&f.ID, &f.Address, &depositStart); err != nil {
		return nil, err
	}

	f.DepositStartTimestamp = uint32(depositStart)
	return &f, nil
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"fund-valuation/internal/domain"
	"fund-valuation/internal/storage"
)

// AllocationEventStore implements storage.AllocationEventStore using PostgreSQL.
// Events live in fund_tokens and reference tokens by id; symbols are resolved on read.
type AllocationEventStore struct {
	pool *Pool
}

// NewAllocationEventStore creates a new AllocationEventStore.
func NewAllocationEventStore(pool *Pool) *AllocationEventStore {
	return &AllocationEventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AllocationEventStore = (*AllocationEventStore)(nil)

// InsertBulk adds multiple events atomically. Fails entire batch on any duplicate id.
// Unknown token symbols are registered in tokens on the fly.
func (s *AllocationEventStore) InsertBulk(ctx context.Context, events []*domain.AllocationEvent) error {
	if len(events) == 0 {
		return nil
	}
	for _, e := range events {
		if e == nil || e.Symbol == "" {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tokenIDs := make(map[string]int64)

	query := `
		INSERT INTO fund_tokens (id, fund_id, token_id, quantity, timestamp)
		VALUES ($1, $2, $3, $4, $5)
	`

	for _, e := range events {
		tokenID, ok := tokenIDs[e.Symbol]
		if !ok {
			tokenID, err = upsertToken(ctx, tx, e.Symbol)
			if err != nil {
				return err
			}
			tokenIDs[e.Symbol] = tokenID
		}

		_, err := tx.Exec(ctx, query, e.ID, e.FundID, tokenID, e.Quantity, int64(e.Timestamp))
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			if isForeignKeyError(err) {
				return fmt.Errorf("insert fund token for fund %d: %w", e.FundID, storage.ErrInvalidInput)
			}
			return fmt.Errorf("insert fund token in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// upsertToken returns the id of symbol in tokens, creating the row if needed.
func upsertToken(ctx context.Context, tx pgx.Tx, symbol string) (int64, error) {
	query := `
		INSERT INTO tokens (symbol) VALUES ($1)
		ON CONFLICT (symbol) DO UPDATE SET symbol = EXCLUDED.symbol
		RETURNING id
	`

	var id int64
	if err := tx.QueryRow(ctx, query, symbol).Scan(&id); err != nil {
		return 0, fmt.Errorf("upsert token %s: %w", symbol, err)
	}
	return id, nil
}

// GetByFundID retrieves all events for a fund, ordered by timestamp DESC, id ASC.
func (s *AllocationEventStore) GetByFundID(ctx context.Context, fundID int64) ([]*domain.AllocationEvent, error) {
	query := `
		SELECT ft.id, ft.fund_id, t.symbol, ft.quantity, ft.timestamp
		FROM fund_tokens ft
		JOIN tokens t ON t.id = ft.token_id
		WHERE ft.fund_id = $1
		ORDER BY ft.timestamp DESC, ft.id ASC
	`

	start := time.Now()
	rows, err := s.pool.Query(ctx, query, fundID)
	if err != nil {
		observe("get_fund_tokens", start, err)
		return nil, fmt.Errorf("get fund tokens by fund id: %w", err)
	}
	defer rows.Close()

	events, err := scanAllocationEvents(rows)
	observe("get_fund_tokens", start, err)
	return events, err
}

// scanAllocationEvents scans multiple rows into a slice of AllocationEvent.
func scanAllocationEvents(rows pgx.Rows) ([]*domain.AllocationEvent, error) {
	var events []*domain.AllocationEvent

	for rows.Next() {
		var e domain.AllocationEvent
		var timestamp int64

		err := rows.Scan(
			&e.ID,
			&e.FundID,
			&e.Symbol,
			&e.Quantity,
			&timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan fund token row: %w", err)
		}

		e.Timestamp = uint32(timestamp)
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fund token rows: %w", err)
	}

	return events, nil
}

package clickhouse

import (
	"context"
	"fmt"
	"math"
	"time"

	"fund-valuation/internal/domain"
	"fund-valuation/internal/storage"
)

// PriceHistoryStore implements storage.PriceHistoryStore using ClickHouse.
type PriceHistoryStore struct {
	conn *Conn
}

// NewPriceHistoryStore creates a new PriceHistoryStore.
func NewPriceHistoryStore(conn *Conn) *PriceHistoryStore {
	return &PriceHistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PriceHistoryStore = (*PriceHistoryStore)(nil)

// InsertBulk adds multiple rows. Fails entire batch on duplicate (symbol, timestamp).
// MergeTree does not enforce keys, so duplicates are checked before the batch is sent.
// NaN and infinite prices fail with ErrInvalidInput; Float64 columns would accept them.
func (s *PriceHistoryStore) InsertBulk(ctx context.Context, rows []domain.PriceRow) error {
	if len(rows) == 0 {
		return nil
	}

	type key struct {
		symbol    string
		timestamp uint32
	}
	seen := make(map[key]struct{}, len(rows))
	for _, r := range rows {
		if r.Symbol == "" || math.IsNaN(r.USDPrice) || math.IsInf(r.USDPrice, 0) {
			return storage.ErrInvalidInput
		}
		k := key{r.Symbol, r.Timestamp}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	for _, r := range rows {
		exists, err := s.exists(ctx, r.Symbol, r.Timestamp)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO token_price_history (symbol, timestamp, usd_price)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range rows {
		if err := batch.Append(r.Symbol, r.Timestamp, r.USDPrice); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetAll retrieves every row, ordered by timestamp ASC, symbol ASC.
func (s *PriceHistoryStore) GetAll(ctx context.Context) ([]domain.PriceRow, error) {
	query := `
		SELECT symbol, timestamp, usd_price
		FROM token_price_history
		ORDER BY timestamp ASC, symbol ASC
	`

	start := time.Now()
	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		observe("get_all_prices", start, err)
		return nil, fmt.Errorf("query all prices: %w", err)
	}
	defer rows.Close()

	result, err := scanPriceRows(rows)
	observe("get_all_prices", start, err)
	return result, err
}

// GetBySymbol retrieves all rows for a symbol, ordered by timestamp ASC.
func (s *PriceHistoryStore) GetBySymbol(ctx context.Context, symbol string) ([]domain.PriceRow, error) {
	query := `
		SELECT symbol, timestamp, usd_price
		FROM token_price_history
		WHERE symbol = ?
		ORDER BY timestamp ASC
	`

	start := time.Now()
	rows, err := s.conn.Query(ctx, query, symbol)
	if err != nil {
		observe("get_prices_by_symbol", start, err)
		return nil, fmt.Errorf("query prices by symbol: %w", err)
	}
	defer rows.Close()

	result, err := scanPriceRows(rows)
	observe("get_prices_by_symbol", start, err)
	return result, err
}

// exists checks if a row with the given key exists.
func (s *PriceHistoryStore) exists(ctx context.Context, symbol string, timestamp uint32) (bool, error) {
	query := `
		SELECT count(*) FROM token_price_history
		WHERE symbol = ? AND timestamp = ?
	`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, symbol, timestamp).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanPriceRows scans multiple rows.
func scanPriceRows(rows chRows) ([]domain.PriceRow, error) {
	var result []domain.PriceRow

	for rows.Next() {
		var r domain.PriceRow
		if err := rows.Scan(&r.Symbol, &r.Timestamp, &r.USDPrice); err != nil {
			return nil, fmt.Errorf("scan price history row: %w", err)
		}
		result = append(result, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price history rows: %w", err)
	}

	return result, nil
}

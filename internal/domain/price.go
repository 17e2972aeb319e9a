package domain

// PriceRow is one token's USD price recorded at a single timestamp.
// Corresponds to token_price_history table in ClickHouse.
type PriceRow struct {
	Symbol    string  // token symbol
	Timestamp uint32  // Unix seconds
	USDPrice  float64 // price in USD
}

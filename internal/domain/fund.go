package domain

// Fund is an investment fund whose token allocations are tracked over time.
// Corresponds to funds table in PostgreSQL.
type Fund struct {
	ID                    int64  // internal fund identifier
	Address               string // on-chain fund address (unique)
	DepositStartTimestamp uint32 // Unix seconds when deposits opened
}

// AllocationEvent records the quantity of one token held by a fund at a point in time.
// Corresponds to fund_tokens table in PostgreSQL.
type AllocationEvent struct {
	ID        int64  // row identifier, breaks ordering ties
	FundID    int64  // owning fund
	Symbol    string // token symbol (ETH, DAI, ...)
	Quantity  int64  // held quantity, may be negative
	Timestamp uint32 // Unix seconds
}

// TokenQuantity is a single (symbol, quantity) pair inside a snapshot.
type TokenQuantity struct {
	Symbol   string
	Quantity int64
}

// AllocationSnapshot is the set of holdings recorded at a single timestamp.
// Holdings keep the order of their source events; a symbol may appear more than once.
type AllocationSnapshot struct {
	Timestamp uint32
	Holdings  []TokenQuantity
}

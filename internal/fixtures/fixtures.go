// Package fixtures seeds stores with a small deterministic demo data set.
package fixtures

import (
	"context"
	"fmt"

	"fund-valuation/internal/domain"
	"fund-valuation/internal/storage"
)

// Demo data identifiers.
const (
	DemoFundAddress  = "0x5e4b7f0c2a9d41e3b8c6a1f07d93e2b4c5a6d7e8"
	EmptyFundAddress = "0x0c1d2e3f4a5b6c7d8e9f0a1b2c3d4e5f6a7b8c9d"

	// DemoReference is the reference time the data set is built around.
	DemoReference uint32 = 1601316060
	// DemoHours is the number of hourly buckets between deposit start and DemoReference.
	DemoHours = 72

	demoDepositStart = DemoReference - DemoHours*3600
)

// LoadFixtures populates stores with the demo funds, allocations and prices.
func LoadFixtures(
	ctx context.Context,
	funds storage.FundStore,
	allocs storage.AllocationEventStore,
	prices storage.PriceHistoryStore,
) error {
	if err := loadFunds(ctx, funds); err != nil {
		return err
	}
	if err := allocs.InsertBulk(ctx, Allocations()); err != nil {
		return fmt.Errorf("load allocations: %w", err)
	}
	if err := prices.InsertBulk(ctx, Prices()); err != nil {
		return fmt.Errorf("load prices: %w", err)
	}
	return nil
}

func loadFunds(ctx context.Context, store storage.FundStore) error {
	funds := []*domain.Fund{
		{ID: 1, Address: DemoFundAddress, DepositStartTimestamp: demoDepositStart},
		{ID: 2, Address: EmptyFundAddress, DepositStartTimestamp: demoDepositStart},
	}
	for _, f := range funds {
		if err := store.Insert(ctx, f); err != nil {
			return fmt.Errorf("load fund %s: %w", f.Address, err)
		}
	}
	return nil
}

// Allocations returns three rebalances of the demo fund. USDC is never priced.
func Allocations() []*domain.AllocationEvent {
	day := uint32(24 * 3600)
	return []*domain.AllocationEvent{
		{ID: 1, FundID: 1, Symbol: "ETH", Quantity: 10, Timestamp: demoDepositStart - 600},
		{ID: 2, FundID: 1, Symbol: "DAI", Quantity: 5000, Timestamp: demoDepositStart - 600},
		{ID: 3, FundID: 1, Symbol: "ETH", Quantity: 12, Timestamp: demoDepositStart + day},
		{ID: 4, FundID: 1, Symbol: "DAI", Quantity: 4300, Timestamp: demoDepositStart + day},
		{ID: 5, FundID: 1, Symbol: "ETH", Quantity: 15, Timestamp: demoDepositStart + 2*day},
		{ID: 6, FundID: 1, Symbol: "DAI", Quantity: 3200, Timestamp: demoDepositStart + 2*day},
		{ID: 7, FundID: 1, Symbol: "USDC", Quantity: 500, Timestamp: demoDepositStart + 2*day},
	}
}

// Prices returns one ETH and one DAI price per hour. ETH is sampled a few
// seconds after each hour; DAI sits exactly on the hour.
func Prices() []domain.PriceRow {
	rows := make([]domain.PriceRow, 0, 2*DemoHours)
	for i := uint32(0); i < DemoHours; i++ {
		hour := demoDepositStart + i*3600
		rows = append(rows,
			domain.PriceRow{Symbol: "ETH", Timestamp: hour + 17, USDPrice: 340 + float64(i%24)*1.25},
			domain.PriceRow{Symbol: "DAI", Timestamp: hour, USDPrice: 1 + float64(i%5)*0.001},
		)
	}
	return rows
}

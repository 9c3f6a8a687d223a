package orders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStatsEmpty(t *testing.T) {
	now := time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC) // a Wednesday
	s := ComputeStats(now, nil, 0, 0, []Marketplace{{ID: 1, Name: "Amazon"}})

	assert.Zero(t, s.TotalSales)
	assert.Zero(t, s.TotalOrders)
	require.Len(t, s.SalesByDay, 7)
	assert.Equal(t, "Thu", s.SalesByDay[0].Day)
	assert.Equal(t, "Wed", s.SalesByDay[6].Day)
	for _, d := range s.SalesByDay {
		assert.Zero(t, d.Sales)
	}
	assert.Equal(t, []MarketplaceOrders{{Marketplace: "Amazon", Orders: 0}}, s.OrdersByMarketplace)
}

func TestComputeStatsBucketsByDay(t *testing.T) {
	now := time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)
	orders := []Order{
		{MarketplaceID: 1, TotalAmount: MustMoney("30.00"), CreatedAt: now.Add(-time.Hour)},
		{MarketplaceID: 1, TotalAmount: MustMoney("10.10"), CreatedAt: now.Add(-2 * time.Hour)},
		{MarketplaceID: 2, TotalAmount: MustMoney("5.25"), CreatedAt: now.AddDate(0, 0, -1)},
		// Outside the window but still part of the totals.
		{MarketplaceID: 2, TotalAmount: MustMoney("100.00"), CreatedAt: now.AddDate(0, 0, -30)},
	}
	s := ComputeStats(now, orders, 3, 4, []Marketplace{{ID: 1, Name: "Amazon"}, {ID: 2, Name: "eBay"}})

	assert.Equal(t, 145.35, s.TotalSales)
	assert.Equal(t, 4, s.TotalOrders)
	assert.Equal(t, 3, s.TotalCustomers)
	assert.Equal(t, 4, s.TotalProducts)
	assert.Equal(t, 40.10, s.SalesByDay[6].Sales)
	assert.Equal(t, 5.25, s.SalesByDay[5].Sales)
	assert.Equal(t, []MarketplaceOrders{
		{Marketplace: "Amazon", Orders: 2},
		{Marketplace: "eBay", Orders: 2},
	}, s.OrdersByMarketplace)
}

func TestComputeStatsUsesNowLocation(t *testing.T) {
	berlin := time.FixedZone("CET", 3600)
	now := time.Date(2025, 3, 12, 0, 30, 0, 0, berlin)
	// 23:45 UTC on the 11th is already the 12th in Berlin.
	orders := []Order{{TotalAmount: MustMoney("1.00"), CreatedAt: time.Date(2025, 3, 11, 23, 45, 0, 0, time.UTC)}}

	s := ComputeStats(now, orders, 0, 0, nil)
	assert.Equal(t, 1.0, s.SalesByDay[6].Sales)
	assert.Empty(t, s.OrdersByMarketplace)
}

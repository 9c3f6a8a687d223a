package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

const statsDays = 7

type DaySales struct {
	Day   string  `json:"day"`
	Sales float64 `json:"sales"`
}

type MarketplaceOrders struct {
	Marketplace string `json:"marketplace"`
	Orders      int    `json:"orders"`
}

type Stats struct {
	TotalSales          float64             `json:"totalSales"`
	TotalOrders         int                 `json:"totalOrders"`
	TotalCustomers      int                 `json:"totalCustomers"`
	TotalProducts       int                 `json:"totalProducts"`
	SalesByDay          []DaySales          `json:"salesByDay"`
	OrdersByMarketplace []MarketplaceOrders `json:"ordersByMarketplace"`
}

// ComputeStats rolls orders up for the dashboard. Calendar days are taken in
// now's location; salesByDay runs from six days ago up to today.
func ComputeStats(now time.Time, orders []Order, customers, products int, marketplaces []Marketplace) Stats {
	loc := now.Location()
	dayKey := func(t time.Time) string { return t.In(loc).Format(time.DateOnly) }

	total := decimal.Zero
	byDay := map[string]decimal.Decimal{}
	byMarketplace := map[int64]int{}
	for _, o := range orders {
		total = total.Add(o.TotalAmount.Decimal)
		k := dayKey(o.CreatedAt)
		byDay[k] = byDay[k].Add(o.TotalAmount.Decimal)
		byMarketplace[o.MarketplaceID]++
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	salesByDay := make([]DaySales, 0, statsDays)
	for i := statsDays - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		salesByDay = append(salesByDay, DaySales{
			Day:   day.Format("Mon"),
			Sales: byDay[dayKey(day)].Round(2).InexactFloat64(),
		})
	}

	perMarketplace := make([]MarketplaceOrders, 0, len(marketplaces))
	for _, m := range marketplaces {
		perMarketplace = append(perMarketplace, MarketplaceOrders{
			Marketplace: m.Name,
			Orders:      byMarketplace[m.ID],
		})
	}

	return Stats{
		TotalSales:          total.Round(2).InexactFloat64(),
		TotalOrders:         len(orders),
		TotalCustomers:      customers,
		TotalProducts:       products,
		SalesByDay:          salesByDay,
		OrdersByMarketplace: perMarketplace,
	}
}

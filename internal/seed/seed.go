// Package seed fills an empty database with the default marketplaces and a
// small demo catalog.
package seed

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ariefcatur/go-order-dashboard/internal/orders"
)

var defaultMarketplaces = []orders.MarketplaceInput{
	{Name: "Local Store", Type: orders.MarketplaceLocal, IsConnected: true},
	{Name: "Amazon", Type: orders.MarketplaceAmazon, IsConnected: true},
	{Name: "eBay", Type: orders.MarketplaceEbay, IsConnected: true},
	{Name: "Shopify", Type: orders.MarketplaceShopify, IsConnected: true},
	{Name: "WooCommerce", Type: orders.MarketplaceWooCommerce},
	{Name: "Kaufland", Type: orders.MarketplaceKaufland},
	{Name: "Shopware6", Type: orders.MarketplaceShopware6},
}

func str(s string) *string { return &s }

var sampleProducts = []orders.ProductInput{
	{
		Name:        "Wireless Headphones",
		Description: str("High-quality wireless headphones with noise cancellation"),
		SKU:         "WH-2023-001",
		Price:       orders.MustMoney("89.99"),
		Stock:       45,
		ImageURL:    str("https://images.unsplash.com/photo-1505740420928-5e560c06d30e?w=400&h=400&fit=crop"),
	},
	{
		Name:        "Smart Watch",
		Description: str("Feature-rich smartwatch with health monitoring"),
		SKU:         "SW-2023-002",
		Price:       orders.MustMoney("199.99"),
		Stock:       23,
		ImageURL:    str("https://images.unsplash.com/photo-1523275335684-37898b6baf30?w=400&h=400&fit=crop"),
	},
	{
		Name:        "Portable Speaker",
		Description: str("Waterproof portable Bluetooth speaker"),
		SKU:         "PS-2023-003",
		Price:       orders.MustMoney("59.99"),
		Stock:       78,
		ImageURL:    str("https://images.unsplash.com/photo-1608043152269-423dbba4e7e1?w=400&h=400&fit=crop"),
	},
}

var sampleCustomers = []orders.CustomerInput{
	{Name: "John Smith", Email: "john@example.com", Phone: str("+1234567890"), Address: str("123 Main St, Berlin, Germany")},
	{Name: "Sarah Johnson", Email: "sarah@example.com", Phone: str("+1234567891"), Address: str("456 Oak Ave, Munich, Germany")},
	{Name: "Michael Davis", Email: "michael@example.com", Phone: str("+1234567892"), Address: str("789 Pine Rd, Hamburg, Germany")},
	{Name: "Emma Wilson", Email: "emma.wilson@example.com", Phone: str("+49123456789"), Address: str("Unter den Linden 45, Berlin, Germany")},
	{Name: "David Brown", Email: "david.brown@example.com", Phone: str("+49987654321"), Address: str("Marienplatz 12, Munich, Germany")},
	{Name: "Lisa Martinez", Email: "lisa.martinez@example.com", Phone: str("+49555123456"), Address: str("Königsallee 67, Düsseldorf, Germany")},
	{Name: "Tom Anderson", Email: "tom.anderson@example.com", Phone: str("+49777888999"), Address: str("Reeperbahn 23, Hamburg, Germany")},
	{Name: "Anna Schmidt", Email: "anna.schmidt@example.com", Phone: str("+49333444555"), Address: str("Potsdamer Platz 8, Berlin, Germany")},
}

type Result struct {
	Marketplaces int
	Products     int
	Customers    int
}

// Run inserts each group only when its table is empty, so running it twice is
// harmless.
func Run(ctx context.Context, svc *orders.Service, log *zap.Logger) (Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var res Result

	mps, err := svc.ListMarketplaces(ctx)
	if err != nil {
		return res, fmt.Errorf("list marketplaces: %w", err)
	}
	if len(mps) == 0 {
		for _, in := range defaultMarketplaces {
			if _, err := svc.CreateMarketplace(ctx, in); err != nil {
				return res, fmt.Errorf("seed marketplace %s: %w", in.Name, err)
			}
			res.Marketplaces++
		}
	}

	products, err := svc.ListProducts(ctx)
	if err != nil {
		return res, fmt.Errorf("list products: %w", err)
	}
	if len(products) == 0 {
		for _, in := range sampleProducts {
			if _, err := svc.CreateProduct(ctx, in); err != nil {
				return res, fmt.Errorf("seed product %s: %w", in.SKU, err)
			}
			res.Products++
		}
	}

	customers, err := svc.ListCustomers(ctx)
	if err != nil {
		return res, fmt.Errorf("list customers: %w", err)
	}
	if len(customers) == 0 {
		for _, in := range sampleCustomers {
			if _, err := svc.CreateCustomer(ctx, in); err != nil {
				return res, fmt.Errorf("seed customer %s: %w", in.Email, err)
			}
			res.Customers++
		}
	}

	log.Info("seed finished",
		zap.Int("marketplaces", res.Marketplaces),
		zap.Int("products", res.Products),
		zap.Int("customers", res.Customers))
	return res, nil
}

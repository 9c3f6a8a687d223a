package orders

import (
	"context"
	"time"
)

// Tx is the set of writes performed while placing an order. All calls made
// through one Tx commit or roll back together.
type Tx interface {
	// NextOrderSequence reserves the next order sequence number of year.
	NextOrderSequence(ctx context.Context, year int) (int, error)
	InsertOrder(ctx context.Context, o *Order) error
	InsertOrderItem(ctx context.Context, it *OrderItem) error
	// LockProduct and LockProductBySKU hold the product row until the Tx ends.
	LockProduct(ctx context.Context, id int64) (Product, error)
	LockProductBySKU(ctx context.Context, sku string) (Product, error)
	SetProductStock(ctx context.Context, id int64, stock int) error
	// LockOrder holds the order row until the Tx ends.
	LockOrder(ctx context.Context, id int64) (Order, error)
	UpdateOrder(ctx context.Context, o Order) error
}

type OrderStore interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	GetOrder(ctx context.Context, id int64) (OrderDetails, error)
	ListOrders(ctx context.Context, f OrderFilter) ([]OrderDetails, error)
	AllOrders(ctx context.Context) ([]Order, error)
	DeleteOrder(ctx context.Context, id int64) error
}

type CatalogStore interface {
	ListCustomers(ctx context.Context) ([]Customer, error)
	GetCustomer(ctx context.Context, id int64) (Customer, error)
	CustomerByEmail(ctx context.Context, email string) (Customer, error)
	CreateCustomer(ctx context.Context, c *Customer) error
	UpdateCustomer(ctx context.Context, c *Customer) error
	DeleteCustomer(ctx context.Context, id int64) error

	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id int64) (Product, error)
	ProductBySKU(ctx context.Context, sku string) (Product, error)
	CreateProduct(ctx context.Context, p *Product) error
	UpdateProduct(ctx context.Context, p *Product) error
	DeleteProduct(ctx context.Context, id int64) error
	SetStockBySKU(ctx context.Context, sku string, stock int) (Product, error)

	ListMarketplaces(ctx context.Context) ([]Marketplace, error)
	ConnectedMarketplaces(ctx context.Context) ([]Marketplace, error)
	GetMarketplace(ctx context.Context, id int64) (Marketplace, error)
	CreateMarketplace(ctx context.Context, m *Marketplace) error
	UpdateMarketplace(ctx context.Context, m *Marketplace) error
	DeleteMarketplace(ctx context.Context, id int64) error
	TouchMarketplaceSync(ctx context.Context, id int64, at time.Time) error
}

type Store interface {
	OrderStore
	CatalogStore
}

package orders

import (
	"encoding/json"
	"time"
)

type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone"`
	Address   *string   `json:"address"`
	CreatedAt time.Time `json:"createdAt"`
}

type Product struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Description *string       `json:"description"`
	SKU         string        `json:"sku"`
	Price       Money         `json:"price"`
	Stock       int           `json:"stock"`
	ImageURL    *string       `json:"imageUrl"`
	Status      ProductStatus `json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
}

type Marketplace struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	Type            MarketplaceType `json:"type"`
	IsConnected     bool            `json:"isConnected"`
	APIKey          *string         `json:"-"`
	APISecret       *string         `json:"-"`
	StoreURL        *string         `json:"storeUrl"`
	LastSync        *time.Time      `json:"lastSync"`
	StockTracking   bool            `json:"stockTracking"`
	AutoUpdateStock bool            `json:"autoUpdateStock"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// SyncsStock reports whether stock changes must be pushed to this marketplace.
func (m Marketplace) SyncsStock() bool {
	return m.IsConnected && m.StockTracking && m.AutoUpdateStock
}

// MarshalJSON hides the credentials and only tells whether they are set.
func (m Marketplace) MarshalJSON() ([]byte, error) {
	type plain Marketplace
	return json.Marshal(struct {
		plain
		HasCredentials bool `json:"hasCredentials"`
	}{
		plain:          plain(m),
		HasCredentials: m.APIKey != nil && *m.APIKey != "",
	})
}

type Order struct {
	ID            int64     `json:"id"`
	OrderID       string    `json:"orderId"`
	CustomerID    int64     `json:"customerId"`
	MarketplaceID int64     `json:"marketplaceId"`
	Status        Status    `json:"status"`
	TotalAmount   Money     `json:"totalAmount"`
	Currency      string    `json:"currency"`
	OrderDate     time.Time `json:"orderDate"`
	CreatedAt     time.Time `json:"createdAt"`
}

// OrderItem keeps the price, name and sku as they were when the order was placed.
type OrderItem struct {
	ID        int64  `json:"id"`
	OrderID   int64  `json:"orderId"`
	ProductID *int64 `json:"productId"`
	Name      string `json:"name"`
	SKU       string `json:"sku"`
	Quantity  int    `json:"quantity"`
	Price     Money  `json:"price"`
}

type OrderItemDetails struct {
	OrderItem
	Product *Product `json:"product"`
}

type OrderDetails struct {
	Order
	Customer    Customer           `json:"customer"`
	Marketplace Marketplace        `json:"marketplace"`
	Items       []OrderItemDetails `json:"items"`
}

type OrderFilter struct {
	CustomerID    int64
	MarketplaceID int64
}

// StockChange is the new stock level of a SKU that marketplaces must learn about.
type StockChange struct {
	SKU   string `json:"sku"`
	Stock int    `json:"stock"`
}

package httpx

import "github.com/ariefcatur/go-order-dashboard/internal/orders"

type customerRequest struct {
	Name    string  `json:"name" validate:"required"`
	Email   string  `json:"email" validate:"required,email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

func (r customerRequest) input() orders.CustomerInput {
	return orders.CustomerInput{Name: r.Name, Email: r.Email, Phone: r.Phone, Address: r.Address}
}

type customerPatchRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=1"`
	Email   *string `json:"email" validate:"omitempty,email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

func (r customerPatchRequest) patch() orders.CustomerPatch {
	return orders.CustomerPatch{Name: r.Name, Email: r.Email, Phone: r.Phone, Address: r.Address}
}

type productRequest struct {
	Name        string               `json:"name" validate:"required"`
	Description *string              `json:"description"`
	SKU         string               `json:"sku" validate:"required"`
	Price       *orders.Money        `json:"price" validate:"required"`
	Stock       int                  `json:"stock" validate:"gte=0"`
	ImageURL    *string              `json:"imageUrl"`
	Status      orders.ProductStatus `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (r productRequest) input() orders.ProductInput {
	in := orders.ProductInput{
		Name:        r.Name,
		Description: r.Description,
		SKU:         r.SKU,
		Stock:       r.Stock,
		ImageURL:    r.ImageURL,
		Status:      r.Status,
	}
	if r.Price != nil {
		in.Price = *r.Price
	}
	return in
}

type productPatchRequest struct {
	Name        *string               `json:"name" validate:"omitempty,min=1"`
	Description *string               `json:"description"`
	SKU         *string               `json:"sku" validate:"omitempty,min=1"`
	Price       *orders.Money         `json:"price"`
	Stock       *int                  `json:"stock" validate:"omitempty,gte=0"`
	ImageURL    *string               `json:"imageUrl"`
	Status      *orders.ProductStatus `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (r productPatchRequest) patch() orders.ProductPatch {
	return orders.ProductPatch{
		Name:        r.Name,
		Description: r.Description,
		SKU:         r.SKU,
		Price:       r.Price,
		Stock:       r.Stock,
		ImageURL:    r.ImageURL,
		Status:      r.Status,
	}
}

type marketplaceRequest struct {
	Name            string                 `json:"name" validate:"required"`
	Type            orders.MarketplaceType `json:"type" validate:"required"`
	IsConnected     bool                   `json:"isConnected"`
	APIKey          *string                `json:"apiKey"`
	APISecret       *string                `json:"apiSecret"`
	StoreURL        *string                `json:"storeUrl"`
	StockTracking   *bool                  `json:"stockTracking"`
	AutoUpdateStock *bool                  `json:"autoUpdateStock"`
}

func (r marketplaceRequest) input() orders.MarketplaceInput {
	return orders.MarketplaceInput{
		Name:            r.Name,
		Type:            r.Type,
		IsConnected:     r.IsConnected,
		APIKey:          r.APIKey,
		APISecret:       r.APISecret,
		StoreURL:        r.StoreURL,
		StockTracking:   r.StockTracking,
		AutoUpdateStock: r.AutoUpdateStock,
	}
}

type marketplacePatchRequest struct {
	Name            *string                 `json:"name" validate:"omitempty,min=1"`
	Type            *orders.MarketplaceType `json:"type"`
	IsConnected     *bool                   `json:"isConnected"`
	APIKey          *string                 `json:"apiKey"`
	APISecret       *string                 `json:"apiSecret"`
	StoreURL        *string                 `json:"storeUrl"`
	StockTracking   *bool                   `json:"stockTracking"`
	AutoUpdateStock *bool                   `json:"autoUpdateStock"`
}

func (r marketplacePatchRequest) patch() orders.MarketplacePatch {
	return orders.MarketplacePatch{
		Name:            r.Name,
		Type:            r.Type,
		IsConnected:     r.IsConnected,
		APIKey:          r.APIKey,
		APISecret:       r.APISecret,
		StoreURL:        r.StoreURL,
		StockTracking:   r.StockTracking,
		AutoUpdateStock: r.AutoUpdateStock,
	}
}

type orderItemRequest struct {
	ProductID *int64        `json:"productId" validate:"omitempty,gt=0"`
	Name      string        `json:"name"`
	SKU       string        `json:"sku"`
	Price     *orders.Money `json:"price" validate:"required"`
	Quantity  int           `json:"quantity" validate:"gte=1"`
}

// createOrderRequest ignores any client supplied total; totals are computed
// from the items.
type createOrderRequest struct {
	CustomerID    int64              `json:"customerId" validate:"required,gt=0"`
	MarketplaceID int64              `json:"marketplaceId" validate:"required,gt=0"`
	Status        orders.Status      `json:"status" validate:"omitempty,oneof=pending shipped delivered cancelled"`
	Currency      string             `json:"currency" validate:"omitempty,len=3"`
	Items         []orderItemRequest `json:"items" validate:"required,min=1,dive"`
}

func (r createOrderRequest) input() orders.CreateOrderInput {
	in := orders.CreateOrderInput{
		CustomerID:    r.CustomerID,
		MarketplaceID: r.MarketplaceID,
		Status:        r.Status,
		Currency:      r.Currency,
		Items:         make([]orders.ItemInput, 0, len(r.Items)),
	}
	for _, it := range r.Items {
		item := orders.ItemInput{
			ProductID: it.ProductID,
			Name:      it.Name,
			SKU:       it.SKU,
			Quantity:  it.Quantity,
		}
		if it.Price != nil {
			item.Price = *it.Price
		}
		in.Items = append(in.Items, item)
	}
	return in
}

type updateOrderRequest struct {
	Status        *orders.Status `json:"status" validate:"omitempty,oneof=pending shipped delivered cancelled"`
	Currency      *string        `json:"currency" validate:"omitempty,len=3"`
	CustomerID    *int64         `json:"customerId" validate:"omitempty,gt=0"`
	MarketplaceID *int64         `json:"marketplaceId" validate:"omitempty,gt=0"`
}

func (r updateOrderRequest) input() orders.UpdateOrderInput {
	return orders.UpdateOrderInput{
		Status:        r.Status,
		Currency:      r.Currency,
		CustomerID:    r.CustomerID,
		MarketplaceID: r.MarketplaceID,
	}
}

type stockUpdateRequest struct {
	SKU      string `json:"sku" validate:"required"`
	Quantity *int   `json:"quantity" validate:"required,gte=0"`
}

package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

type CustomerInput struct {
	Name    string
	Email   string
	Phone   *string
	Address *string
}

type CustomerPatch struct {
	Name    *string
	Email   *string
	Phone   *string
	Address *string
}

type ProductInput struct {
	Name        string
	Description *string
	SKU         string
	Price       Money
	Stock       int
	ImageURL    *string
	Status      ProductStatus
}

type ProductPatch struct {
	Name        *string
	Description *string
	SKU         *string
	Price       *Money
	Stock       *int
	ImageURL    *string
	Status      *ProductStatus
}

type MarketplaceInput struct {
	Name            string
	Type            MarketplaceType
	IsConnected     bool
	APIKey          *string
	APISecret       *string
	StoreURL        *string
	StockTracking   *bool
	AutoUpdateStock *bool
}

type MarketplacePatch struct {
	Name            *string
	Type            *MarketplaceType
	IsConnected     *bool
	APIKey          *string
	APISecret       *string
	StoreURL        *string
	StockTracking   *bool
	AutoUpdateStock *bool
}

// optional trims s and maps the empty string to nil.
func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func (s *Service) ListCustomers(ctx context.Context) ([]Customer, error) {
	return s.Store.ListCustomers(ctx)
}

func (s *Service) GetCustomer(ctx context.Context, id int64) (Customer, error) {
	return s.Store.GetCustomer(ctx, id)
}

func (s *Service) CreateCustomer(ctx context.Context, in CustomerInput) (Customer, error) {
	c := Customer{
		Name:      strings.TrimSpace(in.Name),
		Email:     strings.TrimSpace(in.Email),
		Phone:     optional(in.Phone),
		Address:   optional(in.Address),
		CreatedAt: s.now(),
	}
	if err := s.validateCustomer(ctx, c); err != nil {
		return Customer{}, err
	}
	if err := s.Store.CreateCustomer(ctx, &c); err != nil {
		return Customer{}, fmt.Errorf("create customer: %w", err)
	}
	return c, nil
}

func (s *Service) UpdateCustomer(ctx context.Context, id int64, p CustomerPatch) (Customer, error) {
	c, err := s.Store.GetCustomer(ctx, id)
	if err != nil {
		return Customer{}, err
	}
	if p.Name != nil {
		c.Name = strings.TrimSpace(*p.Name)
	}
	if p.Email != nil {
		c.Email = strings.TrimSpace(*p.Email)
	}
	if p.Phone != nil {
		c.Phone = optional(p.Phone)
	}
	if p.Address != nil {
		c.Address = optional(p.Address)
	}
	if err := s.validateCustomer(ctx, c); err != nil {
		return Customer{}, err
	}
	if err := s.Store.UpdateCustomer(ctx, &c); err != nil {
		return Customer{}, fmt.Errorf("update customer: %w", err)
	}
	return c, nil
}

func (s *Service) DeleteCustomer(ctx context.Context, id int64) error {
	return s.Store.DeleteCustomer(ctx, id)
}

// validateCustomer enforces the one-customer-per-email rule; storage does not.
func (s *Service) validateCustomer(ctx context.Context, c Customer) error {
	verr := &ValidationError{}
	if c.Name == "" {
		verr.Add("name", "is required")
	}
	if !strings.Contains(c.Email, "@") {
		verr.Add("email", "must be a valid email")
	}
	if err := verr.Err(); err != nil {
		return err
	}

	other, err := s.Store.CustomerByEmail(ctx, c.Email)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil
	case err != nil:
		return err
	case other.ID != c.ID:
		return fmt.Errorf("%w: email %s already belongs to customer %d", ErrConflict, c.Email, other.ID)
	}
	return nil
}

func (s *Service) ListProducts(ctx context.Context) ([]Product, error) {
	return s.Store.ListProducts(ctx)
}

func (s *Service) GetProduct(ctx context.Context, id int64) (Product, error) {
	return s.Store.GetProduct(ctx, id)
}

func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (Product, error) {
	p := Product{
		Name:        strings.TrimSpace(in.Name),
		Description: optional(in.Description),
		SKU:         strings.TrimSpace(in.SKU),
		Price:       NewMoney(in.Price.Decimal),
		Stock:       in.Stock,
		ImageURL:    optional(in.ImageURL),
		Status:      in.Status,
		CreatedAt:   s.now(),
	}
	if p.Status == "" {
		p.Status = ProductActive
	}
	if err := validateProduct(p); err != nil {
		return Product{}, err
	}
	if err := s.Store.CreateProduct(ctx, &p); err != nil {
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

// UpdateProduct applies a partial update. A stock change is synced to the
// marketplaces like any other stock change.
func (s *Service) UpdateProduct(ctx context.Context, id int64, patch ProductPatch) (Product, error) {
	p, err := s.Store.GetProduct(ctx, id)
	if err != nil {
		return Product{}, err
	}
	before := p
	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		p.Description = optional(patch.Description)
	}
	if patch.SKU != nil {
		p.SKU = strings.TrimSpace(*patch.SKU)
	}
	if patch.Price != nil {
		p.Price = NewMoney(patch.Price.Decimal)
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.ImageURL != nil {
		p.ImageURL = optional(patch.ImageURL)
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if err := validateProduct(p); err != nil {
		return Product{}, err
	}
	if err := s.Store.UpdateProduct(ctx, &p); err != nil {
		return Product{}, fmt.Errorf("update product: %w", err)
	}
	if p.Stock != before.Stock || p.SKU != before.SKU {
		s.dispatch(ctx, StockChange{SKU: p.SKU, Stock: p.Stock})
	}
	return p, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	return s.Store.DeleteProduct(ctx, id)
}

func validateProduct(p Product) error {
	verr := &ValidationError{}
	if p.Name == "" {
		verr.Add("name", "is required")
	}
	if p.SKU == "" {
		verr.Add("sku", "is required")
	}
	switch {
	case p.Price.IsNegative():
		verr.Add("price", "must not be negative")
	case p.Price.Exceeds(MaxAmount):
		verr.Add("price", "must be at most "+MaxAmount.String())
	}
	switch {
	case p.Stock < 0:
		verr.Add("stock", "must not be negative")
	case p.Stock > MaxStock:
		verr.Add("stock", fmt.Sprintf("must be at most %d", MaxStock))
	}
	if !p.Status.Valid() {
		verr.Add("status", "must be active or inactive")
	}
	return verr.Err()
}

func (s *Service) ListMarketplaces(ctx context.Context) ([]Marketplace, error) {
	return s.Store.ListMarketplaces(ctx)
}

func (s *Service) GetMarketplace(ctx context.Context, id int64) (Marketplace, error) {
	return s.Store.GetMarketplace(ctx, id)
}

func (s *Service) CreateMarketplace(ctx context.Context, in MarketplaceInput) (Marketplace, error) {
	m := Marketplace{
		Name:            strings.TrimSpace(in.Name),
		Type:            MarketplaceType(strings.ToLower(strings.TrimSpace(string(in.Type)))),
		IsConnected:     in.IsConnected,
		APIKey:          optional(in.APIKey),
		APISecret:       optional(in.APISecret),
		StoreURL:        optional(in.StoreURL),
		StockTracking:   true,
		AutoUpdateStock: true,
		CreatedAt:       s.now(),
	}
	if in.StockTracking != nil {
		m.StockTracking = *in.StockTracking
	}
	if in.AutoUpdateStock != nil {
		m.AutoUpdateStock = *in.AutoUpdateStock
	}
	if err := validateMarketplace(m); err != nil {
		return Marketplace{}, err
	}
	if err := s.Store.CreateMarketplace(ctx, &m); err != nil {
		return Marketplace{}, fmt.Errorf("create marketplace: %w", err)
	}
	return m, nil
}

func (s *Service) UpdateMarketplace(ctx context.Context, id int64, patch MarketplacePatch) (Marketplace, error) {
	m, err := s.Store.GetMarketplace(ctx, id)
	if err != nil {
		return Marketplace{}, err
	}
	if patch.Name != nil {
		m.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Type != nil {
		m.Type = MarketplaceType(strings.ToLower(strings.TrimSpace(string(*patch.Type))))
	}
	if patch.IsConnected != nil {
		m.IsConnected = *patch.IsConnected
	}
	if patch.APIKey != nil {
		m.APIKey = optional(patch.APIKey)
	}
	if patch.APISecret != nil {
		m.APISecret = optional(patch.APISecret)
	}
	if patch.StoreURL != nil {
		m.StoreURL = optional(patch.StoreURL)
	}
	if patch.StockTracking != nil {
		m.StockTracking = *patch.StockTracking
	}
	if patch.AutoUpdateStock != nil {
		m.AutoUpdateStock = *patch.AutoUpdateStock
	}
	if err := validateMarketplace(m); err != nil {
		return Marketplace{}, err
	}
	if err := s.Store.UpdateMarketplace(ctx, &m); err != nil {
		return Marketplace{}, fmt.Errorf("update marketplace: %w", err)
	}
	return m, nil
}

// DeleteMarketplace refuses to remove a marketplace that orders reference.
func (s *Service) DeleteMarketplace(ctx context.Context, id int64) error {
	if err := s.Store.DeleteMarketplace(ctx, id); err != nil {
		return err
	}
	s.log().Info("marketplace deleted", zap.Int64("marketplace_id", id))
	return nil
}

func validateMarketplace(m Marketplace) error {
	verr := &ValidationError{}
	if m.Name == "" {
		verr.Add("name", "is required")
	}
	if !m.Type.Valid() {
		verr.Add("type", "unknown marketplace type")
	}
	return verr.Err()
}

package orders

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ariefcatur/go-order-dashboard/internal/metrics"
)

const (
	DefaultCurrency = "EUR"

	// MaxItemQuantity caps a single order line.
	MaxItemQuantity = 1_000_000
	// MaxStock is the largest stock level a product row holds.
	MaxStock = math.MaxInt32

	maxCreateAttempts = 3
)

// Dispatcher hands stock changes to the marketplace sync. Implementations must
// not block on the marketplaces themselves.
type Dispatcher interface {
	Dispatch(ctx context.Context, change StockChange)
}

type Service struct {
	Store      Store
	Dispatcher Dispatcher
	Log        *zap.Logger
	Metrics    *metrics.Metrics
	// Now and Location decide the order year and the stats calendar days.
	Now      func() time.Time
	Location *time.Location
}

type ItemInput struct {
	ProductID *int64
	Name      string
	SKU       string
	Price     Money
	Quantity  int
}

type CreateOrderInput struct {
	CustomerID    int64
	MarketplaceID int64
	Status        Status
	Currency      string
	Items         []ItemInput
}

type UpdateOrderInput struct {
	Status        *Status
	Currency      *string
	CustomerID    *int64
	MarketplaceID *int64
}

func (s *Service) now() time.Time {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	return now().In(loc)
}

func (s *Service) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

// OrderTotal sums price x quantity over the items.
func OrderTotal(items []ItemInput) Money {
	var total Money
	for _, it := range items {
		total = total.Plus(it.Price.Times(it.Quantity))
	}
	return total
}

// CreateOrder numbers, prices and persists a new order, then decrements stock
// for every catalog product it references. All writes share one transaction;
// marketplace sync is dispatched only after commit.
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (OrderDetails, error) {
	if in.Status == "" {
		in.Status = StatusPending
	}
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	if in.Currency == "" {
		in.Currency = DefaultCurrency
	}
	if err := s.validateCreate(ctx, in); err != nil {
		return OrderDetails{}, err
	}

	total := OrderTotal(in.Items)
	now := s.now()

	var (
		order   Order
		changes []StockChange
		err     error
	)
	for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
		order, changes, err = s.placeOrder(ctx, in, total, now)
		if err == nil || !errors.Is(err, ErrConflict) {
			break
		}
		s.log().Warn("order number conflict, retrying",
			zap.Int("attempt", attempt), zap.Error(err))
	}
	if err != nil {
		return OrderDetails{}, fmt.Errorf("create order: %w", err)
	}

	s.Metrics.OrderCreated()
	s.log().Info("order created",
		zap.String("order_id", order.OrderID),
		zap.Int64("id", order.ID),
		zap.String("total", order.TotalAmount.String()),
		zap.Int("items", len(in.Items)))

	for _, c := range changes {
		s.dispatch(ctx, c)
	}
	return s.Store.GetOrder(ctx, order.ID)
}

func (s *Service) placeOrder(ctx context.Context, in CreateOrderInput, total Money, now time.Time) (Order, []StockChange, error) {
	var (
		order   Order
		changes []StockChange
	)
	err := s.Store.WithTx(ctx, func(tx Tx) error {
		changes = changes[:0]
		seq, err := tx.NextOrderSequence(ctx, now.Year())
		if err != nil {
			return fmt.Errorf("reserve order number: %w", err)
		}
		order = Order{
			OrderID:       FormatOrderNumber(now.Year(), seq),
			CustomerID:    in.CustomerID,
			MarketplaceID: in.MarketplaceID,
			Status:        in.Status,
			TotalAmount:   total,
			Currency:      in.Currency,
			OrderDate:     now,
			CreatedAt:     now,
		}
		if err := tx.InsertOrder(ctx, &order); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		stockBySKU := map[string]int{}
		var touched []string
		for i, it := range in.Items {
			item := OrderItem{
				OrderID:   order.ID,
				ProductID: it.ProductID,
				Name:      strings.TrimSpace(it.Name),
				SKU:       strings.TrimSpace(it.SKU),
				Quantity:  it.Quantity,
				Price:     it.Price,
			}

			product, err := lockItemProduct(ctx, tx, item)
			if errors.Is(err, ErrNotFound) {
				return Invalid(fmt.Sprintf("items.%d.productId", i), "product not found")
			}
			if err != nil {
				return fmt.Errorf("lock product: %w", err)
			}
			if product != nil {
				item.ProductID = &product.ID
				if item.Name == "" {
					item.Name = product.Name
				}
				if item.SKU == "" {
					item.SKU = product.SKU
				}
			}

			if err := tx.InsertOrderItem(ctx, &item); err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}

			if product == nil {
				continue
			}
			newStock := max(0, product.Stock-item.Quantity)
			if err := tx.SetProductStock(ctx, product.ID, newStock); err != nil {
				return fmt.Errorf("update stock: %w", err)
			}
			if _, seen := stockBySKU[product.SKU]; !seen {
				touched = append(touched, product.SKU)
			}
			stockBySKU[product.SKU] = newStock
		}
		for _, sku := range touched {
			changes = append(changes, StockChange{SKU: sku, Stock: stockBySKU[sku]})
		}
		return nil
	})
	return order, changes, err
}

// lockItemProduct resolves the catalog product of a line: by id when given,
// otherwise by sku. A sku that matches nothing is a free text line.
func lockItemProduct(ctx context.Context, tx Tx, item OrderItem) (*Product, error) {
	if item.ProductID != nil {
		p, err := tx.LockProduct(ctx, *item.ProductID)
		if err != nil {
			return nil, err
		}
		return &p, nil
	}
	if item.SKU == "" {
		return nil, nil
	}
	p, err := tx.LockProductBySKU(ctx, item.SKU)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Service) validateCreate(ctx context.Context, in CreateOrderInput) error {
	verr := &ValidationError{}
	if !in.Status.Valid() {
		verr.Add("status", "unknown order status")
	}
	if len(in.Currency) != 3 {
		verr.Add("currency", "must be a 3 letter currency code")
	}
	if len(in.Items) == 0 {
		verr.Add("items", "at least one item is required")
	}
	for i, it := range in.Items {
		switch {
		case it.Quantity < 1:
			verr.Add(fmt.Sprintf("items.%d.quantity", i), "must be at least 1")
		case it.Quantity > MaxItemQuantity:
			verr.Add(fmt.Sprintf("items.%d.quantity", i), fmt.Sprintf("must be at most %d", MaxItemQuantity))
		}
		switch {
		case it.Price.IsNegative():
			verr.Add(fmt.Sprintf("items.%d.price", i), "must not be negative")
		case it.Price.Exceeds(MaxAmount):
			verr.Add(fmt.Sprintf("items.%d.price", i), "must be at most "+MaxAmount.String())
		}
		if it.ProductID == nil && strings.TrimSpace(it.Name) == "" && strings.TrimSpace(it.SKU) == "" {
			verr.Add(fmt.Sprintf("items.%d", i), "productId, sku or name is required")
		}
	}
	if len(verr.Errors) == 0 && OrderTotal(in.Items).Exceeds(MaxAmount) {
		verr.Add("totalAmount", "must be at most "+MaxAmount.String())
	}
	if err := s.checkParties(ctx, verr, &in.CustomerID, &in.MarketplaceID); err != nil {
		return err
	}
	return verr.Err()
}

// checkParties verifies that the referenced customer and marketplace exist.
// Nil ids are skipped.
func (s *Service) checkParties(ctx context.Context, verr *ValidationError, customerID, marketplaceID *int64) error {
	if customerID != nil {
		if _, err := s.Store.GetCustomer(ctx, *customerID); errors.Is(err, ErrNotFound) {
			verr.Add("customerId", "customer not found")
		} else if err != nil {
			return err
		}
	}
	if marketplaceID != nil {
		if _, err := s.Store.GetMarketplace(ctx, *marketplaceID); errors.Is(err, ErrNotFound) {
			verr.Add("marketplaceId", "marketplace not found")
		} else if err != nil {
			return err
		}
	}
	return nil
}

// UpdateOrder applies a partial update. The status transition is checked
// against the locked row, so concurrent updates cannot both leave the same
// state. Totals and stock are left untouched, cancelling an order does not put
// items back into stock.
func (s *Service) UpdateOrder(ctx context.Context, id int64, in UpdateOrderInput) (OrderDetails, error) {
	verr := &ValidationError{}
	if in.Status != nil && !in.Status.Valid() {
		verr.Add("status", "unknown order status")
	}
	var currency string
	if in.Currency != nil {
		currency = strings.ToUpper(strings.TrimSpace(*in.Currency))
		if len(currency) != 3 {
			verr.Add("currency", "must be a 3 letter currency code")
		}
	}
	if err := s.checkParties(ctx, verr, in.CustomerID, in.MarketplaceID); err != nil {
		return OrderDetails{}, err
	}
	if err := verr.Err(); err != nil {
		return OrderDetails{}, err
	}

	var before, after Order
	err := s.Store.WithTx(ctx, func(tx Tx) error {
		order, err := tx.LockOrder(ctx, id)
		if err != nil {
			return err
		}
		before = order
		if in.Status != nil {
			if !CanTransition(order.Status, *in.Status) {
				return Invalid("status", fmt.Sprintf("cannot change status from %s to %s", order.Status, *in.Status))
			}
			order.Status = *in.Status
		}
		if in.Currency != nil {
			order.Currency = currency
		}
		if in.CustomerID != nil {
			order.CustomerID = *in.CustomerID
		}
		if in.MarketplaceID != nil {
			order.MarketplaceID = *in.MarketplaceID
		}
		after = order
		return tx.UpdateOrder(ctx, order)
	})
	if err != nil {
		return OrderDetails{}, fmt.Errorf("update order: %w", err)
	}
	if after.Status != before.Status {
		s.log().Info("order status changed",
			zap.String("order_id", after.OrderID),
			zap.String("from", string(before.Status)),
			zap.String("to", string(after.Status)))
	}
	return s.Store.GetOrder(ctx, id)
}

// DeleteOrder removes an order and its items. Like cancelling, it does not
// restock.
func (s *Service) DeleteOrder(ctx context.Context, id int64) error {
	return s.Store.DeleteOrder(ctx, id)
}

func (s *Service) GetOrder(ctx context.Context, id int64) (OrderDetails, error) {
	return s.Store.GetOrder(ctx, id)
}

func (s *Service) ListOrders(ctx context.Context, f OrderFilter) ([]OrderDetails, error) {
	return s.Store.ListOrders(ctx, f)
}

// UpdateStockBySKU sets the absolute stock of a product and syncs it out.
func (s *Service) UpdateStockBySKU(ctx context.Context, sku string, quantity int) (Product, error) {
	sku = strings.TrimSpace(sku)
	verr := &ValidationError{}
	if sku == "" {
		verr.Add("sku", "is required")
	}
	switch {
	case quantity < 0:
		verr.Add("quantity", "must not be negative")
	case quantity > MaxStock:
		verr.Add("quantity", fmt.Sprintf("must be at most %d", MaxStock))
	}
	if err := verr.Err(); err != nil {
		return Product{}, err
	}

	p, err := s.Store.SetStockBySKU(ctx, sku, quantity)
	if err != nil {
		return Product{}, err
	}
	s.dispatch(ctx, StockChange{SKU: p.SKU, Stock: p.Stock})
	return p, nil
}

// Stats loads every order, customer, product and marketplace and rolls them
// up for the dashboard.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	allOrders, err := s.Store.AllOrders(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("load orders: %w", err)
	}
	customers, err := s.Store.ListCustomers(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("load customers: %w", err)
	}
	products, err := s.Store.ListProducts(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("load products: %w", err)
	}
	marketplaces, err := s.Store.ListMarketplaces(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("load marketplaces: %w", err)
	}
	return ComputeStats(s.now(), allOrders, len(customers), len(products), marketplaces), nil
}

func (s *Service) dispatch(ctx context.Context, c StockChange) {
	if s.Dispatcher == nil {
		return
	}
	s.Dispatcher.Dispatch(ctx, c)
}

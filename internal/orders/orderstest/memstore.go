// Package orderstest provides in-memory fakes of the orders storage and
// dispatch interfaces for tests.
package orderstest

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ariefcatur/go-order-dashboard/internal/orders"
)

// Store is an in-memory orders.Store. Transactions are serialised by a single
// mutex and roll back by restoring a snapshot.
type Store struct {
	mu sync.Mutex
	st state

	// InsertOrderConflicts makes the next n InsertOrder calls fail with
	// orders.ErrConflict, as a duplicate order id would.
	InsertOrderConflicts int
	// FailItemInsert, when set, is returned by every InsertOrderItem call.
	FailItemInsert error
}

var _ orders.Store = (*Store)(nil)

type state struct {
	nextID       int64
	customers    map[int64]orders.Customer
	products     map[int64]orders.Product
	marketplaces map[int64]orders.Marketplace
	orders       map[int64]orders.Order
	items        map[int64]orders.OrderItem
	sequences    map[int]int
}

func NewStore() *Store {
	return &Store{st: state{
		customers:    map[int64]orders.Customer{},
		products:     map[int64]orders.Product{},
		marketplaces: map[int64]orders.Marketplace{},
		orders:       map[int64]orders.Order{},
		items:        map[int64]orders.OrderItem{},
		sequences:    map[int]int{},
	}}
}

func (s state) clone() state {
	return state{
		nextID:       s.nextID,
		customers:    maps.Clone(s.customers),
		products:     maps.Clone(s.products),
		marketplaces: maps.Clone(s.marketplaces),
		orders:       maps.Clone(s.orders),
		items:        maps.Clone(s.items),
		sequences:    maps.Clone(s.sequences),
	}
}

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) WithTx(ctx context.Context, fn func(tx orders.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(&memTx{s: s}); err != nil {
		s.st = snapshot
		return err
	}
	if err := ctx.Err(); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

// memTx runs with Store.mu held.
type memTx struct{ s *Store }

func (t *memTx) NextOrderSequence(_ context.Context, year int) (int, error) {
	st := &t.s.st
	next := st.sequences[year] + 1
	prefix := fmt.Sprintf("%d-", year)
	for _, o := range st.orders {
		if !strings.HasPrefix(o.OrderID, prefix) {
			continue
		}
		if _, seq, err := orders.ParseOrderNumber(o.OrderID); err == nil && seq >= next {
			next = seq + 1
		}
	}
	st.sequences[year] = next
	return next, nil
}

func (t *memTx) InsertOrder(_ context.Context, o *orders.Order) error {
	if t.s.InsertOrderConflicts > 0 {
		t.s.InsertOrderConflicts--
		return fmt.Errorf("%w: orders_order_id_key", orders.ErrConflict)
	}
	st := &t.s.st
	for _, other := range st.orders {
		if other.OrderID == o.OrderID {
			return fmt.Errorf("%w: orders_order_id_key", orders.ErrConflict)
		}
	}
	if _, ok := st.customers[o.CustomerID]; !ok {
		return fmt.Errorf("%w: orders_customer_id_fkey", orders.ErrInUse)
	}
	if _, ok := st.marketplaces[o.MarketplaceID]; !ok {
		return fmt.Errorf("%w: orders_marketplace_id_fkey", orders.ErrInUse)
	}
	o.ID = st.id()
	st.orders[o.ID] = *o
	return nil
}

func (t *memTx) InsertOrderItem(_ context.Context, it *orders.OrderItem) error {
	if t.s.FailItemInsert != nil {
		return t.s.FailItemInsert
	}
	st := &t.s.st
	it.ID = st.id()
	st.items[it.ID] = *it
	return nil
}

func (t *memTx) LockProduct(_ context.Context, id int64) (orders.Product, error) {
	p, ok := t.s.st.products[id]
	if !ok {
		return orders.Product{}, orders.ErrNotFound
	}
	return p, nil
}

func (t *memTx) LockProductBySKU(_ context.Context, sku string) (orders.Product, error) {
	return t.s.st.productBySKU(sku)
}

func (t *memTx) SetProductStock(_ context.Context, id int64, stock int) error {
	p, ok := t.s.st.products[id]
	if !ok {
		return orders.ErrNotFound
	}
	p.Stock = stock
	t.s.st.products[id] = p
	return nil
}

func (t *memTx) LockOrder(_ context.Context, id int64) (orders.Order, error) {
	o, ok := t.s.st.orders[id]
	if !ok {
		return orders.Order{}, orders.ErrNotFound
	}
	return o, nil
}

func (t *memTx) UpdateOrder(_ context.Context, o orders.Order) error {
	st := &t.s.st
	if _, ok := st.orders[o.ID]; !ok {
		return orders.ErrNotFound
	}
	if _, ok := st.customers[o.CustomerID]; !ok {
		return fmt.Errorf("%w: orders_customer_id_fkey", orders.ErrInUse)
	}
	if _, ok := st.marketplaces[o.MarketplaceID]; !ok {
		return fmt.Errorf("%w: orders_marketplace_id_fkey", orders.ErrInUse)
	}
	st.orders[o.ID] = o
	return nil
}

func (s *state) productBySKU(sku string) (orders.Product, error) {
	for _, p := range s.products {
		if p.SKU == sku {
			return p, nil
		}
	}
	return orders.Product{}, orders.ErrNotFound
}

func (s *state) details(o orders.Order) orders.OrderDetails {
	d := orders.OrderDetails{
		Order:       o,
		Customer:    s.customers[o.CustomerID],
		Marketplace: s.marketplaces[o.MarketplaceID],
		Items:       []orders.OrderItemDetails{},
	}
	var items []orders.OrderItem
	for _, it := range s.items {
		if it.OrderID == o.ID {
			items = append(items, it)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	for _, it := range items {
		row := orders.OrderItemDetails{OrderItem: it}
		if it.ProductID != nil {
			if p, ok := s.products[*it.ProductID]; ok {
				row.Product = &p
			}
		}
		d.Items = append(d.Items, row)
	}
	return d
}

func (s *Store) GetOrder(_ context.Context, id int64) (orders.OrderDetails, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.st.orders[id]
	if !ok {
		return orders.OrderDetails{}, orders.ErrNotFound
	}
	return s.st.details(o), nil
}

func (s *Store) ListOrders(_ context.Context, f orders.OrderFilter) ([]orders.OrderDetails, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []orders.OrderDetails{}
	for _, o := range newestFirst(s.st.orders, func(o orders.Order) time.Time { return o.CreatedAt }) {
		if f.CustomerID != 0 && o.CustomerID != f.CustomerID {
			continue
		}
		if f.MarketplaceID != 0 && o.MarketplaceID != f.MarketplaceID {
			continue
		}
		out = append(out, s.st.details(o))
	}
	return out, nil
}

func (s *Store) AllOrders(_ context.Context) ([]orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return newestFirst(s.st.orders, func(o orders.Order) time.Time { return o.CreatedAt }), nil
}

func (s *Store) DeleteOrder(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.orders[id]; !ok {
		return orders.ErrNotFound
	}
	delete(s.st.orders, id)
	for itemID, it := range s.st.items {
		if it.OrderID == id {
			delete(s.st.items, itemID)
		}
	}
	return nil
}

func (s *Store) ListCustomers(_ context.Context) ([]orders.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return newestFirst(s.st.customers, func(c orders.Customer) time.Time { return c.CreatedAt }), nil
}

func (s *Store) GetCustomer(_ context.Context, id int64) (orders.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.st.customers[id]
	if !ok {
		return orders.Customer{}, orders.ErrNotFound
	}
	return c, nil
}

func (s *Store) CustomerByEmail(_ context.Context, email string) (orders.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.st.customers {
		if strings.EqualFold(c.Email, email) {
			return c, nil
		}
	}
	return orders.Customer{}, orders.ErrNotFound
}

func (s *Store) CreateCustomer(_ context.Context, c *orders.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.st.id()
	s.st.customers[c.ID] = *c
	return nil
}

func (s *Store) UpdateCustomer(_ context.Context, c *orders.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.customers[c.ID]; !ok {
		return orders.ErrNotFound
	}
	s.st.customers[c.ID] = *c
	return nil
}

func (s *Store) DeleteCustomer(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.customers[id]; !ok {
		return orders.ErrNotFound
	}
	for _, o := range s.st.orders {
		if o.CustomerID == id {
			return fmt.Errorf("%w: orders_customer_id_fkey", orders.ErrInUse)
		}
	}
	delete(s.st.customers, id)
	return nil
}

func (s *Store) ListProducts(_ context.Context) ([]orders.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return newestFirst(s.st.products, func(p orders.Product) time.Time { return p.CreatedAt }), nil
}

func (s *Store) GetProduct(_ context.Context, id int64) (orders.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.st.products[id]
	if !ok {
		return orders.Product{}, orders.ErrNotFound
	}
	return p, nil
}

func (s *Store) ProductBySKU(_ context.Context, sku string) (orders.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.productBySKU(sku)
}

func (s *Store) CreateProduct(_ context.Context, p *orders.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.st.productBySKU(p.SKU); err == nil {
		return fmt.Errorf("%w: products_sku_key", orders.ErrConflict)
	}
	p.ID = s.st.id()
	s.st.products[p.ID] = *p
	return nil
}

func (s *Store) UpdateProduct(_ context.Context, p *orders.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.products[p.ID]; !ok {
		return orders.ErrNotFound
	}
	if other, err := s.st.productBySKU(p.SKU); err == nil && other.ID != p.ID {
		return fmt.Errorf("%w: products_sku_key", orders.ErrConflict)
	}
	s.st.products[p.ID] = *p
	return nil
}

func (s *Store) DeleteProduct(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.products[id]; !ok {
		return orders.ErrNotFound
	}
	for _, it := range s.st.items {
		if it.ProductID != nil && *it.ProductID == id {
			return fmt.Errorf("%w: order_items_product_id_fkey", orders.ErrInUse)
		}
	}
	delete(s.st.products, id)
	return nil
}

func (s *Store) SetStockBySKU(_ context.Context, sku string, stock int) (orders.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.st.productBySKU(sku)
	if err != nil {
		return orders.Product{}, err
	}
	p.Stock = stock
	s.st.products[p.ID] = p
	return p, nil
}

func (s *Store) ListMarketplaces(_ context.Context) ([]orders.Marketplace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return newestFirst(s.st.marketplaces, func(m orders.Marketplace) time.Time { return m.CreatedAt }), nil
}

func (s *Store) ConnectedMarketplaces(ctx context.Context) ([]orders.Marketplace, error) {
	all, _ := s.ListMarketplaces(ctx)
	out := []orders.Marketplace{}
	for _, m := range all {
		if m.IsConnected {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Store) GetMarketplace(_ context.Context, id int64) (orders.Marketplace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.st.marketplaces[id]
	if !ok {
		return orders.Marketplace{}, orders.ErrNotFound
	}
	return m, nil
}

func (s *Store) CreateMarketplace(_ context.Context, m *orders.Marketplace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = s.st.id()
	s.st.marketplaces[m.ID] = *m
	return nil
}

func (s *Store) UpdateMarketplace(_ context.Context, m *orders.Marketplace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.st.marketplaces[m.ID]
	if !ok {
		return orders.ErrNotFound
	}
	m.LastSync = old.LastSync
	s.st.marketplaces[m.ID] = *m
	return nil
}

func (s *Store) DeleteMarketplace(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.marketplaces[id]; !ok {
		return orders.ErrNotFound
	}
	for _, o := range s.st.orders {
		if o.MarketplaceID == id {
			return fmt.Errorf("%w: orders_marketplace_id_fkey", orders.ErrInUse)
		}
	}
	delete(s.st.marketplaces, id)
	return nil
}

func (s *Store) TouchMarketplaceSync(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.st.marketplaces[id]
	if !ok {
		return orders.ErrNotFound
	}
	m.LastSync = &at
	s.st.marketplaces[id] = m
	return nil
}

// newestFirst orders rows like the SQL listings: created_at DESC, id DESC.
// Ids grow with insertion, so the map key breaks ties.
func newestFirst[T any](rows map[int64]T, createdAt func(T) time.Time) []T {
	ids := make([]int64, 0, len(rows))
	for id := range rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := createdAt(rows[ids[i]]), createdAt(rows[ids[j]])
		if !a.Equal(b) {
			return a.After(b)
		}
		return ids[i] > ids[j]
	})
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, rows[id])
	}
	return out
}

// Dispatcher records every stock change handed to it.
type Dispatcher struct {
	mu      sync.Mutex
	changes []orders.StockChange
}

func (d *Dispatcher) Dispatch(_ context.Context, c orders.StockChange) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.changes = append(d.changes, c)
}

func (d *Dispatcher) Changes() []orders.StockChange {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]orders.StockChange(nil), d.changes...)
}

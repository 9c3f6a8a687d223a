package orders_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-order-dashboard/internal/orders"
	"github.com/ariefcatur/go-order-dashboard/internal/orders/orderstest"
	"github.com/ariefcatur/go-order-dashboard/internal/postgres"
)

// newRepoFixture runs against a disposable database named by
// ORDERS_TEST_POSTGRES_DSN. Every table is truncated first.
func newRepoFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := os.Getenv("ORDERS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("ORDERS_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	db, err := postgres.Connect(ctx, postgres.Options{DSN: dsn, MaxConns: 8, Wait: 5 * time.Second}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, postgres.Migrate(db))
	_, err = db.Exec(ctx, `TRUNCATE order_items, orders, order_sequences, products, marketplaces, customers RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	f := &fixture{dispatched: &orderstest.Dispatcher{}}
	f.svc = &orders.Service{
		Store:      &orders.Repo{DB: db},
		Dispatcher: f.dispatched,
		Now:        func() time.Time { return fixedNow },
	}
	f.customer, err = f.svc.CreateCustomer(ctx, orders.CustomerInput{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)
	f.marketplace, err = f.svc.CreateMarketplace(ctx, orders.MarketplaceInput{Name: "Amazon", Type: orders.MarketplaceAmazon, IsConnected: true})
	require.NoError(t, err)
	f.product, err = f.svc.CreateProduct(ctx, orders.ProductInput{Name: "Widget", SKU: "ABC-1", Price: orders.MustMoney("10.00"), Stock: 10})
	require.NoError(t, err)
	return f
}

func TestRepoConcurrentOrderNumbers(t *testing.T) {
	f := newRepoFixture(t)
	const n = 20

	var wg sync.WaitGroup
	ids := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o, err := f.svc.CreateOrder(context.Background(), f.orderFor(orders.ItemInput{SKU: "ABC-1", Price: orders.MustMoney("1.00"), Quantity: 1}))
			if err != nil {
				t.Errorf("create order: %v", err)
				return
			}
			ids <- o.OrderID
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate order id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
	for i := 1; i <= n; i++ {
		assert.True(t, seen[orders.FormatOrderNumber(2025, i)], "missing order number %d", i)
	}

	p, err := f.svc.GetProduct(context.Background(), f.product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Stock)
}

func TestRepoUpdateAndDeleteOrder(t *testing.T) {
	f := newRepoFixture(t)
	ctx := context.Background()

	o, err := f.svc.CreateOrder(ctx, f.orderFor(orders.ItemInput{SKU: "ABC-1", Price: orders.MustMoney("10.00"), Quantity: 2}))
	require.NoError(t, err)

	shipped := orders.StatusShipped
	got, err := f.svc.UpdateOrder(ctx, o.ID, orders.UpdateOrderInput{Status: &shipped})
	require.NoError(t, err)
	assert.Equal(t, orders.StatusShipped, got.Status)

	pending := orders.StatusPending
	_, err = f.svc.UpdateOrder(ctx, o.ID, orders.UpdateOrderInput{Status: &pending})
	var verr *orders.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "status", verr.Errors[0].Path)

	_, err = f.svc.UpdateOrder(ctx, 12345, orders.UpdateOrderInput{Status: &shipped})
	assert.ErrorIs(t, err, orders.ErrNotFound)

	require.NoError(t, f.svc.DeleteOrder(ctx, o.ID))
	_, err = f.svc.GetOrder(ctx, o.ID)
	assert.ErrorIs(t, err, orders.ErrNotFound)
	assert.ErrorIs(t, f.svc.DeleteOrder(ctx, o.ID), orders.ErrNotFound)

	p, err := f.svc.GetProduct(ctx, f.product.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, p.Stock)
}

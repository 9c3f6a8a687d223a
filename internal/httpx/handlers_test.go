package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-order-dashboard/internal/metrics"
	"github.com/ariefcatur/go-order-dashboard/internal/orders"
	"github.com/ariefcatur/go-order-dashboard/internal/orders/orderstest"
)

type memIdempotency struct {
	mu   sync.Mutex
	keys map[string]int64
}

func (m *memIdempotency) Lookup(_ context.Context, key string) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.keys[key]
	return id, ok, nil
}

func (m *memIdempotency) Remember(_ context.Context, key string, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys == nil {
		m.keys = map[string]int64{}
	}
	m.keys[key] = id
	return nil
}

type apiFixture struct {
	server      *httptest.Server
	svc         *orders.Service
	customer    orders.Customer
	marketplace orders.Marketplace
	product     orders.Product
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	registry := prometheus.NewRegistry()
	m := metrics.New(registry, "test")
	svc := &orders.Service{
		Store:      orderstest.NewStore(),
		Dispatcher: &orderstest.Dispatcher{},
		Metrics:    m,
		Now:        func() time.Time { return time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC) },
	}
	router := NewRouter(nil, m, registry)
	(&Handler{Service: svc, Idempotency: &memIdempotency{}}).Register(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	ctx := context.Background()
	f := &apiFixture{server: srv, svc: svc}
	var err error
	f.customer, err = svc.CreateCustomer(ctx, orders.CustomerInput{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)
	key := "secret-key"
	f.marketplace, err = svc.CreateMarketplace(ctx, orders.MarketplaceInput{Name: "Amazon", Type: orders.MarketplaceAmazon, IsConnected: true, APIKey: &key})
	require.NoError(t, err)
	f.product, err = svc.CreateProduct(ctx, orders.ProductInput{Name: "Widget", SKU: "ABC-1", Price: orders.MustMoney("10.00"), Stock: 10})
	require.NoError(t, err)
	return f
}

func (f *apiFixture) do(t *testing.T, method, path, body string, headers ...string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, f.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	var out map[string]any
	if res.StatusCode != http.StatusNoContent && strings.HasPrefix(res.Header.Get("Content-Type"), "application/json") {
		var raw any
		require.NoError(t, json.NewDecoder(res.Body).Decode(&raw))
		if m, ok := raw.(map[string]any); ok {
			out = m
		} else {
			out = map[string]any{"list": raw}
		}
	}
	return res, out
}

func (f *apiFixture) orderBody(quantity int) string {
	return fmt.Sprintf(`{"customerId":%d,"marketplaceId":%d,"totalAmount":"999.00","items":[{"productId":%d,"name":"Widget","sku":"ABC-1","price":"10.00","quantity":%d}]}`,
		f.customer.ID, f.marketplace.ID, f.product.ID, quantity)
}

func TestCreateOrder(t *testing.T) {
	f := newAPI(t)

	res, body := f.do(t, http.MethodPost, "/api/orders", f.orderBody(3))
	require.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, "2025-00001", body["orderId"])
	assert.Equal(t, "30.00", body["totalAmount"])
	assert.Equal(t, "pending", body["status"])
	assert.Equal(t, "EUR", body["currency"])

	customer := body["customer"].(map[string]any)
	assert.Equal(t, "Ada", customer["name"])
	marketplace := body["marketplace"].(map[string]any)
	assert.NotContains(t, marketplace, "apiKey")
	assert.Equal(t, true, marketplace["hasCredentials"])

	items := body["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "10.00", item["price"])
	product := item["product"].(map[string]any)
	assert.Equal(t, float64(7), product["stock"])
}

func TestCreateOrderIdempotencyKey(t *testing.T) {
	f := newAPI(t)

	res, first := f.do(t, http.MethodPost, "/api/orders", f.orderBody(1), "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusCreated, res.StatusCode)

	res, again := f.do(t, http.MethodPost, "/api/orders", f.orderBody(1), "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, first["orderId"], again["orderId"])

	res, other := f.do(t, http.MethodPost, "/api/orders", f.orderBody(1), "Idempotency-Key", "k-2")
	require.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, "2025-00002", other["orderId"])

	p, err := f.svc.GetProduct(context.Background(), f.product.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, p.Stock)
}

func TestCreateOrderValidationErrors(t *testing.T) {
	f := newAPI(t)

	res, body := f.do(t, http.MethodPost, "/api/orders", f.orderBody(0))
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "Validation failed", body["message"])
	errs := body["errors"].([]any)
	require.NotEmpty(t, errs)
	assert.Equal(t, "items.0.quantity", errs[0].(map[string]any)["path"])

	res, body = f.do(t, http.MethodPost, "/api/orders", `{"customerId":1,"marketplaceId":1,"items":[]}`)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "items", body["errors"].([]any)[0].(map[string]any)["path"])

	res, body = f.do(t, http.MethodPost, "/api/orders", `{not json`)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "Invalid JSON body", body["message"])

	res, body = f.do(t, http.MethodPost, "/api/orders",
		fmt.Sprintf(`{"customerId":999,"marketplaceId":%d,"items":[{"name":"x","price":"1.00","quantity":1}]}`, f.marketplace.ID))
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "customerId", body["errors"].([]any)[0].(map[string]any)["path"])
}

func TestCreateOrderRequiresItemPrice(t *testing.T) {
	f := newAPI(t)

	for name, item := range map[string]string{
		"missing": fmt.Sprintf(`{"productId":%d,"quantity":3}`, f.product.ID),
		"null":    fmt.Sprintf(`{"productId":%d,"price":null,"quantity":3}`, f.product.ID),
	} {
		t.Run(name, func(t *testing.T) {
			body := fmt.Sprintf(`{"customerId":%d,"marketplaceId":%d,"items":[%s]}`, f.customer.ID, f.marketplace.ID, item)
			res, out := f.do(t, http.MethodPost, "/api/orders", body)
			require.Equal(t, http.StatusBadRequest, res.StatusCode)
			errs := out["errors"].([]any)
			require.Len(t, errs, 1)
			assert.Equal(t, "items.0.price", errs[0].(map[string]any)["path"])
			assert.Equal(t, "is required", errs[0].(map[string]any)["message"])
		})
	}

	res, body := f.do(t, http.MethodGet, "/api/orders", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Len(t, body["list"], 0)
}

func TestCreateOrderRejectsOversizedLines(t *testing.T) {
	f := newAPI(t)

	res, body := f.do(t, http.MethodPost, "/api/orders", fmt.Sprintf(
		`{"customerId":%d,"marketplaceId":%d,"items":[{"name":"Bulk","price":"1.00","quantity":9223372036854775807}]}`,
		f.customer.ID, f.marketplace.ID))
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "items.0.quantity", body["errors"].([]any)[0].(map[string]any)["path"])

	res, body = f.do(t, http.MethodPost, "/api/orders", fmt.Sprintf(
		`{"customerId":%d,"marketplaceId":%d,"items":[{"name":"Yacht","price":"99999999.99","quantity":2}]}`,
		f.customer.ID, f.marketplace.ID))
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "totalAmount", body["errors"].([]any)[0].(map[string]any)["path"])
}

func TestDeleteOrder(t *testing.T) {
	f := newAPI(t)

	_, created := f.do(t, http.MethodPost, "/api/orders", f.orderBody(3))
	path := fmt.Sprintf("/api/orders/%d", int64(created["id"].(float64)))

	res, _ := f.do(t, http.MethodDelete, path, "")
	require.Equal(t, http.StatusNoContent, res.StatusCode)

	res, body := f.do(t, http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, "Order not found", body["message"])

	res, _ = f.do(t, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	// Stock stays where the order left it.
	p, err := f.svc.GetProduct(context.Background(), f.product.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, p.Stock)

	// With its order gone the product can be deleted again.
	res, _ = f.do(t, http.MethodDelete, fmt.Sprintf("/api/products/%d", f.product.ID), "")
	assert.Equal(t, http.StatusNoContent, res.StatusCode)
}

func TestGetAndUpdateOrder(t *testing.T) {
	f := newAPI(t)

	_, created := f.do(t, http.MethodPost, "/api/orders", f.orderBody(1))
	id := int64(created["id"].(float64))

	res, body := f.do(t, http.MethodGet, fmt.Sprintf("/api/orders/%d", id), "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, created["orderId"], body["orderId"])

	res, body = f.do(t, http.MethodPut, fmt.Sprintf("/api/orders/%d", id), `{"status":"shipped"}`)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "shipped", body["status"])

	res, _ = f.do(t, http.MethodPut, fmt.Sprintf("/api/orders/%d", id), `{"status":"pending"}`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, body = f.do(t, http.MethodGet, "/api/orders/999", "")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, "Order not found", body["message"])

	res, _ = f.do(t, http.MethodGet, "/api/orders/abc", "")
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestListOrdersFilter(t *testing.T) {
	f := newAPI(t)
	f.do(t, http.MethodPost, "/api/orders", f.orderBody(1))

	res, body := f.do(t, http.MethodGet, fmt.Sprintf("/api/orders?customerId=%d", f.customer.ID), "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Len(t, body["list"], 1)

	res, body = f.do(t, http.MethodGet, "/api/orders?customerId=12345", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Len(t, body["list"], 0)

	res, _ = f.do(t, http.MethodGet, "/api/orders?marketplaceId=x", "")
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestDeleteMarketplaceWithOrders(t *testing.T) {
	f := newAPI(t)
	f.do(t, http.MethodPost, "/api/orders", f.orderBody(1))

	res, body := f.do(t, http.MethodDelete, fmt.Sprintf("/api/marketplaces/%d", f.marketplace.ID), "")
	require.Equal(t, http.StatusConflict, res.StatusCode)
	assert.Equal(t, "Marketplace is still referenced by orders", body["message"])

	_, created := f.do(t, http.MethodPost, "/api/marketplaces", `{"name":"Woo","type":"woocommerce"}`)
	res, _ = f.do(t, http.MethodDelete, fmt.Sprintf("/api/connections/%d", int64(created["id"].(float64))), "")
	assert.Equal(t, http.StatusNoContent, res.StatusCode)
}

func TestCatalogEndpoints(t *testing.T) {
	f := newAPI(t)

	res, body := f.do(t, http.MethodPost, "/api/customers", `{"name":"Bob","email":"ada@example.com"}`)
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	assert.Equal(t, "Customer conflicts with an existing record", body["message"])

	res, body = f.do(t, http.MethodPost, "/api/customers", `{"name":"","email":"bad"}`)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Len(t, body["errors"], 2)

	res, body = f.do(t, http.MethodPost, "/api/products", `{"name":"Gadget","sku":"GAD-1","price":4.5,"stock":2}`)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, "4.50", body["price"])
	assert.Equal(t, "active", body["status"])

	res, _ = f.do(t, http.MethodPost, "/api/products", `{"name":"Gadget","sku":"GAD-1","price":"1.00"}`)
	assert.Equal(t, http.StatusConflict, res.StatusCode)

	res, body = f.do(t, http.MethodPut, fmt.Sprintf("/api/products/%d", f.product.ID), `{"stock":-1}`)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "stock", body["errors"].([]any)[0].(map[string]any)["path"])

	res, body = f.do(t, http.MethodGet, "/api/marketplaces", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	list := body["list"].([]any)
	require.Len(t, list, 1)
	assert.NotContains(t, list[0].(map[string]any), "apiKey")

	res, _ = f.do(t, http.MethodPost, "/api/marketplaces", `{"name":"Etsy","type":"etsy"}`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestStockUpdate(t *testing.T) {
	f := newAPI(t)

	res, body := f.do(t, http.MethodPost, "/api/stock/update", `{"sku":"ABC-1","quantity":25}`)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, float64(25), body["stock"])

	res, _ = f.do(t, http.MethodPost, "/api/stock/update", `{"sku":"NOPE","quantity":1}`)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res, _ = f.do(t, http.MethodPost, "/api/stock/update", `{"sku":"ABC-1"}`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestStatsEndpoint(t *testing.T) {
	f := newAPI(t)
	f.do(t, http.MethodPost, "/api/orders", f.orderBody(3))

	res, body := f.do(t, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, 30.0, body["totalSales"])
	assert.Equal(t, float64(1), body["totalOrders"])
	assert.Len(t, body["salesByDay"], 7)
	assert.Len(t, body["ordersByMarketplace"], 1)
}

func TestHealthAndMetrics(t *testing.T) {
	f := newAPI(t)
	f.do(t, http.MethodPost, "/api/orders", f.orderBody(1))

	res, err := http.Get(f.server.URL + "/healthz")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, err = http.Get(f.server.URL + "/metrics")
	require.NoError(t, err)
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `orders_created_total{service="test"} 1`)
	assert.Contains(t, string(raw), `route="/api/orders"`)
}

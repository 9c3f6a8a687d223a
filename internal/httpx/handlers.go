package httpx

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-order-dashboard/internal/orders"
)

const requestTimeout = 5 * time.Second

// IdempotencyStore maps a client Idempotency-Key to the order it created.
type IdempotencyStore interface {
	Lookup(ctx context.Context, key string) (int64, bool, error)
	Remember(ctx context.Context, key string, orderID int64) error
}

type Handler struct {
	Service     *orders.Service
	Idempotency IdempotencyStore // optional
	Log         *zap.Logger
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/customers", h.listCustomers)
		r.Post("/customers", h.createCustomer)
		r.Get("/customers/{id}", h.getCustomer)
		r.Put("/customers/{id}", h.updateCustomer)
		r.Delete("/customers/{id}", h.deleteCustomer)

		r.Get("/products", h.listProducts)
		r.Post("/products", h.createProduct)
		r.Get("/products/{id}", h.getProduct)
		r.Put("/products/{id}", h.updateProduct)
		r.Delete("/products/{id}", h.deleteProduct)

		r.Get("/marketplaces", h.listMarketplaces)
		r.Post("/marketplaces", h.createMarketplace)
		r.Get("/marketplaces/{id}", h.getMarketplace)
		r.Put("/marketplaces/{id}", h.updateMarketplace)
		r.Delete("/marketplaces/{id}", h.deleteMarketplace)
		r.Delete("/connections/{id}", h.deleteMarketplace)

		r.Get("/orders", h.listOrders)
		r.Post("/orders", h.createOrder)
		r.Get("/orders/{id}", h.getOrder)
		r.Put("/orders/{id}", h.updateOrder)
		r.Delete("/orders/{id}", h.deleteOrder)

		r.Post("/stock/update", h.updateStock)
		r.Get("/stats", h.stats)
	})
}

func (h *Handler) log() *zap.Logger {
	if h.Log == nil {
		return zap.NewNop()
	}
	return h.Log
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, entity string, err error) {
	writeError(w, r, h.log(), entity, err)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, orders.Invalid("id", "must be a positive integer")
	}
	return id, nil
}

func queryID(r *http.Request, name string) (int64, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, orders.Invalid(name, "must be a positive integer")
	}
	return id, nil
}

// customers

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	cs, err := h.Service.ListCustomers(ctx)
	if err != nil {
		h.fail(w, r, "Customer", err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, "Customer", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	c, err := h.Service.GetCustomer(ctx, id)
	if err != nil {
		h.fail(w, r, "Customer", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, "Customer", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	c, err := h.Service.CreateCustomer(ctx, req.input())
	if err != nil {
		h.fail(w, r, "Customer", err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, "Customer", err)
		return
	}
	var req customerPatchRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, "Customer", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	c, err := h.Service.UpdateCustomer(ctx, id, req.patch())
	if err != nil {
		h.fail(w, r, "Customer", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, "Customer", h.Service.DeleteCustomer)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request, entity string, del func(context.Context, int64) error) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, entity, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := del(ctx, id); err != nil {
		h.fail(w, r, entity, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// products

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	ps, err := h.Service.ListProducts(ctx)
	if err != nil {
		h.fail(w, r, "Product", err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, "Product", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	p, err := h.Service.GetProduct(ctx, id)
	if err != nil {
		h.fail(w, r, "Product", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, "Product", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	p, err := h.Service.CreateProduct(ctx, req.input())
	if err != nil {
		h.fail(w, r, "Product", err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, "Product", err)
		return
	}
	var req productPatchRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, "Product", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	p, err := h.Service.UpdateProduct(ctx, id, req.patch())
	if err != nil {
		h.fail(w, r, "Product", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, "Product", h.Service.DeleteProduct)
}

// marketplaces

func (h *Handler) listMarketplaces(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	ms, err := h.Service.ListMarketplaces(ctx)
	if err != nil {
		h.fail(w, r, "Marketplace", err)
		return
	}
	writeJSON(w, http.StatusOK, ms)
}

func (h *Handler) getMarketplace(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, "Marketplace", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	m, err := h.Service.GetMarketplace(ctx, id)
	if err != nil {
		h.fail(w, r, "Marketplace", err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *Handler) createMarketplace(w http.ResponseWriter, r *http.Request) {
	var req marketplaceRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, "Marketplace", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	m, err := h.Service.CreateMarketplace(ctx, req.input())
	if err != nil {
		h.fail(w, r, "Marketplace", err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *Handler) updateMarketplace(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, "Marketplace", err)
		return
	}
	var req marketplacePatchRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, "Marketplace", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	m, err := h.Service.UpdateMarketplace(ctx, id, req.patch())
	if err != nil {
		h.fail(w, r, "Marketplace", err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *Handler) deleteMarketplace(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, "Marketplace", h.Service.DeleteMarketplace)
}

// orders

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	var (
		f   orders.OrderFilter
		err error
	)
	if f.CustomerID, err = queryID(r, "customerId"); err != nil {
		h.fail(w, r, "Order", err)
		return
	}
	if f.MarketplaceID, err = queryID(r, "marketplaceId"); err != nil {
		h.fail(w, r, "Order", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	list, err := h.Service.ListOrders(ctx, f)
	if err != nil {
		h.fail(w, r, "Order", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, "Order", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	o, err := h.Service.GetOrder(ctx, id)
	if err != nil {
		h.fail(w, r, "Order", err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// createOrder honours an optional Idempotency-Key header: a key seen in the
// last 24h returns the order it created with 200 instead of creating another.
func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, "Order", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key != "" && h.Idempotency != nil {
		if o, ok := h.replay(ctx, key); ok {
			writeJSON(w, http.StatusOK, o)
			return
		}
	}

	o, err := h.Service.CreateOrder(ctx, req.input())
	if err != nil {
		h.fail(w, r, "Order", err)
		return
	}
	if key != "" && h.Idempotency != nil {
		if err := h.Idempotency.Remember(ctx, key, o.ID); err != nil {
			h.log().Warn("remember idempotency key", zap.String("order_id", o.OrderID), zap.Error(err))
		}
	}
	writeJSON(w, http.StatusCreated, o)
}

// replay loads the order a previous request with key created. Lookup failures
// fall through to a normal create.
func (h *Handler) replay(ctx context.Context, key string) (orders.OrderDetails, bool) {
	id, ok, err := h.Idempotency.Lookup(ctx, key)
	if err != nil {
		h.log().Warn("idempotency lookup", zap.Error(err))
		return orders.OrderDetails{}, false
	}
	if !ok {
		return orders.OrderDetails{}, false
	}
	o, err := h.Service.GetOrder(ctx, id)
	if err != nil {
		if !errors.Is(err, orders.ErrNotFound) {
			h.log().Warn("load replayed order", zap.Int64("id", id), zap.Error(err))
		}
		return orders.OrderDetails{}, false
	}
	return o, true
}

func (h *Handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, "Order", err)
		return
	}
	var req updateOrderRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, "Order", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	o, err := h.Service.UpdateOrder(ctx, id, req.input())
	if err != nil {
		h.fail(w, r, "Order", err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, "Order", h.Service.DeleteOrder)
}

// stock and stats

func (h *Handler) updateStock(w http.ResponseWriter, r *http.Request) {
	var req stockUpdateRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, "Product", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	p, err := h.Service.UpdateStockBySKU(ctx, req.SKU, *req.Quantity)
	if err != nil {
		h.fail(w, r, "Product", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	s, err := h.Service.Stats(ctx)
	if err != nil {
		h.fail(w, r, "Stats", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

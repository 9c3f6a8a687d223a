package stocksync

import (
	"context"

	"go.uber.org/zap"

	"github.com/ariefcatur/go-order-dashboard/internal/orders"
)

// Client pushes a stock level to one kind of marketplace.
type Client interface {
	UpdateStock(ctx context.Context, m orders.Marketplace, sku string, stock int) error
}

// LogClient records the update without calling out. It stands in for
// marketplaces that have no integration yet.
type LogClient struct {
	Log *zap.Logger
}

func (c LogClient) UpdateStock(_ context.Context, m orders.Marketplace, sku string, stock int) error {
	log := c.Log
	if log == nil {
		log = zap.NewNop()
	}
	log.Info("marketplace stock updated",
		zap.Int64("marketplace_id", m.ID),
		zap.String("marketplace", m.Name),
		zap.String("type", string(m.Type)),
		zap.String("sku", sku),
		zap.Int("stock", stock))
	return nil
}

// Registry maps marketplace types to clients. Types without an entry use
// Fallback.
type Registry struct {
	clients  map[orders.MarketplaceType]Client
	Fallback Client
}

func NewRegistry(fallback Client) *Registry {
	return &Registry{clients: map[orders.MarketplaceType]Client{}, Fallback: fallback}
}

func (r *Registry) Register(t orders.MarketplaceType, c Client) {
	r.clients[t] = c
}

func (r *Registry) For(t orders.MarketplaceType) Client {
	if c, ok := r.clients[t]; ok {
		return c
	}
	return r.Fallback
}

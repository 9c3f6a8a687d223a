package stocksync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	kafkax "github.com/ariefcatur/go-order-dashboard/internal/kafka"
	"github.com/ariefcatur/go-order-dashboard/internal/metrics"
	"github.com/ariefcatur/go-order-dashboard/internal/orders"
)

const fanOutLimit = 4

// Store is the marketplace storage the fan-out needs.
type Store interface {
	ConnectedMarketplaces(ctx context.Context) ([]orders.Marketplace, error)
	TouchMarketplaceSync(ctx context.Context, id int64, at time.Time) error
}

// Deduper remembers handled event ids.
type Deduper interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

type Service struct {
	Store   Store
	Clients *Registry
	Dedup   Deduper
	Log     *zap.Logger
	Metrics *metrics.Metrics
	Now     func() time.Time
}

func (s *Service) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Sync pushes one stock level to every connected marketplace that tracks and
// auto-updates stock. A failing marketplace is logged and counted; it never
// fails the sync. The returned error only covers loading the marketplaces.
func (s *Service) Sync(ctx context.Context, change orders.StockChange) error {
	marketplaces, err := s.Store.ConnectedMarketplaces(ctx)
	if err != nil {
		return fmt.Errorf("load marketplaces: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOutLimit)
	for _, m := range marketplaces {
		if !m.SyncsStock() {
			continue
		}
		m := m
		g.Go(func() error {
			s.updateOne(gctx, m, change)
			return nil
		})
	}
	return g.Wait()
}

func (s *Service) updateOne(ctx context.Context, m orders.Marketplace, change orders.StockChange) {
	log := s.log().With(
		zap.Int64("marketplace_id", m.ID),
		zap.String("marketplace_type", string(m.Type)),
		zap.String("sku", change.SKU))

	client := s.Clients.For(m.Type)
	if client == nil {
		log.Warn("no stock client for marketplace type")
		s.Metrics.MarketplaceUpdate(string(m.Type), metrics.ResultDropped)
		return
	}
	if err := client.UpdateStock(ctx, m, change.SKU, change.Stock); err != nil {
		log.Error("marketplace stock update failed", zap.Error(err))
		s.Metrics.MarketplaceUpdate(string(m.Type), metrics.ResultError)
		return
	}
	s.Metrics.MarketplaceUpdate(string(m.Type), metrics.ResultOK)
	if err := s.Store.TouchMarketplaceSync(ctx, m.ID, s.now()); err != nil {
		log.Warn("record last sync", zap.Error(err))
	}
}

// HandleStockChanged is the consumer handler for the stock.changed topic.
func (s *Service) HandleStockChanged(ctx context.Context, m kafka.Message) error {
	if t := kafkax.HeaderValue(m, kafkax.HeaderEventType); t != "" && t != orders.EventStockChanged {
		return nil
	}
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		// A message that never decodes would block the partition forever.
		s.log().Error("drop undecodable message", zap.Int64("offset", m.Offset), zap.Error(err))
		return nil
	}
	if env.EventType != orders.EventStockChanged {
		return nil
	}

	if s.Dedup != nil && env.EventID != "" {
		seen, err := s.Dedup.Seen(ctx, env.EventID)
		if err != nil {
			s.log().Warn("dedup check failed, processing anyway", zap.Error(err))
		} else if seen {
			s.log().Debug("duplicate event skipped", zap.String("event_id", env.EventID))
			return nil
		}
	}

	change, err := kafkax.UnwrapPayload[orders.StockChangedPayload](env.Payload)
	if err != nil {
		s.log().Error("drop event with bad payload", zap.String("event_id", env.EventID), zap.Error(err))
		return nil
	}

	if err := s.Sync(ctx, change); err != nil {
		if s.Dedup != nil && env.EventID != "" {
			if ferr := s.Dedup.Forget(ctx, env.EventID); ferr != nil {
				s.log().Warn("forget event", zap.String("event_id", env.EventID), zap.Error(ferr))
			}
		}
		return err
	}
	return nil
}

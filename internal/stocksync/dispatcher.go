package stocksync

import (
	"context"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/ariefcatur/go-order-dashboard/internal/kafka"
	"github.com/ariefcatur/go-order-dashboard/internal/metrics"
	"github.com/ariefcatur/go-order-dashboard/internal/orders"
)

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	Publish(key, value []byte, headers ...kafka.Header) bool
}

// KafkaDispatcher publishes stock changes for cmd/stocksync to fan out.
type KafkaDispatcher struct {
	Producer    Publisher
	ServiceName string
	Log         *zap.Logger
	Metrics     *metrics.Metrics
}

func (d *KafkaDispatcher) Dispatch(ctx context.Context, change orders.StockChange) {
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventStockChanged,
		EventVersion:  orders.EventVersion,
		OccurredAt:    time.Now().UTC(),
		Producer:      d.ServiceName,
		TraceID:       middleware.GetReqID(ctx),
		CorrelationID: change.SKU,
		Payload:       kafkax.MustMarshal(orders.StockChangedPayload(change)),
	}
	ok := d.Producer.Publish(orders.PartitionKey(change.SKU), kafkax.MustMarshal(ev),
		kafkax.EventHeaders(orders.EventStockChanged, orders.EventVersion)...)
	if !ok {
		d.Metrics.StockSyncDispatched(metrics.DispatchKafka, metrics.ResultDropped)
		if d.Log != nil {
			d.Log.Warn("stock change dropped", zap.String("sku", change.SKU), zap.Int("stock", change.Stock))
		}
		return
	}
	d.Metrics.StockSyncDispatched(metrics.DispatchKafka, metrics.ResultOK)
}

// Syncer runs the marketplace fan-out for one change.
type Syncer interface {
	Sync(ctx context.Context, change orders.StockChange) error
}

// LocalDispatcher runs the fan-out in the API process, detached from the
// request that triggered it.
type LocalDispatcher struct {
	Syncer  Syncer
	Log     *zap.Logger
	Metrics *metrics.Metrics
	// Timeout bounds one background fan-out. Zero means 30s.
	Timeout time.Duration

	wg sync.WaitGroup
}

func (d *LocalDispatcher) Dispatch(ctx context.Context, change orders.StockChange) {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer cancel()
		if err := d.Syncer.Sync(bg, change); err != nil {
			d.Metrics.StockSyncDispatched(metrics.DispatchLocal, metrics.ResultError)
			if d.Log != nil {
				d.Log.Error("stock sync failed", zap.String("sku", change.SKU), zap.Error(err))
			}
			return
		}
		d.Metrics.StockSyncDispatched(metrics.DispatchLocal, metrics.ResultOK)
	}()
}

// Wait blocks until every dispatched fan-out has finished.
func (d *LocalDispatcher) Wait() { d.wg.Wait() }

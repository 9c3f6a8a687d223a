package kafka

import (
	"context"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Handler must return nil only when the message was processed. A message whose
// handler keeps failing is logged and skipped: its offset is not committed by
// itself, but the next committed message of the same partition moves past it,
// so delivery is best effort.
type Handler func(ctx context.Context, m kafka.Message) error

// reader is the part of *kafka.Reader the consumer uses.
type reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	r       reader
	workers int
	log     *zap.Logger
	// backoff is the pause between attempts of a failing message.
	backoff  time.Duration
	attempts int
}

func NewConsumer(brokers []string, group, topic string, workers int, log *zap.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // commit synchronously after each handled message
	})
	return newConsumer(r, workers, log)
}

func newConsumer(r reader, workers int, log *zap.Logger) *Consumer {
	if workers <= 0 {
		workers = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Consumer{r: r, workers: workers, log: log.Named("kafka.consumer"), backoff: 200 * time.Millisecond, attempts: 3}
}

// Shard picks the worker for a message key. Messages with the same key always
// land on the same worker, so per-key order is kept.
func Shard(key []byte, workers int) int {
	if workers <= 1 {
		return 0
	}
	return int(xxhash.Sum64(key) % uint64(workers))
}

// Start fetches until ctx is cancelled or the reader fails. Shutdown through
// ctx is not an error.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	queues := make([]chan kafka.Message, c.workers)
	var wg sync.WaitGroup
	for i := range queues {
		queues[i] = make(chan kafka.Message, 128)
		wg.Add(1)
		go func(id int, jobs <-chan kafka.Message) {
			defer wg.Done()
			for m := range jobs {
				c.handle(ctx, id, h, m)
			}
		}(i, queues[i])
	}
	stop := func() {
		for _, q := range queues {
			close(q)
		}
		wg.Wait()
	}

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			stop()
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		select {
		case queues[Shard(m.Key, c.workers)] <- m:
		case <-ctx.Done():
			stop()
			return nil
		}
	}
}

func (c *Consumer) handle(ctx context.Context, worker int, h Handler, m kafka.Message) {
	log := c.log.With(
		zap.Int("worker", worker),
		zap.Int("partition", m.Partition),
		zap.Int64("offset", m.Offset),
	)
	for attempt := 1; ; attempt++ {
		err := h(ctx, m)
		if err == nil {
			break
		}
		if attempt >= c.attempts || ctx.Err() != nil {
			log.Error("handle message, skipping", zap.Int("attempts", attempt), zap.Error(err))
			return
		}
		log.Warn("handle message, retrying", zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-time.After(c.backoff):
		case <-ctx.Done():
			return
		}
	}
	if err := c.r.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
		log.Error("commit message", zap.Error(err))
	}
}

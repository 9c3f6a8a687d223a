package redisx

import (
	"context"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Idempotency remembers which order a client Idempotency-Key produced.
type Idempotency struct {
	Client *redis.Client
}

// Lookup returns the order id stored for key, if any.
func (i *Idempotency) Lookup(ctx context.Context, key string) (int64, bool, error) {
	v, err := i.Client.Get(ctx, IdemOrderCreateKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (i *Idempotency) Remember(ctx context.Context, key string, orderID int64) error {
	return i.Client.Set(ctx, IdemOrderCreateKey(key), strconv.FormatInt(orderID, 10), TTLIdempotency).Err()
}

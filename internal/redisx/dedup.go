package redisx

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Deduper marks consumed events so a redelivered event is handled once.
type Deduper struct {
	Client  *redis.Client
	Service string
}

// Seen marks eventID as handled and reports whether it already was.
func (d *Deduper) Seen(ctx context.Context, eventID string) (bool, error) {
	fresh, err := d.Client.SetNX(ctx, DedupKey(d.Service, eventID), "1", TTLDedup).Result()
	if err != nil {
		return false, err
	}
	return !fresh, nil
}

// Forget clears the mark so a failed event can be retried.
func (d *Deduper) Forget(ctx context.Context, eventID string) error {
	return d.Client.Del(ctx, DedupKey(d.Service, eventID)).Err()
}

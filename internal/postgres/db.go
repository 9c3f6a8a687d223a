package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type Options struct {
	DSN      string
	MaxConns int32
	// Wait is how long Connect keeps retrying an unreachable database.
	// Zero tries once.
	Wait time.Duration
}

const retryEvery = time.Second

// Connect opens a pool and pings it, retrying until opts.Wait has passed.
func Connect(ctx context.Context, opts Options, log *zap.Logger) (*pgxpool.Pool, error) {
	if log == nil {
		log = zap.NewNop()
	}
	cfg, err := pgxpool.ParseConfig(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 8
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	cfg.MinConns = 1
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(opts.Wait)
	for attempt := 1; ; attempt++ {
		err = pool.Ping(ctx)
		if err == nil {
			return pool, nil
		}
		if time.Now().Add(retryEvery).After(deadline) {
			break
		}
		log.Warn("database not ready, retrying", zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-time.After(retryEvery):
		case <-ctx.Done():
			pool.Close()
			return nil, ctx.Err()
		}
	}
	pool.Close()
	return nil, fmt.Errorf("ping database: %w", err)
}

package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-order-dashboard/internal/config"
	"github.com/ariefcatur/go-order-dashboard/internal/logger"
	"github.com/ariefcatur/go-order-dashboard/internal/orders"
	"github.com/ariefcatur/go-order-dashboard/internal/postgres"
	"github.com/ariefcatur/go-order-dashboard/internal/seed"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	lg, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	loc, err := cfg.Location()
	if err != nil {
		lg.Fatal("config", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.Postgres(), lg.Named("postgres"))
	if err != nil {
		lg.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	if err := postgres.Migrate(db); err != nil {
		lg.Fatal("migrate", zap.Error(err))
	}

	svc := &orders.Service{Store: &orders.Repo{DB: db}, Log: lg.Named("orders"), Location: loc}
	if _, err := seed.Run(ctx, svc, lg.Named("seed")); err != nil {
		lg.Fatal("seed", zap.Error(err))
	}
}

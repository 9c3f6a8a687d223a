package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-order-dashboard/internal/config"
	"github.com/ariefcatur/go-order-dashboard/internal/httpx"
	kafkax "github.com/ariefcatur/go-order-dashboard/internal/kafka"
	"github.com/ariefcatur/go-order-dashboard/internal/logger"
	"github.com/ariefcatur/go-order-dashboard/internal/metrics"
	"github.com/ariefcatur/go-order-dashboard/internal/orders"
	"github.com/ariefcatur/go-order-dashboard/internal/postgres"
	"github.com/ariefcatur/go-order-dashboard/internal/redisx"
	"github.com/ariefcatur/go-order-dashboard/internal/stocksync"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	lg, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	if !cfg.KafkaEnabled() {
		lg.Fatal("KAFKA_BROKERS is required for the stock sync consumer")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.Postgres(), lg.Named("postgres"))
	if err != nil {
		lg.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	serviceName := cfg.ServiceName + "-stocksync"
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg, serviceName)

	svc := &stocksync.Service{
		Store:   &orders.Repo{DB: db},
		Clients: stocksync.NewRegistry(stocksync.LogClient{Log: lg.Named("marketplace")}),
		Log:     lg.Named("stocksync"),
		Metrics: m,
	}
	if cfg.RedisAddr != "" {
		rdb := redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		svc.Dedup = &redisx.Deduper{Client: rdb, Service: serviceName}
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.StockSyncGroup, orders.TopicStockChanged, cfg.StockSyncWorkers, lg.Named("consumer"))
	done := make(chan struct{})
	go func() {
		defer close(done)
		lg.Info("stock sync consumer started",
			zap.String("group", cfg.StockSyncGroup),
			zap.String("topic", orders.TopicStockChanged),
			zap.Int("workers", cfg.StockSyncWorkers))
		if err := cons.Start(ctx, svc.HandleStockChanged); err != nil {
			lg.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	srv := &http.Server{Addr: cfg.StockSyncAddr, Handler: httpx.NewRouter(lg, m, reg), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	lg.Info("shutting down consumer")
	cancel()
	<-done

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}

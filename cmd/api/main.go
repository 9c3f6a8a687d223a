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

	loc, err := cfg.Location()
	if err != nil {
		lg.Fatal("config", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.Postgres(), lg.Named("postgres"))
	if err != nil {
		lg.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	if cfg.MigrateOnStart {
		if err := postgres.Migrate(db); err != nil {
			lg.Fatal("migrate", zap.Error(err))
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg, cfg.ServiceName)

	repo := &orders.Repo{DB: db}

	// Stock changes either go to Kafka for cmd/stocksync or are fanned out
	// in this process.
	var (
		dispatcher orders.Dispatcher
		prod       *kafkax.Producer
		local      *stocksync.LocalDispatcher
	)
	if cfg.KafkaEnabled() {
		prod = kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicStockChanged, 1024, lg.Named("producer"))
		prod.Start(ctx)
		dispatcher = &stocksync.KafkaDispatcher{Producer: prod, ServiceName: cfg.ServiceName, Log: lg, Metrics: m}
	} else {
		local = &stocksync.LocalDispatcher{
			Syncer: &stocksync.Service{
				Store:   repo,
				Clients: stocksync.NewRegistry(stocksync.LogClient{Log: lg.Named("marketplace")}),
				Log:     lg.Named("stocksync"),
				Metrics: m,
			},
			Log:     lg,
			Metrics: m,
		}
		dispatcher = local
	}

	svc := &orders.Service{
		Store:      repo,
		Dispatcher: dispatcher,
		Log:        lg.Named("orders"),
		Metrics:    m,
		Location:   loc,
	}

	h := &httpx.Handler{Service: svc, Log: lg}
	if cfg.RedisAddr != "" {
		rdb := redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		h.Idempotency = &redisx.Idempotency{Client: rdb}
	}

	router := httpx.NewRouter(lg, m, reg)
	h.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		lg.Info("http listening", zap.String("addr", cfg.HTTPAddr), zap.Bool("kafka", cfg.KafkaEnabled()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	lg.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Warn("http shutdown", zap.Error(err))
	}
	if prod != nil {
		prod.Close()
		prod.WaitClosed()
	}
	if local != nil {
		local.Wait()
	}
}

package metrics

import (
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	ResultOK      = "ok"
	ResultError   = "error"
	ResultDropped = "dropped"

	DispatchKafka = "kafka"
	DispatchLocal = "local"
)

// Metrics holds the application counters. A nil *Metrics records nothing.
type Metrics struct {
	ordersCreated      prometheus.Counter
	stockSyncDispatch  *prometheus.CounterVec
	marketplaceUpdates *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
}

func New(registerer prometheus.Registerer, serviceName string) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	serviceName = strings.TrimSpace(serviceName)
	if serviceName == "" {
		serviceName = "order-api"
	}
	constLabels := prometheus.Labels{"service": serviceName}

	m := &Metrics{
		ordersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "orders_created_total",
			Help:        "Orders committed by the order workflow.",
			ConstLabels: constLabels,
		}),
		stockSyncDispatch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "stock_sync_dispatch_total",
			Help:        "Stock sync jobs handed to the dispatcher.",
			ConstLabels: constLabels,
		}, []string{"mode", "result"}),
		marketplaceUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "stock_sync_updates_total",
			Help:        "Stock updates pushed to marketplaces.",
			ConstLabels: constLabels,
		}, []string{"marketplace_type", "result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "HTTP requests by route and status code.",
			ConstLabels: constLabels,
		}, []string{"method", "route", "status_code"}),
	}
	registerer.MustRegister(m.ordersCreated, m.stockSyncDispatch, m.marketplaceUpdates, m.httpRequests)
	return m
}

func (m *Metrics) OrderCreated() {
	if m == nil {
		return
	}
	m.ordersCreated.Inc()
}

func (m *Metrics) StockSyncDispatched(mode, result string) {
	if m == nil {
		return
	}
	m.stockSyncDispatch.WithLabelValues(mode, result).Inc()
}

func (m *Metrics) MarketplaceUpdate(marketplaceType, result string) {
	if m == nil {
		return
	}
	m.marketplaceUpdates.WithLabelValues(marketplaceType, result).Inc()
}

func (m *Metrics) HTTPRequest(method, route string, status int) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unknown"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

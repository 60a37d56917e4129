package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of orders placed",
	})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Total number of rejected order placements",
	}, []string{"reason"})

	OrderTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_total",
		Help: "Total number of order status transitions by target status",
	}, []string{"status"})

	SweepPromotionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sweep_promotions_total",
		Help: "Total number of READY orders auto-completed by the background sweep",
	})

	SessionsStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "table_sessions_started_total",
		Help: "Total number of table session activations",
	})

	SessionsEndedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "table_sessions_ended_total",
		Help: "Total number of table sessions ended",
	})

	StatsRecomputeLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stats_recompute_latency_seconds",
		Help:    "Latency of daily stats recomputation",
		Buckets: prometheus.DefBuckets,
	})

	StatsRecomputeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stats_recompute_failures_total",
		Help: "Total number of failed stats recomputations",
	})

	NotifyPublishFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notify_publish_failures_total",
		Help: "Total number of failed event publications by channel",
	}, []string{"channel"})

	MenuCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "menu_cache_hits_total",
		Help: "Total number of menu item cache hits",
	})

	MenuCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "menu_cache_misses_total",
		Help: "Total number of menu item cache misses",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)

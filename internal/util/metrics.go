package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersPlacedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Total number of orders accepted, by resulting status",
	}, []string{"status"})

	OrdersRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_rejected_total",
		Help: "Total number of order requests rejected synchronously",
	}, []string{"reason"})

	OrdersCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_cancelled_total",
		Help: "Total number of cancelled orders",
	})

	ReservationAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_reservation_attempts_total",
		Help: "Total number of reservation attempts, by outcome",
	}, []string{"outcome"})

	ReservationLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "inventory_reservation_latency_seconds",
		Help:    "Latency of inventory reservation attempts",
		Buckets: prometheus.DefBuckets,
	})

	BreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
	}, []string{"breaker"})

	CheckoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkouts_total",
		Help: "Total number of checkout invocations, by aggregate result",
	}, []string{"result"})

	CheckoutItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_items_total",
		Help: "Total number of checkout line items processed",
	}, []string{"result"})

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

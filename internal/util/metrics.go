package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Total number of orders accepted",
	})

	OrdersRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_rejected_total",
		Help: "Total number of orders rejected before reservation",
	}, []string{"reason"})

	ReservationsSucceededTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reservations_succeeded_total",
		Help: "Total number of fully committed reservations",
	})

	ReservationsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reservations_failed_total",
		Help: "Total number of failed reservations",
	}, []string{"reason"})

	ReservationsPartialTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reservations_partial_total",
		Help: "Reservations where honey committed but packaging did not",
	})

	ReservationLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "reservation_latency_seconds",
		Help:    "End-to-end latency of one reservation attempt",
		Buckets: prometheus.DefBuckets,
	})

	CASConflictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_cas_conflicts_total",
		Help: "Version conflicts hit by conditional stock updates",
	}, []string{"pool"})

	DeliveredKgTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "honey_delivered_kg_total",
		Help: "Total honey weight delivered across all orders",
	})

	PrepCommandsIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "prep_commands_issued_total",
		Help: "Total prep commands dispatched to fulfillment",
	})

	PrepCommandsHandledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prep_commands_handled_total",
		Help: "Prep commands processed by the prep worker",
	}, []string{"resource"})

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

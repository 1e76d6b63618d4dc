// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BatchesCommitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ledger",
		Name:      "batches_committed_total",
		Help:      "Atomic batch commits that succeeded.",
	})

	TransactionsCommitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ledger",
		Name:      "transactions_committed_total",
		Help:      "Ledger entries persisted by batch commits.",
	})

	StoreConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ledger",
		Name:      "store_conflicts_total",
		Help:      "Serialization conflicts reported by the store.",
	})

	FundingOrders = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Name:      "funding_orders_total",
		Help:      "Gateway-backed payouts and recharges by kind and status.",
	}, []string{"kind", "status"})

	RequestErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Name:      "request_errors_total",
		Help:      "Failed API requests by error code.",
	}, []string{"code"})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ledger",
		Name:      "request_duration_seconds",
		Help:      "API request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

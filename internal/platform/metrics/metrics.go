// Package metrics declares the Prometheus instruments for the ledger engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// OperationsTotal counts engine operations by operation name and outcome
// ("success" or the failure kind).
var OperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "economy_ledger",
	Name:      "operations_total",
	Help:      "Ledger operations by operation and outcome.",
}, []string{"operation", "outcome"})

// CASRetries counts optimistic-concurrency conflicts that forced a retry.
var CASRetries = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "economy_ledger",
	Name:      "cas_retries_total",
	Help:      "Optimistic concurrency conflicts retried by the engine.",
})

// FlushDuration observes the duration of bulk balance flushes in seconds.
var FlushDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "economy_ledger",
	Name:      "flush_duration_seconds",
	Help:      "Duration of bulk balance flushes.",
	Buckets:   prometheus.DefBuckets,
})

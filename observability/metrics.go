package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EscrowMetrics records RPC activity against the escrow ledger: requests per
// method and outcome, transition counts, and rejected reentrant calls.
type EscrowMetrics struct {
	requests    *prometheus.CounterVec
	transitions *prometheus.CounterVec
	reentrancy  prometheus.Counter
	latency     *prometheus.HistogramVec
}

var (
	escrowMetricsOnce sync.Once
	escrowRegistry    *EscrowMetrics
)

// Escrow returns the lazily-initialised escrow metrics registry. Metrics are
// registered against the default registry exactly once.
func Escrow() *EscrowMetrics {
	escrowMetricsOnce.Do(func() {
		escrowRegistry = &EscrowMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "escrowd",
				Subsystem: "rpc",
				Name:      "requests_total",
				Help:      "Total JSON-RPC requests segmented by method and outcome.",
			}, []string{"method", "outcome"}),
			transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "escrowd",
				Subsystem: "ledger",
				Name:      "transitions_total",
				Help:      "Successful deal transitions segmented by resulting status.",
			}, []string{"status"}),
			reentrancy: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "escrowd",
				Subsystem: "ledger",
				Name:      "reentrant_calls_total",
				Help:      "State-mutating calls rejected by the reentrancy guard.",
			}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "escrowd",
				Subsystem: "rpc",
				Name:      "request_seconds",
				Help:      "JSON-RPC request latency by method.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method"}),
		}
		prometheus.MustRegister(
			escrowRegistry.requests,
			escrowRegistry.transitions,
			escrowRegistry.reentrancy,
			escrowRegistry.latency,
		)
	})
	return escrowRegistry
}

// ObserveRequest records one RPC request with its outcome and duration.
func (m *EscrowMetrics) ObserveRequest(method, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, outcome).Inc()
	m.latency.WithLabelValues(method).Observe(elapsed.Seconds())
}

// RecordTransition records a successful deal transition.
func (m *EscrowMetrics) RecordTransition(status string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(status).Inc()
}

// RecordReentrancyRejection counts a call rejected by the reentrancy guard.
func (m *EscrowMetrics) RecordReentrancyRejection() {
	if m == nil {
		return
	}
	m.reentrancy.Inc()
}

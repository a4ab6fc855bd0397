// Package metrics exposes the faucet's prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nadfaucet",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Count of HTTP requests.",
	}, []string{"method", "path", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "nadfaucet",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})

	panicsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nadfaucet",
		Subsystem: "http",
		Name:      "panics_total",
		Help:      "Count of recovered handler panics.",
	})

	sharesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nadfaucet",
		Subsystem: "engine",
		Name:      "shares_total",
		Help:      "Count of share submissions by outcome.",
	}, []string{"outcome"})

	blocksFinalized = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nadfaucet",
		Subsystem: "engine",
		Name:      "blocks_finalized_total",
		Help:      "Count of finalized blocks.",
	})

	payoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nadfaucet",
		Subsystem: "payouts",
		Name:      "resolved_total",
		Help:      "Count of payouts resolved by status.",
	}, []string{"status"})
)

// ObserveRequest records one completed HTTP request.
func ObserveRequest(method string, path string, status string, started time.Time) {
	requestsTotal.WithLabelValues(method, path, status).Inc()
	requestDuration.WithLabelValues(method, path).Observe(time.Since(started).Seconds())
}

// ObservePanic records one recovered handler panic.
func ObservePanic() {
	panicsTotal.Inc()
}

// ObserveShare records one share submission outcome such as accepted,
// duplicate or quota.
func ObserveShare(outcome string) {
	sharesTotal.WithLabelValues(outcome).Inc()
}

// ObserveBlockFinalized records one block closure.
func ObserveBlockFinalized() {
	blocksFinalized.Inc()
}

// ObservePayout records one payout reaching a terminal status.
func ObservePayout(status string) {
	payoutsTotal.WithLabelValues(status).Inc()
}

// Package metrics holds the Prometheus collectors shared by the gateway,
// the page pollers and the topology sessions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GatewayRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "secflow",
		Subsystem: "gateway",
		Name:      "requests_total",
		Help:      "Requests issued to the analysis backend by method and outcome.",
	}, []string{"method", "outcome"})

	GatewayLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "secflow",
		Subsystem: "gateway",
		Name:      "request_duration_seconds",
		Help:      "Latency of requests to the analysis backend.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	PollTicks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "secflow",
		Subsystem: "poller",
		Name:      "ticks_total",
		Help:      "Refresh ticks run per page.",
	}, []string{"page"})

	PollErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "secflow",
		Subsystem: "poller",
		Name:      "errors_total",
		Help:      "Slice fetch failures per page.",
	}, []string{"page", "slice"})

	PollDiscarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "secflow",
		Subsystem: "poller",
		Name:      "discarded_results_total",
		Help:      "Results dropped because a newer tick already landed or the page unmounted.",
	}, []string{"page"})

	PollSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "secflow",
		Subsystem: "poller",
		Name:      "skipped_ticks_total",
		Help:      "Ticks not started because the previous one was still running.",
	}, []string{"page"})

	MountedPages = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "secflow",
		Subsystem: "poller",
		Name:      "mounted_pages",
		Help:      "Page controllers currently mounted.",
	}, []string{"page"})

	TopologySessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "secflow",
		Subsystem: "topology",
		Name:      "sessions",
		Help:      "Live topology simulation sessions.",
	})
)

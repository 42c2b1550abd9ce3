// Package metrics holds the server's Prometheus collectors. Everything is
// registered through promauto at init; handlers and managers only touch the
// exported vars.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ResultsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nodewatch",
		Name:      "results_recorded_total",
		Help:      "Results committed to the store, by availability.",
	}, []string{"availability"})

	BatchesIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nodewatch",
		Name:      "batches_ingested_total",
		Help:      "Batch ingestions, by final status.",
	}, []string{"status"})

	AssignmentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nodewatch",
		Name:      "assignments_created_total",
		Help:      "Assignments inserted by bulk creation.",
	})

	BundlesGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nodewatch",
		Name:      "bundles_generated_total",
		Help:      "Offline bundles generated.",
	})

	HttpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nodewatch",
		Name:      "http_requests_total",
		Help:      "HTTP requests served, by route and status code.",
	}, []string{"route", "code"})

	HttpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "nodewatch",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency, by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	StatusSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "nodewatch",
		Name:      "status_subscribers",
		Help:      "Currently connected status push subscribers.",
	})
)

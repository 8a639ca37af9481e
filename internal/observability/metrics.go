package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ride_customer"

var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "api_requests_total", Help: "Backend calls issued by the client"},
		[]string{"method", "route", "status"},
	)
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Backend call latency as seen by the client",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	RideSubmissions   = promauto.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "ride_submissions_total", Help: "Ride request form submissions by outcome"}, []string{"outcome"})
	RideCancellations = promauto.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "ride_cancellations_total", Help: "Ride cancel attempts by outcome"}, []string{"outcome"})
	CacheLookups      = promauto.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "cache_lookups_total", Help: "Query cache lookups by result"}, []string{"result"})
	EventsConsumed    = promauto.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "events_consumed_total", Help: "Workflow events read by eventtail"}, []string{"type"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Total HTTP requests handled by the dev server"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Dev server HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	TrackingSubscribers = promauto.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "tracking_subscribers", Help: "Open ride tracking websocket connections"})
)

// Outcome labels shared by the submission and cancellation counters.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeRejected = "rejected"
)

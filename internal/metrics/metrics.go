package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Loader metrics
	ProviderFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loader_provider_fetches_total",
			Help: "Provider fetch attempts by result",
		},
		[]string{"provider", "result"}, // ok, rate_limited, transient, rejected, error
	)

	ProviderFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "loader_provider_fetch_duration_seconds",
			Help:    "Duration of provider fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	LoaderItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loader_items_total",
			Help: "Ingredient candidates processed by outcome",
		},
		[]string{"provider", "outcome"}, // inserted, merged, flagged_for_review, failed
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "loader_circuit_breaker_state",
			Help: "Provider circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"provider"},
	)

	// Recommendation metrics
	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_duration_seconds",
			Help:    "Time spent computing a recommendation list",
			Buckets: prometheus.DefBuckets,
		},
	)

	RecommendResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_results",
			Help:    "Number of recipes returned per recommendation request",
			Buckets: []float64{0, 1, 5, 10, 25, 50},
		},
	)

	RecommendErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_errors_total",
			Help: "Recommendation failures by kind",
		},
		[]string{"kind"}, // profile_not_found, catalog_unavailable
	)

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)
)

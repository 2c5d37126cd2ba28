package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ComparisonsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ride_compare", Name: "comparisons_total", Help: "Total ride comparisons served"},
		[]string{"preference"},
	)
	SavingsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ride_compare", Name: "savings_recorded_total", Help: "Sum of monetary savings recorded"},
		[]string{"kind"},
	)
	MinutesSavedRecorded = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: "ride_compare", Name: "minutes_saved_recorded_total", Help: "Sum of minutes saved recorded"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ride_compare", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ride_compare",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

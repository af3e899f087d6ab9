package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_submissions_total",
			Help: "Application submissions by outcome",
		},
		[]string{"outcome"},
	)

	SubmissionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "intake_submission_duration_seconds",
			Help:    "Time spent handling one submission, provider call and store write included",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_provider_requests_total",
			Help: "Payment verification calls by HTTP status class",
		},
		[]string{"provider", "status"},
	)

	RowsAppended = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "intake_rows_appended_total",
			Help: "Rows written to the application store, header rows included",
		},
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "intake_rate_limited_total",
			Help: "Submissions rejected by the rate limiter",
		},
	)
)

// StatusClass buckets an HTTP status into 2xx, 4xx, 5xx or "error" for
// transport failures.
func StatusClass(code int) string {
	switch {
	case code <= 0:
		return "error"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

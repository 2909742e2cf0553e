package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodbridge_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "foodbridge_http_request_duration_seconds",
			Help:    "Histogram of response durations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	// DonationTransitions counts successful lifecycle status changes.
	DonationTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodbridge_donation_transitions_total",
			Help: "Number of donation status transitions by edge",
		},
		[]string{"from", "to"},
	)
)

func Init() {
	prometheus.MustRegister(RequestCount, RequestDuration, DonationTransitions)
}

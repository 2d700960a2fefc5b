package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the collectors the HTTP layer and the checkout flow report
// into. Collectors are created once at startup and injected, never looked up
// globally from request paths.
type Metrics struct {
	HTTPRequests        *prometheus.CounterVec
	HTTPDuration        *prometheus.HistogramVec
	Checkouts           *prometheus.CounterVec
	UnprocessedProducts prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests served.",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		Checkouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkout_total",
				Help: "Total number of checkout attempts by outcome.",
			},
			[]string{"outcome"},
		),
		UnprocessedProducts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "checkout_unprocessed_products_total",
				Help: "Count of line items left unfulfilled for lack of stock.",
			},
		),
	}

	reg.MustRegister(m.HTTPRequests, m.HTTPDuration, m.Checkouts, m.UnprocessedProducts)
	return m
}

// NewUnregistered returns collectors bound to a throwaway registry, for tests.
func NewUnregistered() *Metrics {
	return New(prometheus.NewRegistry())
}

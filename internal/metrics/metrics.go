package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tavolo",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	bookingTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tavolo",
			Name:      "booking_transitions_total",
			Help:      "Booking lifecycle transitions by result state.",
		},
		[]string{"transition"},
	)

	reviewsSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tavolo",
			Name:      "reviews_submitted_total",
			Help:      "Reviews accepted through the review gate.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingTransitions, reviewsSubmitted)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncTransition counts a booking transition, e.g. "created", "confirmed",
// "cancelled", "no_show", "attended".
func IncTransition(transition string) {
	bookingTransitions.WithLabelValues(transition).Inc()
}

// IncReview counts an accepted review submission.
func IncReview() {
	reviewsSubmitted.Inc()
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EmailsTotal counts email dispatch outcomes per template
	EmailsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codelearn_emails_total",
			Help: "Emails dispatched, by template and result",
		},
		[]string{"template", "status"},
	)

	// PaymentTransitions counts order status changes
	PaymentTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codelearn_payment_transitions_total",
			Help: "Order payment status transitions",
		},
		[]string{"method", "to"},
	)

	// CheckoutDuration measures checkout latency per payment method
	CheckoutDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "codelearn_checkout_duration_seconds",
			Help:    "Duration of checkout operations",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2, 5},
		},
		[]string{"method"},
	)

	// OutboxEvents counts outbox deliveries per topic and result
	OutboxEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codelearn_outbox_events_total",
			Help: "Outbox events processed, by topic and result",
		},
		[]string{"topic", "status"},
	)

	// EventPublishErrors counts failed broker publishes
	EventPublishErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "codelearn_event_publish_errors_total",
			Help: "Total number of event publish errors",
		},
	)

	// HTTPRequests counts handled requests
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codelearn_http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPDuration measures request latency
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "codelearn_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

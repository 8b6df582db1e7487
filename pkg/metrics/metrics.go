package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// HTTP metrics
	RequestDuration *prometheus.HistogramVec
	RequestTotal    *prometheus.CounterVec
	ErrorTotal      *prometheus.CounterVec

	// Email metrics
	EmailsSent       *prometheus.CounterVec
	EmailSendLatency *prometheus.HistogramVec
	DispatchTotal    *prometheus.CounterVec

	// Cache metrics
	CacheLookups *prometheus.CounterVec

	// Worker metrics
	ReportsConsumed *prometheus.CounterVec
}

// NewMetrics creates all application metrics and registers them with reg.
// Pass prometheus.DefaultRegisterer in production and a fresh registry in
// tests.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		RequestTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		ErrorTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "errors_total",
			Help:      "Total number of HTTP errors",
		}, []string{"method", "path", "type"}),

		EmailsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "email",
			Name:      "sent_total",
			Help:      "Emails handed to the SMTP server, by event kind, recipient role and outcome",
		}, []string{"kind", "recipient", "status"}),
		EmailSendLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "email",
			Name:      "send_duration_seconds",
			Help:      "Time spent rendering and sending a single email",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"kind"}),
		DispatchTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "email",
			Name:      "dispatch_total",
			Help:      "Notification events dispatched, by kind and overall outcome",
		}, []string{"kind", "status"}),

		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Identity cache lookups by result",
		}, []string{"result"}),

		ReportsConsumed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "delivery_reports_total",
			Help:      "Delivery reports consumed from the broker, by event kind and outcome",
		}, []string{"kind", "status"}),
	}
}

// Status returns the label used for an outcome.
func Status(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request and backend-call counters, partitioned by backend variant where it
// matters.

var (
	InfoRequests = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sataddr",
		Subsystem: "lnurl",
		Name:      "info_requests_total",
		Help:      "Total LNURL-pay phase 1 (info) requests served",
	})

	InvoiceRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sataddr",
		Subsystem: "lnurl",
		Name:      "invoice_requests_total",
		Help:      "Total LNURL-pay phase 2 (invoice) requests received",
	}, []string{"backend"})

	InvoiceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sataddr",
		Subsystem: "gateway",
		Name:      "invoice_failures_total",
		Help:      "Total failed invoice issuance attempts",
	}, []string{"backend", "reason"})

	BackendCallLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sataddr",
		Subsystem: "gateway",
		Name:      "backend_call_duration_seconds",
		Help:      "Outbound wallet backend call duration",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"backend"})

	Registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sataddr",
		Subsystem: "registry",
		Name:      "registrations_total",
		Help:      "Total successful address registrations and edits",
	}, []string{"backend", "kind"})
)

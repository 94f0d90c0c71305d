package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for bulkmsg-web
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal          *prometheus.CounterVec
	HTTPRequestDurationSeconds *prometheus.HistogramVec

	// Import metrics
	ImportRowsTotal        prometheus.Counter
	ImportRowsSkippedTotal prometheus.Counter
	ContactsImportedTotal  prometheus.Counter

	// Commit metrics
	CommitsTotal *prometheus.CounterVec

	// Send metrics
	MessagesSentTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates a new Metrics instance with all metrics registered
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bulkmsg_http_requests_total",
				Help: "Total number of HTTP requests handled",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bulkmsg_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		ImportRowsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "bulkmsg_import_rows_total",
				Help: "Total number of data rows seen by the import parser",
			},
		),
		ImportRowsSkippedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "bulkmsg_import_rows_skipped_total",
				Help: "Total number of import rows dropped during parsing",
			},
		),
		ContactsImportedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "bulkmsg_contacts_imported_total",
				Help: "Total number of contacts committed by bulk import",
			},
		),
		CommitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bulkmsg_commits_total",
				Help: "Total number of per-record commit attempts by result",
			},
			[]string{"operation", "result"},
		),
		MessagesSentTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bulkmsg_messages_sent_total",
				Help: "Total number of compose sends submitted to the backend",
			},
			[]string{"type", "status"},
		),
		registry: reg,
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDurationSeconds,
		m.ImportRowsTotal,
		m.ImportRowsSkippedTotal,
		m.ContactsImportedTotal,
		m.CommitsTotal,
		m.MessagesSentTotal,
	)
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return m
}

// Registry returns the underlying Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aastu-platform/facility-reports/internal/domain"
)

// Metrics registers the service's Prometheus collectors and exposes a scrape
// handler for the /metrics endpoint.
type Metrics struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration  *prometheus.HistogramVec
	requestTotal     *prometheus.CounterVec
	errorTotal       *prometheus.CounterVec
	transitionTotal  *prometheus.CounterVec
	slaViolations    *prometheus.CounterVec
	duplicateFlags   prometheus.Counter
	notificationsCut prometheus.Counter
}

// NewMetrics registers core collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	errorTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_request_errors_total",
		Help: "Total number of failed HTTP requests by error code",
	}, []string{"method", "path", "code"})

	transitionTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "report_transitions_total",
		Help: "Accepted workflow transitions by action and destination status",
	}, []string{"action", "to_status"})

	slaViolations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "report_sla_violations_total",
		Help: "SLA breaches flagged by the compliance scan, by severity",
	}, []string{"severity"})

	duplicateFlags := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "report_duplicate_warnings_total",
		Help: "Submissions flagged as likely duplicates",
	})

	notificationsCut := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifications_purged_total",
		Help: "Notification records deleted by the retention sweep",
	})

	registry.MustRegister(
		requestDuration,
		requestTotal,
		errorTotal,
		transitionTotal,
		slaViolations,
		duplicateFlags,
		notificationsCut,
		collectors.NewGoCollector(),
	)

	return &Metrics{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		errorTotal:       errorTotal,
		transitionTotal:  transitionTotal,
		slaViolations:    slaViolations,
		duplicateFlags:   duplicateFlags,
		notificationsCut: notificationsCut,
	}
}

// Handler returns the scrape endpoint handler.
func (m *Metrics) Handler() http.Handler {
	return m.handler
}

// RecordRequest captures request counters and latency.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{"method": method, "path": path, "status": strconv.Itoa(status)}
	m.requestTotal.With(labels).Inc()
	m.requestDuration.With(labels).Observe(duration.Seconds())
}

// RecordError counts a failed request by domain error code.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errorTotal.With(prometheus.Labels{"method": method, "path": path, "code": code}).Inc()
}

// RecordTransition counts an accepted workflow transition.
func (m *Metrics) RecordTransition(action string, to domain.ReportStatus) {
	if m == nil {
		return
	}
	m.transitionTotal.With(prometheus.Labels{"action": action, "to_status": string(to)}).Inc()
}

// RecordSLAViolation counts one breach flagged by the compliance scan.
func (m *Metrics) RecordSLAViolation(severity domain.NotificationSeverity) {
	if m == nil {
		return
	}
	m.slaViolations.With(prometheus.Labels{"severity": string(severity)}).Inc()
}

// RecordDuplicateWarning counts a submission flagged as a likely duplicate.
func (m *Metrics) RecordDuplicateWarning() {
	if m == nil {
		return
	}
	m.duplicateFlags.Inc()
}

// RecordNotificationsPurged counts rows removed by the retention sweep.
func (m *Metrics) RecordNotificationsPurged(count int64) {
	if m == nil || count <= 0 {
		return
	}
	m.notificationsCut.Add(float64(count))
}

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nexora_forms",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nexora_forms",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Submission metrics
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nexora_forms",
			Subsystem: "submission",
			Name:      "total",
			Help:      "Total number of form submissions processed",
		},
		[]string{"kind", "status"},
	)

	SubmissionRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nexora_forms",
			Subsystem: "submission",
			Name:      "rejections_total",
			Help:      "Submissions rejected, labeled by the gate that rejected them",
		},
		[]string{"gate"},
	)

	// Store metrics
	StoreAppendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nexora_forms",
			Subsystem: "store",
			Name:      "append_duration_seconds",
			Help:      "Record store append duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"table"},
	)

	StoreErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nexora_forms",
			Subsystem: "store",
			Name:      "errors_total",
			Help:      "Total number of record store errors",
		},
		[]string{"table"},
	)

	// Notification metrics
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nexora_forms",
			Subsystem: "notify",
			Name:      "total",
			Help:      "Confirmation emails attempted",
		},
		[]string{"kind", "status"},
	)

	// Rate limiter metrics
	RateLimitRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nexora_forms",
			Subsystem: "rate_limiter",
			Name:      "requests_total",
			Help:      "Fingerprint rate limiter decisions",
		},
		[]string{"allowed"},
	)

	// Scheduler metrics
	SchedulerJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nexora_forms",
			Subsystem: "scheduler",
			Name:      "jobs_total",
			Help:      "Total number of scheduled jobs executed",
		},
		[]string{"job_name", "status"},
	)

	SchedulerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nexora_forms",
			Subsystem: "scheduler",
			Name:      "job_duration_seconds",
			Help:      "Scheduled job execution duration in seconds",
			Buckets:   []float64{.1, .5, 1, 5, 10, 30, 60},
		},
		[]string{"job_name"},
	)
)

// Metrics provides convenience methods for recording metrics
type Metrics struct{}

// NewMetrics creates a new Metrics instance
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordHTTPRequest records an HTTP request metric
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	HttpRequestsTotal.WithLabelValues(method, endpoint, http.StatusText(statusCode)).Inc()
	HttpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordSubmission records a processed submission
func (m *Metrics) RecordSubmission(kind string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	SubmissionsTotal.WithLabelValues(kind, status).Inc()
}

// RecordRejection records which gate rejected a submission
func (m *Metrics) RecordRejection(gate string) {
	SubmissionRejections.WithLabelValues(gate).Inc()
}

// RecordStoreAppend records a record store append
func (m *Metrics) RecordStoreAppend(table string, duration time.Duration, err error) {
	if err != nil {
		StoreErrorsTotal.WithLabelValues(table).Inc()
		return
	}
	StoreAppendDuration.WithLabelValues(table).Observe(duration.Seconds())
}

// RecordNotification records a confirmation email attempt
func (m *Metrics) RecordNotification(kind string, err error) {
	status := "sent"
	if err != nil {
		status = "failed"
	}
	NotificationsTotal.WithLabelValues(kind, status).Inc()
}

// RecordRateLimitDecision records a fingerprint limiter decision
func (m *Metrics) RecordRateLimitDecision(allowed bool) {
	v := "true"
	if !allowed {
		v = "false"
	}
	RateLimitRequestsTotal.WithLabelValues(v).Inc()
}

// RecordSchedulerJob records a scheduler job execution
func (m *Metrics) RecordSchedulerJob(jobName string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	SchedulerJobsTotal.WithLabelValues(jobName, status).Inc()
	SchedulerJobDuration.WithLabelValues(jobName).Observe(duration.Seconds())
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Package metrics holds the Prometheus counters recorded during one export
// run. Each run owns its own registry; the CLI can dump it to a file in the
// text exposition format for a node_exporter textfile collector.
//
// Metrics:
//   - starter_requests_total{status}: HTTP responses by status code ("error" for network failures)
//   - starter_retries_total{error_class}: retried attempts by error class
//   - starter_retry_backoff_seconds{error_class}: backoff slept before a retry
//   - starter_retry_exhausted_total{error_class}: logical requests that gave up
//   - starter_records_fetched_total: records accumulated across pages
//   - starter_cells_truncated_total{column}: cells clipped to the destination limit
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder owns the run's registry. A nil *Recorder records nothing.
type Recorder struct {
	registry *prometheus.Registry

	requests       *prometheus.CounterVec
	retries        *prometheus.CounterVec
	backoff        *prometheus.HistogramVec
	exhausted      *prometheus.CounterVec
	recordsFetched prometheus.Counter
	cellsTruncated *prometheus.CounterVec
}

// New creates a Recorder with a fresh registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "starter_requests_total",
			Help: "Starter API responses by HTTP status",
		}, []string{"status"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "starter_retries_total",
			Help: "Retried attempts by error class",
		}, []string{"error_class"}),
		backoff: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "starter_retry_backoff_seconds",
			Help:    "Backoff slept before a retry by error class",
			Buckets: []float64{0.2, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"error_class"}),
		exhausted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "starter_retry_exhausted_total",
			Help: "Logical requests that exhausted their retries by error class",
		}, []string{"error_class"}),
		recordsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "starter_records_fetched_total",
			Help: "Records accumulated across result pages",
		}),
		cellsTruncated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "starter_cells_truncated_total",
			Help: "Cells clipped to the destination size limit by column",
		}, []string{"column"}),
	}
	r.registry.MustRegister(r.requests, r.retries, r.backoff, r.exhausted, r.recordsFetched, r.cellsTruncated)
	return r
}

// Registry exposes the run's registry for gathering and tests.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Response counts one HTTP response; status 0 means a network failure.
func (r *Recorder) Response(status int) {
	if r == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	r.requests.WithLabelValues(label).Inc()
}

// Retry counts one retry and the backoff slept before it.
func (r *Recorder) Retry(class string, d time.Duration) {
	if r == nil {
		return
	}
	r.retries.WithLabelValues(class).Inc()
	r.backoff.WithLabelValues(class).Observe(d.Seconds())
}

// Exhausted counts a logical request that gave up.
func (r *Recorder) Exhausted(class string) {
	if r == nil {
		return
	}
	r.exhausted.WithLabelValues(class).Inc()
}

// RecordsFetched adds n accumulated records.
func (r *Recorder) RecordsFetched(n int) {
	if r == nil {
		return
	}
	r.recordsFetched.Add(float64(n))
}

// CellTruncated counts one clipped cell in column.
func (r *Recorder) CellTruncated(column string) {
	if r == nil {
		return
	}
	r.cellsTruncated.WithLabelValues(column).Inc()
}

// WriteTextfile writes every metric of the run to path.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}

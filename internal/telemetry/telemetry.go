// Package telemetry exposes Prometheus counters for uploads, charts and
// insights, plus HTTP request timings.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sheetsight"

// Metrics owns a private registry so tests and multiple servers in one
// process do not collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	uploads  prometheus.Counter
	charts   *prometheus.CounterVec
	insights *prometheus.CounterVec
	failures *prometheus.CounterVec
	requests *prometheus.HistogramVec
}

// New registers all collectors, including Go runtime and process metrics.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		uploads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "datasets_uploaded_total",
			Help:      "Spreadsheets parsed and stored.",
		}),
		charts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "charts_generated_total",
			Help:      "Charts derived and saved, by chart type.",
		}, []string{"kind"}),
		insights: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "insights_generated_total",
			Help:      "Insight requests, by source (ai, mock, existing).",
		}, []string{"source"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_failures_total",
			Help:      "Text generation calls that failed and fell back to the mock.",
		}, []string{"provider"}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by route pattern and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	m.registry.MustRegister(
		m.uploads, m.charts, m.insights, m.failures, m.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// DatasetUploaded counts one stored upload.
func (m *Metrics) DatasetUploaded() { m.uploads.Inc() }

// ChartGenerated counts one saved chart of the given kind.
func (m *Metrics) ChartGenerated(kind string) { m.charts.WithLabelValues(kind).Inc() }

// InsightGenerated counts one insight request served from source.
func (m *Metrics) InsightGenerated(source string) { m.insights.WithLabelValues(source).Inc() }

// GenerationFailed counts one failed generation call.
func (m *Metrics) GenerationFailed(provider string) { m.failures.WithLabelValues(provider).Inc() }

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

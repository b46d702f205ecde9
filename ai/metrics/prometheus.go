// Package metrics provides Prometheus metrics export for the concierge agent.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "loconomy"

// PrometheusExporter exports agent metrics in Prometheus format. It
// implements agent.Recorder.
type PrometheusExporter struct {
	registry *prometheus.Registry

	requests       *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	commands       *prometheus.CounterVec
	intents        *prometheus.CounterVec
	upstreamErrors *prometheus.CounterVec
}

// Config configures the Prometheus exporter.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64

	// IncludeRuntime adds the Go runtime and process collectors.
	IncludeRuntime bool
}

// DefaultConfig returns default Prometheus configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 15, 30},
		IncludeRuntime: true,
	}
}

// NewPrometheusExporter creates a new Prometheus metrics exporter.
func NewPrometheusExporter(cfg Config) *PrometheusExporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &PrometheusExporter{registry: registry}

	e.requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "agent",
			Name:      "requests_total",
			Help:      "Total number of processed inputs by path and response kind",
		},
		[]string{"path", "kind"},
	)

	e.requestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "agent",
			Name:      "request_latency_seconds",
			Help:      "Input processing latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"path"},
	)

	e.commands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "agent",
			Name:      "commands_total",
			Help:      "Total number of slash command invocations by outcome",
		},
		[]string{"command", "status"},
	)

	e.intents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "agent",
			Name:      "intents_total",
			Help:      "Total number of classified intents by label and source",
		},
		[]string{"intent", "source"},
	)

	e.upstreamErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "agent",
			Name:      "upstream_errors_total",
			Help:      "Total number of failed collaborator calls",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		e.requests,
		e.requestLatency,
		e.commands,
		e.intents,
		e.upstreamErrors,
	)
	if cfg.IncludeRuntime {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	return e
}

// RecordRequest records one processed input.
func (e *PrometheusExporter) RecordRequest(path, kind string, latency time.Duration) {
	e.requests.WithLabelValues(path, kind).Inc()
	e.requestLatency.WithLabelValues(path).Observe(latency.Seconds())
}

// RecordCommand records a slash command outcome.
func (e *PrometheusExporter) RecordCommand(command, status string) {
	e.commands.WithLabelValues(command, status).Inc()
}

// RecordIntent records a classification result.
func (e *PrometheusExporter) RecordIntent(intent, source string) {
	e.intents.WithLabelValues(intent, source).Inc()
}

// RecordUpstreamError records a failed completion or booking call.
func (e *PrometheusExporter) RecordUpstreamError(service string) {
	e.upstreamErrors.WithLabelValues(service).Inc()
}

// Handler returns an HTTP handler for the metrics endpoint.
func (e *PrometheusExporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// ServeHTTP implements http.Handler for the metrics endpoint.
func (e *PrometheusExporter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.Handler().ServeHTTP(w, r)
}

// Registry returns the Prometheus registry.
func (e *PrometheusExporter) Registry() *prometheus.Registry {
	return e.registry
}

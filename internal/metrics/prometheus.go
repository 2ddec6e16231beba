// Package metrics provides Prometheus metrics for the chat pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "portfolio"
	subsystem = "rag"
)

// Chat modes.
const (
	ModeSync   = "sync"
	ModeStream = "stream"
)

// Provider operations.
const (
	OpEmbed          = "embed"
	OpComplete       = "complete"
	OpCompleteStream = "complete_stream"
)

// PrometheusExporter exports pipeline metrics in Prometheus format.
type PrometheusExporter struct {
	registry *prometheus.Registry

	// Chat metrics
	chatRequests *prometheus.CounterVec
	chatLatency  *prometheus.HistogramVec

	// Provider metrics
	providerLatency *prometheus.HistogramVec
	providerErrors  *prometheus.CounterVec

	knowledgeEntries prometheus.Gauge
}

// Config configures the Prometheus exporter.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64

	// RuntimeCollectors adds the Go runtime and process collectors.
	RuntimeCollectors bool
}

// DefaultConfig returns default Prometheus configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets:    []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		RuntimeCollectors: true,
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

	e.chatRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "chat_requests_total",
			Help:      "Total number of chat requests",
		},
		[]string{"mode", "status"},
	)

	e.chatLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "chat_latency_seconds",
			Help:      "Chat request latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"mode"},
	)

	e.providerLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "provider_latency_seconds",
			Help:      "Model provider call latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"operation"},
	)

	e.providerErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "provider_errors_total",
			Help:      "Total number of failed model provider calls",
		},
		[]string{"operation"},
	)

	e.knowledgeEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "knowledge_entries",
			Help:      "Number of entries in the loaded knowledge base",
		},
	)

	registry.MustRegister(
		e.chatRequests,
		e.chatLatency,
		e.providerLatency,
		e.providerErrors,
		e.knowledgeEntries,
	)
	if cfg.RuntimeCollectors {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	return e
}

// RecordChatRequest records a chat request metric.
func (e *PrometheusExporter) RecordChatRequest(mode string, latency time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}

	e.chatRequests.WithLabelValues(mode, status).Inc()
	e.chatLatency.WithLabelValues(mode).Observe(latency.Seconds())
}

// RecordProviderCall records one call to the model provider.
func (e *PrometheusExporter) RecordProviderCall(operation string, latency time.Duration, err error) {
	e.providerLatency.WithLabelValues(operation).Observe(latency.Seconds())
	if err != nil {
		e.providerErrors.WithLabelValues(operation).Inc()
	}
}

// SetKnowledgeEntries sets the loaded knowledge base size.
func (e *PrometheusExporter) SetKnowledgeEntries(count int) {
	e.knowledgeEntries.Set(float64(count))
}

// Handler returns the HTTP handler for the metrics endpoint.
func (e *PrometheusExporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// Package metrics exposes Prometheus metrics for queries, model calls and tool calls.
// All methods are safe on a nil *Metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mcpchat"

// Tool call outcomes.
const (
	StatusOK     = "ok"
	StatusError  = "error"
	StatusDenied = "denied"
)

// Metrics holds every collector on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	llmRequests  *prometheus.CounterVec
	llmLatency   prometheus.Histogram
	toolCalls    *prometheus.CounterVec
	toolLatency  *prometheus.HistogramVec
	iterations   prometheus.Histogram
	capReached   prometheus.Counter
	queriesTotal *prometheus.CounterVec
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		llmRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Model generate calls by outcome",
		}, []string{"status"}),
		llmLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Model generate call latency",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		toolCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Tool invocations by tool and outcome",
		}, []string{"tool", "status"}),
		toolLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_call_duration_seconds",
			Help:      "Tool invocation latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"}),
		iterations: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "loop_iterations",
			Help:      "Model calls made per query",
			Buckets:   []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		}),
		capReached: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loop_cap_reached_total",
			Help:      "Queries stopped by the iteration cap",
		}),
		queriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Queries processed by outcome",
		}, []string{"status"}),
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveLLMCall records one model call.
func (m *Metrics) ObserveLLMCall(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.llmRequests.WithLabelValues(statusOf(err)).Inc()
	m.llmLatency.Observe(d.Seconds())
}

// ObserveToolCall records one tool invocation with its outcome.
func (m *Metrics) ObserveToolCall(name, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(name, status).Inc()
	if status != StatusDenied {
		m.toolLatency.WithLabelValues(name).Observe(d.Seconds())
	}
}

// ObserveQuery records a finished query.
func (m *Metrics) ObserveQuery(iterations int, capReached bool, err error) {
	if m == nil {
		return
	}
	m.queriesTotal.WithLabelValues(statusOf(err)).Inc()
	m.iterations.Observe(float64(iterations))
	if capReached {
		m.capReached.Inc()
	}
}

func statusOf(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusOK
}

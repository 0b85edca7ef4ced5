// Package metrics exports Prometheus collectors for turns, nodes and tool
// calls. Metrics consumes graph events and turn outcomes.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/loxresearch/genie/src/graph"
)

const namespace = "genie"

// Metrics holds the collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	turns        *prometheus.CounterVec
	turnDuration prometheus.Histogram
	nodeDuration *prometheus.HistogramVec
	fallbacks    *prometheus.CounterVec
	toolCalls    *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec
	interrupts   prometheus.Counter
}

var _ graph.EventProcessor = (*Metrics)(nil)

// New registers all collectors plus the Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Turns by outcome and whether the state was persisted.",
		}, []string{"status", "persisted"}),
		turnDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "Wall time of a turn including persistence.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 9),
		}),
		nodeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "node_duration_seconds",
			Help:      "Time spent in each graph node.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"node"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inference_fallbacks_total",
			Help:      "Nodes that substituted a fallback after an inference failure.",
		}, []string{"node"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Executor tool calls by tool and status.",
		}, []string{"tool", "status"}),
		toolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_call_duration_seconds",
			Help:      "Tool selection plus invocation time.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"}),
		interrupts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clarification_interrupts_total",
			Help:      "Turns suspended waiting on a human reply.",
		}),
	}
	m.registry.MustRegister(
		m.turns, m.turnDuration, m.nodeDuration, m.fallbacks,
		m.toolCalls, m.toolDuration, m.interrupts,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// TurnFinished records a turn outcome.
func (m *Metrics) TurnFinished(status graph.Status, persisted bool, d time.Duration) {
	m.turns.WithLabelValues(string(status), strconv.FormatBool(persisted)).Inc()
	m.turnDuration.Observe(d.Seconds())
}

// Process records a graph event.
func (m *Metrics) Process(event graph.Event) error {
	switch e := event.(type) {
	case *graph.NodeFinishedEvent:
		m.nodeDuration.WithLabelValues(string(e.Node)).Observe(e.Duration.Seconds())
		if e.Fallback {
			m.fallbacks.WithLabelValues(string(e.Node)).Inc()
		}
	case *graph.ToolCallEvent:
		tool := e.ToolName
		if tool == "" {
			tool = "none"
		}
		status := "ok"
		if e.Failed {
			status = "error"
		}
		m.toolCalls.WithLabelValues(tool, status).Inc()
		m.toolDuration.WithLabelValues(tool).Observe(e.Duration.Seconds())
	case *graph.InterruptEvent:
		m.interrupts.Inc()
	}
	return nil
}

// Close implements graph.EventProcessor.
func (m *Metrics) Close() error {
	return nil
}

package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/whitehatjr1001/cine-brain/pkg/domain"
)

const namespace = "cinebrain"

// Metrics collects stage, tool and turn counters.
type Metrics struct {
	registry      *prometheus.Registry
	stageVisits   *prometheus.CounterVec
	stageErrors   *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	toolCalls     *prometheus.CounterVec
	suspensions   prometheus.Counter
	outcomes      *prometheus.CounterVec
}

// NewMetrics registers the collectors on a fresh registry, along with the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		stageVisits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_visits_total",
			Help:      "Total number of stage executions.",
		}, []string{"stage"}),
		stageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_errors_total",
			Help:      "Stage executions that returned an error.",
		}, []string{"stage"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of stage executions.",
			Buckets:   []float64{.01, .05, .1, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"stage"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Tool executions by outcome.",
		}, []string{"tool", "outcome"}),
		suspensions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suspensions_total",
			Help:      "Turns suspended at the feedback gate.",
		}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Finished turns by outcome status.",
		}, []string{"status"}),
	}
	m.registry.MustRegister(
		m.stageVisits, m.stageErrors, m.stageDuration, m.toolCalls, m.suspensions, m.outcomes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStageEnter: func(_ context.Context, e *domain.StageEvent) {
			m.stageVisits.WithLabelValues(e.Stage).Inc()
		},
		OnStageLeave: func(_ context.Context, e *domain.StageEvent) {
			m.stageDuration.WithLabelValues(e.Stage).Observe(e.Duration.Seconds())
			if e.Err != nil {
				m.stageErrors.WithLabelValues(e.Stage).Inc()
			}
		},
		OnToolReturn: func(_ context.Context, e *domain.ToolEvent) {
			outcome := "ok"
			if e.IsError {
				outcome = "error"
			}
			m.toolCalls.WithLabelValues(e.ToolName, outcome).Inc()
		},
		OnSuspend: func(context.Context, *domain.SuspendEvent) {
			m.suspensions.Inc()
		},
	}
}

// ObserveOutcome counts a finished Run or Resume by status
// ("completed", "suspended", "failed").
func (m *Metrics) ObserveOutcome(status string) {
	m.outcomes.WithLabelValues(status).Inc()
}

// Registry exposes the underlying registry for additional collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

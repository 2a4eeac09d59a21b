package workflow

import (
	"time"

	"eino_data_analyst/internal/core"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Turn outcomes
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
	OutcomeError   = "error"
)

// Execution statuses
const (
	StatusSuccess    = "success"
	StatusError      = "error"
	StatusLoadFailed = "load_failed"
)

// Metrics records workflow activity in Prometheus
type Metrics struct {
	turnsTotal        *prometheus.CounterVec
	executionsTotal   *prometheus.CounterVec
	repairsTotal      prometheus.Counter
	stepsTotal        *prometheus.CounterVec
	executionDuration prometheus.Histogram
	turnDuration      *prometheus.HistogramVec
}

// NewMetrics registers the workflow metrics with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		turnsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analyst_turns_total",
				Help: "Total number of analysis turns by outcome",
			},
			[]string{"outcome"},
		),
		executionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analyst_executions_total",
				Help: "Total number of code executions by status",
			},
			[]string{"status"},
		),
		repairsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "analyst_repairs_total",
				Help: "Total number of repair attempts",
			},
		),
		stepsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analyst_steps_total",
				Help: "Total number of workflow steps run, by step",
			},
			[]string{"step"},
		),
		executionDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "analyst_execution_duration_seconds",
				Help:    "Duration of code executions in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		turnDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "analyst_turn_duration_seconds",
				Help:    "Duration of analysis turns in seconds",
				Buckets: []float64{1, 2.5, 5, 10, 20, 40, 80, 160},
			},
			[]string{"outcome"},
		),
	}
}

// ObserveStep counts one run of step
func (m *Metrics) ObserveStep(step core.Step) {
	if m == nil {
		return
	}
	m.stepsTotal.WithLabelValues(string(step)).Inc()
	if step == core.StepRepair {
		m.repairsTotal.Inc()
	}
}

// ObserveExecution records one execution result
func (m *Metrics) ObserveExecution(res core.ExecutionResult, duration time.Duration) {
	if m == nil {
		return
	}
	status := StatusSuccess
	switch {
	case res.LoadFailed:
		status = StatusLoadFailed
	case res.Error != "":
		status = StatusError
	}
	m.executionsTotal.WithLabelValues(status).Inc()
	m.executionDuration.Observe(duration.Seconds())
}

// ObserveTurn records the outcome of a finished turn
func (m *Metrics) ObserveTurn(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(outcome).Inc()
	m.turnDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

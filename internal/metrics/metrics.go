// Package metrics records Prometheus metrics for a nemo run.
//
// Each run owns its own registry so metrics never leak between runs or tests.
// The CLI dumps the registry in text exposition format when --metrics-file is
// set, which lets node_exporter's textfile collector pick them up.
//
// All methods are safe on a nil *Metrics, so components can take metrics as an
// optional dependency without nil checks at every call site.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "nemo"

// Label values for write outcomes.
const (
	WriteOK        = "ok"
	WriteRetry     = "retry"
	WriteFatal     = "fatal"
	WriteExhausted = "exhausted"
)

// Label values for improvement proposal outcomes.
const (
	ProposalAccepted  = "accepted"
	ProposalRejected  = "rejected"
	ProposalDuplicate = "duplicate"
)

// Metrics holds the collectors for one run.
type Metrics struct {
	registry *prometheus.Registry

	writesTotal      *prometheus.CounterVec
	lockWaitSeconds  prometheus.Histogram
	llmRequestsTotal *prometheus.CounterVec
	llmSeconds       *prometheus.HistogramVec
	toolSeconds      *prometheus.HistogramVec
	proposalsTotal   *prometheus.CounterVec
	lintScore        prometheus.Gauge
	complexity       prometheus.Gauge
	coverage         prometheus.Gauge
	runsTotal        *prometheus.CounterVec
	runSeconds       prometheus.Histogram
}

// New creates a Metrics instance backed by a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		writesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fileio",
			Name:      "write_attempts_total",
			Help:      "Durable write attempts by outcome",
		}, []string{"outcome"}),
		lockWaitSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fileio",
			Name:      "lock_wait_seconds",
			Help:      "Time spent waiting for file locks",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30},
		}),
		llmRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "requests_total",
			Help:      "Language model requests by provider and status",
		}, []string{"provider", "status"}),
		llmSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "request_duration_seconds",
			Help:      "Language model request latency",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"provider"}),
		toolSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "quality",
			Name:      "tool_duration_seconds",
			Help:      "Quality tool run time by tool",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"}),
		proposalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orchestrator",
			Name:      "proposals_total",
			Help:      "Improvement proposals by loop and outcome",
		}, []string{"loop", "outcome"}),
		lintScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "quality",
			Name:      "lint_score",
			Help:      "Last observed lint score out of 10",
		}),
		complexity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "quality",
			Name:      "cognitive_complexity",
			Help:      "Last observed cognitive complexity, -1 when unknown",
		}),
		coverage: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "quality",
			Name:      "coverage_percent",
			Help:      "Last observed test coverage percentage",
		}),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orchestrator",
			Name:      "runs_total",
			Help:      "Completed runs by status",
		}, []string{"status"}),
		runSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "orchestrator",
			Name:      "run_duration_seconds",
			Help:      "Wall time of a run",
			Buckets:   []float64{10, 30, 60, 120, 300, 600, 1200, 3600},
		}),
	}

	m.registry.MustRegister(
		m.writesTotal,
		m.lockWaitSeconds,
		m.llmRequestsTotal,
		m.llmSeconds,
		m.toolSeconds,
		m.proposalsTotal,
		m.lintScore,
		m.complexity,
		m.coverage,
		m.runsTotal,
		m.runSeconds,
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// WriteAttempt counts one durable write attempt with the given outcome.
func (m *Metrics) WriteAttempt(outcome string) {
	if m == nil {
		return
	}
	m.writesTotal.WithLabelValues(outcome).Inc()
}

// LockWait records how long a lock acquisition took.
func (m *Metrics) LockWait(d time.Duration) {
	if m == nil {
		return
	}
	m.lockWaitSeconds.Observe(d.Seconds())
}

// LLMRequest records one language model round trip.
func (m *Metrics) LLMRequest(provider string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.llmRequestsTotal.WithLabelValues(provider, status).Inc()
	m.llmSeconds.WithLabelValues(provider).Observe(d.Seconds())
}

// ToolRun records one quality tool invocation.
func (m *Metrics) ToolRun(tool string, d time.Duration) {
	if m == nil {
		return
	}
	m.toolSeconds.WithLabelValues(tool).Observe(d.Seconds())
}

// Proposal counts an improvement proposal outcome for a loop.
func (m *Metrics) Proposal(loop, outcome string) {
	if m == nil {
		return
	}
	m.proposalsTotal.WithLabelValues(loop, outcome).Inc()
}

// Quality sets the code quality gauges. Unknown complexity is exported as -1.
func (m *Metrics) Quality(score float64, complexity int, known bool) {
	if m == nil {
		return
	}
	m.lintScore.Set(score)
	if known {
		m.complexity.Set(float64(complexity))
	} else {
		m.complexity.Set(-1)
	}
}

// Coverage sets the coverage gauge.
func (m *Metrics) Coverage(percent int) {
	if m == nil {
		return
	}
	m.coverage.Set(float64(percent))
}

// RunFinished counts a completed run.
func (m *Metrics) RunFinished(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(status).Inc()
	m.runSeconds.Observe(d.Seconds())
}

// WriteToTextfile writes the registry in text exposition format to path.
func (m *Metrics) WriteToTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}

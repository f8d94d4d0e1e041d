package reconciler

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"saptunectl/pkg/logging"
)

// ReconcilerMetrics tracks the cycles of the watch daemon.
//
// The metrics live in a private registry; WriteTextfile exports them in the
// text format read by node_exporter's textfile collector.
type ReconcilerMetrics struct {
	mu sync.RWMutex

	registry *prometheus.Registry

	attempts       *prometheus.CounterVec
	successes      prometheus.Counter
	failures       *prometheus.CounterVec
	changedCycles  prometheus.Counter
	commands       prometheus.Counter
	lastSuccess    prometheus.Gauge
	lastDuration   prometheus.Gauge
	consecutiveErr prometheus.Gauge

	totalReconcileAttempts  int64
	totalReconcileSuccesses int64
	totalReconcileFailures  int64
	totalCommandsExecuted   int64
	lastSuccessAt           time.Time
	lastFailureAt           time.Time
}

// NewReconcilerMetrics creates a new ReconcilerMetrics instance.
func NewReconcilerMetrics() *ReconcilerMetrics {
	m := &ReconcilerMetrics{
		registry: prometheus.NewRegistry(),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "saptunectl",
			Name:      "reconcile_attempts_total",
			Help:      "Reconciliation cycles started, by trigger.",
		}, []string{"trigger"}),
		successes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "saptunectl",
			Name:      "reconcile_successes_total",
			Help:      "Reconciliation cycles that finished without error.",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "saptunectl",
			Name:      "reconcile_failures_total",
			Help:      "Reconciliation cycles that failed, by reason.",
		}, []string{"reason"}),
		changedCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "saptunectl",
			Name:      "reconcile_changed_total",
			Help:      "Reconciliation cycles that executed at least one command.",
		}),
		commands: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "saptunectl",
			Name:      "commands_executed_total",
			Help:      "saptune and systemctl commands executed.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "saptunectl",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful cycle.",
		}),
		lastDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "saptunectl",
			Name:      "last_cycle_duration_seconds",
			Help:      "Duration of the last cycle.",
		}),
		consecutiveErr: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "saptunectl",
			Name:      "consecutive_failures",
			Help:      "Failed cycles since the last success.",
		}),
	}
	m.registry.MustRegister(m.attempts, m.successes, m.failures, m.changedCycles,
		m.commands, m.lastSuccess, m.lastDuration, m.consecutiveErr)
	return m
}

// Registry returns the registry holding the metrics.
func (m *ReconcilerMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordAttempt records the start of a cycle.
func (m *ReconcilerMetrics) RecordAttempt(trigger Trigger) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.attempts.WithLabelValues(string(trigger)).Inc()
	m.totalReconcileAttempts++
}

// RecordSuccess records a successful cycle.
func (m *ReconcilerMetrics) RecordSuccess(result ReconcileResult, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.successes.Inc()
	m.commands.Add(float64(result.Commands))
	if result.Changed {
		m.changedCycles.Inc()
	}
	m.lastSuccess.Set(float64(now.Unix()))
	m.lastDuration.Set(duration.Seconds())
	m.consecutiveErr.Set(0)

	m.totalReconcileSuccesses++
	m.totalCommandsExecuted += int64(result.Commands)
	m.lastSuccessAt = now
}

// RecordFailure records a failed cycle. reason is a short classification
// of the error used as label value.
func (m *ReconcilerMetrics) RecordFailure(result ReconcileResult, reason string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.failures.WithLabelValues(reason).Inc()
	m.commands.Add(float64(result.Commands))
	m.lastDuration.Set(duration.Seconds())
	m.consecutiveErr.Inc()

	m.totalReconcileFailures++
	m.totalCommandsExecuted += int64(result.Commands)
	m.lastFailureAt = time.Now()

	logging.Debug("Watch", "Recorded failed cycle (%s), %d failures in total", reason, m.totalReconcileFailures)
}

// WriteTextfile writes all metrics to path in the Prometheus text format.
func (m *ReconcilerMetrics) WriteTextfile(path string) error {
	if path == "" {
		return errors.New("no textfile path configured")
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return prometheus.WriteToTextfile(path, m.registry)
}

// ReconcilerMetricsSummary provides a summary of reconciliation metrics.
type ReconcilerMetricsSummary struct {
	TotalReconcileAttempts  int64     `json:"total_reconcile_attempts"`
	TotalReconcileSuccesses int64     `json:"total_reconcile_successes"`
	TotalReconcileFailures  int64     `json:"total_reconcile_failures"`
	TotalCommandsExecuted   int64     `json:"total_commands_executed"`
	LastSuccessAt           time.Time `json:"last_success_at,omitempty"`
	LastFailureAt           time.Time `json:"last_failure_at,omitempty"`
	ReconcileFailureRate    float64   `json:"reconcile_failure_rate"`
}

// GetSummary returns a snapshot of the counters.
func (m *ReconcilerMetrics) GetSummary() ReconcilerMetricsSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summary := ReconcilerMetricsSummary{
		TotalReconcileAttempts:  m.totalReconcileAttempts,
		TotalReconcileSuccesses: m.totalReconcileSuccesses,
		TotalReconcileFailures:  m.totalReconcileFailures,
		TotalCommandsExecuted:   m.totalCommandsExecuted,
		LastSuccessAt:           m.lastSuccessAt,
		LastFailureAt:           m.lastFailureAt,
	}
	if m.totalReconcileAttempts > 0 {
		summary.ReconcileFailureRate = float64(m.totalReconcileFailures) / float64(m.totalReconcileAttempts)
	}
	return summary
}

package reconciler

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestReconcilerMetrics_NewInstance(t *testing.T) {
	metrics := NewReconcilerMetrics()
	if metrics == nil {
		t.Fatal("expected non-nil metrics instance")
	}
	if metrics.Registry() == nil {
		t.Error("expected registry to be initialized")
	}

	summary := metrics.GetSummary()
	if summary.TotalReconcileAttempts != 0 || summary.ReconcileFailureRate != 0 {
		t.Errorf("expected empty summary, got %+v", summary)
	}
}

func TestReconcilerMetrics_RecordAttempt(t *testing.T) {
	metrics := NewReconcilerMetrics()

	metrics.RecordAttempt(TriggerStartup)
	metrics.RecordAttempt(TriggerOverride)
	metrics.RecordAttempt(TriggerOverride)

	if got := testutil.ToFloat64(metrics.attempts.WithLabelValues(string(TriggerOverride))); got != 2 {
		t.Errorf("expected 2 override attempts, got %v", got)
	}
	if got := metrics.GetSummary().TotalReconcileAttempts; got != 3 {
		t.Errorf("expected TotalReconcileAttempts=3, got %d", got)
	}
}

func TestReconcilerMetrics_RecordSuccess(t *testing.T) {
	metrics := NewReconcilerMetrics()

	metrics.RecordAttempt(TriggerConfig)
	metrics.RecordSuccess(ReconcileResult{Changed: true, Commands: 4}, 3*time.Second)
	metrics.RecordAttempt(TriggerResync)
	metrics.RecordSuccess(ReconcileResult{}, time.Second)

	if got := testutil.ToFloat64(metrics.successes); got != 2 {
		t.Errorf("expected 2 successes, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.changedCycles); got != 1 {
		t.Errorf("expected 1 changed cycle, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.commands); got != 4 {
		t.Errorf("expected 4 commands, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.lastDuration); got != 1 {
		t.Errorf("expected last duration 1s, got %v", got)
	}

	summary := metrics.GetSummary()
	if summary.LastSuccessAt.IsZero() {
		t.Error("expected LastSuccessAt to be set")
	}
	if summary.TotalCommandsExecuted != 4 {
		t.Errorf("expected TotalCommandsExecuted=4, got %d", summary.TotalCommandsExecuted)
	}
}

func TestReconcilerMetrics_RecordFailure(t *testing.T) {
	metrics := NewReconcilerMetrics()

	metrics.RecordAttempt(TriggerStartup)
	metrics.RecordFailure(ReconcileResult{Commands: 1, Error: errors.New("boom")}, "command_failed", time.Second)
	metrics.RecordAttempt(TriggerRetry)
	metrics.RecordFailure(ReconcileResult{Error: errors.New("boom")}, "command_failed", time.Second)

	if got := testutil.ToFloat64(metrics.failures.WithLabelValues("command_failed")); got != 2 {
		t.Errorf("expected 2 command failures, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.consecutiveErr); got != 2 {
		t.Errorf("expected 2 consecutive failures, got %v", got)
	}

	metrics.RecordAttempt(TriggerRetry)
	metrics.RecordSuccess(ReconcileResult{}, time.Second)
	if got := testutil.ToFloat64(metrics.consecutiveErr); got != 0 {
		t.Errorf("expected consecutive failures reset, got %v", got)
	}

	summary := metrics.GetSummary()
	if summary.TotalReconcileFailures != 2 {
		t.Errorf("expected TotalReconcileFailures=2, got %d", summary.TotalReconcileFailures)
	}
	if summary.ReconcileFailureRate < 0.66 || summary.ReconcileFailureRate > 0.67 {
		t.Errorf("expected failure rate of 2/3, got %v", summary.ReconcileFailureRate)
	}
	if summary.LastFailureAt.IsZero() {
		t.Error("expected LastFailureAt to be set")
	}
}

func TestReconcilerMetrics_WriteTextfile(t *testing.T) {
	metrics := NewReconcilerMetrics()
	metrics.RecordAttempt(TriggerManual)
	metrics.RecordSuccess(ReconcileResult{Changed: true, Commands: 2}, time.Second)

	path := filepath.Join(t.TempDir(), "saptunectl.prom")
	if err := metrics.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read textfile: %v", err)
	}
	for _, want := range []string{
		`saptunectl_reconcile_attempts_total{trigger="Manual"} 1`,
		"saptunectl_reconcile_changed_total 1",
		"saptunectl_commands_executed_total 2",
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("textfile missing %q:\n%s", want, data)
		}
	}

	if err := metrics.WriteTextfile(""); err == nil {
		t.Error("expected error for empty path")
	}
}

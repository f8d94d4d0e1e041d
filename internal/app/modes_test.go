package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saptunectl/internal/reconciler"
	"saptunectl/internal/runner"
)

const watchConfigYAML = `apply:
  - "941735"
state_dir: ""
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestWatchReconciler_ReloadsConfigEveryCycle(t *testing.T) {
	path := writeConfig(t, watchConfigYAML)
	script := inventoryScript().
		OnOutput(statusCheckCmd, hostState{notes: []string{"941735"}}.json(t)).
		OnSuccess("saptune revert all", "saptune note apply 941735", "saptune note apply 1656250")

	w := &watchReconciler{config: NewConfig(false, true, path, true), executor: NewExecutor(script, nil)}

	res := w.Reconcile(context.Background(), reconciler.ReconcileRequest{Trigger: reconciler.TriggerStartup, Attempt: 1})
	require.NoError(t, res.Error)
	assert.False(t, res.Changed)
	assert.Empty(t, changes(script))
	assert.NotEmpty(t, res.RunID)

	require.NoError(t, os.WriteFile(path, []byte("apply: [\"941735\", \"1656250\"]\nstate_dir: \"\"\n"), 0o644))
	res = w.Reconcile(context.Background(), reconciler.ReconcileRequest{Trigger: reconciler.TriggerConfig, Attempt: 1})
	require.NoError(t, res.Error)
	assert.True(t, res.Changed)
	assert.Equal(t, 3, res.Commands)
	assert.Equal(t, []string{
		"saptune revert all",
		"saptune note apply 941735",
		"saptune note apply 1656250",
	}, changes(script))
}

func TestWatchReconciler_ForceReapplies(t *testing.T) {
	path := writeConfig(t, watchConfigYAML)
	script := inventoryScript().
		OnOutput(statusCheckCmd, hostState{notes: []string{"941735"}}.json(t)).
		OnSuccess("saptune revert all", "saptune note apply 941735")

	w := &watchReconciler{config: NewConfig(false, true, path, true), executor: NewExecutor(script, nil)}

	res := w.Reconcile(context.Background(), reconciler.ReconcileRequest{Trigger: reconciler.TriggerOverride, Force: true, Attempt: 1})
	require.NoError(t, res.Error)
	assert.Equal(t, []string{"saptune revert all", "saptune note apply 941735"}, changes(script))
}

func TestWatchReconciler_BrokenConfig(t *testing.T) {
	path := writeConfig(t, "apply: [\"941735\"]\nunknown_key: true\n")
	script := runner.NewScript()

	w := &watchReconciler{config: NewConfig(false, true, path, true), executor: NewExecutor(script, nil)}
	res := w.Reconcile(context.Background(), reconciler.ReconcileRequest{Trigger: reconciler.TriggerConfig, Attempt: 1})

	require.Error(t, res.Error)
	assert.Empty(t, script.Calls())
}

type stubDetector struct{}

func (stubDetector) Start(context.Context, chan<- reconciler.ChangeEvent) error { return nil }
func (stubDetector) Stop() error                                                { return nil }

type stubNotifier struct{}

func (stubNotifier) Ready()                          {}
func (stubNotifier) Stopping()                       {}
func (stubNotifier) Status(string)                   {}
func (stubNotifier) WatchdogInterval() time.Duration { return 0 }
func (stubNotifier) Watchdog()                       {}

func TestServeWatch_Signals(t *testing.T) {
	cycles := make(chan reconciler.ReconcileRequest, 10)
	manager := reconciler.NewManager(reconciler.ManagerConfig{
		Detector: stubDetector{},
		Notifier: stubNotifier{},
	}, reconciler.ReconcilerFunc(func(_ context.Context, req reconciler.ReconcileRequest) reconciler.ReconcileResult {
		cycles <- req
		return reconciler.ReconcileResult{}
	}))

	signals := make(chan os.Signal, 1)
	done := make(chan error, 1)
	go func() { done <- serveWatch(context.Background(), manager, signals) }()

	next := func() reconciler.ReconcileRequest {
		select {
		case req := <-cycles:
			return req
		case <-time.After(3 * time.Second):
			t.Fatal("timed out waiting for a cycle")
			return reconciler.ReconcileRequest{}
		}
	}

	assert.Equal(t, reconciler.TriggerStartup, next().Trigger)

	signals <- syscall.SIGHUP
	assert.Equal(t, reconciler.TriggerManual, next().Trigger)

	signals <- syscall.SIGTERM
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("watch did not stop on SIGTERM")
	}
	assert.False(t, manager.IsRunning())
}

func TestServeWatch_ContextCancel(t *testing.T) {
	manager := reconciler.NewManager(reconciler.ManagerConfig{
		Detector: stubDetector{},
		Notifier: stubNotifier{},
	}, reconciler.ReconcilerFunc(func(context.Context, reconciler.ReconcileRequest) reconciler.ReconcileResult {
		return reconciler.ReconcileResult{Error: errors.New("saptune missing")}
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serveWatch(ctx, manager, make(chan os.Signal)) }()

	require.Eventually(t, manager.IsRunning, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("watch did not stop on cancellation")
	}
}

func TestNewWatchManager_UsesWatchSection(t *testing.T) {
	path := writeConfig(t, watchConfigYAML)
	cfg := NewConfig(false, true, path, true)
	cfg.Runner = runner.NewScript()

	application, err := NewApplication(cfg)
	require.NoError(t, err)

	manager := newWatchManager(cfg, application.Services())
	require.NotNil(t, manager)
	assert.False(t, manager.IsRunning())
	assert.Equal(t, 0, manager.GetQueueLength())
}

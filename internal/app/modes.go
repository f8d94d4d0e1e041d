package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"saptunectl/internal/config"
	"saptunectl/internal/reconciler"
	"saptunectl/pkg/logging"
)

// watchReconciler runs one executor cycle per reconcile request. The
// configuration is read again for every cycle so edits take effect without
// a restart; a forced request reapplies the tuning.
type watchReconciler struct {
	config   *Config
	executor *Executor
}

func (w *watchReconciler) Reconcile(ctx context.Context, req reconciler.ReconcileRequest) reconciler.ReconcileResult {
	sc, err := w.config.LoadConfig()
	if err != nil {
		return reconciler.ReconcileResult{Error: err}
	}
	if req.Force {
		sc.ForceReapply = true
	}

	result, err := w.executor.Reconcile(ctx, Request{Config: sc, Trigger: string(req.Trigger)})
	return reconciler.ReconcileResult{
		Changed:  result.Changed,
		Commands: len(result.Executed),
		RunID:    result.RunID,
		Error:    err,
	}
}

// initDaemonLogging switches logging to the settings of the logging section.
func initDaemonLogging(cfg *Config) error {
	lc := cfg.SaptunectlConfig.Logging
	level, err := logging.ParseLevel(lc.Level)
	if err != nil {
		return err
	}
	if cfg.Debug {
		level = logging.LevelDebug
	}
	logging.InitForDaemon(level, os.Stderr, logging.FileOptions{
		Path:       lc.File,
		MaxSizeMB:  lc.MaxSizeMB,
		MaxBackups: lc.MaxBackups,
		MaxAgeDays: lc.MaxAgeDays,
		Compress:   true,
		JSON:       lc.JSON,
	})
	return nil
}

// newWatchManager creates the reconcile manager for the loaded configuration.
// The watch section is only read here; changing it requires a restart.
func newWatchManager(cfg *Config, services *Services) *reconciler.Manager {
	wc := cfg.SaptunectlConfig.Watch
	return reconciler.NewManager(reconciler.ManagerConfig{
		ConfigPath:       cfg.ConfigPath,
		OverrideDirs:     wc.OverrideDirs,
		MaxRetries:       wc.MaxRetries,
		InitialBackoff:   wc.RetryBackoff,
		DebounceInterval: wc.Debounce,
		ResyncInterval:   wc.ResyncInterval,
		MetricsTextfile:  wc.MetricsTextfile,
	}, &watchReconciler{config: cfg, executor: services.Executor})
}

// runWatchMode runs the watch daemon.
//
// Signal Handling:
//   - SIGHUP: requests a reconciliation cycle
//   - SIGINT, SIGTERM: graceful shutdown
func runWatchMode(ctx context.Context, cfg *Config, services *Services) error {
	if err := initDaemonLogging(cfg); err != nil {
		return config.NewConfigurationError(cfg.ConfigPath, filepath.Base(cfg.ConfigPath), "validation", err.Error())
	}
	defer logging.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	return serveWatch(ctx, newWatchManager(cfg, services), sigChan)
}

// serveWatch starts manager and blocks until ctx is done or a termination
// signal arrives.
func serveWatch(ctx context.Context, manager *reconciler.Manager, signals <-chan os.Signal) error {
	if err := manager.Start(ctx); err != nil {
		logging.Error("Watch", err, "Failed to start watch daemon")
		return fmt.Errorf("failed to start watch daemon: %w", err)
	}
	defer manager.Stop()

	logging.Info("Watch", "Watching for changes. Send SIGHUP to reconcile now.")

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig := <-signals:
			if sig == syscall.SIGHUP {
				logging.Info("Watch", "SIGHUP received, requesting reconciliation")
				manager.TriggerReconcile(false)
				continue
			}
			logging.Info("Watch", "%s received, shutting down", sig)
			return nil
		}
	}
}

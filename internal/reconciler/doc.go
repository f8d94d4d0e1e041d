// Package reconciler keeps a host converged on its declared tuning while
// saptunectl runs in watch mode.
//
// # Overview
//
// A Manager owns a single worker that runs reconciliation cycles one at a
// time. Cycles are requested by:
//
//   - startup, once the manager is started
//   - changes to the configuration file
//   - changes below saptune's override directories (these force a reapply)
//   - a periodic resync that corrects drift
//   - an explicit request, for example on SIGHUP
//
// Requests that arrive while a cycle runs are merged into one follow-up
// cycle. A failed cycle is retried with exponential backoff unless the
// desired state itself was rejected; any fresh request supersedes a
// pending retry.
//
// # Usage
//
//	manager := reconciler.NewManager(reconciler.ManagerConfig{
//	    ConfigPath:     "/etc/saptunectl/config.yaml",
//	    OverrideDirs:   []string{"/etc/saptune/override"},
//	    ResyncInterval: 30 * time.Minute,
//	}, reconciler.ReconcilerFunc(runCycle))
//	if err := manager.Start(ctx); err != nil {
//	    return fmt.Errorf("failed to start watch: %w", err)
//	}
//	defer manager.Stop()
//
// # Observability
//
// ReconcilerMetrics counts cycles in a private Prometheus registry. When
// ManagerConfig.MetricsTextfile is set the registry is written there after
// every cycle for node_exporter's textfile collector. Lifecycle and status
// are reported to systemd through the Notifier.
package reconciler

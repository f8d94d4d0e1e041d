// Package logging provides subsystem-tagged structured logging for saptunectl.
//
// It is a thin layer over log/slog. Every entry carries a subsystem attribute
// so that the output of a reconciliation cycle can be filtered by stage:
//
//   - **Bootstrap**: application start-up
//   - **Config**: configuration loading and validation
//   - **Storage**: run records in the state directory
//   - **Services**: creation of the runner, client and executor
//   - **Saptune**: reads of the saptune inventory and status
//   - **Executor**: plan execution and post-checks
//   - **Watch**: the watch daemon, its detector and queue
//
// # Usage
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("Executor", "Running %s", cmd)
//	logging.Error("Executor", err, "Command %s failed", cmd)
//
// The watch daemon usually runs under systemd and logs to the journal through
// stderr. When a log file is configured, InitForDaemon writes to it through
// lumberjack, which rotates by size and prunes old files:
//
//	logging.InitForDaemon(logging.LevelInfo, os.Stderr, logging.FileOptions{
//	    Path:      "/var/log/saptunectl/watch.log",
//	    MaxSizeMB: 10,
//	})
//	defer logging.Close()
//
// All functions are safe for concurrent use.
package logging

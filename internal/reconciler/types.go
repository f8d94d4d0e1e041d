package reconciler

import (
	"context"
	"time"
)

// WatchKind tells which watched location a change came from.
type WatchKind string

const (
	// KindConfig is the saptunectl configuration file.
	KindConfig WatchKind = "Config"

	// KindOverride is one of saptune's override or extra directories.
	KindOverride WatchKind = "Override"
)

// ChangeEvent represents a detected change on the filesystem.
type ChangeEvent struct {
	// Kind is the watched location that changed.
	Kind WatchKind

	// Operation describes what kind of change occurred.
	Operation ChangeOperation

	// Timestamp is when the change was detected.
	Timestamp time.Time

	// FilePath is the path of the file that changed.
	FilePath string
}

// ChangeOperation represents the type of change detected.
type ChangeOperation string

const (
	// OperationCreate indicates a new file was created.
	OperationCreate ChangeOperation = "Create"

	// OperationUpdate indicates an existing file was modified.
	OperationUpdate ChangeOperation = "Update"

	// OperationDelete indicates a file was deleted.
	OperationDelete ChangeOperation = "Delete"
)

// Trigger indicates why a cycle was requested.
type Trigger string

const (
	// TriggerStartup is the cycle run when the manager starts.
	TriggerStartup Trigger = "Startup"

	// TriggerConfig is a change of the configuration file.
	TriggerConfig Trigger = "Config"

	// TriggerOverride is a change below saptune's override directories.
	TriggerOverride Trigger = "Override"

	// TriggerResync is the periodic drift check.
	TriggerResync Trigger = "Resync"

	// TriggerManual indicates the cycle was requested explicitly (SIGHUP).
	TriggerManual Trigger = "Manual"

	// TriggerRetry is a retry after a failed cycle.
	TriggerRetry Trigger = "Retry"
)

// ReconcileRequest represents a request to run one reconciliation cycle.
type ReconcileRequest struct {
	// Trigger is what caused the request.
	Trigger Trigger

	// Force demands a full revert and reapply even when the applied tuning
	// already matches. Override changes need it: saptune only reads
	// override files when a Note is applied.
	Force bool

	// Attempt is the current retry attempt number (starts at 1).
	Attempt int

	// LastError is the error from the previous attempt, if any.
	LastError error
}

// ReconcileResult represents the outcome of a reconciliation cycle.
type ReconcileResult struct {
	// Changed reports whether any command was executed.
	Changed bool

	// Commands is the number of commands executed.
	Commands int

	// RunID identifies the cycle in logs and run records.
	RunID string

	// Error is any error that occurred during reconciliation.
	Error error
}

// Reconciler runs one reconciliation cycle of the host.
//
// Implementations must be idempotent: running a cycle twice without a change
// in between executes nothing the second time.
type Reconciler interface {
	Reconcile(ctx context.Context, req ReconcileRequest) ReconcileResult
}

// ReconcilerFunc adapts a function to the Reconciler interface.
type ReconcilerFunc func(ctx context.Context, req ReconcileRequest) ReconcileResult

// Reconcile calls f.
func (f ReconcilerFunc) Reconcile(ctx context.Context, req ReconcileRequest) ReconcileResult {
	return f(ctx, req)
}

// ChangeDetector is the interface for components that detect changes.
type ChangeDetector interface {
	// Start begins watching for changes.
	// The detector should send change events to the provided channel.
	Start(ctx context.Context, changes chan<- ChangeEvent) error

	// Stop gracefully stops the change detector.
	Stop() error
}

// ReconcileQueue represents a queue of cycle requests.
type ReconcileQueue interface {
	// Add adds a request to the queue.
	// If a request is already queued, the two are merged.
	Add(req ReconcileRequest)

	// Get retrieves the next request from the queue.
	// Blocks until a request is available or the context is cancelled.
	Get(ctx context.Context) (ReconcileRequest, bool)

	// Done marks a request as processed.
	Done(req ReconcileRequest)

	// Len returns the current queue length.
	Len() int

	// Shutdown signals the queue to stop accepting new items.
	Shutdown()
}

// ManagerConfig holds configuration for the Manager.
type ManagerConfig struct {
	// ConfigPath is the configuration file to watch.
	ConfigPath string

	// OverrideDirs are saptune's override and extra directories.
	OverrideDirs []string

	// MaxRetries is the maximum number of attempts for a failed cycle.
	// Defaults to 5 if not specified.
	MaxRetries int

	// InitialBackoff is the initial backoff duration for retries.
	// Defaults to 10 seconds if not specified.
	InitialBackoff time.Duration

	// MaxBackoff is the maximum backoff duration for retries.
	// Defaults to 10 minutes if not specified.
	MaxBackoff time.Duration

	// DebounceInterval is how long to wait for additional changes before reconciling.
	// Defaults to 2s if not specified.
	DebounceInterval time.Duration

	// ResyncInterval schedules a drift check. Zero disables it.
	ResyncInterval time.Duration

	// ReconcileTimeout bounds one cycle.
	// Defaults to 30 minutes if not specified.
	ReconcileTimeout time.Duration

	// MetricsTextfile is rewritten after every cycle when set.
	MetricsTextfile string

	// Detector replaces the filesystem detector; used by tests.
	Detector ChangeDetector

	// Notifier reports readiness to the service manager. Defaults to
	// systemd's notification socket.
	Notifier Notifier
}

// ReconcileStatus represents the current status of the watch daemon.
type ReconcileStatus struct {
	// LastReconcileTime is when the host was last successfully reconciled.
	LastReconcileTime *time.Time

	// LastRunID is the run ID of the last finished cycle.
	LastRunID string

	// LastChanged reports whether the last successful cycle executed commands.
	LastChanged bool

	// LastError is the most recent error, if any.
	LastError string

	// RetryCount is the number of retry attempts.
	RetryCount int

	// Cycles counts finished cycles, successful or not.
	Cycles int

	// State describes the current reconciliation state.
	State ReconcileState
}

// ReconcileState represents the state of the host's reconciliation.
type ReconcileState string

const (
	// StatePending means a cycle is awaited.
	StatePending ReconcileState = "Pending"

	// StateReconciling means a cycle is in progress.
	StateReconciling ReconcileState = "Reconciling"

	// StateSynced means the last cycle succeeded.
	StateSynced ReconcileState = "Synced"

	// StateError means the last cycle failed and will be retried.
	StateError ReconcileState = "Error"

	// StateFailed means the cycle failed permanently (max retries exceeded)
	// and waits for the next change or resync.
	StateFailed ReconcileState = "Failed"
)

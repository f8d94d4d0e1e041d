package reconciler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"saptunectl/internal/engine"
	"saptunectl/pkg/logging"
)

// Manager runs reconciliation cycles when the configuration or saptune's
// overrides change, periodically to correct drift, and on request.
//
// It manages:
//   - the change detector
//   - the work queue and its single worker
//   - retry logic with exponential backoff
//   - metrics and service manager notifications
//
// Exactly one worker runs so two cycles never interleave: plans must be
// executed strictly sequentially against the host.
type Manager struct {
	mu sync.RWMutex

	config ManagerConfig

	// reconciler runs one cycle
	reconciler Reconciler

	// changeDetector detects configuration changes
	changeDetector ChangeDetector

	// notifier reports lifecycle to systemd
	notifier Notifier

	// queue is the work queue for reconciliation requests
	queue *delayedQueue

	// status tracks the state of the host's reconciliation
	status ReconcileStatus

	// metrics counts cycles
	metrics *ReconcilerMetrics

	// changeChan receives change events from detectors
	changeChan chan ChangeEvent

	// ctx is the manager's context
	ctx context.Context

	// cancelFunc cancels the manager's context
	cancelFunc context.CancelFunc

	// wg tracks running goroutines
	wg sync.WaitGroup

	// running indicates if the manager is active
	running bool
}

// NewManager creates a new reconciliation manager.
func NewManager(config ManagerConfig, reconciler Reconciler) *Manager {
	// Apply defaults
	if config.MaxRetries == 0 {
		config.MaxRetries = 5
	}
	if config.InitialBackoff == 0 {
		config.InitialBackoff = 10 * time.Second
	}
	if config.MaxBackoff == 0 {
		config.MaxBackoff = 10 * time.Minute
	}
	if config.DebounceInterval == 0 {
		config.DebounceInterval = 2 * time.Second
	}
	if config.ReconcileTimeout == 0 {
		config.ReconcileTimeout = 30 * time.Minute
	}

	notifier := config.Notifier
	if notifier == nil {
		notifier = SystemdNotifier{}
	}

	return &Manager{
		config:     config,
		reconciler: reconciler,
		notifier:   notifier,
		queue:      NewDelayedQueue(),
		status:     ReconcileStatus{State: StatePending},
		metrics:    NewReconcilerMetrics(),
		changeChan: make(chan ChangeEvent, 100),
	}
}

// Start begins watching and queues the initial cycle.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}

	m.ctx, m.cancelFunc = context.WithCancel(ctx)
	m.running = true

	m.changeDetector = m.config.Detector
	if m.changeDetector == nil {
		m.changeDetector = NewFilesystemDetector(m.config.ConfigPath, m.config.OverrideDirs, m.config.DebounceInterval)
	}
	m.mu.Unlock()

	if err := m.changeDetector.Start(m.ctx, m.changeChan); err != nil {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
		m.cancelFunc()
		return fmt.Errorf("failed to start change detector: %w", err)
	}

	m.wg.Add(1)
	go m.processChangeEvents()

	m.wg.Add(1)
	go m.worker()

	if m.config.ResyncInterval > 0 {
		m.wg.Add(1)
		go m.resyncLoop(m.config.ResyncInterval)
	}

	if interval := m.notifier.WatchdogInterval(); interval > 0 {
		m.wg.Add(1)
		go m.watchdogLoop(interval)
	}

	m.queue.Add(ReconcileRequest{Trigger: TriggerStartup, Attempt: 1})
	m.notifier.Ready()

	logging.Info("Watch", "Started (resync every %v)", m.config.ResyncInterval)
	return nil
}

// processChangeEvents converts change events to reconcile requests.
func (m *Manager) processChangeEvents() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return

		case event, ok := <-m.changeChan:
			if !ok {
				return
			}
			m.handleChangeEvent(event)
		}
	}
}

// handleChangeEvent processes a single change event.
func (m *Manager) handleChangeEvent(event ChangeEvent) {
	logging.Info("Watch", "%s change detected: %s %s", event.Kind, event.Operation, event.FilePath)

	req := ReconcileRequest{Trigger: TriggerConfig, Attempt: 1}
	if event.Kind == KindOverride {
		req.Trigger = TriggerOverride
		req.Force = true
	}
	m.enqueue(req)
}

// enqueue queues a fresh request. A pending retry is superseded by it.
func (m *Manager) enqueue(req ReconcileRequest) {
	if m.queue.CancelDelayed() {
		logging.Debug("Watch", "Pending retry superseded by %s trigger", req.Trigger)
	}
	m.setState(StatePending, "")
	m.queue.Add(req)
}

// resyncLoop queues a drift check every interval.
func (m *Manager) resyncLoop(interval time.Duration) {
	defer m.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			logging.Debug("Watch", "Resync interval elapsed")
			m.enqueue(ReconcileRequest{Trigger: TriggerResync, Attempt: 1})
		}
	}
}

func (m *Manager) watchdogLoop(interval time.Duration) {
	defer m.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.notifier.Watchdog()
		}
	}
}

// worker processes reconciliation requests from the queue.
func (m *Manager) worker() {
	defer m.wg.Done()

	for {
		req, ok := m.queue.Get(m.ctx)
		if !ok {
			logging.Debug("Watch", "Worker shutting down")
			return
		}

		m.processRequest(req)
		m.queue.Done(req)
	}
}

// processRequest runs one cycle.
func (m *Manager) processRequest(req ReconcileRequest) {
	m.setState(StateReconciling, "")
	m.metrics.RecordAttempt(req.Trigger)
	m.notifier.Status(fmt.Sprintf("reconciling (%s)", req.Trigger))

	logging.Info("Watch", "Reconciling host (trigger %s, force %t, attempt %d)", req.Trigger, req.Force, req.Attempt)

	ctx, cancel := context.WithTimeout(m.ctx, m.config.ReconcileTimeout)
	defer cancel()

	start := time.Now()
	result := m.reconciler.Reconcile(ctx, req)
	duration := time.Since(start)

	if result.Error == nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		result.Error = fmt.Errorf("reconciliation timed out after %v", m.config.ReconcileTimeout)
	}

	if result.Error != nil {
		m.metrics.RecordFailure(result, failureReason(result.Error), duration)
		m.handleReconcileError(req, result)
	} else {
		m.metrics.RecordSuccess(result, duration)
		m.handleSuccess(result)
	}

	m.writeMetrics()
}

// handleReconcileError handles a failed cycle.
func (m *Manager) handleReconcileError(req ReconcileRequest, result ReconcileResult) {
	m.recordFinished(result.RunID, false)

	if m.ctx.Err() != nil {
		logging.Info("Watch", "Cycle interrupted by shutdown: %v", result.Error)
		return
	}

	// A rejected desired state cannot heal by itself; wait for the next change.
	if engine.IsValidationError(result.Error) || req.Attempt >= m.config.MaxRetries {
		logging.Error("Watch", result.Error, "Reconciliation failed permanently after %d attempt(s)", req.Attempt)
		m.setState(StateFailed, result.Error.Error())
		m.notifier.Status("failed: " + result.Error.Error())
		return
	}

	logging.Warn("Watch", "Reconciliation failed: %v", result.Error)
	m.setState(StateError, result.Error.Error())

	backoff := m.calculateBackoff(req.Attempt)

	req.Trigger = TriggerRetry
	req.Attempt++
	req.LastError = result.Error
	m.queue.AddAfter(req, backoff)

	m.notifier.Status(fmt.Sprintf("retrying in %v: %v", backoff, result.Error))
	logging.Debug("Watch", "Requeuing after %v (attempt %d)", backoff, req.Attempt)
}

// handleSuccess handles a successful cycle.
func (m *Manager) handleSuccess(result ReconcileResult) {
	m.recordFinished(result.RunID, result.Changed)
	m.setState(StateSynced, "")

	if result.Changed {
		logging.Info("Watch", "Host reconciled, %d command(s) executed", result.Commands)
	} else {
		logging.Info("Watch", "Host already in desired state")
	}
	m.notifier.Status("in sync since " + time.Now().Format(time.RFC3339))
}

func (m *Manager) writeMetrics() {
	if m.config.MetricsTextfile == "" {
		return
	}
	if err := m.metrics.WriteTextfile(m.config.MetricsTextfile); err != nil {
		logging.Warn("Watch", "Failed to write metrics to %s: %v", m.config.MetricsTextfile, err)
	}
}

// calculateBackoff computes exponential backoff.
func (m *Manager) calculateBackoff(attempt int) time.Duration {
	// Exponential backoff: initial * 2^(attempt-1)
	backoff := m.config.InitialBackoff * time.Duration(1<<uint(attempt-1))

	if backoff > m.config.MaxBackoff || backoff <= 0 {
		backoff = m.config.MaxBackoff
	}

	return backoff
}

// failureReason classifies an error for the failure metric.
func failureReason(err error) string {
	switch {
	case engine.IsValidationError(err):
		return "invalid_desired_state"
	case errors.Is(err, engine.ErrInventoryUnavailable), errors.Is(err, engine.ErrStatusUnavailable):
		return "saptune_unavailable"
	case errors.Is(err, engine.ErrCommandFailed):
		return "command_failed"
	case errors.Is(err, engine.ErrNonCompliant):
		return "non_compliant"
	case errors.Is(err, engine.ErrSystemDegraded):
		return "degraded"
	default:
		return "other"
	}
}

func (m *Manager) recordFinished(runID string, changed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.status.Cycles++
	m.status.LastRunID = runID
	m.status.LastChanged = changed
}

// setState updates the reconciliation status.
func (m *Manager) setState(state ReconcileState, errMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// A cycle in progress stays visible; the queued request runs after it.
	if state == StatePending && m.status.State == StateReconciling {
		return
	}

	m.status.State = state
	switch state {
	case StateSynced:
		now := time.Now()
		m.status.LastReconcileTime = &now
		m.status.RetryCount = 0
		m.status.LastError = ""
	case StateError:
		m.status.RetryCount++
		m.status.LastError = errMsg
	case StateFailed:
		m.status.LastError = errMsg
	}
}

// Stop gracefully shuts down the manager. A running cycle is cancelled
// through its context.
func (m *Manager) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false
	m.mu.Unlock()

	logging.Info("Watch", "Stopping watch daemon...")
	m.notifier.Stopping()

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	if m.changeDetector != nil {
		if err := m.changeDetector.Stop(); err != nil {
			logging.Error("Watch", err, "Error stopping change detector")
		}
	}

	m.queue.Shutdown()
	m.wg.Wait()

	logging.Info("Watch", "Watch daemon stopped")
	return nil
}

// GetStatus returns a copy of the reconciliation status.
func (m *Manager) GetStatus() ReconcileStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Metrics returns the cycle metrics.
func (m *Manager) Metrics() *ReconcilerMetrics {
	return m.metrics
}

// TriggerReconcile manually requests a cycle.
func (m *Manager) TriggerReconcile(force bool) {
	m.enqueue(ReconcileRequest{Trigger: TriggerManual, Force: force, Attempt: 1})
}

// IsRunning returns whether the manager is running.
func (m *Manager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// GetQueueLength returns the current queue length.
func (m *Manager) GetQueueLength() int {
	return m.queue.Len()
}

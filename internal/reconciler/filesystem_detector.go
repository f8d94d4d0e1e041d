package reconciler

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"saptunectl/pkg/logging"
)

// FilesystemDetector implements ChangeDetector for the configuration file
// and saptune's override directories.
//
// The configuration file is watched through its directory so that editors
// replacing the file by rename are noticed. Override directories are watched
// directly; a missing one is skipped with a warning since saptune creates
// them on demand.
type FilesystemDetector struct {
	mu sync.RWMutex

	// configPath is the configuration file
	configPath string

	// overrideDirs are saptune's override and extra directories
	overrideDirs []string

	// watcher is the fsnotify watcher instance
	watcher *fsnotify.Watcher

	// debounceInterval is how long to wait for additional changes
	debounceInterval time.Duration

	// pendingEvents tracks pending debounced events by kind
	pendingEvents map[WatchKind]*debounceEntry

	// stopCh signals shutdown
	stopCh chan struct{}

	// running indicates if the detector is active
	running bool
}

// debounceEntry tracks a pending event for debouncing.
type debounceEntry struct {
	event     ChangeEvent
	timer     *time.Timer
	operation ChangeOperation
}

// NewFilesystemDetector creates a new filesystem change detector.
func NewFilesystemDetector(configPath string, overrideDirs []string, debounceInterval time.Duration) *FilesystemDetector {
	if debounceInterval == 0 {
		debounceInterval = 2 * time.Second
	}

	cleaned := make([]string, 0, len(overrideDirs))
	for _, dir := range overrideDirs {
		cleaned = append(cleaned, filepath.Clean(dir))
	}

	return &FilesystemDetector{
		configPath:       filepath.Clean(configPath),
		overrideDirs:     cleaned,
		debounceInterval: debounceInterval,
		pendingEvents:    make(map[WatchKind]*debounceEntry),
		stopCh:           make(chan struct{}),
	}
}

// Start begins watching for filesystem changes.
func (d *FilesystemDetector) Start(ctx context.Context, changes chan<- ChangeEvent) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		d.mu.Unlock()
		return err
	}

	d.watcher = watcher
	d.running = true
	d.stopCh = make(chan struct{})
	d.mu.Unlock()

	d.setupWatches()

	go d.processEvents(ctx, watcher, changes)

	logging.Info("Watch", "Watching %s and %d override directories for changes", d.configPath, len(d.overrideDirs))
	return nil
}

// setupWatches adds the configuration directory and the override directories.
func (d *FilesystemDetector) setupWatches() {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.configPath != "." {
		dir := filepath.Dir(d.configPath)
		if err := d.watcher.Add(dir); err != nil {
			logging.Warn("Watch", "Cannot watch configuration directory %s: %v", dir, err)
		} else {
			logging.Debug("Watch", "Watching directory: %s", dir)
		}
	}

	for _, dir := range d.overrideDirs {
		if _, err := os.Stat(dir); err != nil {
			logging.Warn("Watch", "Skipping override directory %s: %v", dir, err)
			continue
		}
		if err := d.watcher.Add(dir); err != nil {
			logging.Warn("Watch", "Cannot watch override directory %s: %v", dir, err)
			continue
		}
		logging.Debug("Watch", "Watching directory: %s", dir)
	}
}

// processEvents handles filesystem events and generates change events.
func (d *FilesystemDetector) processEvents(ctx context.Context, watcher *fsnotify.Watcher, changes chan<- ChangeEvent) {
	for {
		select {
		case <-ctx.Done():
			d.cleanupPendingEvents()
			return

		case <-d.stopCh:
			d.cleanupPendingEvents()
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			d.handleFsEvent(event, changes)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logging.Error("Watch", err, "Filesystem watcher error")
		}
	}
}

// handleFsEvent processes a single filesystem event.
func (d *FilesystemDetector) handleFsEvent(event fsnotify.Event, changes chan<- ChangeEvent) {
	kind, ok := d.classify(event.Name)
	if !ok {
		return
	}

	operation, ok := operationOf(event.Op)
	if !ok {
		return
	}

	d.debounceEvent(ChangeEvent{
		Kind:      kind,
		Operation: operation,
		Timestamp: time.Now(),
		FilePath:  event.Name,
	}, changes)
}

// classify maps a path to the watched location it belongs to.
func (d *FilesystemDetector) classify(path string) (WatchKind, bool) {
	path = filepath.Clean(path)
	if path == d.configPath {
		return KindConfig, true
	}

	if isEditorArtifact(filepath.Base(path)) {
		return "", false
	}
	for _, dir := range d.overrideDirs {
		if filepath.Dir(path) == dir {
			return KindOverride, true
		}
	}
	return "", false
}

func operationOf(op fsnotify.Op) (ChangeOperation, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return OperationCreate, true
	case op.Has(fsnotify.Write):
		return OperationUpdate, true
	case op.Has(fsnotify.Remove):
		return OperationDelete, true
	case op.Has(fsnotify.Rename):
		// Rename is treated as delete (the new name will trigger a create)
		return OperationDelete, true
	default:
		return "", false
	}
}

// isEditorArtifact filters swap and backup files of common editors.
func isEditorArtifact(name string) bool {
	return strings.HasPrefix(name, ".") ||
		strings.HasSuffix(name, "~") ||
		strings.HasSuffix(name, ".swp") ||
		strings.HasSuffix(name, ".swx")
}

// debounceEvent implements event debouncing to handle rapid successive changes.
func (d *FilesystemDetector) debounceEvent(event ChangeEvent, changes chan<- ChangeEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := event.Kind

	// Cancel existing timer if present
	if entry, ok := d.pendingEvents[key]; ok {
		entry.timer.Stop()
		event.Operation = mergeOperations(entry.operation, event.Operation)
	}

	timer := time.AfterFunc(d.debounceInterval, func() {
		d.mu.Lock()
		entry, ok := d.pendingEvents[key]
		if ok {
			delete(d.pendingEvents, key)
		}
		d.mu.Unlock()

		if ok {
			select {
			case changes <- entry.event:
				logging.Debug("Watch", "Emitted change event: %s %s %s",
					entry.event.Operation, entry.event.Kind, entry.event.FilePath)
			default:
				logging.Warn("Watch", "Change event channel full, dropping event for %s", entry.event.FilePath)
			}
		}
	})

	d.pendingEvents[key] = &debounceEntry{
		event:     event,
		timer:     timer,
		operation: event.Operation,
	}
}

// mergeOperations merges two operations into a single logical operation.
func mergeOperations(old, new ChangeOperation) ChangeOperation {
	if old == OperationCreate {
		if new == OperationDelete {
			// Create + Delete = no-op, but we still emit Delete
			return OperationDelete
		}
		// Create + Update = Create
		return OperationCreate
	}

	// Update followed by Delete = Delete
	if old == OperationUpdate && new == OperationDelete {
		return OperationDelete
	}

	return new
}

// cleanupPendingEvents cancels all pending debounce timers.
func (d *FilesystemDetector) cleanupPendingEvents() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, entry := range d.pendingEvents {
		entry.timer.Stop()
	}
	d.pendingEvents = make(map[WatchKind]*debounceEntry)
}

// Stop gracefully stops the filesystem detector.
func (d *FilesystemDetector) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return nil
	}

	d.running = false
	close(d.stopCh)

	if d.watcher != nil {
		if err := d.watcher.Close(); err != nil {
			logging.Error("Watch", err, "Error closing filesystem watcher")
		}
		d.watcher = nil
	}

	logging.Info("Watch", "Stopped filesystem detector")
	return nil
}

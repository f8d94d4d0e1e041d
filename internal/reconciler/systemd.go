package reconciler

import (
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"saptunectl/pkg/logging"
)

// Notifier reports the daemon's lifecycle to the service manager.
type Notifier interface {
	Ready()
	Stopping()
	Status(msg string)
	// WatchdogInterval returns how often Watchdog must be called; zero when
	// no watchdog is configured.
	WatchdogInterval() time.Duration
	Watchdog()
}

// SystemdNotifier talks to systemd through $NOTIFY_SOCKET. Outside of a
// systemd unit every call is a no-op.
type SystemdNotifier struct{}

func (SystemdNotifier) notify(state string) {
	if _, err := daemon.SdNotify(false, state); err != nil {
		logging.Debug("Watch", "sd_notify %q failed: %v", state, err)
	}
}

// Ready sends READY=1.
func (n SystemdNotifier) Ready() { n.notify(daemon.SdNotifyReady) }

// Stopping sends STOPPING=1.
func (n SystemdNotifier) Stopping() { n.notify(daemon.SdNotifyStopping) }

// Status sends a free-form status line shown by systemctl status.
func (n SystemdNotifier) Status(msg string) { n.notify("STATUS=" + msg) }

// Watchdog sends WATCHDOG=1.
func (n SystemdNotifier) Watchdog() { n.notify(daemon.SdNotifyWatchdog) }

// WatchdogInterval returns half of WatchdogSec so that a single delayed
// keep-alive does not kill the daemon.
func (SystemdNotifier) WatchdogInterval() time.Duration {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval <= 0 {
		return 0
	}
	return interval / 2
}

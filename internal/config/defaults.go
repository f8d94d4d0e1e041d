package config

import "time"

const (
	// DefaultConfigPath is read when no --config flag is given.
	DefaultConfigPath = "/etc/saptunectl/config.yaml"

	// DefaultStateDir holds the run records.
	DefaultStateDir = "/var/lib/saptunectl"

	DefaultCommandTimeout = 5 * time.Minute
)

// DefaultOverrideDirs are the directories saptune reads Note overrides and
// custom Notes from.
var DefaultOverrideDirs = []string{"/etc/saptune/override", "/etc/saptune/extra"}

// GetDefaultConfig returns the default configuration. The tuning switches
// default to the values of the original Ansible module.
func GetDefaultConfig() Config {
	return Config{
		Apply:          ApplyList{Entries: []string{}},
		NoTuned:        true,
		NoSapconf:      true,
		Enabled:        true,
		Started:        true,
		IgnoreDegraded: true,
		SaptuneBinary:  "saptune",
		CommandTimeout: DefaultCommandTimeout,
		StateDir:       DefaultStateDir,
		Watch: WatchConfig{
			Debounce:       2 * time.Second,
			ResyncInterval: 30 * time.Minute,
			MaxRetries:     5,
			RetryBackoff:   10 * time.Second,
			OverrideDirs:   append([]string(nil), DefaultOverrideDirs...),
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

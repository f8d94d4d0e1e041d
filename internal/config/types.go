package config

import (
	"fmt"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"saptunectl/internal/engine"
)

// Config is the top-level configuration structure for saptunectl.
//
// The tuning switches carry the names of the original Ansible module
// parameters so existing playbook variables translate one to one.
type Config struct {
	Apply                ApplyList `yaml:"apply" toml:"apply"`
	ForceReapply         bool      `yaml:"force_reapply" toml:"force_reapply"`
	NoTuned              bool      `yaml:"no_tuned" toml:"no_tuned"`
	NoSapconf            bool      `yaml:"no_sapconf" toml:"no_sapconf"`
	Enabled              bool      `yaml:"enabled" toml:"enabled"`
	Started              bool      `yaml:"started" toml:"started"`
	KeepAppliedIfStopped bool      `yaml:"keep_applied_if_stopped" toml:"keep_applied_if_stopped"`
	IgnoreNonCompliant   bool      `yaml:"ignore_non_compliant" toml:"ignore_non_compliant"`
	IgnoreDegraded       bool      `yaml:"ignore_degraded" toml:"ignore_degraded"`
	StagingEnabled       bool      `yaml:"staging_enabled" toml:"staging_enabled"`

	SaptuneBinary  string        `yaml:"saptune_binary" toml:"saptune_binary" validate:"required"`
	CommandTimeout time.Duration `yaml:"command_timeout" toml:"command_timeout" validate:"gte=0"`
	// StateDir holds the records of past runs. Empty disables recording.
	StateDir string `yaml:"state_dir" toml:"state_dir"`

	Watch   WatchConfig   `yaml:"watch" toml:"watch"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// WatchConfig configures the watch daemon.
type WatchConfig struct {
	Debounce       time.Duration `yaml:"debounce" toml:"debounce" validate:"gte=0"`
	ResyncInterval time.Duration `yaml:"resync_interval" toml:"resync_interval" validate:"gte=0"`
	MaxRetries     int           `yaml:"max_retries" toml:"max_retries" validate:"gte=0"`
	RetryBackoff   time.Duration `yaml:"retry_backoff" toml:"retry_backoff" validate:"gte=0"`
	// OverrideDirs are saptune's override and extra directories. A change
	// below them forces a full reapply.
	OverrideDirs []string `yaml:"override_dirs" toml:"override_dirs" validate:"dive,required"`
	// MetricsTextfile is written after every cycle for node_exporter's
	// textfile collector. Empty disables it.
	MetricsTextfile string `yaml:"metrics_textfile" toml:"metrics_textfile" validate:"omitempty,endswith=.prom"`
}

// LoggingConfig configures the log output of the watch daemon.
type LoggingConfig struct {
	Level      string `yaml:"level" toml:"level" validate:"oneof=debug info warn error"`
	File       string `yaml:"file" toml:"file"`
	JSON       bool   `yaml:"json" toml:"json"`
	MaxSizeMB  int    `yaml:"max_size_mb" toml:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `yaml:"max_backups" toml:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `yaml:"max_age_days" toml:"max_age_days" validate:"gte=0"`
}

// Policy returns the engine switches of the configuration.
func (c Config) Policy() engine.Policy {
	return engine.Policy{
		ForceReapply:         c.ForceReapply,
		IgnoreNonCompliant:   c.IgnoreNonCompliant,
		IgnoreDegraded:       c.IgnoreDegraded,
		KeepAppliedIfStopped: c.KeepAppliedIfStopped,
		DisableTuned:         c.NoTuned,
		DisableSapconf:       c.NoSapconf,
		Enabled:              c.Enabled,
		Started:              c.Started,
		StagingEnabled:       c.StagingEnabled,
	}
}

// Expression returns the desired-state expression of the configuration,
// checked for syntax only.
func (c Config) Expression() (engine.Expression, error) {
	if c.Apply.Keep {
		return engine.Untouched(), nil
	}
	return engine.ParseExpression(c.Apply.Entries)
}

// KeepKeyword is the scalar value of apply that leaves the tuning untouched.
const KeepKeyword = "keep"

// ApplyList is the desired-state expression as written in a config file:
// either a list of entries or the scalar "keep".
type ApplyList struct {
	Entries []string
	Keep    bool
}

// KeepTuning returns the "leave tuning untouched" value.
func KeepTuning() ApplyList {
	return ApplyList{Keep: true}
}

// String renders the list for logs and flag help.
func (a ApplyList) String() string {
	if a.Keep {
		return KeepKeyword
	}
	return fmt.Sprintf("%v", a.Entries)
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (a *ApplyList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*a = ApplyList{}
			return nil
		}
		if node.Value == KeepKeyword {
			*a = KeepTuning()
			return nil
		}
		return fmt.Errorf("line %d: apply must be a list or %q, got %q", node.Line, KeepKeyword, node.Value)
	case yaml.SequenceNode:
		entries := make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: apply entries must be scalars", item.Line)
			}
			entries = append(entries, item.Value)
		}
		*a = ApplyList{Entries: entries}
		return nil
	default:
		return fmt.Errorf("line %d: apply must be a list or %q", node.Line, KeepKeyword)
	}
}

// MarshalYAML implements yaml.Marshaler.
func (a ApplyList) MarshalYAML() (interface{}, error) {
	if a.Keep {
		return KeepKeyword, nil
	}
	if a.Entries == nil {
		return []string{}, nil
	}
	return a.Entries, nil
}

// UnmarshalTOML implements toml.Unmarshaler.
func (a *ApplyList) UnmarshalTOML(data interface{}) error {
	switch v := data.(type) {
	case string:
		if v == KeepKeyword {
			*a = KeepTuning()
			return nil
		}
		return fmt.Errorf("apply must be an array or %q, got %q", KeepKeyword, v)
	case []interface{}:
		entries := make([]string, 0, len(v))
		for _, item := range v {
			switch e := item.(type) {
			case string:
				entries = append(entries, e)
			case int64:
				entries = append(entries, strconv.FormatInt(e, 10))
			default:
				return fmt.Errorf("apply entries must be strings, got %T", item)
			}
		}
		*a = ApplyList{Entries: entries}
		return nil
	default:
		return fmt.Errorf("apply must be an array or %q, got %T", KeepKeyword, data)
	}
}

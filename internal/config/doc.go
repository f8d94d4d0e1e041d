// Package config loads the saptunectl configuration.
//
// The configuration is a single YAML or TOML file, by default
// /etc/saptunectl/config.yaml. Missing keys keep their defaults; unknown keys
// are rejected.
//
//	apply:                     # desired state, or the scalar "keep"
//	  - "@HANA"
//	  - "-941735"
//	  - "1771258"
//	force_reapply: false
//	no_tuned: true
//	no_sapconf: true
//	enabled: true
//	started: true
//	keep_applied_if_stopped: false
//	ignore_non_compliant: false
//	ignore_degraded: true
//	staging_enabled: false
//
//	saptune_binary: saptune
//	command_timeout: 5m
//	state_dir: /var/lib/saptunectl
//
//	watch:
//	  debounce: 2s
//	  resync_interval: 30m
//	  max_retries: 5
//	  retry_backoff: 10s
//	  override_dirs: [/etc/saptune/override, /etc/saptune/extra]
//	  metrics_textfile: ""
//
//	logging:
//	  level: info
//	  file: ""
//
// "apply: keep" leaves the current tuning untouched while services are still
// reconciled. It cannot be confused with a Note called "keep", which can only
// appear as a list item. "apply: []" removes all tuning.
//
// The package also provides Storage, the state directory used to keep the
// records of past runs.
package config

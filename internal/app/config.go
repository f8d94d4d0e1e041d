package app

import (
	"saptunectl/internal/config"
	"saptunectl/internal/runner"
)

// Config holds the application configuration
type Config struct {
	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational log output.
	Quiet bool

	// ConfigPath is the configuration file to load.
	ConfigPath string

	// ConfigRequired makes a missing configuration file an error. It is set
	// when the path was given explicitly.
	ConfigRequired bool

	// Overrides are applied to the loaded configuration, in order. The CLI
	// uses them to let flags win over file values.
	Overrides []func(*config.Config)

	// Runner executes commands on the host. Nil selects runner.ExecRunner.
	Runner runner.Runner

	// SaptunectlConfig is the loaded configuration.
	SaptunectlConfig *config.Config
}

// NewConfig creates a new application configuration
func NewConfig(debug, quiet bool, configPath string, configRequired bool) *Config {
	if configPath == "" {
		configPath = config.DefaultConfigPath
	}
	return &Config{
		Debug:          debug,
		Quiet:          quiet,
		ConfigPath:     configPath,
		ConfigRequired: configRequired,
	}
}

// LoadConfig loads the configuration file and applies the overrides.
func (c *Config) LoadConfig() (config.Config, error) {
	cfg, err := config.LoadConfig(c.ConfigPath, c.ConfigRequired)
	if err != nil {
		return config.Config{}, err
	}
	for _, override := range c.Overrides {
		override(&cfg)
	}
	if len(c.Overrides) > 0 {
		if err := config.Validate(cfg); err != nil {
			return config.Config{}, err
		}
	}
	return cfg, nil
}

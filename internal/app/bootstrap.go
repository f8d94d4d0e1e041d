package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"saptunectl/internal/config"
	"saptunectl/internal/engine"
	"saptunectl/pkg/logging"
)

// Application bootstraps saptunectl: it loads the configuration, sets up
// logging and creates the services every command works with.
//
// Example usage:
//
//	cfg := app.NewConfig(false, false, "", false)
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//	    return err
//	}
//	result, err := application.Apply(ctx, false)
type Application struct {
	config   *Config
	services *Services
}

// NewApplication creates and initializes a new application instance with the
// provided configuration. A configuration already set in
// cfg.SaptunectlConfig is used as is.
//
// The returned error is a config.ConfigurationError when the file could not
// be loaded or failed validation.
func NewApplication(cfg *Config) (*Application, error) {
	// Configure logging based on debug and quiet flags
	appLogLevel := logging.LevelInfo
	if cfg.Debug {
		appLogLevel = logging.LevelDebug
	}
	var logOutput io.Writer = os.Stderr
	if cfg.Quiet && !cfg.Debug {
		logOutput = io.Discard
	}
	logging.InitForCLI(appLogLevel, logOutput)

	if cfg.SaptunectlConfig == nil {
		sc, err := cfg.LoadConfig()
		if err != nil {
			logging.Error("Bootstrap", err, "Failed to load configuration from %s", cfg.ConfigPath)
			return nil, err
		}
		cfg.SaptunectlConfig = &sc
		logging.Debug("Bootstrap", "Loaded configuration from %s", cfg.ConfigPath)
	}

	services, err := InitializeServices(cfg, cfg.Runner)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{
		config:   cfg,
		services: services,
	}, nil
}

// Config returns the effective configuration.
func (a *Application) Config() config.Config {
	return *a.config.SaptunectlConfig
}

// Services returns the initialized services.
func (a *Application) Services() *Services {
	return a.services
}

// Apply runs one reconciliation cycle. In check mode the plan is computed
// but nothing is executed.
func (a *Application) Apply(ctx context.Context, checkMode bool) (*Result, error) {
	return a.services.Executor.Reconcile(ctx, Request{
		Config:    a.Config(),
		CheckMode: checkMode,
		Trigger:   "cli",
	})
}

// Status reads the decoded status of the host.
func (a *Application) Status(ctx context.Context, complianceCheck bool) (engine.Status, error) {
	return a.services.Client.LoadStatus(ctx, complianceCheck)
}

// Facts reads the raw status of the host as reported by saptune.
func (a *Application) Facts(ctx context.Context, complianceCheck bool) (map[string]any, error) {
	return a.services.Client.Facts(ctx, complianceCheck)
}

// Inventory lists the Notes and Solutions saptune knows.
func (a *Application) Inventory(ctx context.Context) (engine.Inventory, error) {
	return a.services.Client.LoadInventory(ctx)
}

// History returns the most recent run records, newest first.
func (a *Application) History(limit int) ([]Result, error) {
	return a.services.Executor.History(limit)
}

// Watch runs the watch daemon until ctx is cancelled or a termination
// signal arrives.
func (a *Application) Watch(ctx context.Context) error {
	return runWatchMode(ctx, a.config, a.services)
}

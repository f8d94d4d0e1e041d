package app

import (
	"errors"
	"path/filepath"

	"saptunectl/internal/config"
	"saptunectl/internal/runner"
	"saptunectl/internal/saptune"
	"saptunectl/pkg/logging"
)

// Services holds the components shared by all commands.
//
// Field descriptions:
//   - Runner: executes saptune and systemctl, bounded by command_timeout
//   - Client: reads status and inventory from saptune
//   - Executor: runs reconciliation cycles
//   - Store: keeps run records below state_dir
type Services struct {
	Runner   runner.Runner
	Client   *saptune.Client
	Executor *Executor
	Store    *config.Storage
}

// InitializeServices creates the services for the loaded configuration.
// A nil runner selects ExecRunner.
func InitializeServices(cfg *Config, r runner.Runner) (*Services, error) {
	sc := cfg.SaptunectlConfig
	if sc == nil {
		return nil, errors.New("configuration not loaded")
	}
	if r == nil {
		r = runner.ExecRunner{Timeout: sc.CommandTimeout}
	}

	var store *config.Storage
	if sc.StateDir != "" {
		store = config.NewStorage(sc.StateDir)
		logging.Debug("Services", "Run records are kept in %s", filepath.Join(sc.StateDir, RunsKind))
	}

	return &Services{
		Runner:   r,
		Client:   &saptune.Client{Runner: r, Binary: sc.SaptuneBinary},
		Executor: NewExecutor(r, store),
		Store:    store,
	}, nil
}

package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"sigs.k8s.io/yaml"

	"saptunectl/internal/config"
	"saptunectl/internal/engine"
	"saptunectl/internal/runner"
	"saptunectl/internal/saptune"
	"saptunectl/pkg/logging"
)

// RunsKind is the storage kind of run records.
const RunsKind = "runs"

// DefaultKeepRuns is the number of run records kept in the state directory.
const DefaultKeepRuns = 50

// Request describes one reconciliation cycle.
type Request struct {
	// Config is the desired state and policy of the cycle.
	Config config.Config
	// CheckMode computes the plan without executing it.
	CheckMode bool
	// Trigger names what started the cycle, for run records.
	Trigger string
}

// Execution is one command that was run.
type Execution struct {
	Command  engine.Command `json:"command"`
	Argv     []string       `json:"argv"`
	ExitCode int            `json:"exit_code"`
	Duration time.Duration  `json:"duration"`
	Stderr   string         `json:"stderr,omitempty"`
}

// Result is the outcome of one reconciliation cycle.
type Result struct {
	RunID     string      `json:"run_id"`
	Trigger   string      `json:"trigger,omitempty"`
	StartedAt time.Time   `json:"started_at"`
	CheckMode bool        `json:"check_mode"`
	Changed   bool        `json:"changed"`
	Plan      engine.Plan `json:"plan"`
	Executed  []Execution `json:"executed"`
	// Status is the last status read: after execution when commands ran,
	// otherwise the one the plan was computed from.
	Status   *engine.Status `json:"status,omitempty"`
	Duration time.Duration  `json:"duration"`
	Error    string         `json:"error,omitempty"`
}

// Message summarizes the result in one line.
func (r *Result) Message() string {
	switch {
	case r.Error != "":
		return "reconciliation failed: " + r.Error
	case r.CheckMode && r.Changed:
		return fmt.Sprintf("%d command(s) would be executed", len(r.Plan.Commands()))
	case r.CheckMode:
		return "host is in the desired state"
	case r.Changed:
		return fmt.Sprintf("%d command(s) executed", len(r.Executed))
	default:
		return "host is in the desired state, nothing to do"
	}
}

// CommandError reports a plan command that exited non-zero or could not be
// run. It matches engine.ErrCommandFailed.
type CommandError struct {
	Argv     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("command '%s' failed with exit code %d", strings.Join(e.Argv, " "), e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CommandError) Unwrap() []error {
	if e.Err != nil {
		return []error{engine.ErrCommandFailed, e.Err}
	}
	return []error{engine.ErrCommandFailed}
}

// Executor runs reconciliation cycles against the local host.
type Executor struct {
	// Runner executes saptune and systemctl.
	Runner runner.Runner
	// Store keeps run records. Nil disables them.
	Store *config.Storage
	// KeepRuns bounds the number of run records.
	KeepRuns int
	// OnCommand is called before each command is executed.
	OnCommand func(engine.Command)
}

// NewExecutor creates an executor on top of r.
func NewExecutor(r runner.Runner, store *config.Storage) *Executor {
	return &Executor{Runner: r, Store: store, KeepRuns: DefaultKeepRuns}
}

// Reconcile runs one cycle. The result is never nil; when an error is
// returned it holds the plan and the commands executed so far.
func (e *Executor) Reconcile(ctx context.Context, req Request) (*Result, error) {
	result := &Result{
		RunID:     uuid.NewString(),
		Trigger:   req.Trigger,
		StartedAt: time.Now(),
		CheckMode: req.CheckMode,
		Executed:  []Execution{},
	}

	err := e.reconcile(ctx, req, result)
	result.Duration = time.Since(result.StartedAt)
	if err != nil {
		result.Error = err.Error()
	}

	if !req.CheckMode {
		e.saveRecord(result)
	}
	return result, err
}

func (e *Executor) reconcile(ctx context.Context, req Request, result *Result) error {
	cfg := req.Config
	policy := cfg.Policy()

	// The desired state is checked before any command runs.
	expr, err := cfg.Expression()
	if err != nil {
		return err
	}

	client := &saptune.Client{Runner: e.Runner, Binary: cfg.SaptuneBinary}

	status, err := client.LoadStatus(ctx, !policy.IgnoreNonCompliant)
	if err != nil {
		return err
	}
	result.Status = &status

	inventory := engine.NewInventory(nil, nil, nil)
	if !expr.IsUntouched() {
		if inventory, err = client.LoadInventory(ctx); err != nil {
			return err
		}
	}

	plan, err := engine.Reconcile(inventory, status, expr, policy)
	if err != nil {
		return err
	}
	result.Plan = plan
	result.Changed = !plan.Empty()
	logging.Info("Executor", "Plan: %s", plan.Summary())

	if req.CheckMode || plan.Empty() {
		return nil
	}

	if err := e.run(ctx, cfg, plan.Pre, result); err != nil {
		return err
	}

	if plan.StoppedEarly {
		// Stopping saptune.service reverted the tuning; plan it again
		// against what the host reports now.
		fresh, err := client.LoadStatus(ctx, !policy.IgnoreNonCompliant)
		if err != nil {
			return err
		}
		tuning, err := engine.PlanTuning(inventory, fresh, expr, policy)
		if err != nil {
			return err
		}
		plan = plan.WithTuning(tuning)
		result.Plan = plan
		logging.Debug("Executor", "Tuning recomputed after stop: %s", tuning.Decision)
	}

	if err := e.run(ctx, cfg, plan.Tuning, result); err != nil {
		return err
	}
	if err := e.run(ctx, cfg, plan.Post, result); err != nil {
		return err
	}

	if len(result.Executed) == 0 {
		result.Changed = false
		return nil
	}

	final, err := client.LoadStatus(ctx, true)
	if err != nil {
		return err
	}
	result.Status = &final

	if final.NonCompliant() && !policy.IgnoreNonCompliant {
		return fmt.Errorf("%w: saptune reports %q after applying the plan", engine.ErrNonCompliant, final.Compliance)
	}
	if final.SystemDegraded && !policy.IgnoreDegraded {
		return fmt.Errorf("%w: %s", engine.ErrSystemDegraded, final.SystemState)
	}
	return nil
}

// run executes commands in order and stops at the first failure.
func (e *Executor) run(ctx context.Context, cfg config.Config, commands []engine.Command, result *Result) error {
	for _, cmd := range commands {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.OnCommand != nil {
			e.OnCommand(cmd)
		}

		argv := commandArgv(cmd, cfg.SaptuneBinary)
		logging.Info("Executor", "Running '%s'", strings.Join(argv, " "))

		start := time.Now()
		res, err := e.Runner.Run(ctx, argv)
		ran := Execution{
			Command:  cmd,
			Argv:     argv,
			ExitCode: res.ExitCode,
			Duration: time.Since(start),
			Stderr:   strings.TrimSpace(string(res.Stderr)),
		}
		result.Executed = append(result.Executed, ran)

		if err != nil || !res.Success() {
			cmdErr := &CommandError{Argv: argv, ExitCode: res.ExitCode, Stderr: ran.Stderr, Err: err}
			logging.Error("Executor", cmdErr, "Aborting plan")
			return cmdErr
		}
	}
	return nil
}

// commandArgv renders cmd with the configured saptune executable.
func commandArgv(cmd engine.Command, binary string) []string {
	argv := cmd.Argv()
	if binary != "" && len(argv) > 0 && argv[0] == engine.Saptune {
		argv[0] = binary
	}
	return argv
}

func (e *Executor) saveRecord(result *Result) {
	if e.Store == nil {
		return
	}
	data, err := yaml.Marshal(result)
	if err != nil {
		logging.Warn("Executor", "Failed to encode run record %s: %v", result.RunID, err)
		return
	}
	if err := e.Store.Save(RunsKind, recordName(result), data); err != nil {
		logging.Warn("Executor", "Failed to save run record %s: %v", result.RunID, err)
		return
	}
	keep := e.KeepRuns
	if keep <= 0 {
		keep = DefaultKeepRuns
	}
	if err := e.Store.Prune(RunsKind, keep); err != nil {
		logging.Warn("Executor", "Failed to prune run records: %v", err)
	}
}

// recordName sorts run records chronologically even when their files share
// a modification time.
func recordName(result *Result) string {
	return result.StartedAt.UTC().Format("20060102T150405.000000000") + "-" + result.RunID
}

// History returns the stored run records, newest first. A limit of zero
// returns all of them.
func (e *Executor) History(limit int) ([]Result, error) {
	if e.Store == nil {
		return nil, errors.New("no state directory configured")
	}
	names, err := e.Store.List(RunsKind)
	if err != nil {
		return nil, err
	}

	records := make([]Result, 0, len(names))
	for i := len(names) - 1; i >= 0; i-- {
		if limit > 0 && len(records) == limit {
			break
		}
		data, err := e.Store.Load(RunsKind, names[i])
		if err != nil {
			return nil, err
		}
		var record Result
		if err := yaml.Unmarshal(data, &record); err != nil {
			logging.Warn("Executor", "Skipping unreadable run record %s: %v", names[i], err)
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

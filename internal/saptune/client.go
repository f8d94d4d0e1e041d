package saptune

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"saptunectl/internal/engine"
	"saptunectl/internal/runner"
	"saptunectl/pkg/logging"
)

// DefaultBinary is the saptune executable looked up in PATH.
const DefaultBinary = "saptune"

// Client runs saptune read commands.
type Client struct {
	Runner runner.Runner
	Binary string
}

// NewClient returns a client using r and the default binary.
func NewClient(r runner.Runner) *Client {
	return &Client{Runner: r, Binary: DefaultBinary}
}

func (c *Client) binary() string {
	if c.Binary == "" {
		return DefaultBinary
	}
	return c.Binary
}

// StatusArgv is the command line used to read the status. saptune verifies
// compliance unless told otherwise with --non-compliance-check.
func (c *Client) StatusArgv(complianceCheck bool) []string {
	argv := []string{c.binary(), "--format", "json", "status"}
	if !complianceCheck {
		argv = append(argv, "--non-compliance-check")
	}
	return argv
}

// envelope is the wrapper around every JSON answer of saptune.
type envelope struct {
	ExitCode *int            `json:"exit code"`
	Result   json.RawMessage `json:"result"`
}

func (c *Client) runJSON(ctx context.Context, argv []string) (envelope, runner.Result, error) {
	res, err := c.Runner.Run(ctx, argv)
	if err != nil {
		return envelope{}, res, err
	}
	var env envelope
	if err := json.Unmarshal(res.Stdout, &env); err != nil {
		return envelope{}, res, fmt.Errorf("no or broken JSON output of '%s': %w", strings.Join(argv, " "), err)
	}
	return env, res, nil
}

// LoadInventory lists the available Notes and Solutions. Both lists are
// read concurrently.
func (c *Client) LoadInventory(ctx context.Context) (engine.Inventory, error) {
	var notes noteList
	var solutions solutionList

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.list(gctx, "note", &notes)
	})
	g.Go(func() error {
		return c.list(gctx, "solution", &solutions)
	})
	if err := g.Wait(); err != nil {
		return engine.Inventory{}, fmt.Errorf("%w: %w", engine.ErrInventoryUnavailable, err)
	}

	noteIDs := make([]string, 0, len(notes.Notes))
	for _, n := range notes.Notes {
		noteIDs = append(noteIDs, n.ID)
	}
	solutionIDs := make([]string, 0, len(solutions.Solutions))
	members := make(map[string][]string, len(solutions.Solutions))
	for _, s := range solutions.Solutions {
		solutionIDs = append(solutionIDs, s.ID)
		members[s.ID] = s.Notes
	}

	logging.Debug("Saptune", "Inventory loaded: %d Notes, %d Solutions", len(noteIDs), len(solutionIDs))
	return engine.NewInventory(noteIDs, solutionIDs, members), nil
}

type noteList struct {
	Notes []struct {
		ID string `json:"Note ID"`
	} `json:"Notes available"`
}

type solutionList struct {
	Solutions []struct {
		ID    string   `json:"Solution ID"`
		Notes []string `json:"Note list"`
	} `json:"Solutions available"`
}

func (c *Client) list(ctx context.Context, kind string, into any) error {
	argv := []string{c.binary(), "--format", "json", kind, "list"}
	env, res, err := c.runJSON(ctx, argv)
	if err != nil {
		return fmt.Errorf("could not retrieve %s list: %w", kind, err)
	}
	if env.ExitCode == nil || *env.ExitCode != 0 || !res.Success() {
		return fmt.Errorf("could not retrieve %s list: exit code %d: %s", kind, res.ExitCode, strings.TrimSpace(string(res.Stderr)))
	}
	if err := json.Unmarshal(env.Result, into); err != nil {
		return fmt.Errorf("could not decode %s list: %w", kind, err)
	}
	return nil
}

// Facts returns the raw result object of `saptune --format json status`.
//
// The exit code of saptune is ignored: it is non-zero whenever the tuning
// is not compliant, while the payload is still valid.
func (c *Client) Facts(ctx context.Context, complianceCheck bool) (map[string]any, error) {
	raw, err := c.statusResult(ctx, complianceCheck)
	if err != nil {
		return nil, err
	}
	var facts map[string]any
	if err := json.Unmarshal(raw, &facts); err != nil {
		return nil, fmt.Errorf("%w: %w", engine.ErrStatusUnavailable, err)
	}
	return facts, nil
}

// LoadStatus reads and decodes the current status of the host.
func (c *Client) LoadStatus(ctx context.Context, complianceCheck bool) (engine.Status, error) {
	raw, err := c.statusResult(ctx, complianceCheck)
	if err != nil {
		return engine.Status{}, err
	}
	status, err := decodeStatus(raw)
	if err != nil {
		return engine.Status{}, fmt.Errorf("%w: %w", engine.ErrStatusUnavailable, err)
	}
	logging.Debug("Saptune", "Status loaded: notes=%v solution=%q compliance=%q", status.AppliedNotes, status.AppliedSolution, status.Compliance)
	return status, nil
}

func (c *Client) statusResult(ctx context.Context, complianceCheck bool) (json.RawMessage, error) {
	argv := c.StatusArgv(complianceCheck)
	env, _, err := c.runJSON(ctx, argv)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", engine.ErrStatusUnavailable, err)
	}
	if isEmptyResult(env.Result) {
		return nil, fmt.Errorf("%w: '%s' returned an empty result", engine.ErrStatusUnavailable, strings.Join(argv, " "))
	}
	return env.Result, nil
}

func isEmptyResult(raw json.RawMessage) bool {
	switch strings.TrimSpace(string(raw)) {
	case "", "null", "{}", "[]", `""`:
		return true
	}
	return false
}

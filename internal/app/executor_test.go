package app

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saptunectl/internal/config"
	"saptunectl/internal/engine"
	"saptunectl/internal/runner"
)

const (
	noteListCmd     = "saptune --format json note list"
	solutionListCmd = "saptune --format json solution list"
	// saptune skips its compliance check when asked for --non-compliance-check.
	statusCheckCmd   = "saptune --format json status"
	statusNoCheckCmd = "saptune --format json status --non-compliance-check"
)

const noteListJSON = `{"exit code": 0, "result": {"Notes available": [
  {"Note ID": "941735"}, {"Note ID": "1656250"}, {"Note ID": "2382421"}]}}`

const solutionListJSON = `{"exit code": 0, "result": {"Solutions available": [
  {"Solution ID": "HANA", "Note list": ["941735", "1656250"]}]}}`

// hostState describes a status payload.
type hostState struct {
	notes    []string
	solution string
	saptune  []string
	tuned    []string
	tuning   string
	system   string
}

func (h hostState) json(t *testing.T) string {
	t.Helper()
	notes := h.notes
	if notes == nil {
		notes = []string{}
	}
	solutions := []map[string]string{}
	if h.solution != "" {
		solutions = append(solutions, map[string]string{"Solution ID": h.solution})
	}
	saptune := h.saptune
	if saptune == nil {
		saptune = []string{"enabled", "active"}
	}
	tuned := h.tuned
	if tuned == nil {
		tuned = []string{}
	}
	tuning := h.tuning
	if tuning == "" {
		tuning = engine.Compliant
	}
	system := h.system
	if system == "" {
		system = "running"
	}

	data, err := json.Marshal(map[string]any{
		"exit code": 0,
		"result": map[string]any{
			"services":             map[string][]string{"saptune": saptune, "tuned": tuned, "sapconf": {}},
			"systemd system state": system,
			"tuning state":         tuning,
			"Solution applied":     solutions,
			"Notes applied":        notes,
			"staging":              map[string]bool{"staging enabled": false},
		},
	})
	require.NoError(t, err)
	return string(data)
}

func baseConfig(apply ...string) config.Config {
	cfg := config.GetDefaultConfig()
	cfg.StateDir = ""
	cfg.Apply = config.ApplyList{Entries: apply}
	return cfg
}

func inventoryScript() *runner.Script {
	return runner.NewScript().
		OnOutput(noteListCmd, noteListJSON).
		OnOutput(solutionListCmd, solutionListJSON)
}

// changes returns the commands that are not read-only saptune queries.
func changes(script *runner.Script) []string {
	var out []string
	for _, call := range script.Calls() {
		if !strings.Contains(call, "--format json") {
			out = append(out, call)
		}
	}
	return out
}

func TestExecutor_AppliesNotes(t *testing.T) {
	script := inventoryScript().
		OnOutput(statusCheckCmd, hostState{}.json(t)).
		OnOutput(statusCheckCmd, hostState{notes: []string{"941735", "1656250"}}.json(t)).
		OnSuccess("saptune revert all", "saptune note apply 941735", "saptune note apply 1656250")

	var announced []string
	executor := NewExecutor(script, nil)
	executor.OnCommand = func(c engine.Command) { announced = append(announced, c.String()) }

	result, err := executor.Reconcile(context.Background(), Request{Config: baseConfig("941735", "1656250")})
	require.NoError(t, err)

	want := []string{
		"saptune revert all",
		"saptune note apply 941735",
		"saptune note apply 1656250",
	}
	assert.Equal(t, want, changes(script))
	assert.Equal(t, want, announced)
	assert.True(t, result.Changed)
	assert.Len(t, result.Executed, 3)
	assert.Equal(t, engine.DecisionChanged, result.Plan.Decision)
	assert.Equal(t, []string{"941735", "1656250"}, result.Status.AppliedNotes)
	assert.NotEmpty(t, result.RunID)
	assert.Empty(t, result.Error)
	assert.Len(t, script.CallsWithPrefix(statusCheckCmd), 2)
}

func TestExecutor_InSyncRunsNothing(t *testing.T) {
	script := inventoryScript().
		OnOutput(statusCheckCmd, hostState{notes: []string{"941735"}}.json(t))

	result, err := NewExecutor(script, nil).Reconcile(context.Background(), Request{Config: baseConfig("941735")})
	require.NoError(t, err)

	assert.Empty(t, changes(script))
	assert.False(t, result.Changed)
	assert.Empty(t, result.Executed)
	assert.Equal(t, engine.DecisionInSync, result.Plan.Decision)
	assert.Equal(t, "host is in the desired state, nothing to do", result.Message())
	assert.Len(t, script.CallsWithPrefix(statusCheckCmd), 1, "no re-read without commands")
}

func TestExecutor_CheckMode(t *testing.T) {
	script := inventoryScript().
		OnOutput(statusCheckCmd, hostState{saptune: []string{"disabled", "inactive"}}.json(t))

	result, err := NewExecutor(script, nil).Reconcile(context.Background(), Request{
		Config:    baseConfig("@HANA"),
		CheckMode: true,
	})
	require.NoError(t, err)

	assert.Empty(t, changes(script))
	assert.True(t, result.Changed)
	assert.True(t, result.CheckMode)
	assert.Equal(t, []string{
		"systemctl enable saptune.service",
		"saptune revert all",
		"saptune solution apply HANA",
		"systemctl start saptune.service",
	}, commandLines(result.Plan.Commands()))
	assert.Equal(t, "4 command(s) would be executed", result.Message())
}

func commandLines(commands []engine.Command) []string {
	out := make([]string, len(commands))
	for i, c := range commands {
		out[i] = c.String()
	}
	return out
}

func TestExecutor_FirstFailureAborts(t *testing.T) {
	script := inventoryScript().
		OnOutput(statusCheckCmd, hostState{}.json(t)).
		OnSuccess("saptune revert all").
		OnExit("saptune note apply 941735", 1, "note 941735 is broken\n")

	result, err := NewExecutor(script, nil).Reconcile(context.Background(), Request{Config: baseConfig("941735", "1656250")})
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrCommandFailed)

	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, 1, cmdErr.ExitCode)
	assert.Equal(t, "note 941735 is broken", cmdErr.Stderr)
	assert.Equal(t, []string{"saptune", "note", "apply", "941735"}, cmdErr.Argv)

	assert.Equal(t, []string{"saptune revert all", "saptune note apply 941735"}, changes(script))
	assert.Len(t, result.Executed, 2)
	assert.Contains(t, result.Error, "exit code 1")
	assert.Len(t, script.CallsWithPrefix(statusCheckCmd), 1)
}

func TestExecutor_PostChecks(t *testing.T) {
	tests := []struct {
		name        string
		configure   func(*config.Config)
		firstRead   string
		after       hostState
		expectedErr error
	}{
		{
			name:        "non-compliant after apply",
			firstRead:   statusCheckCmd,
			after:       hostState{notes: []string{"941735"}, tuning: engine.NotCompliant},
			expectedErr: engine.ErrNonCompliant,
		},
		{
			name:      "non-compliance ignored",
			configure: func(c *config.Config) { c.IgnoreNonCompliant = true },
			firstRead: statusNoCheckCmd,
			after:     hostState{notes: []string{"941735"}, tuning: engine.NotCompliant},
		},
		{
			name:        "degraded after apply",
			configure:   func(c *config.Config) { c.IgnoreDegraded = false },
			firstRead:   statusCheckCmd,
			after:       hostState{notes: []string{"941735"}, system: "degraded"},
			expectedErr: engine.ErrSystemDegraded,
		},
		{
			name:      "degradation ignored by default",
			firstRead: statusCheckCmd,
			after:     hostState{notes: []string{"941735"}, system: "degraded"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig("941735")
			if tt.configure != nil {
				tt.configure(&cfg)
			}
			script := inventoryScript().
				OnOutput(tt.firstRead, hostState{}.json(t)).
				OnSuccess("saptune revert all", "saptune note apply 941735")
			// The status is always re-read with the compliance check.
			script.OnOutput(statusCheckCmd, tt.after.json(t))

			_, err := NewExecutor(script, nil).Reconcile(context.Background(), Request{Config: cfg})
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestExecutor_KeepTuningSkipsInventory(t *testing.T) {
	cfg := baseConfig()
	cfg.Apply = config.KeepTuning()
	script := runner.NewScript().
		OnOutput(statusCheckCmd, hostState{notes: []string{"941735"}, saptune: []string{"disabled", "inactive"}, tuned: []string{"enabled", "active"}}.json(t)).
		OnSuccess(
			"systemctl disable tuned.service",
			"systemctl stop tuned.service",
			"systemctl enable saptune.service",
			"systemctl start saptune.service",
		)

	result, err := NewExecutor(script, nil).Reconcile(context.Background(), Request{Config: cfg})
	require.NoError(t, err)

	assert.Empty(t, script.CallsWithPrefix(noteListCmd))
	assert.Empty(t, script.CallsWithPrefix(solutionListCmd))
	assert.Equal(t, []string{
		"systemctl disable tuned.service",
		"systemctl stop tuned.service",
		"systemctl enable saptune.service",
		"systemctl start saptune.service",
	}, changes(script))
	assert.Equal(t, engine.DecisionUntouched, result.Plan.Decision)
}

func TestExecutor_RejectsDesiredStateBeforeIO(t *testing.T) {
	tests := []struct {
		name  string
		apply []string
		io    bool
	}{
		{name: "malformed entry", apply: []string{"-@HANA"}},
		{name: "empty entry", apply: []string{""}},
		{name: "unknown Note", apply: []string{"123"}, io: true},
		{name: "two Solutions", apply: []string{"@HANA", "@HANA"}, io: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script := inventoryScript().OnOutput(statusCheckCmd, hostState{}.json(t))

			result, err := NewExecutor(script, nil).Reconcile(context.Background(), Request{Config: baseConfig(tt.apply...)})
			require.Error(t, err)
			assert.True(t, engine.IsValidationError(err))
			assert.NotNil(t, result)
			assert.Empty(t, changes(script))
			if !tt.io {
				assert.Empty(t, script.Calls())
			}
		})
	}
}

func TestExecutor_StatusUnavailable(t *testing.T) {
	script := inventoryScript().OnOutput(statusCheckCmd, `{"exit code": 0, "result": {}}`)

	_, err := NewExecutor(script, nil).Reconcile(context.Background(), Request{Config: baseConfig("941735")})
	assert.ErrorIs(t, err, engine.ErrStatusUnavailable)
	assert.Empty(t, changes(script))
}

func TestExecutor_EarlyStopRecomputesTuning(t *testing.T) {
	tests := []struct {
		name      string
		afterStop hostState
		expected  []string
	}{
		{
			name:      "stop reverted the tuning",
			afterStop: hostState{saptune: []string{"enabled", "inactive"}},
			expected: []string{
				"systemctl stop saptune.service",
				"saptune revert all",
				"saptune note apply 941735",
			},
		},
		{
			name:      "tuning survived the stop",
			afterStop: hostState{notes: []string{"941735"}, saptune: []string{"enabled", "inactive"}},
			expected:  []string{"systemctl stop saptune.service"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig("941735")
			cfg.Started = false
			cfg.KeepAppliedIfStopped = true

			script := inventoryScript().
				OnOutput(statusCheckCmd, hostState{notes: []string{"941735"}}.json(t)).
				OnOutput(statusCheckCmd, tt.afterStop.json(t)).
				OnOutput(statusCheckCmd, hostState{notes: []string{"941735"}, saptune: []string{"enabled", "inactive"}}.json(t)).
				OnSuccess("systemctl stop saptune.service", "saptune revert all", "saptune note apply 941735")

			result, err := NewExecutor(script, nil).Reconcile(context.Background(), Request{Config: cfg})
			require.NoError(t, err)

			assert.Equal(t, tt.expected, changes(script))
			assert.True(t, result.Plan.StoppedEarly)
			assert.Equal(t, tt.expected, commandLines(result.Plan.Commands()))
			assert.Len(t, script.CallsWithPrefix(statusCheckCmd), 3)
		})
	}
}

func TestExecutor_CustomBinary(t *testing.T) {
	cfg := baseConfig("941735")
	cfg.SaptuneBinary = "/usr/sbin/saptune"
	script := runner.NewScript().
		OnOutput("/usr/sbin/saptune --format json note list", noteListJSON).
		OnOutput("/usr/sbin/saptune --format json solution list", solutionListJSON).
		OnOutput("/usr/sbin/saptune --format json status", hostState{}.json(t)).
		OnOutput("/usr/sbin/saptune --format json status", hostState{notes: []string{"941735"}}.json(t)).
		OnSuccess("/usr/sbin/saptune revert all", "/usr/sbin/saptune note apply 941735")

	_, err := NewExecutor(script, nil).Reconcile(context.Background(), Request{Config: cfg})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/usr/sbin/saptune revert all",
		"/usr/sbin/saptune note apply 941735",
	}, changes(script))
}

func TestExecutor_RunRecords(t *testing.T) {
	store := config.NewStorage(t.TempDir())
	script := inventoryScript().OnOutput(statusCheckCmd, hostState{notes: []string{"941735"}}.json(t))

	executor := NewExecutor(script, store)
	executor.KeepRuns = 2

	var ids []string
	for i := 0; i < 3; i++ {
		result, err := executor.Reconcile(context.Background(), Request{Config: baseConfig("941735"), Trigger: "cli"})
		require.NoError(t, err)
		ids = append(ids, result.RunID)
	}

	// Check mode leaves no record.
	_, err := executor.Reconcile(context.Background(), Request{Config: baseConfig("941735"), CheckMode: true})
	require.NoError(t, err)

	names, err := store.List(RunsKind)
	require.NoError(t, err)
	assert.Len(t, names, 2)

	history, err := executor.History(0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.ElementsMatch(t, ids[1:], []string{history[0].RunID, history[1].RunID})
	assert.Equal(t, "cli", history[0].Trigger)
	assert.Equal(t, engine.DecisionInSync, history[0].Plan.Decision)

	limited, err := executor.History(1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestExecutor_HistoryWithoutStore(t *testing.T) {
	_, err := NewExecutor(runner.NewScript(), nil).History(0)
	assert.Error(t, err)
}

func TestExecutor_StatusReadsCheckCompliance(t *testing.T) {
	t.Run("compliance enforced", func(t *testing.T) {
		script := inventoryScript().
			OnOutput(statusCheckCmd, hostState{notes: []string{"941735"}, tuning: engine.NotCompliant}.json(t)).
			OnOutput(statusCheckCmd, hostState{notes: []string{"941735"}}.json(t)).
			OnSuccess("saptune revert all", "saptune note apply 941735")

		result, err := NewExecutor(script, nil).Reconcile(context.Background(), Request{Config: baseConfig("941735")})
		require.NoError(t, err)

		assert.Equal(t, engine.DecisionNonCompliant, result.Plan.Decision)
		assert.Equal(t, []string{statusCheckCmd, statusCheckCmd}, script.CallsWithPrefix(statusCheckCmd))
	})

	t.Run("compliance ignored", func(t *testing.T) {
		cfg := baseConfig("941735")
		cfg.IgnoreNonCompliant = true
		script := inventoryScript().
			OnOutput(statusNoCheckCmd, hostState{}.json(t)).
			OnOutput(statusCheckCmd, hostState{notes: []string{"941735"}}.json(t)).
			OnSuccess("saptune revert all", "saptune note apply 941735")

		_, err := NewExecutor(script, nil).Reconcile(context.Background(), Request{Config: cfg})
		require.NoError(t, err)

		assert.Equal(t, []string{statusNoCheckCmd, statusCheckCmd}, script.CallsWithPrefix(statusCheckCmd),
			"the read after execution always checks compliance")
	})
}

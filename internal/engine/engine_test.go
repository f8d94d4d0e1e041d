package engine

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hanaInventory() Inventory {
	return NewInventory(
		[]string{"941735", "1656250", "1771258", "2578899", "900929"},
		[]string{"HANA", "NETWEAVER", "EMPTY"},
		map[string][]string{
			"HANA":      {"941735", "1656250"},
			"NETWEAVER": {"941735", "1771258", "2578899"},
		},
	)
}

func runningStatus(notes []string, solution string) Status {
	return Status{
		AppliedNotes:    notes,
		AppliedSolution: solution,
		Compliance:      Compliant,
		Services: map[Service]ServiceStatus{
			ServiceSaptune: {Present: true, Enablement: StateEnabled, Activity: StateActive},
			ServiceTuned:   {},
			ServiceSapconf: {},
		},
	}
}

func defaultPolicy() Policy {
	return Policy{
		DisableTuned:   true,
		DisableSapconf: true,
		Enabled:        true,
		Started:        true,
		IgnoreDegraded: true,
	}
}

func TestResolve_Solution(t *testing.T) {
	target, cmds, err := Resolve(hanaInventory(), MustParseExpression("@HANA"))
	require.NoError(t, err)

	assert.Equal(t, Target{Notes: []string{"941735", "1656250"}, Solution: "HANA"}, target)
	assert.Equal(t, []Command{ApplySolution("HANA")}, cmds)
}

func TestResolve_RedundantEntriesEmitNothing(t *testing.T) {
	target, cmds, err := Resolve(hanaInventory(), MustParseExpression("@HANA", "941735", "-900929", "1771258", "1771258"))
	require.NoError(t, err)

	// "941735" is already effective through HANA, "900929" was never added and
	// the second "1771258" repeats the first.
	assert.Equal(t, []Command{ApplySolution("HANA"), ApplyNote("1771258")}, cmds)
	assert.Equal(t, []string{"941735", "1656250", "1771258"}, target.Notes)
	assert.Equal(t, "HANA", target.Solution)
}

func TestResolve_PlusPrefixIsNotAnOperator(t *testing.T) {
	// Only "-" is an operator; a leading "+" is part of the identifier.
	_, _, err := Resolve(hanaInventory(), MustParseExpression("+941735"))
	assert.ErrorIs(t, err, ErrUnknownNote)
}

func TestResolve_AbandonmentAfterLastMemberRemoved(t *testing.T) {
	inv := hanaInventory()
	entries := []string{"@NETWEAVER", "-941735", "-1771258", "-2578899"}

	for i := 1; i <= len(entries); i++ {
		target, _, err := Resolve(inv, MustParseExpression(entries[:i]...))
		require.NoError(t, err)

		if i < len(entries) {
			assert.Equal(t, "NETWEAVER", target.Solution, "Solution must survive %v", entries[:i])
		} else {
			assert.Empty(t, target.Solution, "Solution must be abandoned after the last member is removed")
			assert.Empty(t, target.Notes)
		}
	}
}

func TestResolve_AbandonedSolutionStaysAbandoned(t *testing.T) {
	target, cmds, err := Resolve(hanaInventory(), MustParseExpression("@HANA", "-941735", "-1656250", "941735"))
	require.NoError(t, err)

	assert.Empty(t, target.Solution)
	assert.Equal(t, []string{"941735"}, target.Notes)
	if diff := cmp.Diff([]Command{
		ApplySolution("HANA"),
		RevertNote("941735"),
		RevertNote("1656250"),
		ApplyNote("941735"),
	}, cmds); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_SolutionWithoutMembersIsAbandonedImmediately(t *testing.T) {
	target, cmds, err := Resolve(hanaInventory(), MustParseExpression("@EMPTY"))
	require.NoError(t, err)

	assert.Empty(t, target.Solution)
	assert.Equal(t, []Command{ApplySolution("EMPTY")}, cmds)
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name    string
		entries []string
		want    error
		index   int
	}{
		{"unknown note", []string{"941735", "123"}, ErrUnknownNote, 1},
		{"unknown removed note", []string{"-123"}, ErrUnknownNote, 0},
		{"unknown solution", []string{"@NOPE"}, ErrUnknownSolution, 0},
		{"two solutions", []string{"@HANA", "@NETWEAVER"}, ErrMultipleSolutions, 1},
		{"same solution twice", []string{"@HANA", "@HANA"}, ErrMultipleSolutions, 1},
		{"second solution after abandonment", []string{"@HANA", "-941735", "-1656250", "@NETWEAVER"}, ErrMultipleSolutions, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, cmds, err := Resolve(hanaInventory(), MustParseExpression(tt.entries...))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, IsValidationError(err))
			assert.Nil(t, cmds, "no partial command list on failure")
			assert.Equal(t, Target{}, target)

			var exprErr *ExpressionError
			require.True(t, errors.As(err, &exprErr))
			assert.Equal(t, tt.index, exprErr.Index)
		})
	}
}

func TestParseExpression_Syntax(t *testing.T) {
	tests := []struct {
		entry    string
		valid    bool
		op       Operator
		solution bool
		name     string
	}{
		{entry: "941735", valid: true, op: OpAdd, name: "941735"},
		{entry: "-941735", valid: true, op: OpRemove, name: "941735"},
		{entry: "@HANA", valid: true, op: OpAdd, solution: true, name: "HANA"},
		{entry: "--941735", valid: true, op: OpRemove, name: "-941735"},
		{entry: "-@HANA"},
		{entry: "-@UNKNOWN"},
		{entry: "-@"},
		{entry: ""},
		{entry: "-"},
		{entry: "@"},
	}

	for _, tt := range tests {
		t.Run(tt.entry, func(t *testing.T) {
			expr, err := ParseExpression([]string{tt.entry})
			if !tt.valid {
				assert.ErrorIs(t, err, ErrInvalidExpression)
				return
			}
			require.NoError(t, err)
			tok := expr.Tokens()[0]
			assert.Equal(t, tt.op, tok.Op)
			assert.Equal(t, tt.solution, tok.Solution)
			assert.Equal(t, tt.name, tok.Name)
		})
	}
}

func TestParseExpression_MinusSolutionRejectedAnywhere(t *testing.T) {
	_, err := ParseExpression([]string{"@HANA", "941735", "-@HANA"})
	require.ErrorIs(t, err, ErrInvalidExpression)

	var exprErr *ExpressionError
	require.ErrorAs(t, err, &exprErr)
	assert.Equal(t, 2, exprErr.Index)
	assert.Contains(t, err.Error(), "minus operator")
}

func TestExpression_UntouchedDiffersFromEmpty(t *testing.T) {
	assert.True(t, Untouched().IsUntouched())
	assert.False(t, Expression{}.IsUntouched())
	assert.False(t, MustParseExpression().IsUntouched())
	assert.Equal(t, "<untouched>", Untouched().String())
	assert.Equal(t, "[@HANA -941735]", MustParseExpression("@HANA", "-941735").String())
}

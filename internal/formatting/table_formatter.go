package formatting

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"saptunectl/internal/app"
	"saptunectl/internal/engine"
	textutil "saptunectl/pkg/strings"
)

// TableFormatter provides rich table output formatting
type TableFormatter struct {
	options Options
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(options Options) Formatter {
	return &TableFormatter{
		options: options,
	}
}

// FormatResult renders the plan, and for executed cycles the outcome of every
// command, followed by a one-line summary.
func (f *TableFormatter) FormatResult(result *app.Result) error {
	commands := result.Plan.Commands()
	if len(commands) > 0 {
		t := f.createTable()
		t.AppendHeader(f.header("#", "STAGE", "COMMAND", "RESULT", "DURATION"))

		for i, c := range commands {
			outcome, duration := "planned", ""
			if !result.CheckMode {
				outcome = f.color(text.FgHiBlack, "skipped")
				if i < len(result.Executed) {
					ran := result.Executed[i]
					duration = formatDuration(ran.Duration)
					if ran.ExitCode == 0 {
						outcome = f.color(text.FgGreen, "ok")
					} else {
						outcome = f.color(text.FgRed, fmt.Sprintf("exit %d", ran.ExitCode))
					}
				}
			}
			t.AppendRow(table.Row{i + 1, stageOf(result.Plan, i), c.String(), outcome, duration})
		}
		t.Render()
	}

	for _, ran := range result.Executed {
		if ran.ExitCode != 0 && ran.Stderr != "" {
			f.printf("%s %s\n", f.color(text.FgRed, "stderr:"), textutil.Truncate(ran.Stderr, textutil.DefaultCellMaxLen))
		}
	}

	if !f.options.Quiet {
		f.printf("\n%s %s\n", f.color(text.FgHiBlue, "Tuning:"), f.describeTarget(result.Plan))
	}
	return f.summary(result)
}

func (f *TableFormatter) describeTarget(plan engine.Plan) string {
	target := "notes " + listOrNone(plan.Target.Notes)
	if plan.Target.Solution != "" {
		target = "solution " + plan.Target.Solution + ", " + target
	}
	return fmt.Sprintf("%s (%s)", target, plan.Decision)
}

func (f *TableFormatter) summary(result *app.Result) error {
	switch {
	case result.Error != "":
		f.printf("%s %s\n", f.color(text.FgRed, "✗"), result.Message())
	case result.Changed:
		f.printf("%s %s\n", f.color(text.FgYellow, "●"), result.Message())
	default:
		f.printf("%s %s\n", f.color(text.FgGreen, "✓"), result.Message())
	}
	return nil
}

// FormatStatus renders the units and the tuning state of the host.
func (f *TableFormatter) FormatStatus(status engine.Status) error {
	units := f.createTable()
	units.AppendHeader(f.header("UNIT", "ENABLED", "ACTIVE"))
	for _, unit := range []engine.Service{engine.ServiceSaptune, engine.ServiceTuned, engine.ServiceSapconf} {
		svc := status.Services[unit]
		if !svc.Present {
			units.AppendRow(table.Row{unit, f.color(text.FgHiBlack, "not installed"), ""})
			continue
		}
		units.AppendRow(table.Row{unit, f.unitState(svc.Enablement), f.unitState(svc.Activity)})
	}
	units.Render()

	tuning := f.createTable()
	tuning.AppendHeader(f.header("KEY", "VALUE"))
	solution := status.AppliedSolution
	if solution == "" {
		solution = "-"
	}
	compliance := status.Compliance
	if compliance == "" {
		compliance = "-"
	}
	tuning.AppendRows([]table.Row{
		{"Applied Solution", solution},
		{"Applied Notes", listOrNone(status.AppliedNotes)},
		{"Tuning", f.compliance(compliance)},
		{"Staging", enabledString(status.StagingEnabled)},
		{"System state", f.systemState(status)},
	})
	tuning.Render()
	return nil
}

// FormatFacts renders the top-level keys of the raw status.
func (f *TableFormatter) FormatFacts(facts map[string]any) error {
	if len(facts) == 0 {
		f.printf("%s\n", f.color(text.FgYellow, "saptune reported no status"))
		return nil
	}

	keys := make([]string, 0, len(facts))
	for k := range facts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := f.createTable()
	t.AppendHeader(f.header("KEY", "VALUE"))
	for _, k := range keys {
		value := textutil.Truncate(compactJSON(facts[k]), textutil.DefaultCellMaxLen)
		t.AppendRow(table.Row{f.color(text.FgHiCyan, k), value})
	}
	t.Render()
	return nil
}

// FormatNotes renders the Note identifiers.
func (f *TableFormatter) FormatNotes(inv engine.Inventory) error {
	notes := inv.Notes()
	if len(notes) == 0 {
		f.printf("%s\n", f.color(text.FgYellow, "No Notes available"))
		return nil
	}

	t := f.createTable()
	t.AppendHeader(f.header("NOTE"))
	for _, n := range notes {
		t.AppendRow(table.Row{n})
	}
	t.Render()
	f.total(len(notes), "Notes")
	return nil
}

// FormatSolutions renders every Solution with its member Notes.
func (f *TableFormatter) FormatSolutions(inv engine.Inventory) error {
	solutions := inv.Solutions()
	if len(solutions) == 0 {
		f.printf("%s\n", f.color(text.FgYellow, "No Solutions available"))
		return nil
	}

	t := f.createTable()
	t.AppendHeader(f.header("SOLUTION", "NOTES"))
	for _, s := range solutions {
		t.AppendRow(table.Row{s, strings.Join(inv.SolutionNotes(s), " ")})
	}
	t.Render()
	f.total(len(solutions), "Solutions")
	return nil
}

// FormatHistory renders one row per run record.
func (f *TableFormatter) FormatHistory(records []app.Result) error {
	if len(records) == 0 {
		f.printf("%s\n", f.color(text.FgYellow, "No runs recorded"))
		return nil
	}

	t := f.createTable()
	t.AppendHeader(f.header("RUN", "STARTED", "TRIGGER", "COMMANDS", "DURATION", "RESULT"))
	for _, r := range records {
		outcome := f.color(text.FgGreen, "in sync")
		switch {
		case r.Error != "":
			outcome = f.color(text.FgRed, "failed")
		case r.Changed:
			outcome = f.color(text.FgYellow, "changed")
		}
		t.AppendRow(table.Row{
			shortID(r.RunID),
			r.StartedAt.Local().Format(time.DateTime),
			r.Trigger,
			len(r.Executed),
			formatDuration(r.Duration),
			outcome,
		})
	}
	t.Render()
	return nil
}

// SetOptions updates the formatter options
func (f *TableFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *TableFormatter) GetOptions() Options {
	return f.options
}

// Helper methods

// createTable creates a new table with standard styling
func (f *TableFormatter) createTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(f.options.writer())
	t.SetStyle(table.StyleRounded)
	return t
}

func (f *TableFormatter) header(names ...string) table.Row {
	row := make(table.Row, len(names))
	for i, n := range names {
		row[i] = f.color(text.FgHiCyan, n)
	}
	return row
}

func (f *TableFormatter) color(c text.Color, s string) string {
	if !f.options.Color {
		return s
	}
	return c.Sprint(s)
}

func (f *TableFormatter) printf(format string, args ...interface{}) {
	fmt.Fprintf(f.options.writer(), format, args...)
}

func (f *TableFormatter) total(n int, what string) {
	if f.options.Quiet {
		return
	}
	f.printf("\n%s %s %s\n", f.color(text.FgHiBlue, "Total:"), f.color(text.FgHiWhite, fmt.Sprint(n)), f.color(text.FgHiBlue, what))
}

func (f *TableFormatter) unitState(s engine.UnitState) string {
	switch s {
	case engine.StateEnabled, engine.StateActive:
		return f.color(text.FgGreen, string(s))
	case engine.StateFailed:
		return f.color(text.FgRed, string(s))
	default:
		return string(s)
	}
}

func (f *TableFormatter) compliance(value string) string {
	switch value {
	case engine.Compliant:
		return f.color(text.FgGreen, value)
	case engine.NotCompliant:
		return f.color(text.FgRed, value)
	default:
		return value
	}
}

func (f *TableFormatter) systemState(status engine.Status) string {
	state := status.SystemState
	if state == "" {
		state = "-"
	}
	if status.SystemDegraded {
		return f.color(text.FgRed, state)
	}
	return state
}

// stageOf names the plan stage of the i-th command.
func stageOf(plan engine.Plan, i int) string {
	switch {
	case i < len(plan.Pre):
		return "pre"
	case i < len(plan.Pre)+len(plan.Tuning):
		return "tuning"
	default:
		return "post"
	}
}

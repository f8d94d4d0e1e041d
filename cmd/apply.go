package cmd

import (
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"saptunectl/internal/app"
	"saptunectl/internal/config"
	"saptunectl/internal/engine"
	"saptunectl/internal/formatting"
)

// desiredStateFlags override the desired state and policy of the
// configuration file. Only flags given on the command line take effect.
type desiredStateFlags struct {
	apply                []string
	keepTuning           bool
	forceReapply         bool
	ignoreNonCompliant   bool
	ignoreDegraded       bool
	keepAppliedIfStopped bool
	noTuned              bool
	noSapconf            bool
	enabled              bool
	started              bool
	staging              bool
}

func (f *desiredStateFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringSliceVar(&f.apply, "apply", nil, "Desired-state expression entries: NOTE, -NOTE or @SOLUTION (repeatable)")
	fs.BoolVar(&f.keepTuning, "keep-tuning", false, "Leave Notes and Solutions untouched, manage services only")
	fs.BoolVar(&f.forceReapply, "force-reapply", false, "Revert and reapply even when the host is in sync")
	fs.BoolVar(&f.ignoreNonCompliant, "ignore-non-compliant", false, "Do not check or enforce compliance")
	fs.BoolVar(&f.ignoreDegraded, "ignore-degraded", true, "Do not fail on a degraded systemd system state")
	fs.BoolVar(&f.keepAppliedIfStopped, "keep-applied-if-stopped", false, "Stop saptune.service before tuning so the tuning stays applied")
	fs.BoolVar(&f.noTuned, "no-tuned", true, "Disable and stop tuned.service")
	fs.BoolVar(&f.noSapconf, "no-sapconf", true, "Disable and stop sapconf.service")
	fs.BoolVar(&f.enabled, "enabled", true, "Enable saptune.service")
	fs.BoolVar(&f.started, "started", true, "Start saptune.service")
	fs.BoolVar(&f.staging, "staging", false, "Enable saptune staging")
	cmd.MarkFlagsMutuallyExclusive("apply", "keep-tuning")
}

// overrides returns one override per flag set on the command line.
func (f *desiredStateFlags) overrides(cmd *cobra.Command) []func(*config.Config) {
	fs := cmd.Flags()
	var out []func(*config.Config)

	if fs.Changed("apply") {
		entries := append([]string{}, f.apply...)
		out = append(out, func(c *config.Config) { c.Apply = config.ApplyList{Entries: entries} })
	}
	if fs.Changed("keep-tuning") && f.keepTuning {
		out = append(out, func(c *config.Config) { c.Apply = config.KeepTuning() })
	}

	bools := []struct {
		name  string
		value bool
		set   func(*config.Config, bool)
	}{
		{"force-reapply", f.forceReapply, func(c *config.Config, v bool) { c.ForceReapply = v }},
		{"ignore-non-compliant", f.ignoreNonCompliant, func(c *config.Config, v bool) { c.IgnoreNonCompliant = v }},
		{"ignore-degraded", f.ignoreDegraded, func(c *config.Config, v bool) { c.IgnoreDegraded = v }},
		{"keep-applied-if-stopped", f.keepAppliedIfStopped, func(c *config.Config, v bool) { c.KeepAppliedIfStopped = v }},
		{"no-tuned", f.noTuned, func(c *config.Config, v bool) { c.NoTuned = v }},
		{"no-sapconf", f.noSapconf, func(c *config.Config, v bool) { c.NoSapconf = v }},
		{"enabled", f.enabled, func(c *config.Config, v bool) { c.Enabled = v }},
		{"started", f.started, func(c *config.Config, v bool) { c.Started = v }},
		{"staging", f.staging, func(c *config.Config, v bool) { c.StagingEnabled = v }},
	}
	for _, b := range bools {
		if !fs.Changed(b.name) {
			continue
		}
		value, set := b.value, b.set
		out = append(out, func(c *config.Config) { set(c, value) })
	}
	return out
}

func newApplyCmd(opts *rootOptions) *cobra.Command {
	flags := &desiredStateFlags{}
	var check bool

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Bring the host to the declared tuning",
		Long: `Reads the status of saptune, computes the commands that bring the host to
the declared state and executes them one by one. Execution stops at the first
failing command. Afterwards the status is read again and checked for
compliance and, unless ignored, for a degraded systemd system state.

Flags override the values of the configuration file.

Examples:
  saptunectl apply
  saptunectl apply --apply @HANA --apply -1656250
  saptunectl apply --keep-tuning --started=false
  saptunectl apply --check -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, opts, flags, check)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&check, "check", false, "Only show the plan, do not execute it")
	return cmd
}

func newPlanCmd(opts *rootOptions) *cobra.Command {
	flags := &desiredStateFlags{}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the commands apply would execute",
		Long: `Computes the plan like 'saptunectl apply' does, without executing it.
This is the same as 'saptunectl apply --check'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, opts, flags, true)
		},
	}
	flags.register(cmd)
	return cmd
}

func runApply(cmd *cobra.Command, opts *rootOptions, flags *desiredStateFlags, check bool) error {
	formatter, format, err := opts.formatter(cmd)
	if err != nil {
		return err
	}

	application, err := opts.application(cmd, flags.overrides(cmd)...)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	var s *spinner.Spinner
	if !opts.quiet && format == formatting.FormatTable {
		s = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
		s.Suffix = " Reading saptune status..."
		s.Start()
		application.Services().Executor.OnCommand = func(c engine.Command) {
			s.Lock()
			s.Suffix = " " + c.String()
			s.Unlock()
		}
	}

	result, err := application.Apply(ctx, check)
	if s != nil {
		s.Stop()
	}

	if shouldRender(result, err) {
		if ferr := formatter.FormatResult(result); ferr != nil && err == nil {
			err = ferr
		}
	}
	return err
}

// shouldRender skips the result of cycles that failed before a plan existed;
// the error alone says everything.
func shouldRender(result *app.Result, err error) bool {
	if result == nil {
		return false
	}
	return err == nil || len(result.Executed) > 0 || !result.Plan.Empty()
}

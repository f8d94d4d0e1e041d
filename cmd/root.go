package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"saptunectl/internal/app"
	"saptunectl/internal/config"
	"saptunectl/internal/engine"
	"saptunectl/internal/formatting"
	"saptunectl/internal/runner"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeInvalidDesiredState indicates a rejected configuration or
	// desired-state expression. Nothing was changed on the host.
	ExitCodeInvalidDesiredState = 2
	// ExitCodeUnavailable indicates saptune could not report its status or
	// inventory.
	ExitCodeUnavailable = 3
	// ExitCodePostCondition indicates the host is non-compliant or degraded
	// after the plan was executed.
	ExitCodePostCondition = 4
	// ExitCodeCommandFailed indicates a plan command exited non-zero.
	ExitCodeCommandFailed = 5
)

// hostRunner executes saptune and systemctl. Nil selects the real host;
// tests replace it.
var hostRunner runner.Runner

// rootOptions holds the persistent flags shared by all subcommands.
type rootOptions struct {
	configPath string
	debug      bool
	quiet      bool
	output     string
	noColor    bool
}

// rootCmd represents the base command for the saptunectl application.
var rootCmd *cobra.Command

func init() {
	rootCmd = newRootCmd()
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "saptunectl",
		Short: "Keep SAP tuning in the declared state",
		Long: `saptunectl drives saptune so that a host carries exactly the SAP Notes
and Solution declared in its configuration, with saptune.service and the
competing tuned and sapconf services in the declared state.

Run 'saptunectl plan' to see what would change, 'saptunectl apply' to
change it, or 'saptunectl watch' to keep the host converged.`,
		// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
		SilenceUsage: true,
	}
	cmd.SetVersionTemplate(`{{printf "saptunectl version %s\n" .Version}}`)

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", config.DefaultConfigPath, "Configuration file (.yaml, .yml or .toml)")
	pf.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	pf.BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress non-essential output")
	pf.StringVarP(&opts.output, "output", "o", "table", "Output format (table, json, yaml)")
	pf.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	cmd.AddCommand(
		newApplyCmd(opts),
		newPlanCmd(opts),
		newStatusCmd(opts),
		newNotesCmd(opts),
		newSolutionsCmd(opts),
		newHistoryCmd(opts),
		newWatchCmd(opts),
		newVersionCmd(),
		newSelfUpdateCmd(),
	)
	return cmd
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}

	var cfgErr config.ConfigurationError
	var validationErrs config.ValidationErrors
	switch {
	case errors.As(err, &cfgErr), errors.As(err, &validationErrs), engine.IsValidationError(err):
		return ExitCodeInvalidDesiredState
	case errors.Is(err, engine.ErrInventoryUnavailable), errors.Is(err, engine.ErrStatusUnavailable):
		return ExitCodeUnavailable
	case errors.Is(err, engine.ErrNonCompliant), errors.Is(err, engine.ErrSystemDegraded):
		return ExitCodePostCondition
	case errors.Is(err, engine.ErrCommandFailed):
		return ExitCodeCommandFailed
	}

	// Default to general error
	return ExitCodeError
}

// application loads the configuration and creates the application for cmd.
// The configuration file must exist when --config was given explicitly.
func (o *rootOptions) application(cmd *cobra.Command, overrides ...func(*config.Config)) (*app.Application, error) {
	cfg := app.NewConfig(o.debug, o.quiet, o.configPath, cmd.Flags().Changed("config"))
	cfg.Overrides = overrides
	cfg.Runner = hostRunner
	return app.NewApplication(cfg)
}

// formatter creates the formatter selected by --output.
func (o *rootOptions) formatter(cmd *cobra.Command) (formatting.Formatter, formatting.OutputFormat, error) {
	format, err := formatting.ParseFormat(o.output)
	if err != nil {
		return nil, "", err
	}
	return formatting.NewFactory().CreateFormatter(formatting.Options{
		Format: format,
		Quiet:  o.quiet,
		Color:  !o.noColor,
		Output: cmd.OutOrStdout(),
	}), format, nil
}

// commandContext returns the command's context, cancelled on SIGINT or SIGTERM.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

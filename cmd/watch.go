package cmd

import (
	"github.com/spf13/cobra"
)

func newWatchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep the host converged on the declared tuning",
		Long: `Runs as a daemon and reconciles the host:

  - at startup
  - when the configuration file changes
  - when a file below saptune's override or extra directories changes; these
    cycles revert and reapply the tuning so saptune picks the change up
  - every watch.resync_interval, to correct drift
  - on SIGHUP

Failed cycles are retried with exponential backoff. Under systemd the daemon
reports readiness and status and answers the watchdog. SIGINT and SIGTERM
stop it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := opts.application(cmd)
			if err != nil {
				return err
			}
			return application.Watch(cmd.Context())
		},
	}
}

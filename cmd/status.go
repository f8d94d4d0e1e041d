package cmd

import (
	"github.com/spf13/cobra"
)

func newStatusCmd(opts *rootOptions) *cobra.Command {
	var (
		raw             bool
		complianceCheck bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the tuning and service state of the host",
		Long: `Shows the applied Notes and Solution, the state of saptune.service,
tuned.service and sapconf.service, and the systemd system state as reported
by 'saptune status'.

With --raw the status is printed as saptune reports it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter, _, err := opts.formatter(cmd)
			if err != nil {
				return err
			}
			application, err := opts.application(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			if raw {
				facts, err := application.Facts(ctx, complianceCheck)
				if err != nil {
					return err
				}
				return formatter.FormatFacts(facts)
			}

			status, err := application.Status(ctx, complianceCheck)
			if err != nil {
				return err
			}
			return formatter.FormatStatus(status)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the status as reported by saptune")
	cmd.Flags().BoolVar(&complianceCheck, "compliance-check", true, "Let saptune verify that the applied tuning is in effect")
	return cmd
}

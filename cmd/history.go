package cmd

import (
	"github.com/spf13/cobra"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent apply and watch runs",
		Long: `Lists the run records kept in the state directory, newest first. Every
executed cycle of 'saptunectl apply' and 'saptunectl watch' leaves one.`,
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
			records, err := application.History(limit)
			if err != nil {
				return err
			}
			return formatter.FormatHistory(records)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")
	return cmd
}

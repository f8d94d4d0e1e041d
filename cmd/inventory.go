package cmd

import (
	"github.com/spf13/cobra"

	"saptunectl/internal/engine"
	"saptunectl/internal/formatting"
)

func newNotesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "notes",
		Short: "List the SAP Notes saptune can apply",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInventory(cmd, opts, formatting.Formatter.FormatNotes)
		},
	}
}

func newSolutionsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "solutions",
		Short: "List the Solutions saptune can apply and their Notes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInventory(cmd, opts, formatting.Formatter.FormatSolutions)
		},
	}
}

func runInventory(cmd *cobra.Command, opts *rootOptions, render func(formatting.Formatter, engine.Inventory) error) error {
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

	inv, err := application.Inventory(ctx)
	if err != nil {
		return err
	}
	return render(formatter, inv)
}

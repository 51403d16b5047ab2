package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "insights",
		Short:         "Spending insights API",
		Long:          "Budget adherence, recurring payment detection and AI recommendations over a banking ledger.",
		SilenceUsage:  true,
		SilenceErrors: false,
		// Running without a subcommand starts the API.
		RunE: runServe,
	}

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newMaintenanceCmd(),
		newRecurringCmd(),
		newSeedCmd(),
	)
	return root
}

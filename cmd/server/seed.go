package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/castlemilk/pfinance/insights/internal/auth"
	"github.com/castlemilk/pfinance/insights/internal/config"
	"github.com/castlemilk/pfinance/insights/internal/store"
)

func newSeedCmd() *cobra.Command {
	var externalID string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the demo ledger into the configured store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.cfg.Store.Driver == config.DriverMemory {
				return fmt.Errorf("the memory store is seeded on start, set SEED_MEMORY_ON_START instead")
			}
			seeder, ok := a.store.(store.DemoSeeder)
			if !ok {
				return fmt.Errorf("store driver %q cannot be seeded", a.cfg.Store.Driver)
			}

			spinner, _ := pterm.DefaultSpinner.Start("seeding demo data")
			summary, err := store.SeedDemo(ctx, seeder, externalID, time.Now())
			if err != nil {
				spinner.Fail(err.Error())
				return err
			}
			spinner.Success("demo data loaded")

			return renderTable([]string{"User", "Accounts", "MCCs", "Offers", "Limits", "Transactions"}, [][]string{{
				strconv.FormatInt(summary.UserID, 10),
				strconv.Itoa(summary.Accounts),
				strconv.Itoa(summary.MCCs),
				strconv.Itoa(summary.Offers),
				strconv.Itoa(summary.Limits),
				strconv.Itoa(summary.Transactions),
			}})
		},
	}
	cmd.Flags().StringVar(&externalID, "user", auth.LocalDevUID, "external (Firebase) id of the demo user")
	return cmd
}

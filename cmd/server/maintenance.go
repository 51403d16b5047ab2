package main

import (
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/castlemilk/pfinance/insights/internal/service"
)

func newMaintenanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "maintenance",
		Short: "Prune stale recommendation schedules and send budget alerts",
		Long: "Runs once and exits; intended for a scheduler such as cron or Cloud Scheduler. " +
			"Budget alerts are only delivered when PUSH_ENABLED is set.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			push, err := a.notifier(ctx)
			if err != nil {
				return err
			}
			adherence := service.NewAdherenceService(a.log, a.store, nil)
			report, err := service.NewMaintenanceService(a.log, a.store, adherence, push, a.cfg.Maintenance, nil).Run(ctx)
			if err != nil {
				return err
			}

			pterm.Success.Println("maintenance complete")
			return renderTable([]string{"Schedules deleted", "Due soon", "Alerts sent", "Alerts failed"}, [][]string{{
				strconv.Itoa(report.SchedulesDeleted),
				strconv.Itoa(report.SchedulesDueSoon),
				strconv.Itoa(report.AlertsSent),
				strconv.Itoa(report.AlertsFailed),
			}})
		},
	}
}

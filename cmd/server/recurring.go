package main

import (
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/castlemilk/pfinance/insights/internal/service"
)

func newRecurringCmd() *cobra.Command {
	var (
		externalID string
		accountID  int64
		opts       service.DetectOptions
	)

	cmd := &cobra.Command{
		Use:   "recurring",
		Short: "Detect recurring payments on an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			user, err := a.store.GetUserByExternalID(ctx, externalID)
			if err != nil {
				return err
			}

			svc := service.NewRecurringService(a.log, a.store, service.DetectOptionsFromConfig(a.cfg.Recurring), nil)
			merged := svc.Defaults()
			flags := cmd.Flags()
			if flags.Changed("min-months") {
				merged.MinMonths = opts.MinMonths
			}
			if flags.Changed("min-tx") {
				merged.MinTxCount = opts.MinTxCount
			}
			if flags.Changed("months-back") {
				merged.MonthsBack = opts.MonthsBack
			}
			if flags.Changed("amount-band") {
				merged.AmountBand = opts.AmountBand
			}
			if flags.Changed("min-confidence") {
				merged.MinConfidence = opts.MinConfidence
			}

			payments, err := svc.DetectRecurringPayments(ctx, user.ID, accountID, merged)
			if err != nil {
				return err
			}
			if len(payments) == 0 {
				pterm.Info.Printfln("no recurring payments on account %d", accountID)
				return nil
			}

			rows := make([][]string, 0, len(payments))
			for _, p := range payments {
				rows = append(rows, []string{
					category(p.MCC.Category),
					p.MCC.SubCategory,
					amount(p.LatestAmount),
					strconv.Itoa(p.TransactionCount),
					strconv.Itoa(p.MonthsWithPayments),
					fmt.Sprintf("%.2f", p.ConfidenceScore),
					p.LastDetected.Format("2006-01-02"),
					strconv.Itoa(len(p.SkippedPaymentEstimate)),
				})
			}
			return renderTable([]string{"Category", "Merchant type", "Latest", "Payments", "Months", "Confidence", "Last seen", "Skipped"}, rows)
		},
	}

	f := cmd.Flags()
	f.StringVar(&externalID, "user", "", "external (Firebase) id of the account owner")
	f.Int64Var(&accountID, "account", 0, "account id")
	f.IntVar(&opts.MinMonths, "min-months", 0, "minimum distinct months with a payment")
	f.IntVar(&opts.MinTxCount, "min-tx", 0, "minimum payments in a group")
	f.IntVar(&opts.MonthsBack, "months-back", 0, "history window in months")
	f.IntVar(&opts.AmountBand, "amount-band", 0, "amount grouping band in KD")
	f.Float64Var(&opts.MinConfidence, "min-confidence", 0, "minimum confidence score")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}

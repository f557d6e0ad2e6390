package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"expensetracker/internal/log"
)

const noData = "No data to summarize."

func summaryCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize expenses",
	}
	cmd.AddCommand(summaryCategoryCmd(opts))
	cmd.AddCommand(summaryMonthCmd(opts))
	cmd.AddCommand(summaryWeekCmd(opts))
	return cmd
}

func summaryCategoryCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "category",
		Short: "Total spent by category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, ledger, err := loadLedger(cmd, opts)
			if err != nil {
				return err
			}
			defer closeApp(app)

			logSummary(cmd, "category", ledger.Len())
			out := cmd.OutOrStdout()
			if ledger.IsEmpty() {
				fmt.Fprintln(out, noData)
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CATEGORY\tTOTAL")
			for _, c := range app.Ledger.SummarizeByCategory(ledger).Sorted() {
				fmt.Fprintf(w, "%s\t%s\n", c.Name, c.Amount.StringFixed(2))
			}
			return w.Flush()
		},
	}
}

func summaryMonthCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "month",
		Short: "Total spent per month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, ledger, err := loadLedger(cmd, opts)
			if err != nil {
				return err
			}
			defer closeApp(app)

			logSummary(cmd, "month", ledger.Len())
			out := cmd.OutOrStdout()
			if ledger.IsEmpty() {
				fmt.Fprintln(out, noData)
				return nil
			}

			totals, err := app.Ledger.SummarizeByMonth(ledger)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "MONTH\tTOTAL")
			for _, m := range totals.Sorted() {
				fmt.Fprintf(w, "%s\t%s\n", m.Month, m.Amount.StringFixed(2))
			}
			return w.Flush()
		},
	}
}

func summaryWeekCmd(opts *rootOptions) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "week",
		Short: "Expenses of the trailing window",
		Long: `Show the expenses dated within the last N days, today included, and
their total. N defaults to WEEKLY_WINDOW_DAYS.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, ledger, err := loadLedger(cmd, opts)
			if err != nil {
				return err
			}
			defer closeApp(app)

			n := app.Config.WeeklyWindowDays
			if cmd.Flags().Changed("days") {
				n = days
			}
			logSummary(cmd, "week", ledger.Len(), log.FieldWindowDays, n)

			out := cmd.OutOrStdout()
			if ledger.IsEmpty() {
				fmt.Fprintln(out, noData)
				return nil
			}

			window, err := app.Ledger.SummarizeLastNDays(ledger, app.Ledger.Now(), n)
			if err != nil {
				return err
			}
			if window.IsEmpty() {
				fmt.Fprintf(out, "No expenses in the last %d days.\n", n)
				return nil
			}

			fmt.Fprintf(out, "Since %s:\n", window.Since)
			if err := writeRecords(out, window.Records); err != nil {
				return err
			}
			return writeTotal(out, window.Total.StringFixed(2))
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "window length in days (default: WEEKLY_WINDOW_DAYS)")
	return cmd
}

func logSummary(cmd *cobra.Command, view string, records int, attrs ...any) {
	args := append([]any{
		log.FieldOperation, log.OpSummarize,
		"view", view,
		log.FieldRecords, records,
	}, attrs...)
	log.FromContext(cmd.Context()).DebugContext(cmd.Context(), "Summarizing ledger", args...)
}

func writeTotal(out io.Writer, total string) error {
	_, err := fmt.Fprintln(out, "Total spent:", total)
	return err
}

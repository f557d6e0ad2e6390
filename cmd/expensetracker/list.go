package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"expensetracker/internal/core"
	"expensetracker/internal/log"
)

func listCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all expenses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, ledger, err := loadLedger(cmd, opts)
			if err != nil {
				return err
			}
			defer closeApp(app)

			records := app.Ledger.ListAll(ledger)
			log.FromContext(cmd.Context()).DebugContext(cmd.Context(), "Listing records",
				log.FieldOperation, log.OpList,
				log.FieldOwner, ledger.Owner,
				log.FieldRecords, len(records))
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No expenses found.")
				return nil
			}
			return writeRecords(cmd.OutOrStdout(), records)
		},
	}
}

func writeRecords(out io.Writer, records []core.Record) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tCATEGORY\tAMOUNT\tNOTE")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Date, r.Category, r.Amount.StringFixed(2), r.Note)
	}
	return w.Flush()
}

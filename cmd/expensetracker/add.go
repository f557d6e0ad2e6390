package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"expensetracker/internal/core"
)

func addCmd(opts *rootOptions) *cobra.Command {
	var in struct {
		amount   string
		category string
		note     string
		date     string
	}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an expense",
		Long: `Append an expense to your ledger.

The date defaults to today. Amounts are decimal numbers; a single comma is
accepted as the decimal separator.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("amount") {
				return errors.New("--amount is required")
			}

			input := core.RecordInput{
				Category: in.category,
				Amount:   in.amount,
				Note:     in.note,
			}
			if in.date != "" {
				d, err := core.ParseDate(in.date)
				if err != nil {
					return fmt.Errorf("%w: %q, want YYYY-MM-DD", err, in.date)
				}
				input.Date = d
			}

			app, ledger, err := loadLedger(cmd, opts)
			if err != nil {
				return err
			}
			defer closeApp(app)

			if _, err := app.Ledger.Append(cmd.Context(), ledger, input); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Expense added successfully.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&in.amount, "amount", "a", "", "amount spent")
	cmd.Flags().StringVarP(&in.category, "category", "c", "", "category label, e.g. food, travel, bills")
	cmd.Flags().StringVarP(&in.note, "note", "n", "", "optional note")
	cmd.Flags().StringVarP(&in.date, "date", "d", "", "expense date as YYYY-MM-DD (default: today)")

	return cmd
}

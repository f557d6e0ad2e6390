package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

const secretEnv = "EXPENSE_TRACKER_PASSWORD"

// rootOptions holds the flags shared by every subcommand.
type rootOptions struct {
	user     string
	password string
	envFile  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "expensetracker",
		Short: "Personal expense ledger",
		Long: `expensetracker keeps one expense ledger per account.

Sign up once, then add expenses and view them listed or summarized by
category, month or the trailing week. Storage is chosen with DATA_BACKEND
(csv, sqlite or memory).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.user, "user", "u", "", "account identifier")
	cmd.PersistentFlags().StringVar(&opts.password, "password", "", "account secret (default: $"+secretEnv+", then stdin)")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file to load before reading configuration")

	cmd.AddCommand(signupCmd(opts))
	cmd.AddCommand(addCmd(opts))
	cmd.AddCommand(listCmd(opts))
	cmd.AddCommand(summaryCmd(opts))

	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", describeError(err))
		os.Exit(1)
	}
}

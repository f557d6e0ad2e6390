package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func signupCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Long: `Create an account with an empty ledger.

The password is hashed with bcrypt before it is stored.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, secret, err := credentials(cmd, opts)
			if err != nil {
				return err
			}

			app, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer closeApp(app)

			if _, err := app.Directory.Register(cmd.Context(), user, secret); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Account created successfully.")
			return nil
		},
	}
}

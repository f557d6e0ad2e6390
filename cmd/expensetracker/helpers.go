package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"expensetracker/internal/cli"
	"expensetracker/internal/core"
	"expensetracker/internal/log"
)

// openApp loads configuration and opens the backend. The command context
// carries the app logger afterwards. The caller must Close the app.
func openApp(cmd *cobra.Command, opts *rootOptions) (*cli.App, error) {
	if opts.envFile != "" {
		cli.LoadEnvFile(opts.envFile)
	}

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return nil, err
	}

	logger, err := cli.SetupLogger(cfg.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	app, err := cli.OpenBackend(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, err
	}
	cmd.SetContext(log.NewContext(cmd.Context(), app.Logger))
	return app, nil
}

func closeApp(app *cli.App) {
	if err := app.Close(); err != nil {
		app.Logger.Error("Failed to close backend", "error", err)
	}
}

// credentials returns the trimmed user and the secret from --password,
// the environment or one line of stdin, in that order.
func credentials(cmd *cobra.Command, opts *rootOptions) (string, string, error) {
	user := strings.TrimSpace(opts.user)
	if user == "" {
		return "", "", errors.New("--user is required")
	}

	if opts.password != "" {
		return user, opts.password, nil
	}
	if secret := os.Getenv(secretEnv); secret != "" {
		return user, secret, nil
	}

	secret, err := readLine(cmd.InOrStdin())
	if err != nil {
		return "", "", fmt.Errorf("read password: %w", err)
	}
	return user, secret, nil
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// loadLedger authenticates and loads the user's ledger.
func loadLedger(cmd *cobra.Command, opts *rootOptions) (*cli.App, *core.Ledger, error) {
	user, secret, err := credentials(cmd, opts)
	if err != nil {
		return nil, nil, err
	}

	app, err := openApp(cmd, opts)
	if err != nil {
		return nil, nil, err
	}

	id, err := app.Directory.Authenticate(cmd.Context(), user, secret)
	if err != nil {
		closeApp(app)
		return nil, nil, err
	}

	ledger, err := app.Ledger.Load(cmd.Context(), id)
	if err != nil {
		closeApp(app)
		return nil, nil, err
	}
	return app, ledger, nil
}

// describeError turns domain errors into the messages an operator sees.
func describeError(err error) string {
	switch {
	case errors.Is(err, core.ErrDuplicateIdentifier):
		return "username already exists, try logging in"
	case errors.Is(err, core.ErrUnknownIdentifier):
		return "user not found"
	case errors.Is(err, core.ErrWrongSecret):
		return "incorrect password"
	case errors.Is(err, core.ErrEmptyIdentifier):
		return "username cannot be empty"
	case errors.Is(err, core.ErrSecretTooLong):
		return "password cannot be longer than 72 bytes"
	case errors.Is(err, core.ErrStorageUnavailable):
		return "storage failure: " + err.Error()
	default:
		return err.Error()
	}
}

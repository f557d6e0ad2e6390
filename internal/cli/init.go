// Package cli provides the startup steps shared by the expensetracker commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"

	"expensetracker/internal/backend"
	"expensetracker/internal/config"
	"expensetracker/internal/log"
	"expensetracker/internal/services"
)

// LoadEnvFile loads a .env file for local development. A missing file is
// not an error.
func LoadEnvFile(paths ...string) {
	_ = godotenv.Load(paths...)
}

// SetupLogger builds a text logger at level writing to w (stderr when nil)
// and makes it the slog default.
func SetupLogger(level string, w io.Writer) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if w == nil {
		w = os.Stderr
	}
	logger := log.New(log.Config{
		Level:     lvl,
		Component: log.ComponentCLI,
		Output:    w,
	})
	log.SetDefault(logger)
	return logger, nil
}

// LoadAndValidateConfig loads configuration from the environment and
// validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// App bundles the services a command runs against.
type App struct {
	Config    *config.Config
	Logger    *log.Logger
	Directory *services.DirectoryService
	Ledger    *services.LedgerService

	backend *backend.BackendResult
}

// Close releases the backend.
func (a *App) Close() error {
	if err := a.backend.Close(); err != nil {
		return err
	}
	a.Logger.Debug("Backend closed", log.FieldOperation, log.OpShutdown)
	return nil
}

// OpenBackend creates the configured backend and the services on top of it.
func OpenBackend(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	start := time.Now()
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.ErrorContext(ctx, "Invalid backend configuration",
			log.NewFields().
				WithOperation(log.OpStartup).
				WithError(err, log.ErrorTypeConfiguration).
				ToSlice()...)
		return nil, err
	}

	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}

	opts := []services.LedgerOption{services.WithLogger(logger)}
	if result.Publisher != nil {
		opts = append(opts, services.WithPublisher(result.Publisher))
	}

	logger.DebugContext(ctx, "Backend opened",
		log.FieldOperation, log.OpStartup,
		log.FieldBackend, backendCfg.Type.String(),
		log.FieldDuration, time.Since(start).Milliseconds())

	return &App{
		Config:    cfg,
		Logger:    logger,
		Directory: services.NewDirectoryService(result.Accounts, result.Ledgers, cfg.BcryptCost, logger),
		Ledger:    services.NewLedgerService(result.Ledgers, opts...),
		backend:   result,
	}, nil
}

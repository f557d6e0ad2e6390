package backend

import (
	"context"
	"errors"
	"fmt"

	"expensetracker/internal/amqp"
	"expensetracker/internal/log"
	"expensetracker/internal/storage"
	"expensetracker/internal/storage/cached"
	"expensetracker/internal/storage/csvfile"
	"expensetracker/internal/storage/memory"
	"expensetracker/internal/storage/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		store   storage.Backend
		closers []func() error
	)

	switch config.Type {
	case CSVBackend:
		s, err := csvfile.New(config.DataDirectory)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize csv store: %w", err)
		}
		store = s
		f.logger.DebugContext(ctx, "Initialized csv backend", "data_directory", config.DataDirectory)

	case SQLiteBackend:
		repo, err := sqlite.NewRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		store = repo
		closers = append(closers, repo.Close)
		f.logger.DebugContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	case MemoryBackend:
		store = memory.New()
		f.logger.DebugContext(ctx, "Initialized memory backend")

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	result := &BackendResult{
		Accounts: store,
		Ledgers:  store,
	}

	cacheEnabled := config.CacheSize > 0 && config.CacheTTL > 0
	if cacheEnabled {
		result.Ledgers = cached.New(store, config.CacheSize, config.CacheTTL, f.logger)
	}

	if config.AMQPURL != "" {
		var clientOpts []amqp.ClientOption
		if config.AMQPPublishAttempts > 0 {
			clientOpts = append(clientOpts, amqp.WithPublishAttempts(config.AMQPPublishAttempts))
		}
		client := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger, clientOpts...)
		result.Publisher = client
		closers = append(closers, client.Close)
		f.logger.DebugContext(ctx, "Configured AMQP publisher",
			"exchange", config.AMQPExchange,
			"queue", config.AMQPQueue,
			"publish_attempts", client.PublishAttempts())
	}

	result.Cleanup = func() error {
		var errs []error
		// Close in reverse order of creation.
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	f.logger.DebugContext(ctx, "Backend ready",
		log.FieldBackend, config.Type.String(),
		"cache_enabled", cacheEnabled,
		"amqp_enabled", result.Publisher != nil)

	return result, nil
}

// Package backend builds the configured account and ledger stores and the
// optional event publisher.
package backend

import (
	"context"
	"time"

	"expensetracker/internal/services"
	"expensetracker/internal/storage"
)

// CleanupFunc releases the resources held by a backend.
type CleanupFunc func() error

// BackendResult holds everything a command needs to run the ledger.
type BackendResult struct {
	Accounts storage.AccountStore
	Ledgers  storage.LedgerStore
	// Publisher is nil when AMQP is disabled.
	Publisher services.EventPublisher
	Cleanup   CleanupFunc
}

// Close runs Cleanup if set.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// csv
	DataDirectory string

	// sqlite
	SQLiteDBPath string

	// Ledger cache, applied to every backend type
	CacheSize int
	CacheTTL  time.Duration

	// Optional event publishing
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// AMQPPublishAttempts of zero keeps the client default.
	AMQPPublishAttempts int
}

// BackendType represents the type of backend
type BackendType string

const (
	CSVBackend    BackendType = "csv"
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case CSVBackend, SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

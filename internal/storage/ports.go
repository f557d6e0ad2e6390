// Package storage defines the persistence ports of the ledger and the
// backends that implement them.
package storage

import (
	"context"

	"expensetracker/internal/core"
)

// Ports for outbound adapters.
type (
	// AccountStore persists the identifier -> credential hash table.
	AccountStore interface {
		// GetAccount returns core.ErrUnknownIdentifier when identifier is absent.
		GetAccount(ctx context.Context, identifier string) (core.Account, error)
		// CreateAccount returns core.ErrDuplicateIdentifier when identifier exists.
		CreateAccount(ctx context.Context, acc core.Account) error
	}

	// LedgerStore persists one ordered record table per owner.
	LedgerStore interface {
		// LoadLedger returns the owner's records in stored order and whether
		// a ledger exists for owner at all.
		LoadLedger(ctx context.Context, owner string) (records []core.Record, found bool, err error)
		// SaveLedger replaces the owner's records with records. It is a full
		// rewrite that either lands completely or leaves storage untouched.
		SaveLedger(ctx context.Context, owner string, records []core.Record) error
		// CreateLedger creates an empty ledger for owner if none exists.
		// It never overwrites an existing ledger.
		CreateLedger(ctx context.Context, owner string) error
	}

	// Backend bundles both stores.
	Backend interface {
		AccountStore
		LedgerStore
	}
)

// CloneRecords returns a copy of records that never aliases the input.
func CloneRecords(records []core.Record) []core.Record {
	out := make([]core.Record, len(records))
	copy(out, records)
	return out
}

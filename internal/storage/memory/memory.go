// Package memory is an in-memory storage backend. Nothing survives the process.
package memory

import (
	"context"
	"sync"

	"expensetracker/internal/core"
	"expensetracker/internal/storage"
)

type Store struct {
	mu       sync.Mutex
	accounts map[string]core.Account
	ledgers  map[string][]core.Record
}

var _ storage.Backend = (*Store)(nil)

func New() *Store {
	return &Store{
		accounts: make(map[string]core.Account),
		ledgers:  make(map[string][]core.Record),
	}
}

// GetAccount returns the account stored under identifier.
func (s *Store) GetAccount(_ context.Context, identifier string) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[identifier]
	if !ok {
		return core.Account{}, core.ErrUnknownIdentifier
	}
	return acc, nil
}

// CreateAccount stores acc unless its identifier is taken.
func (s *Store) CreateAccount(_ context.Context, acc core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[acc.Identifier]; ok {
		return core.ErrDuplicateIdentifier
	}
	s.accounts[acc.Identifier] = acc
	return nil
}

// LoadLedger returns a copy of the owner's records.
func (s *Store) LoadLedger(_ context.Context, owner string) ([]core.Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, ok := s.ledgers[owner]
	if !ok {
		return nil, false, nil
	}
	return storage.CloneRecords(records), true, nil
}

// SaveLedger replaces the owner's records with a copy of records.
func (s *Store) SaveLedger(_ context.Context, owner string, records []core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledgers[owner] = storage.CloneRecords(records)
	return nil
}

// CreateLedger adds an empty ledger for owner if none exists.
func (s *Store) CreateLedger(_ context.Context, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ledgers[owner]; !ok {
		s.ledgers[owner] = []core.Record{}
	}
	return nil
}

// Package cached decorates a LedgerStore with an in-process TTL LRU cache.
package cached

import (
	"context"
	"time"

	"expensetracker/internal/cache"
	"expensetracker/internal/core"
	"expensetracker/internal/log"
	"expensetracker/internal/storage"
)

// LedgerStore serves LoadLedger from cache when possible. Writes go to the
// wrapped store first and only refresh the cache once they succeeded, so the
// cache never holds rows that were not persisted.
type LedgerStore struct {
	next   storage.LedgerStore
	cache  *cache.LRUCache[[]core.Record]
	logger *log.Logger
}

var _ storage.LedgerStore = (*LedgerStore)(nil)

// New wraps next with an LRU of maxSize owners whose entries live for ttl.
func New(next storage.LedgerStore, maxSize int, ttl time.Duration, logger *log.Logger, opts ...cache.Option) *LedgerStore {
	if logger == nil {
		logger = log.Discard()
	}
	return &LedgerStore{
		next:   next,
		cache:  cache.NewLRUCache[[]core.Record](maxSize, ttl, opts...),
		logger: logger.WithComponent(log.ComponentCache),
	}
}

func (s *LedgerStore) LoadLedger(ctx context.Context, owner string) ([]core.Record, bool, error) {
	if records, ok := s.cache.Get(owner); ok {
		s.logger.DebugContext(ctx, "Ledger cache hit", log.FieldOwner, owner, log.FieldRecords, len(records))
		return storage.CloneRecords(records), true, nil
	}

	records, found, err := s.next.LoadLedger(ctx, owner)
	if err != nil || !found {
		return records, found, err
	}
	s.store(ctx, owner, records)
	return records, true, nil
}

func (s *LedgerStore) SaveLedger(ctx context.Context, owner string, records []core.Record) error {
	if err := s.next.SaveLedger(ctx, owner, records); err != nil {
		s.cache.Delete(owner)
		return err
	}
	s.store(ctx, owner, records)
	return nil
}

// CreateLedger drops any cached entry; the next load reads whatever the
// wrapped store holds, which may be a pre-existing ledger.
func (s *LedgerStore) CreateLedger(ctx context.Context, owner string) error {
	s.cache.Delete(owner)
	return s.next.CreateLedger(ctx, owner)
}

// store sweeps expired entries, then caches a copy of records.
func (s *LedgerStore) store(ctx context.Context, owner string, records []core.Record) {
	if n := s.cache.CleanExpired(); n > 0 {
		s.logger.DebugContext(ctx, "Dropped expired ledgers", "expired", n)
	}
	s.cache.Set(owner, storage.CloneRecords(records))
}

package cached

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/cache"
	"expensetracker/internal/core"
	"expensetracker/internal/storage"
	"expensetracker/internal/storage/memory"
	"expensetracker/internal/storage/storagetest"
)

// cachedBackend pairs the memory account store with a cached ledger store so
// the shared contract suite can run against the decorator.
type cachedBackend struct {
	*memory.Store
	ledgers *LedgerStore
}

func (b cachedBackend) LoadLedger(ctx context.Context, owner string) ([]core.Record, bool, error) {
	return b.ledgers.LoadLedger(ctx, owner)
}

func (b cachedBackend) SaveLedger(ctx context.Context, owner string, records []core.Record) error {
	return b.ledgers.SaveLedger(ctx, owner, records)
}

func (b cachedBackend) CreateLedger(ctx context.Context, owner string) error {
	return b.ledgers.CreateLedger(ctx, owner)
}

func TestCachedBackend(t *testing.T) {
	storagetest.RunBackendTests(t, func(t *testing.T) storage.Backend {
		mem := memory.New()
		return cachedBackend{Store: mem, ledgers: New(mem, 8, time.Minute, nil)}
	})
}

// countingStore counts loads and can be told to fail saves.
type countingStore struct {
	storage.LedgerStore
	loads    int
	failSave bool
}

func (c *countingStore) LoadLedger(ctx context.Context, owner string) ([]core.Record, bool, error) {
	c.loads++
	return c.LedgerStore.LoadLedger(ctx, owner)
}

func (c *countingStore) SaveLedger(ctx context.Context, owner string, records []core.Record) error {
	if c.failSave {
		return core.ErrStorageUnavailable
	}
	return c.LedgerStore.SaveLedger(ctx, owner, records)
}

func TestLoadIsServedFromCache(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{LedgerStore: memory.New()}
	s := New(inner, 8, time.Minute, nil)
	want := []core.Record{storagetest.Record("2024-01-01", "food", "10", "")}
	require.NoError(t, inner.SaveLedger(ctx, "alice", want))

	for i := 0; i < 3; i++ {
		got, found, err := s.LoadLedger(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, found)
		storagetest.AssertRecordsEqual(t, want, got)
	}
	assert.Equal(t, 1, inner.loads)
}

func TestMissingLedgerIsNotCached(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{LedgerStore: memory.New()}
	s := New(inner, 8, time.Minute, nil)

	for i := 0; i < 2; i++ {
		_, found, err := s.LoadLedger(ctx, "ghost")
		require.NoError(t, err)
		assert.False(t, found)
	}
	assert.Equal(t, 2, inner.loads)
}

func TestSaveRefreshesCache(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{LedgerStore: memory.New()}
	s := New(inner, 8, time.Minute, nil)
	require.NoError(t, s.CreateLedger(ctx, "alice"))
	_, _, err := s.LoadLedger(ctx, "alice")
	require.NoError(t, err)

	want := []core.Record{storagetest.Record("2024-01-01", "food", "10", "")}
	require.NoError(t, s.SaveLedger(ctx, "alice", want))

	got, _, err := s.LoadLedger(ctx, "alice")
	require.NoError(t, err)
	storagetest.AssertRecordsEqual(t, want, got)
	assert.Equal(t, 1, inner.loads)
}

func TestFailedSaveDropsCacheEntry(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{LedgerStore: memory.New()}
	s := New(inner, 8, time.Minute, nil)
	want := []core.Record{storagetest.Record("2024-01-01", "food", "10", "")}
	require.NoError(t, s.SaveLedger(ctx, "alice", want))

	inner.failSave = true
	err := s.SaveLedger(ctx, "alice", append(want, storagetest.Record("2024-01-02", "x", "1", "")))
	require.True(t, errors.Is(err, core.ErrStorageUnavailable))

	got, _, err := s.LoadLedger(ctx, "alice")
	require.NoError(t, err)
	storagetest.AssertRecordsEqual(t, want, got)
	assert.Equal(t, 1, inner.loads, "failed save must force a reload from storage")
}

func TestCachedRecordsAreNotAliased(t *testing.T) {
	ctx := context.Background()
	s := New(memory.New(), 8, time.Minute, nil)
	require.NoError(t, s.SaveLedger(ctx, "alice", []core.Record{storagetest.Record("2024-01-01", "food", "10", "")}))

	got, _, err := s.LoadLedger(ctx, "alice")
	require.NoError(t, err)
	got[0].Category = "mutated"

	again, _, err := s.LoadLedger(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "food", again[0].Category)
}

func TestEntriesExpire(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	inner := &countingStore{LedgerStore: memory.New()}
	s := New(inner, 8, time.Minute, nil, cache.WithClock(func() time.Time { return now }))
	require.NoError(t, s.SaveLedger(ctx, "alice", nil))

	_, _, err := s.LoadLedger(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, inner.loads)

	now = now.Add(2 * time.Minute)
	_, _, err = s.LoadLedger(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, inner.loads)
}

func TestStoreSweepsExpiredEntries(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := New(memory.New(), 8, time.Minute, nil, cache.WithClock(func() time.Time { return now }))
	require.NoError(t, s.SaveLedger(ctx, "alice", nil))
	require.NoError(t, s.SaveLedger(ctx, "bob", nil))
	require.Equal(t, 2, s.cache.Size())

	now = now.Add(2 * time.Minute)
	require.NoError(t, s.SaveLedger(ctx, "carol", nil))
	assert.Equal(t, 1, s.cache.Size())
}

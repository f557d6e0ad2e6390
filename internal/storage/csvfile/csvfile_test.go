package csvfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/core"
	"expensetracker/internal/storage"
	"expensetracker/internal/storage/storagetest"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestCSVBackend(t *testing.T) {
	storagetest.RunBackendTests(t, func(t *testing.T) storage.Backend {
		return newStore(t)
	})
}

func TestLedgerFileLayout(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveLedger(ctx, "alice", []core.Record{
		storagetest.Record("2024-01-01", "food", "10.50", "lunch, late"),
	}))

	b, err := os.ReadFile(filepath.Join(s.Dir(), "alice_expenses.csv"))
	require.NoError(t, err)
	assert.Equal(t, "date,category,amount,note\n2024-01-01,food,10.5,\"lunch, late\"\n", string(b))
}

func TestAccountFileLayout(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateAccount(ctx, core.Account{Identifier: "alice", CredentialHash: "h1"}))
	require.NoError(t, s.CreateAccount(ctx, core.Account{Identifier: "bob", CredentialHash: "h2"}))

	b, err := os.ReadFile(filepath.Join(s.Dir(), "accounts.csv"))
	require.NoError(t, err)
	assert.Equal(t, "identifier,credential_hash\nalice,h1\nbob,h2\n", string(b))
}

func TestCreateLedgerWritesHeaderOnly(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.CreateLedger(context.Background(), "alice"))

	b, err := os.ReadFile(filepath.Join(s.Dir(), "alice_expenses.csv"))
	require.NoError(t, err)
	assert.Equal(t, "date,category,amount,note\n", string(b))
}

func TestIdentifierIsEscapedInFileName(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	owner := "../evil/owner"
	want := []core.Record{storagetest.Record("2024-01-01", "a", "1", "")}
	require.NoError(t, s.SaveLedger(ctx, owner, want))

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "..%2Fevil%2Fowner_expenses.csv", entries[0].Name())

	got, found, err := s.LoadLedger(ctx, owner)
	require.NoError(t, err)
	assert.True(t, found)
	storagetest.AssertRecordsEqual(t, want, got)
}

func TestLoadLedgerRejectsBadAmount(t *testing.T) {
	s := newStore(t)
	path := filepath.Join(s.Dir(), "alice_expenses.csv")
	require.NoError(t, os.WriteFile(path, []byte("date,category,amount,note\n2024-01-01,food,abc,\n"), 0o600))

	_, _, err := s.LoadLedger(context.Background(), "alice")
	require.ErrorIs(t, err, core.ErrInvalidAmount)
}

func TestLoadLedgerRejectsMalformedFile(t *testing.T) {
	s := newStore(t)
	path := filepath.Join(s.Dir(), "alice_expenses.csv")
	require.NoError(t, os.WriteFile(path, []byte("date,category,amount,note\n2024-01-01,food\n"), 0o600))

	_, _, err := s.LoadLedger(context.Background(), "alice")
	require.ErrorIs(t, err, core.ErrStorageUnavailable)
}

func TestFailedSaveLeavesFileUntouched(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}
	s := newStore(t)
	ctx := context.Background()
	want := []core.Record{storagetest.Record("2024-01-01", "a", "1", "")}
	require.NoError(t, s.SaveLedger(ctx, "alice", want))

	require.NoError(t, os.Chmod(s.Dir(), 0o500))
	t.Cleanup(func() { _ = os.Chmod(s.Dir(), 0o755) })

	err := s.SaveLedger(ctx, "alice", append(want, storagetest.Record("2024-01-02", "b", "2", "")))
	require.ErrorIs(t, err, core.ErrStorageUnavailable)

	got, _, err := s.LoadLedger(ctx, "alice")
	require.NoError(t, err)
	storagetest.AssertRecordsEqual(t, want, got)
}

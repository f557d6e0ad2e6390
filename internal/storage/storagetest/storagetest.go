// Package storagetest holds the contract every storage backend must satisfy.
package storagetest

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/core"
	"expensetracker/internal/storage"
)

// Record builds a record from text fields, panicking on a bad amount.
func Record(date, category, amount, note string) core.Record {
	return core.Record{
		Date:     core.UncheckedDate(date),
		Category: category,
		Amount:   decimal.RequireFromString(amount),
		Note:     note,
	}
}

// AssertRecordsEqual compares record sequences field by field.
func AssertRecordsEqual(t *testing.T, want, got []core.Record) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Truef(t, want[i].Equal(got[i]), "record %d: want %+v, got %+v", i, want[i], got[i])
	}
}

// RunBackendTests runs the shared contract against the backend returned by newBackend.
func RunBackendTests(t *testing.T, newBackend func(t *testing.T) storage.Backend) {
	t.Run("unknown account", func(t *testing.T) {
		b := newBackend(t)
		_, err := b.GetAccount(context.Background(), "nobody")
		require.ErrorIs(t, err, core.ErrUnknownIdentifier)
	})

	t.Run("create and get account", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		acc := core.Account{Identifier: "alice", CredentialHash: "$2a$04$hash"}
		require.NoError(t, b.CreateAccount(ctx, acc))

		got, err := b.GetAccount(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, acc, got)
	})

	t.Run("duplicate account", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		require.NoError(t, b.CreateAccount(ctx, core.Account{Identifier: "alice", CredentialHash: "h1"}))
		err := b.CreateAccount(ctx, core.Account{Identifier: "alice", CredentialHash: "h2"})
		require.ErrorIs(t, err, core.ErrDuplicateIdentifier)

		got, err := b.GetAccount(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "h1", got.CredentialHash)
	})

	t.Run("identifiers are case-sensitive", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		require.NoError(t, b.CreateAccount(ctx, core.Account{Identifier: "alice", CredentialHash: "h1"}))
		require.NoError(t, b.CreateAccount(ctx, core.Account{Identifier: "Alice", CredentialHash: "h2"}))

		_, err := b.GetAccount(ctx, "ALICE")
		require.ErrorIs(t, err, core.ErrUnknownIdentifier)
	})

	t.Run("missing ledger", func(t *testing.T) {
		b := newBackend(t)
		records, found, err := b.LoadLedger(context.Background(), "alice")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Empty(t, records)
	})

	t.Run("create ledger is idempotent", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		require.NoError(t, b.CreateLedger(ctx, "alice"))
		require.NoError(t, b.CreateLedger(ctx, "alice"))

		records, found, err := b.LoadLedger(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Empty(t, records)
	})

	t.Run("create ledger keeps existing rows", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		want := []core.Record{Record("2024-01-01", "food", "10", "")}
		require.NoError(t, b.SaveLedger(ctx, "alice", want))
		require.NoError(t, b.CreateLedger(ctx, "alice"))

		got, _, err := b.LoadLedger(ctx, "alice")
		require.NoError(t, err)
		AssertRecordsEqual(t, want, got)
	})

	t.Run("save and load round trip", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		want := []core.Record{
			Record("2024-01-01", "food", "10.50", "lunch, with \"friends\""),
			Record("2024-01-02", "Food", "-5", ""),
			Record("2024-02-01", "travel", "0.01", "multi\nline"),
		}
		require.NoError(t, b.SaveLedger(ctx, "alice", want))

		got, found, err := b.LoadLedger(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, found)
		AssertRecordsEqual(t, want, got)
	})

	t.Run("line breaks round trip", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		want := []core.Record{
			Record("2024-01-01", "a\rb", "1", "lone\rreturn"),
			Record("2024-01-02", "c\nd", "2", "trailing\r"),
			Record("2024-01-03", "e", "3", core.NormalizeLineBreaks("line1\r\nline2\r\n")),
		}
		require.NoError(t, b.SaveLedger(ctx, "alice", want))

		got, _, err := b.LoadLedger(ctx, "alice")
		require.NoError(t, err)
		AssertRecordsEqual(t, want, got)
	})

	t.Run("save is a full rewrite", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		require.NoError(t, b.SaveLedger(ctx, "alice", []core.Record{
			Record("2024-01-01", "a", "1", ""),
			Record("2024-01-02", "b", "2", ""),
		}))
		want := []core.Record{Record("2024-01-03", "c", "3", "")}
		require.NoError(t, b.SaveLedger(ctx, "alice", want))

		got, _, err := b.LoadLedger(ctx, "alice")
		require.NoError(t, err)
		AssertRecordsEqual(t, want, got)
	})

	t.Run("ledgers are isolated per owner", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		alice := []core.Record{Record("2024-01-01", "a", "1", "")}
		bob := []core.Record{Record("2024-01-02", "b", "2", ""), Record("2024-01-03", "b", "3", "")}
		require.NoError(t, b.SaveLedger(ctx, "alice", alice))
		require.NoError(t, b.SaveLedger(ctx, "bob", bob))

		got, _, err := b.LoadLedger(ctx, "alice")
		require.NoError(t, err)
		AssertRecordsEqual(t, alice, got)
		got, _, err = b.LoadLedger(ctx, "bob")
		require.NoError(t, err)
		AssertRecordsEqual(t, bob, got)
	})

	t.Run("loaded records do not alias storage", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		require.NoError(t, b.SaveLedger(ctx, "alice", []core.Record{Record("2024-01-01", "a", "1", "")}))

		got, _, err := b.LoadLedger(ctx, "alice")
		require.NoError(t, err)
		got[0].Category = "mutated"

		again, _, err := b.LoadLedger(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "a", again[0].Category)
	})

	t.Run("unparseable date survives storage", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		want := []core.Record{Record("03/01/2024", "a", "1", "")}
		require.NoError(t, b.SaveLedger(ctx, "alice", want))

		got, _, err := b.LoadLedger(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.False(t, got[0].Date.Valid())
		assert.Equal(t, "03/01/2024", got[0].Date.String())
	})
}

// Package sqlite stores accounts and ledgers in a single SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"expensetracker/internal/core"
	"expensetracker/internal/storage"

	_ "modernc.org/sqlite"
)

type Repository struct {
	db *sql.DB
}

var _ storage.Backend = (*Repository)(nil)

// NewRepository opens (creating if needed) the database at dbPath and
// migrates it to the latest schema.
func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// GetAccount implements storage.AccountStore
func (r *Repository) GetAccount(ctx context.Context, identifier string) (core.Account, error) {
	acc := core.Account{Identifier: identifier}
	err := r.db.QueryRowContext(ctx,
		`SELECT credential_hash FROM accounts WHERE identifier = ?`, identifier,
	).Scan(&acc.CredentialHash)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.ErrUnknownIdentifier
	}
	if err != nil {
		return core.Account{}, unavailable("get account", err)
	}
	return acc, nil
}

// CreateAccount implements storage.AccountStore
func (r *Repository) CreateAccount(ctx context.Context, acc core.Account) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (identifier, credential_hash) VALUES (?, ?)
		 ON CONFLICT (identifier) DO NOTHING`,
		acc.Identifier, acc.CredentialHash)
	if err != nil {
		return unavailable("create account", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable("create account", err)
	}
	if n == 0 {
		return core.ErrDuplicateIdentifier
	}

	slog.DebugContext(ctx, "Account saved to SQLite", "identifier", acc.Identifier)
	return nil
}

// LoadLedger implements storage.LedgerStore
func (r *Repository) LoadLedger(ctx context.Context, owner string) ([]core.Record, bool, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM ledgers WHERE owner = ?`, owner).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, unavailable("find ledger", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT date, category, amount, note FROM ledger_records
		 WHERE owner = ? ORDER BY position`, owner)
	if err != nil {
		return nil, true, unavailable("load ledger", err)
	}
	defer rows.Close()

	records := []core.Record{}
	for rows.Next() {
		var date, category, amountText, note string
		if err := rows.Scan(&date, &category, &amountText, &note); err != nil {
			return nil, true, unavailable("scan ledger row", err)
		}
		amount, err := core.ParseAmount(amountText)
		if err != nil {
			return nil, true, fmt.Errorf("ledger %s row %d amount %q: %w", owner, len(records)+1, amountText, err)
		}
		records = append(records, core.Record{
			Date:     core.UncheckedDate(date),
			Category: category,
			Amount:   amount,
			Note:     note,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, true, unavailable("iterate ledger rows", err)
	}
	return records, true, nil
}

// SaveLedger implements storage.LedgerStore. The delete and the re-insert
// share one transaction.
func (r *Repository) SaveLedger(ctx context.Context, owner string, records []core.Record) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("begin save", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO ledgers (owner) VALUES (?) ON CONFLICT (owner) DO NOTHING`, owner); err != nil {
		return unavailable("ensure ledger", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM ledger_records WHERE owner = ?`, owner); err != nil {
		return unavailable("clear ledger", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO ledger_records (owner, position, date, category, amount, note)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return unavailable("prepare insert", err)
	}
	defer stmt.Close()

	for i, rec := range records {
		if _, err = stmt.ExecContext(ctx, owner, i, rec.Date.String(), rec.Category, core.FormatAmount(rec.Amount), rec.Note); err != nil {
			return unavailable("insert ledger row", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return unavailable("commit save", err)
	}

	slog.DebugContext(ctx, "Ledger saved to SQLite", "owner", owner, "records", len(records))
	return nil
}

// CreateLedger implements storage.LedgerStore
func (r *Repository) CreateLedger(ctx context.Context, owner string) error {
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO ledgers (owner) VALUES (?) ON CONFLICT (owner) DO NOTHING`, owner); err != nil {
		return unavailable("create ledger", err)
	}
	return nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", core.ErrStorageUnavailable, op, err)
}

// Package csvfile stores accounts and ledgers as CSV files in one directory:
// accounts.csv holds identifier,credential_hash and each account gets a
// <identifier>_expenses.csv with date,category,amount,note rows in append order.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"expensetracker/internal/core"
	"expensetracker/internal/storage"
)

const (
	accountsFile  = "accounts.csv"
	ledgerSuffix  = "_expenses.csv"
	fileMode      = 0o600
	directoryMode = 0o755
)

var (
	accountHeader = []string{"identifier", "credential_hash"}
	ledgerHeader  = []string{"date", "category", "amount", "note"}
)

type Store struct {
	mu  sync.Mutex
	dir string
}

var _ storage.Backend = (*Store)(nil)

// New returns a store rooted at dir, creating dir if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, directoryMode); err != nil {
		return nil, fmt.Errorf("%w: create data directory: %w", core.ErrStorageUnavailable, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the data directory.
func (s *Store) Dir() string {
	return s.dir
}

// GetAccount scans the accounts file for identifier.
func (s *Store) GetAccount(_ context.Context, identifier string) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.readAccounts()
	if err != nil {
		return core.Account{}, err
	}
	for _, acc := range accounts {
		if acc.Identifier == identifier {
			return acc, nil
		}
	}
	return core.Account{}, core.ErrUnknownIdentifier
}

// CreateAccount appends acc to the accounts file by rewriting it.
func (s *Store) CreateAccount(ctx context.Context, acc core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.readAccounts()
	if err != nil {
		return err
	}
	for _, existing := range accounts {
		if existing.Identifier == acc.Identifier {
			return core.ErrDuplicateIdentifier
		}
	}
	accounts = append(accounts, acc)

	rows := make([][]string, 0, len(accounts)+1)
	rows = append(rows, accountHeader)
	for _, a := range accounts {
		rows = append(rows, []string{a.Identifier, a.CredentialHash})
	}
	if err := s.writeAtomic(accountsFile, rows); err != nil {
		return err
	}

	slog.DebugContext(ctx, "Account row written", "identifier", acc.Identifier, "accounts", len(accounts))
	return nil
}

// LoadLedger reads the owner's ledger file.
func (s *Store) LoadLedger(_ context.Context, owner string) ([]core.Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, found, err := s.readRows(ledgerFileName(owner), ledgerHeader)
	if err != nil || !found {
		return nil, found, err
	}

	records := make([]core.Record, 0, len(rows))
	for i, row := range rows {
		amount, err := core.ParseAmount(row[2])
		if err != nil {
			return nil, true, fmt.Errorf("ledger %s row %d amount %q: %w", owner, i+2, row[2], err)
		}
		records = append(records, core.Record{
			Date:     core.UncheckedDate(row[0]),
			Category: row[1],
			Amount:   amount,
			Note:     row[3],
		})
	}
	return records, true, nil
}

// SaveLedger rewrites the owner's ledger file.
func (s *Store) SaveLedger(_ context.Context, owner string, records []core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLedger(owner, records)
}

// CreateLedger writes an empty ledger file unless one exists.
func (s *Store) CreateLedger(_ context.Context, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := os.Stat(filepath.Join(s.dir, ledgerFileName(owner)))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return s.writeLedger(owner, nil)
	default:
		return fmt.Errorf("%w: stat ledger: %w", core.ErrStorageUnavailable, err)
	}
}

func (s *Store) writeLedger(owner string, records []core.Record) error {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, ledgerHeader)
	for _, r := range records {
		rows = append(rows, []string{r.Date.String(), r.Category, core.FormatAmount(r.Amount), r.Note})
	}
	return s.writeAtomic(ledgerFileName(owner), rows)
}

func (s *Store) readAccounts() ([]core.Account, error) {
	rows, _, err := s.readRows(accountsFile, accountHeader)
	if err != nil {
		return nil, err
	}
	accounts := make([]core.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, core.Account{Identifier: row[0], CredentialHash: row[1]})
	}
	return accounts, nil
}

// readRows returns the data rows of name, skipping the header. A missing
// file is reported as found=false, not as an error.
func (s *Store) readRows(name string, header []string) ([][]string, bool, error) {
	f, err := os.Open(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: open %s: %w", core.ErrStorageUnavailable, name, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)

	var rows [][]string
	first := true
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, true, fmt.Errorf("%w: read %s: %w", core.ErrStorageUnavailable, name, err)
		}
		if first {
			first = false
			continue
		}
		rows = append(rows, row)
	}
	return rows, true, nil
}

// writeAtomic writes rows to a temp file in the data directory and renames it
// over name, so readers see either the old or the new file.
func (s *Store) writeAtomic(name string, rows [][]string) error {
	tmp, err := os.CreateTemp(s.dir, "."+name+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %w", core.ErrStorageUnavailable, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write %s: %w", core.ErrStorageUnavailable, name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: sync %s: %w", core.ErrStorageUnavailable, name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", core.ErrStorageUnavailable, name, err)
	}
	if err := os.Chmod(tmpName, fileMode); err != nil {
		return fmt.Errorf("%w: chmod %s: %w", core.ErrStorageUnavailable, name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("%w: replace %s: %w", core.ErrStorageUnavailable, name, err)
	}
	return nil
}

// ledgerFileName escapes owner so any identifier maps to a single file name.
func ledgerFileName(owner string) string {
	return url.PathEscape(owner) + ledgerSuffix
}

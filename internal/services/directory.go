package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"expensetracker/internal/core"
	"expensetracker/internal/log"
	"expensetracker/internal/storage"
)

// maxSecretBytes is the longest secret bcrypt hashes without truncating.
const maxSecretBytes = 72

// LedgerInitializer creates an empty ledger for a new account.
type LedgerInitializer interface {
	CreateLedger(ctx context.Context, owner string) error
}

// DirectoryService registers and authenticates accounts. Secrets are hashed
// with bcrypt, which salts every hash and compares in constant time.
type DirectoryService struct {
	accounts storage.AccountStore
	ledgers  LedgerInitializer
	cost     int
	logger   *log.Logger
}

// NewDirectoryService creates a directory hashing at the given bcrypt cost.
func NewDirectoryService(accounts storage.AccountStore, ledgers LedgerInitializer, cost int, logger *log.Logger) *DirectoryService {
	if logger == nil {
		logger = log.Discard()
	}
	return &DirectoryService{
		accounts: accounts,
		ledgers:  ledgers,
		cost:     cost,
		logger:   logger.WithComponent(log.ComponentDirectory),
	}
}

// Register stores identifier with a fresh hash of secret and initializes an
// empty ledger for it. Nothing is stored when it fails.
func (s *DirectoryService) Register(ctx context.Context, identifier, secret string) (Identity, error) {
	if identifier == "" {
		return Identity{}, core.ErrEmptyIdentifier
	}
	if len(secret) > maxSecretBytes {
		s.logger.WarnContext(ctx, "Registration rejected",
			log.FieldIdentifier, identifier,
			log.FieldErrorType, log.ErrorTypeValidation,
			log.FieldError, core.ErrSecretTooLong)
		return Identity{}, core.ErrSecretTooLong
	}

	_, err := s.accounts.GetAccount(ctx, identifier)
	switch {
	case err == nil:
		s.logger.WarnContext(ctx, "Registration rejected",
			log.FieldIdentifier, identifier,
			log.FieldErrorType, log.ErrorTypeConflict)
		return Identity{}, core.ErrDuplicateIdentifier
	case !errors.Is(err, core.ErrUnknownIdentifier):
		return Identity{}, fmt.Errorf("look up account: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), s.cost)
	if err != nil {
		return Identity{}, fmt.Errorf("hash secret: %w", err)
	}

	// CreateLedger never overwrites, so doing it first cannot leave an
	// account without a ledger.
	if err := s.ledgers.CreateLedger(ctx, identifier); err != nil {
		return Identity{}, fmt.Errorf("initialize ledger: %w", err)
	}

	if err := s.accounts.CreateAccount(ctx, core.Account{
		Identifier:     identifier,
		CredentialHash: string(hash),
	}); err != nil {
		return Identity{}, fmt.Errorf("create account: %w", err)
	}

	s.logger.InfoContext(ctx, "Account registered",
		log.FieldIdentifier, identifier,
		log.FieldOperation, log.OpRegister)
	return Identity{id: identifier}, nil
}

// Authenticate verifies secret against the stored hash of identifier.
// Secrets over 72 bytes never match: bcrypt would compare only their prefix.
func (s *DirectoryService) Authenticate(ctx context.Context, identifier, secret string) (Identity, error) {
	acc, err := s.accounts.GetAccount(ctx, identifier)
	if err != nil {
		if errors.Is(err, core.ErrUnknownIdentifier) {
			s.logger.WarnContext(ctx, "Authentication failed",
				log.FieldIdentifier, identifier,
				log.FieldErrorType, log.ErrorTypeAuth,
				log.FieldError, err)
			return Identity{}, err
		}
		return Identity{}, fmt.Errorf("look up account: %w", err)
	}

	if len(secret) > maxSecretBytes {
		err = bcrypt.ErrMismatchedHashAndPassword
	} else {
		err = bcrypt.CompareHashAndPassword([]byte(acc.CredentialHash), []byte(secret))
	}
	switch {
	case err == nil:
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		s.logger.WarnContext(ctx, "Authentication failed",
			log.FieldIdentifier, identifier,
			log.FieldErrorType, log.ErrorTypeAuth,
			log.FieldError, core.ErrWrongSecret)
		return Identity{}, core.ErrWrongSecret
	default:
		// A stored hash bcrypt cannot read is damaged storage, not a bad guess.
		return Identity{}, fmt.Errorf("%w: credential hash for %s: %w", core.ErrStorageUnavailable, identifier, err)
	}

	s.logger.DebugContext(ctx, "Authenticated",
		log.FieldIdentifier, identifier,
		log.FieldOperation, log.OpAuthenticate)
	return Identity{id: identifier}, nil
}

package core

import "errors"

// Account directory errors.
var (
	ErrEmptyIdentifier     = errors.New("identifier cannot be empty")
	ErrDuplicateIdentifier = errors.New("identifier already registered")
	ErrUnknownIdentifier   = errors.New("unknown identifier")
	ErrWrongSecret         = errors.New("wrong secret")
	ErrSecretTooLong       = errors.New("secret longer than 72 bytes")
)

// Ledger errors.
var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidWindow      = errors.New("invalid window")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

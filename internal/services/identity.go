package services

// Identity is a verified reference to an authenticated account. Only
// DirectoryService.Authenticate and DirectoryService.Register produce a
// non-zero Identity; the ledger trusts it without re-checking credentials.
type Identity struct {
	id string
}

// String returns the account identifier.
func (i Identity) String() string {
	return i.id
}

// IsZero reports whether i was never issued.
func (i Identity) IsZero() bool {
	return i.id == ""
}

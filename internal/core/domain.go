package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the ISO calendar date format used in every persisted artifact.
const DateLayout = "2006-01-02"

type (
	// Date is a calendar date without a time component. A Date read back from
	// storage may be unchecked: it keeps the raw text and only reports
	// ErrInvalidDate when its calendar value is actually needed.
	Date struct {
		t   time.Time
		raw string
	}

	// Account is a registered identifier and its salted credential hash.
	Account struct {
		Identifier     string
		CredentialHash string
	}

	// Record is a single expense. Records have no identity beyond their
	// position in the owning ledger.
	Record struct {
		Date     Date
		Category string
		Amount   decimal.Decimal
		Note     string
	}

	// RecordInput carries the raw field values collected from an operator.
	// A zero Date means "today" at append time.
	RecordInput struct {
		Date     Date
		Category string
		Amount   string
		Note     string
	}

	// Ledger is the ordered record collection owned by one account.
	// Insertion order is append order is persisted row order.
	Ledger struct {
		Owner   string
		Records []Record
	}
)

// NewDate creates a Date from year, month, day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses an ISO calendar date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{t: t}, nil
}

// UncheckedDate keeps s as-is. If s parses it behaves like ParseDate,
// otherwise the raw text is preserved and Time reports ErrInvalidDate.
func UncheckedDate(s string) Date {
	if d, err := ParseDate(s); err == nil {
		return d
	}
	return Date{raw: s}
}

// IsZero reports whether the date was never set.
func (d Date) IsZero() bool {
	return d.t.IsZero() && d.raw == ""
}

// Valid reports whether the date holds a calendar value.
func (d Date) Valid() bool {
	return !d.t.IsZero()
}

// Time returns the date at midnight UTC.
func (d Date) Time() (time.Time, error) {
	if !d.Valid() {
		return time.Time{}, ErrInvalidDate
	}
	return d.t, nil
}

// String returns the ISO form, or the raw text of an unchecked date.
func (d Date) String() string {
	if d.Valid() {
		return d.t.Format(DateLayout)
	}
	return d.raw
}

// Equal compares two dates by their text form.
func (d Date) Equal(other Date) bool {
	return d.String() == other.String()
}

// Equal reports whether two records hold the same field values. Amounts are
// compared numerically so 10.5 and 10.50 are the same amount.
func (r Record) Equal(other Record) bool {
	return r.Date.Equal(other.Date) &&
		r.Category == other.Category &&
		r.Amount.Equal(other.Amount) &&
		r.Note == other.Note
}

// NormalizeLineBreaks rewrites CRLF line breaks to LF. CSV readers fold
// CRLF inside quoted fields, so text is normalized before it is stored.
func NormalizeLineBreaks(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}

// NewLedger returns an empty ledger for owner.
func NewLedger(owner string) *Ledger {
	return &Ledger{Owner: owner, Records: []Record{}}
}

// IsEmpty reports whether the ledger holds no records.
func (l *Ledger) IsEmpty() bool {
	return l == nil || len(l.Records) == 0
}

// Len returns the number of records.
func (l *Ledger) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Records)
}

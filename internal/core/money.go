// Package core provides the ledger domain model and its aggregations.
//
// This file contains amount parsing and formatting. Amounts are exact
// decimals; floating point is never used for sums.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts operator input into an exact decimal amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// surrounding whitespace. Sign is not enforced: the ledger stores what it is
// given. Returns ErrInvalidAmount for empty or non-numeric input.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("abc")   -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatAmount renders an amount as persisted decimal text.
func FormatAmount(d decimal.Decimal) string {
	return d.String()
}

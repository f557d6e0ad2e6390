package core

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultWindowDays is the length of the trailing window used by the weekly view.
const DefaultWindowDays = 7

type (
	// CategoryTotals maps an exact category label to the sum of its amounts.
	CategoryTotals map[string]decimal.Decimal

	// MonthTotals maps a calendar month to the sum of its amounts.
	MonthTotals map[MonthKey]decimal.Decimal

	// MonthKey is a record date truncated to year and month.
	MonthKey struct {
		Year  int
		Month time.Month
	}

	// CategoryAmount represents an amount aggregated by category name.
	CategoryAmount struct {
		Name   string
		Amount decimal.Decimal
	}

	// MonthAmount represents an amount aggregated by month.
	MonthAmount struct {
		Month  MonthKey
		Amount decimal.Decimal
	}

	// Window is the result of a trailing-window filter: matching records in
	// ledger order and the sum of their amounts.
	Window struct {
		Since   Date
		Records []Record
		Total   decimal.Decimal
	}
)

// String returns the month as YYYY-MM.
func (k MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, int(k.Month))
}

// Before orders month keys chronologically.
func (k MonthKey) Before(other MonthKey) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	return k.Month < other.Month
}

// Sorted returns the totals ordered by category name.
func (c CategoryTotals) Sorted() []CategoryAmount {
	out := make([]CategoryAmount, 0, len(c))
	for name, amt := range c {
		out = append(out, CategoryAmount{Name: name, Amount: amt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Sorted returns the totals in chronological order.
func (m MonthTotals) Sorted() []MonthAmount {
	out := make([]MonthAmount, 0, len(m))
	for k, amt := range m {
		out = append(out, MonthAmount{Month: k, Amount: amt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out
}

// IsEmpty reports whether no record fell inside the window.
func (w Window) IsEmpty() bool {
	return len(w.Records) == 0
}

// SummarizeByCategory groups records by their exact category string.
// "Food" and "food" are distinct buckets; labels are not trimmed.
func SummarizeByCategory(records []Record) CategoryTotals {
	out := make(CategoryTotals)
	for _, r := range records {
		out[r.Category] = out[r.Category].Add(r.Amount)
	}
	return out
}

// SummarizeByMonth groups records by calendar month. A single record with an
// unusable date fails the whole summary.
func SummarizeByMonth(records []Record) (MonthTotals, error) {
	out := make(MonthTotals)
	for i, r := range records {
		t, err := r.Date.Time()
		if err != nil {
			return nil, fmt.Errorf("record %d date %q: %w", i+1, r.Date.String(), err)
		}
		k := MonthKey{Year: t.Year(), Month: t.Month()}
		out[k] = out[k].Add(r.Amount)
	}
	return out, nil
}

// SummarizeLastNDays keeps records dated on or after the calendar day n days
// before now. Only the date portion of now is used. Like SummarizeByMonth, an
// unusable date fails the whole summary.
func SummarizeLastNDays(records []Record, now time.Time, n int) (Window, error) {
	if n < 0 {
		return Window{}, fmt.Errorf("%w: days must be non-negative, got %d", ErrInvalidWindow, n)
	}
	today, _ := DateOf(now).Time()
	since := today.AddDate(0, 0, -n)

	w := Window{Since: DateOf(since), Records: []Record{}, Total: decimal.Zero}
	for i, r := range records {
		t, err := r.Date.Time()
		if err != nil {
			return Window{}, fmt.Errorf("record %d date %q: %w", i+1, r.Date.String(), err)
		}
		if t.Before(since) {
			continue
		}
		w.Records = append(w.Records, r)
		w.Total = w.Total.Add(r.Amount)
	}
	return w, nil
}

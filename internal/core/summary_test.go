package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func rec(date, category, amount, note string) Record {
	return Record{
		Date:     UncheckedDate(date),
		Category: category,
		Amount:   decimal.RequireFromString(amount),
		Note:     note,
	}
}

func TestSummarizeByCategory(t *testing.T) {
	got := SummarizeByCategory([]Record{
		rec("2024-01-01", "food", "10", ""),
		rec("2024-01-02", "food", "5", ""),
		rec("2024-01-03", "travel", "20", ""),
	})
	if len(got) != 2 {
		t.Fatalf("expected 2 buckets, got %v", got)
	}
	if !got["food"].Equal(decimal.NewFromInt(15)) || !got["travel"].Equal(decimal.NewFromInt(20)) {
		t.Fatalf("unexpected totals: %v", got)
	}
}

func TestSummarizeByCategoryKeysAreExact(t *testing.T) {
	got := SummarizeByCategory([]Record{
		rec("2024-01-01", "Food", "1", ""),
		rec("2024-01-01", "food", "2", ""),
		rec("2024-01-01", "food ", "4", ""),
		rec("not a date", "food", "8", ""),
	})
	if len(got) != 3 {
		t.Fatalf("expected 3 distinct buckets, got %v", got)
	}
	if !got["food"].Equal(decimal.NewFromInt(10)) {
		t.Fatalf("food = %s", got["food"])
	}

	sorted := got.Sorted()
	if sorted[0].Name != "Food" || sorted[1].Name != "food" || sorted[2].Name != "food " {
		t.Fatalf("unexpected order: %+v", sorted)
	}
}

func TestSummarizeByCategoryEmpty(t *testing.T) {
	if got := SummarizeByCategory(nil); len(got) != 0 {
		t.Fatalf("expected empty totals, got %v", got)
	}
}

func TestSummarizeByMonth(t *testing.T) {
	got, err := SummarizeByMonth([]Record{
		rec("2024-01-15", "food", "10", ""),
		rec("2024-02-01", "food", "20", ""),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	jan := MonthKey{Year: 2024, Month: time.January}
	feb := MonthKey{Year: 2024, Month: time.February}
	if len(got) != 2 || !got[jan].Equal(decimal.NewFromInt(10)) || !got[feb].Equal(decimal.NewFromInt(20)) {
		t.Fatalf("unexpected totals: %v", got)
	}

	sorted := got.Sorted()
	if sorted[0].Month.String() != "2024-01" || sorted[1].Month.String() != "2024-02" {
		t.Fatalf("unexpected order: %+v", sorted)
	}
}

func TestSummarizeByMonthSortsAcrossYears(t *testing.T) {
	got, err := SummarizeByMonth([]Record{
		rec("2025-01-01", "a", "1", ""),
		rec("2024-12-31", "a", "2", ""),
		rec("2024-12-01", "a", "3", ""),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sorted := got.Sorted()
	if len(sorted) != 2 || sorted[0].Month.String() != "2024-12" || !sorted[0].Amount.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("unexpected months: %+v", sorted)
	}
}

func TestSummarizeByMonthFailsFast(t *testing.T) {
	_, err := SummarizeByMonth([]Record{
		rec("2024-01-15", "food", "10", ""),
		rec("15/01/2024", "food", "20", ""),
	})
	if !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestSummarizeLastNDays(t *testing.T) {
	now := time.Date(2024, 3, 10, 18, 30, 0, 0, time.UTC)

	cases := []struct {
		name    string
		records []Record
		want    int
		total   string
	}{
		{"outside window", []Record{rec("2024-03-01", "food", "10", "")}, 0, "0"},
		{"inside window", []Record{rec("2024-03-05", "food", "12.5", "")}, 1, "12.5"},
		{"lower bound inclusive", []Record{rec("2024-03-03", "food", "3", "")}, 1, "3"},
		{"day before bound", []Record{rec("2024-03-02", "food", "3", "")}, 0, "0"},
		{"today", []Record{rec("2024-03-10", "food", "1", "")}, 1, "1"},
		{"future dates kept", []Record{rec("2024-04-01", "food", "2", "")}, 1, "2"},
		{
			"mixed keeps order",
			[]Record{
				rec("2024-03-09", "b", "1", ""),
				rec("2024-02-01", "x", "100", ""),
				rec("2024-03-04", "a", "2", ""),
			},
			2, "3",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, err := SummarizeLastNDays(tc.records, now, 7)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(w.Records) != tc.want {
				t.Fatalf("expected %d records, got %d", tc.want, len(w.Records))
			}
			if !w.Total.Equal(decimal.RequireFromString(tc.total)) {
				t.Fatalf("expected total %s, got %s", tc.total, w.Total)
			}
			if w.Since.String() != "2024-03-03" {
				t.Fatalf("unexpected window start %s", w.Since)
			}
		})
	}
}

func TestSummarizeLastNDaysOrderAndEmpty(t *testing.T) {
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	w, err := SummarizeLastNDays([]Record{
		rec("2024-03-09", "b", "1", ""),
		rec("2024-03-04", "a", "2", ""),
	}, now, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Records[0].Category != "b" || w.Records[1].Category != "a" {
		t.Fatalf("order not preserved: %+v", w.Records)
	}

	empty, err := SummarizeLastNDays(nil, now, 7)
	if err != nil || !empty.IsEmpty() || !empty.Total.IsZero() {
		t.Fatalf("expected empty window, got %+v err=%v", empty, err)
	}
}

func TestSummarizeLastNDaysErrors(t *testing.T) {
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	if _, err := SummarizeLastNDays(nil, now, -1); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
	if _, err := SummarizeLastNDays([]Record{rec("bogus", "a", "1", "")}, now, 7); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

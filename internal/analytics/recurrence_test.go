package analytics

import (
	"reflect"
	"testing"
	"time"

	"github.com/iamdaviwilliam/phiq-insights/internal/model"
)

func TestRecurrenceMedianCadence(t *testing.T) {
	e := testEngine()
	// Gaps for A: 10, 10, 40 days. Median 10; the outlier visit must not
	// drag the cadence the way a mean (20) would.
	ds := &model.Dataset{Rows: []model.Transaction{
		tx("A", "", day(2024, 1, 1), 10),
		tx("A", "", day(2024, 1, 11), 10),
		tx("A", "", day(2024, 1, 21), 10),
		tx("A", "", day(2024, 3, 1), 10),
	}}

	got := e.Recurrence(ds)
	if len(got) != 1 {
		t.Fatalf("result rows = %d, want 1", len(got))
	}
	r := got[0]
	if r.PurchaseCount != 4 {
		t.Errorf("PurchaseCount = %d, want 4", r.PurchaseCount)
	}
	if r.CadenceDays != 10 {
		t.Errorf("CadenceDays = %d, want median 10", r.CadenceDays)
	}
	if !r.LastPurchase.Equal(day(2024, 3, 1)) {
		t.Errorf("LastPurchase = %v", r.LastPurchase)
	}
	if !r.NextPredicted.Equal(day(2024, 3, 11)) {
		t.Errorf("NextPredicted = %v, want last + cadence", r.NextPredicted)
	}
}

func TestRecurrenceEvenGapCountRoundsHalfUp(t *testing.T) {
	e := testEngine()
	// Gaps: 3 and 4 -> median 3.5 -> 4.
	ds := &model.Dataset{Rows: []model.Transaction{
		tx("A", "", day(2024, 1, 1), 1),
		tx("A", "", day(2024, 1, 4), 1),
		tx("A", "", day(2024, 1, 8), 1),
	}}

	got := e.Recurrence(ds)
	if len(got) != 1 || got[0].CadenceDays != 4 {
		t.Fatalf("CadenceDays = %v, want 4", got)
	}
}

func TestRecurrenceDedupesSameDayPurchases(t *testing.T) {
	e := testEngine()
	ds := &model.Dataset{Rows: []model.Transaction{
		tx("A", "", time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), 1),
		tx("A", "", time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC), 1),
		tx("A", "", day(2024, 1, 8), 1),
	}}

	got := e.Recurrence(ds)
	if len(got) != 1 {
		t.Fatalf("result rows = %d, want 1", len(got))
	}
	if got[0].PurchaseCount != 2 {
		t.Errorf("PurchaseCount = %d, want 2 distinct days", got[0].PurchaseCount)
	}
	if got[0].CadenceDays != 7 {
		t.Errorf("CadenceDays = %d, want 7", got[0].CadenceDays)
	}
}

func TestRecurrenceExcludesSingleDayCustomers(t *testing.T) {
	e := testEngine()
	ds := &model.Dataset{Rows: []model.Transaction{
		tx("A", "", day(2024, 1, 1), 1),
		tx("A", "", day(2024, 1, 1), 1), // same day, still one distinct date
		tx("B", "", day(2024, 1, 1), 1),
		tx("B", "", day(2024, 1, 15), 1),
	}}

	got := e.Recurrence(ds)
	if len(got) != 1 {
		t.Fatalf("result rows = %d, want only customer B", len(got))
	}
	if got[0].CustomerID != "B" {
		t.Errorf("CustomerID = %q, want B", got[0].CustomerID)
	}
}

func TestRecurrenceFewerThanTwoRows(t *testing.T) {
	e := testEngine()
	if got := e.Recurrence(&model.Dataset{Rows: []model.Transaction{tx("A", "", day(2024, 1, 1), 1)}}); got != nil {
		t.Errorf("expected nil for a single row, got %v", got)
	}
	if got := e.Recurrence(&model.Dataset{}); got != nil {
		t.Errorf("expected nil for empty dataset, got %v", got)
	}
}

func TestRecurrenceIdempotent(t *testing.T) {
	e := testEngine()
	ds := &model.Dataset{Rows: []model.Transaction{
		tx("B", "", day(2024, 2, 10), 1),
		tx("A", "", day(2024, 1, 1), 1),
		tx("A", "", day(2024, 1, 20), 1),
		tx("B", "", day(2024, 1, 1), 1),
		tx("C", "", day(2024, 3, 3), 1),
	}}

	first := e.Recurrence(ds)
	second := e.Recurrence(ds)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("results differ between calls:\n%v\n%v", first, second)
	}
	if len(first) != 2 || first[0].CustomerID != "A" || first[1].CustomerID != "B" {
		t.Errorf("expected [A B] sorted, got %v", first)
	}
}

func TestRecurrenceDisplayFormat(t *testing.T) {
	r := CustomerRecurrence{
		CustomerID:    "A",
		PurchaseCount: 3,
		CadenceDays:   12,
		LastPurchase:  day(2024, 3, 5),
		NextPredicted: day(2024, 3, 17),
	}

	row := r.Display()
	if row.LastPurchase != "05/03/2024" || row.NextPredicted != "17/03/2024" {
		t.Errorf("display dates = %q/%q, want dd/mm/yyyy", row.LastPurchase, row.NextPredicted)
	}
}

func TestMedianDays(t *testing.T) {
	tests := []struct {
		gaps []int
		want int
	}{
		{[]int{5}, 5},
		{[]int{1, 2, 100}, 2},
		{[]int{3, 4}, 4},  // 3.5 rounds up
		{[]int{2, 4}, 3},  // exact middle
		{[]int{7, 7, 7}, 7},
		{[]int{0, 0}, 0},
	}
	for _, tt := range tests {
		if got := medianDays(tt.gaps); got != tt.want {
			t.Errorf("medianDays(%v) = %d, want %d", tt.gaps, got, tt.want)
		}
	}
}

package analytics

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iamdaviwilliam/phiq-insights/internal/logger"
	"github.com/iamdaviwilliam/phiq-insights/internal/model"
	"github.com/iamdaviwilliam/phiq-insights/internal/rules"
)

func testEngine() *Engine {
	return NewEngine(rules.Defaults(), logger.NewWithWriter(&strings.Builder{}))
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func tx(customer, order string, date time.Time, amount float64) model.Transaction {
	return model.Transaction{
		CustomerID:  customer,
		OrderID:     order,
		InvoiceDate: date,
		Amount:      decimal.NewFromFloat(amount),
	}
}

func TestClassifyOrderPath(t *testing.T) {
	e := testEngine()
	ds := &model.Dataset{
		HasOrderID: true,
		Rows: []model.Transaction{
			tx("A", "O1", day(2024, 1, 1), 100),
			tx("A", "O1", day(2024, 1, 1), 50),
			tx("A", "O2", day(2024, 2, 1), 200),
			tx("B", "O3", day(2024, 3, 10), 75),
		},
	}

	got, err := e.Classify(ds)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("row count = %d, want input count 4", len(got))
	}

	want := []string{PurchaseNew, PurchaseNew, PurchaseRepeat, PurchaseNew}
	for i, w := range want {
		if got[i].PurchaseType != w {
			t.Errorf("row %d type = %q, want %q", i, got[i].PurchaseType, w)
		}
	}
}

// Two different orders on the same earliest calendar day: only rows on the
// earliest order id are new. The order-grained path is finer than a day.
func TestClassifySameDayTwoOrders(t *testing.T) {
	e := testEngine()
	ds := &model.Dataset{
		HasOrderID: true,
		Rows: []model.Transaction{
			tx("A", "O1", day(2024, 1, 1), 100),
			tx("A", "O2", day(2024, 1, 1), 200),
		},
	}

	got, err := e.Classify(ds)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if got[0].PurchaseType != PurchaseNew || got[1].PurchaseType != PurchaseRepeat {
		t.Errorf("types = %q/%q, want new/repeat", got[0].PurchaseType, got[1].PurchaseType)
	}
}

func TestClassifyDayFallback(t *testing.T) {
	e := testEngine()
	ds := &model.Dataset{
		Rows: []model.Transaction{
			tx("A", "", time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), 100),
			tx("A", "", time.Date(2024, 1, 1, 17, 30, 0, 0, time.UTC), 50),
			tx("A", "", day(2024, 2, 1), 200),
		},
	}

	got, err := e.Classify(ds)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	// Coarser path: both same-day rows are new.
	want := []string{PurchaseNew, PurchaseNew, PurchaseRepeat}
	for i, w := range want {
		if got[i].PurchaseType != w {
			t.Errorf("row %d type = %q, want %q", i, got[i].PurchaseType, w)
		}
	}
}

func TestClassifySingleTransactionCustomer(t *testing.T) {
	e := testEngine()
	ds := &model.Dataset{
		HasOrderID: true,
		Rows:       []model.Transaction{tx("A", "O1", day(2024, 5, 5), 10)},
	}

	got, err := e.Classify(ds)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if got[0].PurchaseType != PurchaseNew {
		t.Errorf("single-purchase customer = %q, want %q", got[0].PurchaseType, PurchaseNew)
	}
}

func TestClassifyEmpty(t *testing.T) {
	e := testEngine()
	got, err := e.Classify(&model.Dataset{})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty result, got %d rows", len(got))
	}
}

func TestSummarizeByType(t *testing.T) {
	rows := []ClassifiedTransaction{
		{Transaction: tx("A", "O1", day(2024, 1, 1), 100), PurchaseType: PurchaseNew},
		{Transaction: tx("A", "O2", day(2024, 2, 1), 200), PurchaseType: PurchaseRepeat},
		{Transaction: tx("B", "O3", day(2024, 1, 5), 50), PurchaseType: PurchaseNew},
	}

	got := SummarizeByType(rows)
	if len(got) != 2 {
		t.Fatalf("summary entries = %d, want 2", len(got))
	}
	if got[0].Type != PurchaseNew || got[0].Count != 2 || !got[0].Revenue.Equal(decimal.NewFromInt(150)) {
		t.Errorf("new summary = %+v", got[0])
	}
	if got[1].Type != PurchaseRepeat || got[1].Count != 1 || !got[1].Revenue.Equal(decimal.NewFromInt(200)) {
		t.Errorf("repeat summary = %+v", got[1])
	}
}

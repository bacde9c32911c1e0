package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents one normalized order line from a sales export.
// This is a domain struct; ingest maps raw column values into it and
// guarantees CustomerID, InvoiceDate and Amount are populated.
type Transaction struct {
	CustomerID  string
	OrderID     string // empty when the export carries no order column
	InvoiceDate time.Time
	Amount      decimal.Decimal
	Quantity    int64 // 0 when the export carries no quantity column

	State       string // trimmed, upper-cased
	Franchise   string
	Segment     string // trimmed, upper-cased, sentinel "Not Informed" when absent
	Salesperson string // trimmed, upper-cased

	ProductDesc   string // trimmed, original case
	PaymentMethod string // trimmed, original case

	// Extra holds unmapped source columns, passed through untouched.
	Extra map[string]string
}

// Day returns the invoice date truncated to calendar-day precision.
// All day-grained grouping (recurrence, classification fallback) uses this.
func (t Transaction) Day() time.Time {
	y, m, d := t.InvoiceDate.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ProductName derives the display name from a product description by
// dropping the category prefix up to the first " - " delimiter.
// Descriptions without the delimiter are returned whole.
func ProductName(desc string) string {
	if _, rest, ok := strings.Cut(desc, " - "); ok && rest != "" {
		return rest
	}
	return desc
}

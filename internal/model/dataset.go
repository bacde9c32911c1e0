package model

import (
	"sort"
	"time"
)

// Dataset is the canonical transaction table built once per uploaded file.
// It is immutable after ingestion: consumers receive filtered copies and
// never mutate Rows in place.
type Dataset struct {
	Rows []Transaction

	// Column-presence flags. Features degrade when a column is absent:
	// no order column means day-grained classification and no average
	// ticket, no quantity column means revenue-only product ranking.
	HasOrderID       bool
	HasQuantity      bool
	HasSegment       bool
	HasPaymentMethod bool
}

// Len returns the number of rows in the dataset.
func (d *Dataset) Len() int { return len(d.Rows) }

// Empty reports whether the dataset has no rows.
func (d *Dataset) Empty() bool { return len(d.Rows) == 0 }

// WithRows returns a new dataset sharing this dataset's column flags but
// holding the given rows. Filters use it so flag state survives filtering.
func (d *Dataset) WithRows(rows []Transaction) *Dataset {
	return &Dataset{
		Rows:             rows,
		HasOrderID:       d.HasOrderID,
		HasQuantity:      d.HasQuantity,
		HasSegment:       d.HasSegment,
		HasPaymentMethod: d.HasPaymentMethod,
	}
}

// States returns the distinct state codes present, sorted.
func (d *Dataset) States() []string {
	return d.distinct(func(t Transaction) string { return t.State })
}

// Franchises returns the distinct franchise labels present, sorted.
func (d *Dataset) Franchises() []string {
	return d.distinct(func(t Transaction) string { return t.Franchise })
}

// Segments returns the distinct segment labels present, sorted.
func (d *Dataset) Segments() []string {
	return d.distinct(func(t Transaction) string { return t.Segment })
}

// Customers returns the distinct customer identifiers present, sorted.
func (d *Dataset) Customers() []string {
	return d.distinct(func(t Transaction) string { return t.CustomerID })
}

// Months returns the distinct invoice months present as "2006-01" keys,
// sorted descending (most recent first, matching how the month filter is
// presented to the user).
func (d *Dataset) Months() []string {
	seen := make(map[string]struct{})
	for _, t := range d.Rows {
		seen[t.InvoiceDate.Format("2006-01")] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out
}

func (d *Dataset) distinct(key func(Transaction) string) []string {
	seen := make(map[string]struct{})
	for _, t := range d.Rows {
		if v := key(t); v != "" {
			seen[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DateRange returns the minimum and maximum invoice dates in the dataset.
// Zero times are returned for an empty dataset.
func (d *Dataset) DateRange() (min, max time.Time) {
	for i, t := range d.Rows {
		if i == 0 || t.InvoiceDate.Before(min) {
			min = t.InvoiceDate
		}
		if i == 0 || t.InvoiceDate.After(max) {
			max = t.InvoiceDate
		}
	}
	return min, max
}

package analytics

import (
	"sort"
	"time"

	"github.com/iamdaviwilliam/phiq-insights/internal/model"
)

// CustomerRecurrence describes one customer's purchase cadence and the
// projected date of their next purchase.
type CustomerRecurrence struct {
	CustomerID    string
	PurchaseCount int // distinct purchase days, not line items
	CadenceDays   int // median gap between consecutive purchase days
	LastPurchase  time.Time
	NextPredicted time.Time
}

// RecurrenceRow is the display form of CustomerRecurrence, with dates
// rendered day/month/year for the dashboard table.
type RecurrenceRow struct {
	CustomerID    string `json:"customer"`
	PurchaseCount int    `json:"purchase_count"`
	CadenceDays   int    `json:"cadence_days"`
	LastPurchase  string `json:"last_purchase"`
	NextPredicted string `json:"next_predicted"`
}

// Display renders the dd/mm/yyyy form.
func (r CustomerRecurrence) Display() RecurrenceRow {
	return RecurrenceRow{
		CustomerID:    r.CustomerID,
		PurchaseCount: r.PurchaseCount,
		CadenceDays:   r.CadenceDays,
		LastPurchase:  r.LastPurchase.Format("02/01/2006"),
		NextPredicted: r.NextPredicted.Format("02/01/2006"),
	}
}

// Recurrence computes per-customer purchase cadence. Only customers with
// at least two distinct calendar-day purchase dates are eligible; everyone
// else is excluded from the result, which is not an error. Datasets with
// fewer than two rows yield an empty result.
//
// The cadence is the median of the gaps between consecutive purchase days,
// rounded to the nearest whole day. The median is deliberate: one outlier
// visit should not drag the projection the way a mean would.
// The result is sorted by customer id and is identical across calls on the
// same dataset.
func (e *Engine) Recurrence(ds *model.Dataset) []CustomerRecurrence {
	if ds.Len() < 2 {
		return nil
	}

	days := make(map[string]map[time.Time]struct{})
	for _, t := range ds.Rows {
		d, ok := days[t.CustomerID]
		if !ok {
			d = make(map[time.Time]struct{})
			days[t.CustomerID] = d
		}
		d[t.Day()] = struct{}{}
	}

	var out []CustomerRecurrence
	for customer, set := range days {
		if len(set) < 2 {
			continue
		}
		dates := make([]time.Time, 0, len(set))
		for d := range set {
			dates = append(dates, d)
		}
		sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

		gaps := make([]int, 0, len(dates)-1)
		for i := 1; i < len(dates); i++ {
			gaps = append(gaps, int(dates[i].Sub(dates[i-1]).Hours()/24))
		}
		cadence := medianDays(gaps)
		last := dates[len(dates)-1]

		out = append(out, CustomerRecurrence{
			CustomerID:    customer,
			PurchaseCount: len(dates),
			CadenceDays:   cadence,
			LastPurchase:  last,
			NextPredicted: last.AddDate(0, 0, cadence),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CustomerID < out[j].CustomerID })
	return out
}

// medianDays returns the median of sorted-on-demand day gaps, rounding
// half-up when the middle falls between two values.
func medianDays(gaps []int) int {
	sorted := make([]int, len(gaps))
	copy(sorted, gaps)
	sort.Ints(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	// Even count: mean of the two middle gaps, .5 rounds up.
	return (sorted[mid-1] + sorted[mid] + 1) / 2
}

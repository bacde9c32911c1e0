package analytics

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/iamdaviwilliam/phiq-insights/internal/model"
)

// ErrNoOrderColumn is returned when an order-grained computation runs on a
// dataset without usable order identifiers. Callers surface it as a
// warning and show a zero value; it never aborts the rest of a report.
var ErrNoOrderColumn = errors.New("dataset has no usable order identifiers")

// monthNames renders month buckets the way the dashboard labels them.
var monthNames = [...]string{"", "Janeiro", "Fevereiro", "Março", "Abril",
	"Maio", "Junho", "Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro"}

// PeriodRevenue is one time-series bucket.
type PeriodRevenue struct {
	Period  string          `json:"period"` // sortable key: "2006-01" or "2006-01-02"
	Label   string          `json:"label"`  // display label: month name or dd/mm/yyyy
	Revenue decimal.Decimal `json:"revenue"`
}

// CustomerRevenue is one customer ranking entry.
type CustomerRevenue struct {
	CustomerID string          `json:"customer"`
	Revenue    decimal.Decimal `json:"revenue"`
}

// ProductRank is one product ranking entry. Quantity is zero when the
// dataset has no quantity column.
type ProductRank struct {
	Product  string          `json:"product"`
	Quantity int64           `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// PaymentRevenue is one payment-method aggregation entry.
type PaymentRevenue struct {
	Method  string          `json:"method"`
	Revenue decimal.Decimal `json:"revenue"`
}

// AverageTicket divides total revenue by the number of distinct orders.
// Without usable order identifiers it returns zero and ErrNoOrderColumn:
// dividing by the line-item count instead would overstate order frequency
// and understate ticket size, so that fallback deliberately does not exist.
func (e *Engine) AverageTicket(ds *model.Dataset) (decimal.Decimal, error) {
	if ds.Empty() {
		return decimal.Zero, nil
	}
	if !ds.HasOrderID {
		return decimal.Zero, ErrNoOrderColumn
	}

	total := decimal.Zero
	orders := make(map[string]struct{})
	for _, t := range ds.Rows {
		total = total.Add(t.Amount)
		if t.OrderID != "" {
			orders[t.OrderID] = struct{}{}
		}
	}
	if len(orders) == 0 {
		return decimal.Zero, ErrNoOrderColumn
	}
	return total.DivRound(decimal.NewFromInt(int64(len(orders))), 2), nil
}

// RevenueByPeriod buckets revenue by month or day per the filter's
// granularity, sorted chronologically.
func (e *Engine) RevenueByPeriod(ds *model.Dataset, fc model.FilterContext) []PeriodRevenue {
	byDay := fc.BucketBy() == model.ByDay

	sums := make(map[string]decimal.Decimal)
	for _, t := range ds.Rows {
		key := t.InvoiceDate.Format("2006-01")
		if byDay {
			key = t.InvoiceDate.Format("2006-01-02")
		}
		sums[key] = sums[key].Add(t.Amount)
	}

	out := make([]PeriodRevenue, 0, len(sums))
	for key, rev := range sums {
		out = append(out, PeriodRevenue{Period: key, Label: periodLabel(key, byDay), Revenue: rev})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}

func periodLabel(key string, byDay bool) string {
	if byDay {
		// "2006-01-02" -> "02/01/2006"
		return key[8:10] + "/" + key[5:7] + "/" + key[0:4]
	}
	month := int(key[5]-'0')*10 + int(key[6]-'0')
	if month < 1 || month > 12 {
		return key
	}
	return monthNames[month] + " " + key[0:4]
}

// TopCustomers ranks customers by revenue, descending, ties broken by
// customer id for determinism.
func (e *Engine) TopCustomers(ds *model.Dataset, n int) []CustomerRevenue {
	sums := make(map[string]decimal.Decimal)
	for _, t := range ds.Rows {
		sums[t.CustomerID] = sums[t.CustomerID].Add(t.Amount)
	}

	out := make([]CustomerRevenue, 0, len(sums))
	for c, rev := range sums {
		out = append(out, CustomerRevenue{CustomerID: c, Revenue: rev})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Revenue.Equal(out[j].Revenue) {
			return out[i].Revenue.GreaterThan(out[j].Revenue)
		}
		return out[i].CustomerID < out[j].CustomerID
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// TopProducts ranks products by the filter's metric. Product display names
// drop the category prefix. Ranking by quantity degrades to revenue when
// the dataset has no quantity column.
func (e *Engine) TopProducts(ds *model.Dataset, n int, fc model.FilterContext) []ProductRank {
	byQuantity := fc.RankBy() == model.ByQuantity && ds.HasQuantity

	ranks := make(map[string]*ProductRank)
	for _, t := range ds.Rows {
		if t.ProductDesc == "" {
			continue
		}
		name := model.ProductName(t.ProductDesc)
		r, ok := ranks[name]
		if !ok {
			r = &ProductRank{Product: name, Revenue: decimal.Zero}
			ranks[name] = r
		}
		r.Quantity += t.Quantity
		r.Revenue = r.Revenue.Add(t.Amount)
	}

	out := make([]ProductRank, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if byQuantity {
			if out[i].Quantity != out[j].Quantity {
				return out[i].Quantity > out[j].Quantity
			}
		} else if !out[i].Revenue.Equal(out[j].Revenue) {
			return out[i].Revenue.GreaterThan(out[j].Revenue)
		}
		return out[i].Product < out[j].Product
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// RevenueByPayment coalesces payment methods through the rule table and
// aggregates revenue for allow-listed methods only. Excluded methods
// vanish from this view, never from the canonical table. Sorted by
// revenue ascending, the order the horizontal chart expects.
func (e *Engine) RevenueByPayment(ds *model.Dataset) []PaymentRevenue {
	if !ds.HasPaymentMethod {
		return nil
	}

	sums := make(map[string]decimal.Decimal)
	for _, t := range ds.Rows {
		label, allowed := e.rules.CanonicalPayment(t.PaymentMethod)
		if !allowed {
			continue
		}
		sums[label] = sums[label].Add(t.Amount)
	}

	out := make([]PaymentRevenue, 0, len(sums))
	for m, rev := range sums {
		out = append(out, PaymentRevenue{Method: m, Revenue: rev})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Revenue.Equal(out[j].Revenue) {
			return out[i].Revenue.LessThan(out[j].Revenue)
		}
		return out[i].Method < out[j].Method
	})
	return out
}

// TotalRevenue sums the dataset's amounts.
func (e *Engine) TotalRevenue(ds *model.Dataset) decimal.Decimal {
	total := decimal.Zero
	for _, t := range ds.Rows {
		total = total.Add(t.Amount)
	}
	return total
}

// Package ingest builds the canonical transaction dataset from a raw
// CSV or XLSX export: header alias mapping, type coercion, text
// normalization and silent dropping of rows whose required fields cannot
// be parsed.
package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iamdaviwilliam/phiq-insights/internal/model"
	"github.com/iamdaviwilliam/phiq-insights/internal/rules"
)

// ErrNotTabular marks input that cannot be parsed as tabular data at all.
// It is the only fatal ingestion error; everything else degrades row by row.
var ErrNotTabular = errors.New("input is not tabular data")

// SegmentNotInformed is the sentinel for empty or placeholder segments.
const SegmentNotInformed = "Not Informed"

// Report counts what happened to the raw rows during normalization. The
// presentation layer turns non-zero drop counts into user-visible warnings.
type Report struct {
	RowsIn             int `json:"rows_in"`
	RowsKept           int `json:"rows_kept"`
	SkippedRecords     int `json:"skipped_records"`
	DroppedNoCustomer  int `json:"dropped_no_customer"`
	DroppedBadDate     int `json:"dropped_bad_date"`
	DroppedBadAmount   int `json:"dropped_bad_amount"`
	DroppedBadQuantity int `json:"dropped_bad_quantity"`
}

// Dropped returns the total number of rows excluded from the canonical table.
func (r Report) Dropped() int {
	return r.SkippedRecords + r.DroppedNoCustomer + r.DroppedBadDate +
		r.DroppedBadAmount + r.DroppedBadQuantity
}

// Normalizer turns raw tabular rows into canonical datasets.
type Normalizer struct {
	rules            *rules.Set
	defaultFranchise string
	log              zerolog.Logger
}

// NewNormalizer creates a normalizer. defaultFranchise is assigned to every
// row when the export has no franchise column.
func NewNormalizer(rs *rules.Set, defaultFranchise string, log zerolog.Logger) *Normalizer {
	return &Normalizer{rules: rs, defaultFranchise: defaultFranchise, log: log}
}

// Load reads and normalizes a whole file, dispatching on the filename
// extension (falling back to content sniffing when there is none).
func (n *Normalizer) Load(filename string, r io.Reader) (*model.Dataset, Report, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, Report{}, fmt.Errorf("ingest: reading %s: %w", filename, err)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	isXLSX := ext == ".xlsx" || (ext == "" && sniffXLSX(data))

	var (
		header  []string
		records [][]string
		skipped int
	)
	if isXLSX {
		header, records, err = ReadXLSX(bytes.NewReader(data))
	} else {
		header, records, skipped, err = ReadCSV(bytes.NewReader(data))
	}
	if err != nil {
		return nil, Report{}, fmt.Errorf("ingest: %s: %w", filename, err)
	}

	ds, report, err := n.Normalize(header, records)
	if err != nil {
		return nil, Report{}, fmt.Errorf("ingest: %s: %w", filename, err)
	}
	report.SkippedRecords += skipped
	report.RowsIn += skipped
	return ds, report, nil
}

// Normalize maps arbitrary columns onto the canonical schema, coerces
// types and drops rows whose required fields will not parse. Unmapped
// columns pass through into Transaction.Extra.
func (n *Normalizer) Normalize(header []string, records [][]string) (*model.Dataset, Report, error) {
	cols := make([]column, len(header))
	mapped := make(map[column]int) // canonical column -> index (first wins)
	for i, h := range header {
		cols[i] = mapHeader(h)
		if cols[i] != colUnknown {
			if _, dup := mapped[cols[i]]; !dup {
				mapped[cols[i]] = i
			} else {
				cols[i] = colUnknown // later duplicate passes through
			}
		}
	}

	var missing []string
	for _, req := range []struct {
		col  column
		name string
	}{
		{colCustomer, "customer"},
		{colDate, "invoice date"},
		{colAmount, "amount"},
	} {
		if _, ok := mapped[req.col]; !ok {
			missing = append(missing, req.name)
		}
	}
	if len(missing) > 0 {
		return nil, Report{}, fmt.Errorf("%w: required columns missing: %s",
			ErrNotTabular, strings.Join(missing, ", "))
	}

	_, hasOrder := mapped[colOrder]
	_, hasQuantity := mapped[colQuantity]
	_, hasSegment := mapped[colSegment]
	_, hasPayment := mapped[colPayment]
	_, hasFranchise := mapped[colFranchise]
	if !hasFranchise {
		n.log.Warn().Str("default", n.defaultFranchise).
			Msg("No franchise column found, assigning default")
	}

	report := Report{RowsIn: len(records)}
	rows := make([]model.Transaction, 0, len(records))

	for _, rec := range records {
		if len(rec) != len(header) {
			report.SkippedRecords++
			continue
		}

		get := func(c column) string {
			if i, ok := mapped[c]; ok {
				return rec[i]
			}
			return ""
		}

		customer := strings.TrimSpace(get(colCustomer))
		if customer == "" {
			report.DroppedNoCustomer++
			continue
		}

		ts, err := parseDate(get(colDate))
		if err != nil {
			report.DroppedBadDate++
			continue
		}

		amount, err := parseAmount(get(colAmount))
		if err != nil {
			report.DroppedBadAmount++
			continue
		}

		var quantity int64
		if hasQuantity {
			quantity, err = parseQuantity(get(colQuantity))
			if err != nil {
				report.DroppedBadQuantity++
				continue
			}
		}

		tx := model.Transaction{
			CustomerID:    customer,
			OrderID:       strings.TrimSpace(get(colOrder)),
			InvoiceDate:   ts,
			Amount:        amount,
			Quantity:      quantity,
			State:         strings.ToUpper(strings.TrimSpace(get(colState))),
			Salesperson:   strings.ToUpper(strings.TrimSpace(get(colSalesperson))),
			Segment:       n.normalizeSegment(get(colSegment), hasSegment),
			ProductDesc:   strings.TrimSpace(get(colProduct)),
			PaymentMethod: strings.TrimSpace(get(colPayment)),
			Franchise:     n.defaultFranchise,
		}
		if hasFranchise {
			if f := strings.TrimSpace(get(colFranchise)); f != "" {
				tx.Franchise = f
			}
		}
		for i, c := range cols {
			if c == colUnknown && strings.TrimSpace(header[i]) != "" {
				if tx.Extra == nil {
					tx.Extra = make(map[string]string)
				}
				tx.Extra[strings.TrimSpace(header[i])] = strings.TrimSpace(rec[i])
			}
		}
		rows = append(rows, tx)
	}
	report.RowsKept = len(rows)

	if report.Dropped() > 0 {
		n.log.Info().
			Int("rows_in", report.RowsIn).
			Int("rows_kept", report.RowsKept).
			Int("dropped", report.Dropped()).
			Msg("Normalization dropped rows")
	}

	ds := &model.Dataset{
		Rows:             rows,
		HasOrderID:       hasOrder,
		HasQuantity:      hasQuantity,
		HasSegment:       hasSegment,
		HasPaymentMethod: hasPayment,
	}
	return ds, report, nil
}

// normalizeSegment upper-cases, replaces placeholders with the sentinel and
// applies the canonicalization rule table.
func (n *Normalizer) normalizeSegment(raw string, hasSegment bool) string {
	if !hasSegment {
		return SegmentNotInformed
	}
	seg := strings.ToUpper(strings.TrimSpace(raw))
	if seg == "" || seg == "NAN" {
		return SegmentNotInformed
	}
	return n.rules.CanonicalSegment(seg)
}

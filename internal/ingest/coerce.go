package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// dateLayouts are tried in order. Day-first layouts come first because the
// upstream export is Brazilian; ISO layouts cover re-exported files.
var dateLayouts = []string{
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02-01-2006",
	"02/01/06",
}

// parseDate tries each known layout and returns the first hit.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// parseAmount converts a monetary string to a decimal, accepting either
// "," or "." in either separator role:
//
//	"1,234.56" -> 1234.56    "1.234,56" -> 1234.56
//	"1234.56"  -> 1234.56    "1,5"      -> 1.5
//	"1,500"    -> 1500       (a lone comma followed by 3+ digits groups thousands)
//
// When both separators appear, the one occurring last is the decimal mark.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("empty amount")
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if frac := len(s) - lastComma - 1; frac <= 2 && strings.Count(s, ",") == 1 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("unrecognized amount: %w", err)
	}
	return d, nil
}

// parseQuantity accepts plain integers and integral decimals ("2", "2,0");
// fractional quantities are rejected.
func parseQuantity(s string) (int64, error) {
	d, err := parseAmount(s)
	if err != nil {
		return 0, fmt.Errorf("unrecognized quantity: %w", err)
	}
	if !d.IsInteger() {
		return 0, fmt.Errorf("fractional quantity %q", s)
	}
	return d.IntPart(), nil
}

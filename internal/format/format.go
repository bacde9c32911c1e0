// Package format renders monetary and integer values using Brazilian
// Portuguese conventions (period as thousands separator, comma as decimal
// mark, "R$" currency marker).
package format

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	thousand = decimal.NewFromInt(1000)
	million  = decimal.NewFromInt(1000000)
)

// Currency renders a value as "R$ 1.234,50". The zero value renders as
// "R$ 0,00", so callers can pass the result of a failed parse unchecked.
func Currency(v decimal.Decimal) string {
	fixed := v.StringFixed(2) // "-1234.50"
	neg := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	intPart, fracPart, _ := strings.Cut(fixed, ".")
	out := groupThousands(intPart) + "," + fracPart
	if neg {
		out = "-" + out
	}
	return "R$ " + out
}

// CurrencyCompact collapses large magnitudes for chart labels:
// values of at least one million render as "R$ 1,5 M", values of at least
// one thousand as "R$ 2,5 MIL", and smaller values fall back to Currency.
func CurrencyCompact(v decimal.Decimal) string {
	abs := v.Abs()
	switch {
	case abs.GreaterThanOrEqual(million):
		return "R$ " + compactMark(v.Div(million)) + " M"
	case abs.GreaterThanOrEqual(thousand):
		return "R$ " + compactMark(v.Div(thousand)) + " MIL"
	default:
		return Currency(v)
	}
}

// Integer renders a count with period thousands separators: 1234 -> "1.234".
func Integer(n int64) string {
	d := decimal.NewFromInt(n)
	s := d.Abs().String()
	out := groupThousands(s)
	if n < 0 {
		out = "-" + out
	}
	return out
}

// compactMark renders one fractional digit with a comma decimal mark.
func compactMark(v decimal.Decimal) string {
	s := v.StringFixed(1)
	return strings.ReplaceAll(s, ".", ",")
}

// groupThousands inserts "." separators into a plain digit string.
func groupThousands(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}
	var b strings.Builder
	rem := n % 3
	if rem > 0 {
		b.WriteString(digits[:rem])
	}
	for i := rem; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

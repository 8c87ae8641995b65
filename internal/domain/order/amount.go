package order

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	zero    = decimal.Zero
)

// leadingNumber matches the numeric prefix a lenient float parser would use.
var leadingNumber = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

// maxMagnitude bounds the decimal exponent of a parsed operand to the range
// of a float64; anything outside reads as zero.
const maxMagnitude = 308

// Totals holds the order figures derived from the line items and tax rates.
// All amounts are rounded to two decimal places.
type Totals struct {
	Subtotal   decimal.Decimal
	CGST       decimal.Decimal
	SGST       decimal.Decimal
	IGST       decimal.Decimal
	RoundOff   decimal.Decimal
	GrandTotal decimal.Decimal
}

// LineAmount returns rate × quantity. Missing or unparsable operands count as
// zero, so the result is always defined, including for rows that are still
// being edited.
func LineAmount(rate, quantity string) decimal.Decimal {
	return parseLenient(rate).Mul(parseLenient(quantity))
}

// FormatAmount renders d with exactly two decimal places.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// ComputeTotals derives the subtotal, per-tax amounts and grand total of r.
// Tax amounts are subtotal × rate / 100; the grand total is rounded to the
// nearest whole unit and the difference reported as RoundOff.
func ComputeTotals(r *Record) Totals {
	subtotal := zero
	for _, it := range r.Items {
		subtotal = subtotal.Add(LineAmount(it.Rate, it.Quantity))
	}
	subtotal = subtotal.Round(2)

	tax := func(rate string) decimal.Decimal {
		return subtotal.Mul(parseLenient(rate)).Div(hundred).Round(2)
	}
	t := Totals{
		Subtotal: subtotal,
		CGST:     tax(r.CGSTRate),
		SGST:     tax(r.SGSTRate),
		IGST:     tax(r.IGSTRate),
	}

	gross := t.Subtotal.Add(t.CGST).Add(t.SGST).Add(t.IGST)
	t.GrandTotal = gross.Round(0)
	t.RoundOff = t.GrandTotal.Sub(gross)
	return t
}

// parseLenient reads the leading number of s the way form inputs are read
// for live display: "12abc" is 12, "" and "abc" are 0.
func parseLenient(s string) decimal.Decimal {
	m := leadingNumber.FindString(strings.TrimSpace(s))
	if m == "" {
		return zero
	}
	d, err := decimal.NewFromString(m)
	if err != nil {
		return zero
	}
	if mag := d.NumDigits() + int(d.Exponent()); mag > maxMagnitude+1 || mag < -maxMagnitude {
		return zero
	}
	return d
}

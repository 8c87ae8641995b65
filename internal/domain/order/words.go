package order

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	unitWords = []string{
		"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
		"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen",
		"Seventeen", "Eighteen", "Nineteen",
	}
	tenWords = []string{
		"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
	}
)

// maxSpelled is the largest magnitude spelled out in words.
var maxSpelled = decimal.NewFromInt(math.MaxInt64)

// indianScales are the grouping steps of the Indian numbering system,
// largest first.
var indianScales = []struct {
	size int64
	name string
}{
	{10_000_000, "Crore"},
	{100_000, "Lakh"},
	{1_000, "Thousand"},
}

// AmountInWords spells d, rounded to whole rupees, using Indian numbering,
// e.g. 913183 is "Nine Lakh Thirteen Thousand One Hundred and Eighty Three
// Rupees Only".
func AmountInWords(d decimal.Decimal) string {
	rounded := d.Round(0)
	if rounded.Abs().GreaterThan(maxSpelled) {
		return rounded.String() + " Rupees Only"
	}
	n := rounded.IntPart()
	if n < 0 {
		return "Minus " + AmountInWords(decimal.NewFromInt(-n))
	}
	if n == 0 {
		return "Zero Rupees Only"
	}
	return spell(n) + " Rupees Only"
}

func spell(n int64) string {
	var parts []string
	for _, s := range indianScales {
		if n >= s.size {
			// Crores above 99 are spelled recursively ("One Hundred Crore").
			parts = append(parts, spell(n/s.size)+" "+s.name)
			n %= s.size
		}
	}
	if n >= 100 {
		parts = append(parts, unitWords[n/100]+" Hundred")
		n %= 100
	}
	if n > 0 {
		if len(parts) > 0 {
			parts = append(parts, "and "+under100(n))
		} else {
			parts = append(parts, under100(n))
		}
	}
	return strings.Join(parts, " ")
}

func under100(n int64) string {
	if n < 20 {
		return unitWords[n]
	}
	w := tenWords[n/10]
	if n%10 != 0 {
		w += " " + unitWords[n%10]
	}
	return w
}

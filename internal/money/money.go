package money

import (
	"github.com/shopspring/decimal"
)

// Places is the number of fractional digits kept for amounts.
const Places = 2

// LineTotal returns price * quantity rounded to currency precision.
func LineTotal(price decimal.Decimal, quantity int64) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(quantity)).Round(Places)
}

// Sum adds the given amounts without intermediate rounding.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}

	return total
}

// Representable reports whether d has no digits beyond currency precision.
// Trailing zeros are fine: "1.500" is representable, "0.333" is not.
func Representable(d decimal.Decimal) bool {
	return d.Equal(d.Round(Places))
}

// Format renders an amount with two fractional digits, e.g. "200.00".
func Format(d decimal.Decimal) string {
	return d.StringFixed(Places)
}

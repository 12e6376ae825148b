package importer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/kasa/internal/money"
)

var digitSpaces = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "")

// parsePrice accepts "1.5", "1,50" and "1.234,56". A comma is always the
// decimal separator when present.
func parsePrice(s string) (decimal.Decimal, error) {
	clean := digitSpaces.Replace(s)

	if strings.Contains(clean, ",") {
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, err
	}

	if !money.Representable(d) {
		return decimal.Zero, fmt.Errorf("more than %d decimal places", money.Places)
	}

	return d, nil
}

func parseQuantity(s string) (int64, error) {
	return strconv.ParseInt(digitSpaces.Replace(s), 10, 64)
}

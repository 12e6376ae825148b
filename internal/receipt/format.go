package receipt

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/MrJamesThe3rd/kasa/internal/money"
)

// DefaultWidth is the line width of a 58mm thermal printer.
const DefaultWidth = 32

// amountWidth is the column reserved for amounts in the summary block.
const amountWidth = 7

const (
	labelTotal  = "СУМА"
	labelChange = "Решта"
	closingLine = "Дякуємо за покупку!"
	timeLayout  = "02.01.2006 15:04"
)

var paymentLabels = map[PaymentType]string{
	PaymentCash:     "Готівка",
	PaymentCashless: "Картка",
}

// PaymentLabel returns the printed name of a payment type, or the raw type if unknown.
func PaymentLabel(t PaymentType) string {
	if l, ok := paymentLabels[t]; ok {
		return l
	}

	return string(t)
}

// Format renders r as fixed-width plain text for a terminal or receipt printer.
// Values longer than their column are written unpadded.
func Format(r *Receipt, width int) string {
	half := width / 2
	heavy := strings.Repeat("=", max(width, 0))
	light := strings.Repeat("-", max(width, 0))

	lines := []string{
		center(r.OwnerName, width),
		heavy,
	}

	for _, it := range r.Items {
		qty := fmt.Sprintf("%d x %s", it.Quantity, money.Format(it.Price))
		lines = append(lines,
			ljust(qty, half)+rjust(money.Format(it.Total), half),
			it.Name,
			light,
		)
	}

	lines = append(lines,
		heavy,
		summaryLine(labelTotal, money.Format(r.Total), width),
		summaryLine(PaymentLabel(r.Type), money.Format(r.Amount), width),
		summaryLine(labelChange, money.Format(r.Rest), width),
		heavy,
		center(r.CreatedAt.Format(timeLayout), width),
		center(closingLine, width),
	)

	return strings.Join(lines, "\n")
}

func summaryLine(label, amount string, width int) string {
	return ljust(label, width-amountWidth) + rjust(amount, amountWidth)
}

func pad(n int) string {
	if n <= 0 {
		return ""
	}

	return strings.Repeat(" ", n)
}

func ljust(s string, width int) string {
	return s + pad(width-utf8.RuneCountInString(s))
}

func rjust(s string, width int) string {
	return pad(width-utf8.RuneCountInString(s)) + s
}

// center puts the odd padding column on the right, except when both the
// padding and the width are odd.
func center(s string, width int) string {
	margin := width - utf8.RuneCountInString(s)
	if margin <= 0 {
		return s
	}

	left := margin/2 + (margin & width & 1)

	return pad(left) + s + pad(margin-left)
}

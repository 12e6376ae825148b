package view

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/kasa/internal/money"
	"github.com/MrJamesThe3rd/kasa/internal/receipt"
)

const dbTimeout = 5 * time.Second

type CommonModel struct {
	Width  int
	Height int
}

type BackMsg struct{}

func Back() tea.Msg {
	return BackMsg{}
}

// ShowReceiptMsg asks the root model to open r in the receipt viewer.
type ShowReceiptMsg struct {
	Receipt *receipt.Receipt
}

// DbCtx returns a context with a standard timeout for database operations.
func DbCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), dbTimeout)
}

func FormatAmount(d decimal.Decimal) string {
	return money.Format(d)
}

func FormatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}

var (
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	faintStyle  = lipgloss.NewStyle().Faint(true)
	pageStyle   = lipgloss.NewStyle().Padding(1)
)

func activeStyle(s string) string {
	return accentStyle.Render(s)
}

func renderError(err error) string {
	return errorStyle.Render(fmt.Sprintf("Error: %v", err))
}

// parseAmount accepts both "12.50" and "12,50".
func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", "."))
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a number")
	}

	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("must not be negative")
	}

	if !money.Representable(d) {
		return decimal.Zero, fmt.Errorf("at most %d decimal places", money.Places)
	}

	return d, nil
}

func parseQuantity(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("not a whole number")
	}

	if n < 0 {
		return 0, fmt.Errorf("must not be negative")
	}

	return n, nil
}

func validateAmount(s string) error {
	_, err := parseAmount(s)
	return err
}

func validateQuantity(s string) error {
	_, err := parseQuantity(s)
	return err
}

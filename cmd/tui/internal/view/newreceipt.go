package view

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/kasa/internal/money"
	"github.com/MrJamesThe3rd/kasa/internal/receipt"
)

type newReceiptState int

const (
	newReceiptStateItem newReceiptState = iota
	newReceiptStatePayment
	newReceiptStateSaving
	newReceiptStateFailed
)

type itemFields struct {
	name     string
	price    string
	quantity string
	more     bool
}

type paymentFields struct {
	paymentType receipt.PaymentType
	amount      string
}

// NewReceiptModel collects products one at a time, then the payment, and
// creates the receipt. Items handed in up front (from an import) skip the
// product entry step.
type NewReceiptModel struct {
	CommonModel
	receipts *receipt.Service
	owner    receipt.Owner

	state   newReceiptState
	items   []receipt.LineItem
	form    *huh.Form
	item    *itemFields
	payment *paymentFields
	err     error
}

func NewNewReceiptModel(receipts *receipt.Service, owner receipt.Owner, items []receipt.LineItem) NewReceiptModel {
	m := NewReceiptModel{
		receipts: receipts,
		owner:    owner,
		items:    slices.Clone(items),
		payment:  &paymentFields{paymentType: receipt.PaymentCash},
	}

	if len(m.items) > 0 {
		m.state = newReceiptStatePayment
		m.form = m.buildPaymentForm()
	} else {
		m.state = newReceiptStateItem
		m.form = m.buildItemForm()
	}

	return m
}

func (m NewReceiptModel) Title() string { return "New Receipt" }

func (m NewReceiptModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m *NewReceiptModel) buildItemForm() *huh.Form {
	m.item = &itemFields{quantity: "1", more: true}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("name").
				Title("Product").
				Value(&m.item.name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("product name cannot be empty")
					}
					return nil
				}),
			huh.NewInput().
				Key("price").
				Title("Price").
				Placeholder("0.00").
				Value(&m.item.price).
				Validate(validateAmount),
			huh.NewInput().
				Key("quantity").
				Title("Quantity").
				Value(&m.item.quantity).
				Validate(validateQuantity),
			huh.NewConfirm().
				Key("more").
				Title("Add another product?").
				Affirmative("Yes").
				Negative("No, go to payment").
				Value(&m.item.more),
		),
	).WithWidth(45).WithShowHelp(false)
}

func (m *NewReceiptModel) buildPaymentForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[receipt.PaymentType]().
				Key("type").
				Title("Payment").
				Options(
					huh.NewOption(receipt.PaymentLabel(receipt.PaymentCash), receipt.PaymentCash),
					huh.NewOption(receipt.PaymentLabel(receipt.PaymentCashless), receipt.PaymentCashless),
				).
				Value(&m.payment.paymentType),
			huh.NewInput().
				Key("amount").
				Title("Amount received").
				Description(fmt.Sprintf("Total due: %s", money.Format(m.total()))).
				Placeholder(money.Format(m.total())).
				Value(&m.payment.amount).
				Validate(validateAmount),
		),
	).WithWidth(45).WithShowHelp(false)
}

func (m NewReceiptModel) total() decimal.Decimal {
	lines := make([]decimal.Decimal, len(m.items))
	for i, it := range m.items {
		lines[i] = money.LineTotal(it.Price, it.Quantity)
	}

	return money.Sum(lines...)
}

func (m NewReceiptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if res, ok := msg.(receiptCreatedMsg); ok {
		if res.err != nil {
			m.state = newReceiptStateFailed
			m.err = res.err

			return m, nil
		}

		return m, func() tea.Msg { return ShowReceiptMsg{Receipt: res.receipt} }
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m.handleEsc()
	}

	switch m.state {
	case newReceiptStateItem:
		return m.updateItem(msg)
	case newReceiptStatePayment:
		return m.updatePayment(msg)
	}

	return m, nil
}

func (m NewReceiptModel) handleEsc() (tea.Model, tea.Cmd) {
	switch m.state {
	case newReceiptStateFailed:
		// Items survive a failed attempt so only the payment has to be re-entered.
		m.state = newReceiptStatePayment
		m.err = nil
		m.form = m.buildPaymentForm()

		return m, m.form.Init()
	case newReceiptStateSaving:
		return m, nil
	}

	return m, Back
}

func (m NewReceiptModel) updateItem(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	price, _ := parseAmount(m.item.price)
	qty, _ := parseQuantity(m.item.quantity)

	m.items = append(m.items, receipt.LineItem{
		Name:     strings.TrimSpace(m.item.name),
		Price:    price,
		Quantity: qty,
	})

	if m.item.more {
		m.form = m.buildItemForm()
	} else {
		m.state = newReceiptStatePayment
		m.form = m.buildPaymentForm()
	}

	return m, m.form.Init()
}

func (m NewReceiptModel) updatePayment(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	amount, _ := parseAmount(m.payment.amount)
	m.state = newReceiptStateSaving

	return m, m.createCmd(receipt.Payment{Type: m.payment.paymentType, Amount: amount})
}

func (m NewReceiptModel) View() string {
	header := lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("New receipt for %s", m.owner.Name))

	var body string

	switch m.state {
	case newReceiptStateItem, newReceiptStatePayment:
		body = m.form.View()
	case newReceiptStateSaving:
		body = "Saving receipt..."
	case newReceiptStateFailed:
		body = m.viewFailure()
	}

	content := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(50).Render(body),
		m.viewBasket(),
	)

	return pageStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		header, "", content, "", faintStyle.Render("Esc: back"),
	))
}

func (m NewReceiptModel) viewFailure() string {
	var insufficient *receipt.InsufficientPaymentError
	if errors.As(m.err, &insufficient) {
		return errorStyle.Render(fmt.Sprintf(
			"Not enough paid.\nRequired: %s\nReceived: %s",
			money.Format(insufficient.Required), money.Format(insufficient.Received),
		)) + "\n\n(Esc to change the payment)"
	}

	return renderError(m.err) + "\n\n(Esc to change the payment)"
}

func (m NewReceiptModel) viewBasket() string {
	if len(m.items) == 0 {
		return ""
	}

	var sb strings.Builder

	sb.WriteString("Basket\n\n")

	for _, it := range m.items {
		fmt.Fprintf(&sb, "%d x %s  %s\n", it.Quantity, money.Format(it.Price), it.Name)
	}

	fmt.Fprintf(&sb, "\nTotal: %s", activeStyle(money.Format(m.total())))

	return lipgloss.NewStyle().
		Padding(0, 2).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Render(sb.String())
}

type receiptCreatedMsg struct {
	receipt *receipt.Receipt
	err     error
}

func (m NewReceiptModel) createCmd(payment receipt.Payment) tea.Cmd {
	items := slices.Clone(m.items)
	owner := m.owner

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		r, err := m.receipts.Create(ctx, owner, payment, items)

		return receiptCreatedMsg{receipt: r, err: err}
	}
}

package view

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/kasa/internal/receipt"
)

const listPageSize = 50

var (
	typeFilters  = []*receipt.PaymentType{nil, new(receipt.PaymentCash), new(receipt.PaymentCashless)}
	totalFilters = []string{"", "100", "500", "1000"}
	dateFilters  = []Timeframe{TimeframeAll, TimeframeToday, TimeframeThisWeek, TimeframeThisMonth, TimeframeLastMonth}
)

type ListModel struct {
	CommonModel
	receipts *receipt.Service
	owner    receipt.Owner

	table    table.Model
	rows     []*receipt.Receipt
	page     int
	filter   receipt.ListFilter
	typeIdx  int
	totalIdx int
	dateIdx  int

	loading bool
	err     error
}

func NewListModel(receipts *receipt.Service, owner receipt.Owner) ListModel {
	columns := []table.Column{
		{Title: "Created", Width: 17},
		{Title: "Payment", Width: 10},
		{Title: "Items", Width: 6},
		{Title: "Total", Width: 12},
		{Title: "Paid", Width: 12},
		{Title: "Change", Width: 12},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return ListModel{
		receipts: receipts,
		owner:    owner,
		table:    t,
		loading:  true,
	}
}

func (m ListModel) Title() string { return "Receipts" }

func (m ListModel) ShortHelp() string {
	return "Esc: back | Enter: open | t: payment | g: total | d: date | n/p: page | r: refresh"
}

func (m ListModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m ListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadListMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.rows = msg.receipts
			m.refreshTable()
		}

		return m, nil

	case tea.WindowSizeMsg:
		m.table.SetHeight(max(msg.Height-10, 5))
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			return m.reload()
		case "enter":
			idx := m.table.Cursor()
			if idx < 0 || idx >= len(m.rows) {
				return m, nil
			}

			r := m.rows[idx]

			return m, func() tea.Msg { return ShowReceiptMsg{Receipt: r} }
		case "t":
			m.typeIdx = (m.typeIdx + 1) % len(typeFilters)
			m.page = 0

			return m.reload()
		case "g":
			m.totalIdx = (m.totalIdx + 1) % len(totalFilters)
			m.page = 0

			return m.reload()
		case "d":
			m.dateIdx = (m.dateIdx + 1) % len(dateFilters)
			m.page = 0

			return m.reload()
		case "n":
			if len(m.rows) == listPageSize {
				m.page++
				return m.reload()
			}

			return m, nil
		case "p":
			if m.page > 0 {
				m.page--
				return m.reload()
			}

			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m ListModel) reload() (tea.Model, tea.Cmd) {
	m.applyFilter()
	m.loading = true

	return m, m.loadCmd()
}

func (m *ListModel) applyFilter() {
	m.filter = receipt.ListFilter{Type: typeFilters[m.typeIdx]}

	if v := totalFilters[m.totalIdx]; v != "" {
		m.filter.TotalGT = new(decimal.RequireFromString(v))
	}

	dateFilters[m.dateIdx].Range().Apply(&m.filter)
}

func (m *ListModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.rows))
	for _, r := range m.rows {
		rows = append(rows, table.Row{
			FormatTime(r.CreatedAt),
			receipt.PaymentLabel(r.Type),
			strconv.Itoa(len(r.Items)),
			FormatAmount(r.Total),
			FormatAmount(r.Amount),
			FormatAmount(r.Rest),
		})
	}

	m.table.SetRows(rows)
	m.table.GotoTop()
}

func (m ListModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading receipts...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(renderError(m.err) + "\n\n(r to retry, Esc to go back)")
	}

	typeLabel := "All"
	if t := typeFilters[m.typeIdx]; t != nil {
		typeLabel = receipt.PaymentLabel(*t)
	}

	totalLabel := "Any"
	if v := totalFilters[m.totalIdx]; v != "" {
		totalLabel = "> " + v
	}

	header := fmt.Sprintf(
		"Filter: [t] Payment: %s | [g] Total: %s | [d] Date: %s | Page %d",
		activeStyle(typeLabel),
		activeStyle(totalLabel),
		activeStyle(dateFilters[m.dateIdx].String()),
		m.page+1,
	)

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	footer := faintStyle.Render(m.ShortHelp())
	if len(m.rows) == 0 {
		footer = faintStyle.Render("No receipts match. ") + footer
	}

	return pageStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
		footer,
	))
}

type loadListMsg struct {
	receipts []*receipt.Receipt
	err      error
}

func (m ListModel) loadCmd() tea.Cmd {
	filter := m.filter
	offset := m.page * listPageSize

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		rs, err := m.receipts.List(ctx, m.owner.ID, filter, listPageSize, offset)

		return loadListMsg{receipts: rs, err: err}
	}
}

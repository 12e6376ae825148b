package view

import (
	"fmt"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/kasa/internal/receipt"
)

const viewerHeight = 20

// ReceiptModel shows the printed form of a single receipt.
type ReceiptModel struct {
	CommonModel
	receipt  *receipt.Receipt
	width    int
	maxWidth int
	viewport viewport.Model
}

func NewReceiptViewModel(r *receipt.Receipt, width, maxWidth int) ReceiptModel {
	m := ReceiptModel{
		receipt:  r,
		width:    width,
		maxWidth: maxWidth,
		viewport: viewport.New(maxWidth+2, viewerHeight),
	}
	m.render()

	return m
}

func (m ReceiptModel) Title() string { return "Receipt" }

func (m ReceiptModel) Init() tea.Cmd {
	return nil
}

func (m *ReceiptModel) render() {
	m.viewport.SetContent(receipt.Format(m.receipt, m.width))
}

func (m ReceiptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.viewport.Height = max(msg.Height-8, 5)
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "+", "=":
			if m.width < m.maxWidth {
				m.width++
				m.render()
			}

			return m, nil
		case "-":
			if m.width > 1 {
				m.width--
				m.render()
			}

			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)

	return m, cmd
}

func (m ReceiptModel) View() string {
	paper := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.viewport.View())

	return pageStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		faintStyle.Render(fmt.Sprintf("Receipt %s | %d chars per line", m.receipt.ID, m.width)),
		paper,
		faintStyle.Render("Esc: back | +/-: width | ↑/↓: scroll"),
	))
}

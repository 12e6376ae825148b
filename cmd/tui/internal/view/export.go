package view

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	kasaenc "github.com/MrJamesThe3rd/kasa/internal/encoding"
	"github.com/MrJamesThe3rd/kasa/internal/export"
	"github.com/MrJamesThe3rd/kasa/internal/receipt"
)

const exportTimeout = 2 * time.Minute

type exportStep int

const (
	exportStepRange exportStep = iota
	exportStepOptions
	exportStepRunning
	exportStepDone
)

type exportFields struct {
	dir     string
	charset string
}

// ExportModel writes the cashier's receipts for a date range to text files.
type ExportModel struct {
	CommonModel
	exports *export.Service
	owner   receipt.Owner
	width   int

	step    exportStep
	picker  TimeframePicker
	chosen  TimeframeSelectedMsg
	form    *huh.Form
	fields  *exportFields
	spinner spinner.Model
	result  viewport.Model
	count   int
	err     error
}

func NewExportModel(svc *export.Service, owner receipt.Owner, width int) ExportModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = accentStyle

	return ExportModel{
		exports: svc,
		owner:   owner,
		width:   width,
		picker:  NewTimeframePicker(TimeframeToday),
		fields:  &exportFields{dir: "./exports", charset: kasaenc.CharsetUTF8},
		spinner: s,
		result:  viewport.New(80, 15),
	}
}

func (m ExportModel) Init() tea.Cmd {
	return nil
}

func (m ExportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TimeframeSelectedMsg:
		m.chosen = msg
		m.step = exportStepOptions
		m.form = m.optionsForm()

		return m, m.form.Init()

	case exportDoneMsg:
		m.step = exportStepDone
		m.err = msg.err
		m.count = msg.count
		m.result.SetContent(msg.summary)
		m.result.GotoTop()

		return m, nil

	case tea.WindowSizeMsg:
		m.result.Width = max(msg.Width-4, 20)
		m.result.Height = max(msg.Height-10, 5)

		return m, nil
	}

	switch m.step {
	case exportStepRange:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc && m.picker.IsSelecting() {
			return m, Back
		}

		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)

		return m, cmd

	case exportStepOptions:
		return m.updateOptions(msg)

	case exportStepRunning:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case exportStepDone:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
			return m, Back
		}

		var cmd tea.Cmd
		m.result, cmd = m.result.Update(msg)

		return m, cmd
	}

	return m, nil
}

func (m ExportModel) updateOptions(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.step = exportStepRange
		m.picker.Reset()

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.step = exportStepRunning

	return m, tea.Batch(m.spinner.Tick, m.exportCmd(*m.fields))
}

func (m ExportModel) optionsForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("dir").
				Title("Output directory").
				Description("Created if missing").
				Value(&m.fields.dir),
			huh.NewSelect[string]().
				Key("charset").
				Title("Encoding").
				Description("Code page of the receipt printer").
				Options(
					huh.NewOption("UTF-8", kasaenc.CharsetUTF8),
					huh.NewOption("CP866 (DOS Cyrillic)", kasaenc.CharsetCP866),
					huh.NewOption("Windows-1251", kasaenc.CharsetWindows1251),
				).
				Value(&m.fields.charset),
		),
	).WithWidth(50).WithShowHelp(false)
}

func (m ExportModel) View() string {
	var body string

	switch m.step {
	case exportStepRange:
		body = m.picker.View()
	case exportStepOptions:
		body = fmt.Sprintf("Exporting %s\n\n%s", m.chosen, m.form.View())
	case exportStepRunning:
		body = fmt.Sprintf("%s Writing receipts to %s...", m.spinner.View(), m.fields.dir)
	case exportStepDone:
		body = m.viewDone()
	}

	return pageStyle.Render(body)
}

func (m ExportModel) viewDone() string {
	if m.err != nil {
		return renderError(m.err) + "\n\n" + faintStyle.Render("Esc: back")
	}

	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46")).
		Render(fmt.Sprintf("Exported %d receipts to %s", m.count, m.fields.dir))

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		m.result.View(),
		faintStyle.Render("Esc: back | ↑/↓: scroll"),
	)
}

type exportDoneMsg struct {
	count   int
	summary string
	err     error
}

func (m ExportModel) exportCmd(fields exportFields) tea.Cmd {
	var filter receipt.ListFilter
	m.chosen.Apply(&filter)

	opts := export.Options{Width: m.width, Charset: fields.charset}
	ownerID := m.owner.ID

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
		defer cancel()

		items, err := m.exports.Export(ctx, ownerID, filter, fields.dir, opts)
		if err != nil {
			return exportDoneMsg{err: err}
		}

		return exportDoneMsg{count: len(items), summary: m.exports.GenerateSummary(items)}
	}
}

package view

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/shopspring/decimal"

	kasaenc "github.com/MrJamesThe3rd/kasa/internal/encoding"
	"github.com/MrJamesThe3rd/kasa/internal/importer"
	"github.com/MrJamesThe3rd/kasa/internal/money"
	"github.com/MrJamesThe3rd/kasa/internal/receipt"
)

type importStage int

const (
	importStageEncoding importStage = iota
	importStageFile
	importStageReading
	importStagePick
	importStageFailed
)

// ImportedItemsMsg hands the products picked from a file to a new receipt.
type ImportedItemsMsg struct {
	Items []receipt.LineItem
}

// basket holds the parsed rows and which of them the cashier keeps. The list
// delegate shares it by pointer so toggles show up on the next render.
type basket struct {
	items []receipt.LineItem
	keep  []bool
}

func newBasket(items []receipt.LineItem) *basket {
	b := &basket{items: items, keep: make([]bool, len(items))}
	b.setAll(true)

	return b
}

func (b *basket) setAll(v bool) {
	for i := range b.keep {
		b.keep[i] = v
	}
}

func (b *basket) toggle(i int) {
	if i >= 0 && i < len(b.keep) {
		b.keep[i] = !b.keep[i]
	}
}

func (b *basket) kept() []receipt.LineItem {
	var out []receipt.LineItem

	for i, it := range b.items {
		if b.keep[i] {
			out = append(out, it)
		}
	}

	return out
}

func (b *basket) total() string {
	var lines []decimal.Decimal
	for _, it := range b.kept() {
		lines = append(lines, money.LineTotal(it.Price, it.Quantity))
	}

	return money.Format(money.Sum(lines...))
}

// ImportModel reads a product list from a CSV file and lets the cashier
// choose which rows go on the receipt.
type ImportModel struct {
	CommonModel
	importer *importer.Service

	stage    importStage
	charset  *string
	encoding *huh.Form
	picker   filepicker.Model
	basket   *basket
	rows     list.Model
	notice   string
	err      error
}

func NewImportModel(svc *importer.Service) ImportModel {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.AllowedTypes = []string{".csv", ".txt"}
	fp.DirAllowed = false
	fp.SetHeight(15)

	m := ImportModel{
		importer: svc,
		charset:  new(""),
		picker:   fp,
	}
	m.encoding = m.encodingForm()

	return m
}

func (m ImportModel) encodingForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("File encoding").
				Options(
					huh.NewOption("Detect automatically", ""),
					huh.NewOption("UTF-8", kasaenc.CharsetUTF8),
					huh.NewOption("CP866 (DOS Cyrillic)", kasaenc.CharsetCP866),
					huh.NewOption("Windows-1251", kasaenc.CharsetWindows1251),
				).
				Value(m.charset),
		),
	).WithWidth(40).WithShowHelp(false)
}

func (m ImportModel) Init() tea.Cmd {
	return m.encoding.Init()
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m.stepBack()
	}

	if res, ok := msg.(readResultMsg); ok {
		return m.onRead(res)
	}

	switch m.stage {
	case importStageEncoding:
		form, cmd := m.encoding.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.encoding = f
		}

		if m.encoding.State == huh.StateCompleted {
			m.stage = importStageFile
			return m, m.picker.Init()
		}

		return m, cmd

	case importStageFile:
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)

		if ok, path := m.picker.DidSelectFile(msg); ok {
			m.stage = importStageReading
			m.notice = "Reading " + path + "..."

			return m, m.readCmd(path, *m.charset)
		}

		return m, cmd

	case importStagePick:
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			return m.updatePick(keyMsg)
		}
	}

	return m, nil
}

func (m ImportModel) onRead(res readResultMsg) (tea.Model, tea.Cmd) {
	if res.err != nil {
		m.stage = importStageFailed
		m.err = res.err

		return m, nil
	}

	m.basket = newBasket(res.items)

	rows := make([]list.Item, len(res.items))
	for i, it := range res.items {
		rows[i] = productRow{item: it, index: i}
	}

	m.rows = list.New(rows, productDelegate{basket: m.basket}, 80, 20)
	m.rows.Title = fmt.Sprintf("%d products read", len(res.items))
	m.rows.SetShowStatusBar(false)
	m.rows.SetFilteringEnabled(false)
	m.rows.SetShowHelp(false)

	m.stage = importStagePick
	m.notice = ""

	return m, nil
}

func (m ImportModel) stepBack() (tea.Model, tea.Cmd) {
	switch m.stage {
	case importStageEncoding:
		return m, Back
	case importStageReading:
		return m, nil
	}

	m.stage = importStageEncoding
	m.basket = nil
	m.err = nil
	m.notice = ""
	m.encoding = m.encodingForm()

	return m, m.encoding.Init()
}

func (m ImportModel) updatePick(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case " ":
		m.basket.toggle(m.rows.Index())
		return m, nil
	case "a":
		m.basket.setAll(true)
		return m, nil
	case "n":
		m.basket.setAll(false)
		return m, nil
	case "enter":
		items := m.basket.kept()
		if len(items) == 0 {
			m.notice = "Select at least one product."
			return m, nil
		}

		return m, func() tea.Msg { return ImportedItemsMsg{Items: items} }
	}

	var cmd tea.Cmd
	m.rows, cmd = m.rows.Update(msg)

	return m, cmd
}

func (m ImportModel) View() string {
	var body string

	switch m.stage {
	case importStageEncoding:
		body = m.encoding.View() + "\n" + faintStyle.Render("Enter: continue | Esc: back")
	case importStageFile:
		enc := *m.charset
		if enc == "" {
			enc = "auto-detect"
		}

		body = fmt.Sprintf("Select product file (%s):\n\n%s", enc, m.picker.View())
	case importStageReading:
		body = m.notice
	case importStagePick:
		body = m.rows.View() + "\n" + accentStyle.Render("Selected total: "+m.basket.total())
		if m.notice != "" {
			body += "\n" + errorStyle.Render(m.notice)
		}

		body += "\n" + faintStyle.Render("Space: toggle | a: all | n: none | Enter: continue to payment | Esc: cancel")
	case importStageFailed:
		body = renderError(m.err) + "\n\n" + faintStyle.Render("Esc: try again")
	}

	return pageStyle.Render(body)
}

type readResultMsg struct {
	items []receipt.LineItem
	err   error
}

func (m ImportModel) readCmd(path, charset string) tea.Cmd {
	svc := m.importer

	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return readResultMsg{err: err}
		}
		defer f.Close()

		items, err := svc.Import(f, charset)

		return readResultMsg{items: items, err: err}
	}
}

type productRow struct {
	item  receipt.LineItem
	index int
}

func (r productRow) Title() string       { return r.item.Name }
func (r productRow) Description() string { return "" }
func (r productRow) FilterValue() string { return r.item.Name }

type productDelegate struct {
	basket *basket
}

func (d productDelegate) Height() int                         { return 1 }
func (d productDelegate) Spacing() int                        { return 0 }
func (d productDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }

func (d productDelegate) Render(w io.Writer, l list.Model, index int, li list.Item) {
	row, ok := li.(productRow)
	if !ok {
		return
	}

	mark := "[ ]"
	if d.basket.keep[row.index] {
		mark = "[x]"
	}

	line := fmt.Sprintf("%s %-30s %4d x %10s = %10s",
		mark, row.item.Name, row.item.Quantity,
		money.Format(row.item.Price), money.Format(money.LineTotal(row.item.Price, row.item.Quantity)))

	if index == l.Index() {
		fmt.Fprint(w, activeStyle("> "+line))
		return
	}

	fmt.Fprint(w, "  "+line)
}

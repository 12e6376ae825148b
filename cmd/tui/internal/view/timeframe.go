package view

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/MrJamesThe3rd/kasa/internal/receipt"
)

const dateLayout = "2006-01-02"

// Timeframe is a preset range of receipt creation dates.
type Timeframe int

const (
	TimeframeToday Timeframe = iota
	TimeframeThisWeek
	TimeframeLastWeek
	TimeframeThisMonth
	TimeframeLastMonth
	TimeframeAll
	TimeframeCustom
)

var timeframeNames = map[Timeframe]string{
	TimeframeToday:     "Today",
	TimeframeThisWeek:  "This Week",
	TimeframeLastWeek:  "Last Week",
	TimeframeThisMonth: "This Month",
	TimeframeLastMonth: "Last Month",
	TimeframeAll:       "All Time",
	TimeframeCustom:    "Custom Range",
}

func (tf Timeframe) String() string {
	if name, ok := timeframeNames[tf]; ok {
		return name
	}

	return "Unknown"
}

// bounds returns the first and last calendar day of tf relative to now.
// Weeks start on Monday.
func (tf Timeframe) bounds(now time.Time) (first, last time.Time) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	monday := today.AddDate(0, 0, -((int(today.Weekday()) + 6) % 7))
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.Local)

	switch tf {
	case TimeframeThisWeek:
		return monday, today
	case TimeframeLastWeek:
		return monday.AddDate(0, 0, -7), monday.AddDate(0, 0, -1)
	case TimeframeThisMonth:
		return monthStart, today
	case TimeframeLastMonth:
		return monthStart.AddDate(0, -1, 0), monthStart.AddDate(0, 0, -1)
	}

	return today, today
}

// TimeframeSelectedMsg is emitted when the user has picked a range. Start is
// inclusive and End exclusive; both are zero when All is set.
type TimeframeSelectedMsg struct {
	Start time.Time
	End   time.Time
	All   bool
}

// daysRange covers first..last as whole local days.
func daysRange(first, last time.Time) TimeframeSelectedMsg {
	start := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, time.Local)
	end := time.Date(last.Year(), last.Month(), last.Day()+1, 0, 0, 0, 0, time.Local)

	return TimeframeSelectedMsg{Start: start, End: end}
}

// Range resolves a preset against the current date. Custom resolves to All.
func (tf Timeframe) Range() TimeframeSelectedMsg {
	if tf == TimeframeAll || tf == TimeframeCustom {
		return TimeframeSelectedMsg{All: true}
	}

	return daysRange(tf.bounds(time.Now()))
}

// Apply restricts f to receipts created inside the selected range.
func (msg TimeframeSelectedMsg) Apply(f *receipt.ListFilter) {
	if msg.All {
		f.CreatedAtGT, f.CreatedAtLT = nil, nil
		return
	}

	// created_at > GT is strict, so step back one tick to include midnight.
	f.CreatedAtGT = new(msg.Start.Add(-time.Microsecond))
	f.CreatedAtLT = new(msg.End)
}

func (msg TimeframeSelectedMsg) String() string {
	if msg.All {
		return "all receipts"
	}

	return fmt.Sprintf("%s to %s", msg.Start.Format(dateLayout), msg.End.AddDate(0, 0, -1).Format(dateLayout))
}

type customRange struct {
	from string
	to   string
}

// TimeframePicker lets the user choose a preset or type a custom range.
type TimeframePicker struct {
	cursor Timeframe
	first  Timeframe
	custom *huh.Form
	fields *customRange
}

// NewTimeframePicker lists presets starting at first.
func NewTimeframePicker(first Timeframe) TimeframePicker {
	return TimeframePicker{cursor: first, first: first}
}

func (m TimeframePicker) Init() tea.Cmd {
	return nil
}

func validateDate(s string) error {
	if _, err := time.ParseInLocation(dateLayout, strings.TrimSpace(s), time.Local); err != nil {
		return errors.New("use YYYY-MM-DD")
	}

	return nil
}

func (m *TimeframePicker) openCustom() tea.Cmd {
	today := time.Now().Format(dateLayout)
	m.fields = &customRange{from: today, to: today}

	m.custom = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Key("from").Title("From").Value(&m.fields.from).Validate(validateDate),
			huh.NewInput().Key("to").Title("To (inclusive)").Value(&m.fields.to).Validate(validateDate),
		),
	).WithWidth(30).WithShowHelp(false)

	return m.custom.Init()
}

func (m TimeframePicker) Update(msg tea.Msg) (TimeframePicker, tea.Cmd) {
	if m.custom != nil {
		return m.updateCustom(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "up", "k":
		if m.cursor > m.first {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < TimeframeCustom {
			m.cursor++
		}
	case "enter":
		if m.cursor == TimeframeCustom {
			return m, m.openCustom()
		}

		sel := m.cursor.Range()

		return m, func() tea.Msg { return sel }
	}

	return m, nil
}

func (m TimeframePicker) updateCustom(msg tea.Msg) (TimeframePicker, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.custom = nil
		return m, nil
	}

	form, cmd := m.custom.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.custom = f
	}

	if m.custom.State != huh.StateCompleted {
		return m, cmd
	}

	from, _ := time.ParseInLocation(dateLayout, strings.TrimSpace(m.fields.from), time.Local)
	to, _ := time.ParseInLocation(dateLayout, strings.TrimSpace(m.fields.to), time.Local)

	if to.Before(from) {
		from, to = to, from
	}

	m.custom = nil
	sel := daysRange(from, to)

	return m, func() tea.Msg { return sel }
}

func (m TimeframePicker) View() string {
	if m.custom != nil {
		return "Custom range:\n\n" + m.custom.View() + "\n" + faintStyle.Render("(Esc to pick a preset)")
	}

	var sb strings.Builder

	sb.WriteString("Receipts created:\n\n")

	for tf := m.first; tf <= TimeframeCustom; tf++ {
		cursor := " "
		if tf == m.cursor {
			cursor = ">"
		}

		line := fmt.Sprintf("%s %-13s", cursor, tf)
		if tf != TimeframeAll && tf != TimeframeCustom {
			line += faintStyle.Render(tf.Range().String())
		}

		sb.WriteString(line + "\n")
	}

	sb.WriteString("\n(Enter to select, Esc to go back)")

	return sb.String()
}

// IsSelecting reports whether the preset list, not the custom form, has focus.
func (m TimeframePicker) IsSelecting() bool {
	return m.custom == nil
}

// Reset returns the picker to its preset list.
func (m *TimeframePicker) Reset() {
	m.cursor = m.first
	m.custom = nil
}

package view

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/kasa/internal/receipt"
	"github.com/MrJamesThe3rd/kasa/internal/user"
)

// LoggedInMsg carries the cashier every later screen acts for.
type LoggedInMsg struct {
	Owner receipt.Owner
}

type loginFields struct {
	login    string
	password string
}

type LoginModel struct {
	CommonModel
	users *user.Service

	form   *huh.Form
	fields *loginFields
	busy   bool
	err    error
}

func NewLoginModel(users *user.Service) LoginModel {
	m := LoginModel{users: users}
	m.resetForm()

	return m
}

func (m LoginModel) Title() string { return "Sign In" }

func (m LoginModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m *LoginModel) resetForm() {
	m.fields = &loginFields{}
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("login").
				Title("Login").
				Value(&m.fields.login).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("login cannot be empty")
					}
					return nil
				}),
			huh.NewInput().
				Key("password").
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fields.password),
		),
	).WithWidth(40).WithShowHelp(false)
}

func (m LoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if res, ok := msg.(loginResultMsg); ok {
		m.busy = false

		if res.err != nil {
			m.err = res.err
			m.resetForm()

			return m, m.form.Init()
		}

		return m, func() tea.Msg {
			return LoggedInMsg{Owner: receipt.Owner{ID: res.user.ID, Name: res.user.Username}}
		}
	}

	if m.busy {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.busy = true
	m.err = nil

	return m, m.authenticateCmd(m.fields.login, m.fields.password)
}

func (m LoginModel) View() string {
	header := lipgloss.NewStyle().Bold(true).Render("Kasa: sign in")

	body := m.form.View()
	if m.busy {
		body = "Signing in..."
	}

	parts := []string{header, "", body}
	if m.err != nil {
		parts = append(parts, "", renderError(m.err))
	}

	parts = append(parts, "", faintStyle.Render("ctrl+c: quit"))

	return lipgloss.NewStyle().Padding(2).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

type loginResultMsg struct {
	user *user.User
	err  error
}

func (m LoginModel) authenticateCmd(login, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		u, err := m.users.Authenticate(ctx, strings.TrimSpace(login), password)
		if errors.Is(err, user.ErrInvalidCredentials) {
			err = errors.New("wrong login or password")
		}

		return loginResultMsg{user: u, err: err}
	}
}

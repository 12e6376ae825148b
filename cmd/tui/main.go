package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/kasa/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/kasa/internal/config"
	"github.com/MrJamesThe3rd/kasa/internal/database"
	"github.com/MrJamesThe3rd/kasa/internal/events/kafka"
	"github.com/MrJamesThe3rd/kasa/internal/export"
	"github.com/MrJamesThe3rd/kasa/internal/importer"
	"github.com/MrJamesThe3rd/kasa/internal/logging"
	"github.com/MrJamesThe3rd/kasa/internal/receipt"
	receiptStore "github.com/MrJamesThe3rd/kasa/internal/receipt/store"
	"github.com/MrJamesThe3rd/kasa/internal/user"
	userStore "github.com/MrJamesThe3rd/kasa/internal/user/store"
)

type View int

const (
	ViewLogin View = iota
	ViewMenu
	ViewNewReceipt
	ViewImport
	ViewList
	ViewReceipt
	ViewExport
)

type model struct {
	cfg            *config.Config
	userService    *user.Service
	receiptService *receipt.Service
	importService  *importer.Service
	exportService  *export.Service

	owner       receipt.Owner
	currentView View
	returnTo    View

	loginView   view.LoginModel
	newView     view.NewReceiptModel
	importView  view.ImportModel
	listView    view.ListModel
	receiptView view.ReceiptModel
	exportView  view.ExportModel
}

func newModel(cfg *config.Config, users *user.Service, receipts *receipt.Service) model {
	return model{
		cfg:            cfg,
		userService:    users,
		receiptService: receipts,
		importService:  importer.NewService(),
		exportService:  export.NewService(receipts),
		currentView:    ViewLogin,
		loginView:      view.NewLoginModel(users),
	}
}

func (m model) Init() tea.Cmd {
	return m.loginView.Init()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			return m.updateMenu(msg)
		}
	case view.LoggedInMsg:
		m.owner = msg.Owner
		m.currentView = ViewMenu

		return m, nil
	case view.ShowReceiptMsg:
		if m.currentView == ViewList {
			m.returnTo = ViewList
		} else {
			m.returnTo = ViewMenu
		}

		m.receiptView = view.NewReceiptViewModel(msg.Receipt, m.cfg.Receipt.DefaultWidth, m.cfg.Receipt.MaxWidth)
		m.currentView = ViewReceipt

		return m, m.receiptView.Init()
	case view.ImportedItemsMsg:
		m.newView = view.NewNewReceiptModel(m.receiptService, m.owner, msg.Items)
		m.currentView = ViewNewReceipt

		return m, m.newView.Init()
	case view.BackMsg:
		if m.currentView == ViewReceipt && m.returnTo == ViewList {
			m.currentView = ViewList
			m.returnTo = ViewMenu

			return m, nil
		}

		m.currentView = ViewMenu

		return m, nil
	}

	var (
		newModel tea.Model
		cmd      tea.Cmd
	)

	switch m.currentView {
	case ViewLogin:
		newModel, cmd = m.loginView.Update(msg)
		m.loginView = newModel.(view.LoginModel)
	case ViewNewReceipt:
		newModel, cmd = m.newView.Update(msg)
		m.newView = newModel.(view.NewReceiptModel)
	case ViewImport:
		newModel, cmd = m.importView.Update(msg)
		m.importView = newModel.(view.ImportModel)
	case ViewList:
		newModel, cmd = m.listView.Update(msg)
		m.listView = newModel.(view.ListModel)
	case ViewReceipt:
		newModel, cmd = m.receiptView.Update(msg)
		m.receiptView = newModel.(view.ReceiptModel)
	case ViewExport:
		newModel, cmd = m.exportView.Update(msg)
		m.exportView = newModel.(view.ExportModel)
	}

	return m, cmd
}

func (m model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "1":
		m.currentView = ViewNewReceipt
		m.newView = view.NewNewReceiptModel(m.receiptService, m.owner, nil)

		return m, m.newView.Init()
	case "2":
		m.currentView = ViewImport
		m.importView = view.NewImportModel(m.importService)

		return m, m.importView.Init()
	case "3":
		m.currentView = ViewList
		m.listView = view.NewListModel(m.receiptService, m.owner)

		return m, m.listView.Init()
	case "4":
		m.currentView = ViewExport
		m.exportView = view.NewExportModel(m.exportService, m.owner, m.cfg.Receipt.DefaultWidth)

		return m, m.exportView.Init()
	case "l":
		m.owner = receipt.Owner{}
		m.currentView = ViewLogin
		m.loginView = view.NewLoginModel(m.userService)

		return m, m.loginView.Init()
	}

	return m, nil
}

func (m model) View() string {
	switch m.currentView {
	case ViewLogin:
		return m.loginView.View()
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			fmt.Sprintf("Kasa | %s\n\n", m.owner.Name) +
				"1. New Receipt\n" +
				"2. Import Products From File\n" +
				"3. Receipts\n" +
				"4. Export Receipts\n\n" +
				"l. Sign Out\n" +
				"q. Quit",
		)
	case ViewNewReceipt:
		return m.newView.View()
	case ViewImport:
		return m.importView.View()
	case ViewList:
		return m.listView.View()
	case ViewReceipt:
		return m.receiptView.View()
	case ViewExport:
		return m.exportView.View()
	}

	return "Unknown View"
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// The terminal belongs to the UI, so logs go to a file.
	logFile, err := os.OpenFile("kasa-tui.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()

	logging.InitWriter(logFile, cfg.App.Name+"-tui", cfg.App.LogLevel, cfg.App.Env)

	db, err := database.New(context.Background(), cfg.ConnectionString(), database.PoolConfig{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	users := user.NewService(userStore.New(db), cfg.Auth.BcryptCost)

	var publisher interface {
		receipt.Publisher
		Close() error
	} = kafka.Noop{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}
	defer publisher.Close()

	receipts := receipt.NewService(receiptStore.New(db), publisher)

	if _, err := tea.NewProgram(newModel(cfg, users, receipts), tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		slog.Error("kasa tui failed", "error", err)
		os.Exit(1)
	}
}

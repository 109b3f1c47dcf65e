package main

import (
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/mgoncalv/quotedesk/cmd/tui/internal/view"
	"github.com/mgoncalv/quotedesk/internal/config"
	"github.com/mgoncalv/quotedesk/internal/database"
	"github.com/mgoncalv/quotedesk/internal/delivery"
	"github.com/mgoncalv/quotedesk/internal/importer"
	"github.com/mgoncalv/quotedesk/internal/pricebook"
	pbStore "github.com/mgoncalv/quotedesk/internal/pricebook/store"
	"github.com/mgoncalv/quotedesk/internal/quote"
	quoteStore "github.com/mgoncalv/quotedesk/internal/quote/store"
)

type model struct {
	quoteService  *quote.Service
	pricebookSvc  *pricebook.Service
	importService *importer.Service

	currentView View

	boardView  view.BoardModel
	detailView view.DetailModel
	newView    view.NewQuoteModel
	importView view.ImportBookModel
}

type View int

const (
	ViewMenu   View = 0
	ViewBoard  View = 1
	ViewDetail View = 2
	ViewNew    View = 3
	ViewImport View = 4
)

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	defaults := quote.Defaults{
		TaxRate:       decimal.NewFromFloat(cfg.Quote.DefaultTaxRate),
		MarginPercent: decimal.NewFromFloat(cfg.Quote.DefaultMarginPercent),
		ValidFor:      time.Duration(cfg.Quote.ValidForDays) * 24 * time.Hour,
	}

	deliverySvc := delivery.NewService(cfg.Delivery.BaseURL, cfg.Delivery.Token)
	quoteSvc := quote.NewService(quoteStore.New(db), deliverySvc, defaults)
	pbSvc := pricebook.NewService(pbStore.New(db))
	impSvc := importer.NewService()

	return model{
		quoteService:  quoteSvc,
		pricebookSvc:  pbSvc,
		importService: impSvc,
		currentView:   ViewMenu,
		boardView:     view.NewBoardModel(quoteSvc),
		newView:       view.NewNewQuoteModel(quoteSvc),
		importView:    view.NewImportBookModel(impSvc, pbSvc),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewBoard
				m.boardView = view.NewBoardModel(m.quoteService)

				return m, m.boardView.Init()
			case "2":
				m.currentView = ViewNew
				m.newView = view.NewNewQuoteModel(m.quoteService)

				return m, m.newView.Init()
			case "3":
				m.currentView = ViewImport
				m.importView = view.NewImportBookModel(m.importService, m.pricebookSvc)

				return m, m.importView.Init()
			}
		}
	case view.OpenQuoteMsg:
		m.currentView = ViewDetail
		m.detailView = view.NewDetailModel(m.quoteService, m.pricebookSvc, msg.Quote)

		return m, m.detailView.Init()
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewBoard:
		var newModel tea.Model
		newModel, cmd = m.boardView.Update(msg)
		m.boardView = newModel.(view.BoardModel)
	case ViewDetail:
		var newModel tea.Model
		newModel, cmd = m.detailView.Update(msg)
		m.detailView = newModel.(view.DetailModel)
	case ViewNew:
		var newModel tea.Model
		newModel, cmd = m.newView.Update(msg)
		m.newView = newModel.(view.NewQuoteModel)
	case ViewImport:
		var newModel tea.Model
		newModel, cmd = m.importView.Update(msg)
		m.importView = newModel.(view.ImportBookModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"QuoteDesk TUI\n\n" +
				"1. Quote Board\n" +
				"2. New Quote\n" +
				"3. Import Price List\n\n" +
				"q. Quit",
		)
	case ViewBoard:
		return m.boardView.View()
	case ViewDetail:
		return m.detailView.View()
	case ViewNew:
		return m.newView.View()
	case ViewImport:
		return m.importView.View()
	}

	return "Unknown View"
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}

package view

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/mgoncalv/quotedesk/internal/quote"
)

// NewQuoteModel collects the customer and pricing knobs for a fresh draft.
// Tax rate and margin left blank fall back to the configured defaults.
type NewQuoteModel struct {
	CommonModel
	quoteService *quote.Service
	form         *huh.Form
	status       string

	formCustomer string
	formTier     string
	formTaxRate  string
	formMargin   string
}

func NewNewQuoteModel(quoteSvc *quote.Service) NewQuoteModel {
	m := NewQuoteModel{
		quoteService: quoteSvc,
		formTier:     string(quote.TierBetter),
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("customer").
				Title("Customer").
				Value(&m.formCustomer).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("customer name cannot be empty")
					}
					return nil
				}),

			huh.NewSelect[string]().
				Key("tier").
				Title("Tier").
				Options(
					huh.NewOption("Good", string(quote.TierGood)),
					huh.NewOption("Better", string(quote.TierBetter)),
					huh.NewOption("Best", string(quote.TierBest)),
				).
				Value(&m.formTier),

			huh.NewInput().
				Key("tax_rate").
				Title("Tax Rate").
				Placeholder("blank = default").
				Value(&m.formTaxRate),

			huh.NewInput().
				Key("margin").
				Title("Margin %").
				Placeholder("blank = default").
				Value(&m.formMargin),
		),
	).WithWidth(50).WithShowHelp(false)

	return m
}

func (m NewQuoteModel) Title() string { return "New Quote" }

func (m NewQuoteModel) ShortHelp() string {
	return "Navigate form | Esc: back"
}

func (m NewQuoteModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m NewQuoteModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m, Back
		}
	case createQuoteMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}

		return m, func() tea.Msg { return OpenQuoteMsg{Quote: msg.quote} }
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	params, err := m.buildParams()
	if err != nil {
		m.status = fmt.Sprintf("Error: %v", err)
		return m, nil
	}

	m.status = "Creating..."

	return m, m.createCmd(params)
}

func (m NewQuoteModel) buildParams() (quote.CreateParams, error) {
	params := quote.CreateParams{
		CustomerName: strings.TrimSpace(m.formCustomer),
		Tier:         quote.Tier(m.formTier),
	}

	if s := strings.TrimSpace(m.formTaxRate); s != "" {
		rate, err := decimal.NewFromString(s)
		if err != nil {
			return quote.CreateParams{}, fmt.Errorf("invalid tax rate %q", s)
		}

		params.TaxRate = &rate
	}

	if s := strings.TrimSpace(m.formMargin); s != "" {
		margin, err := decimal.NewFromString(s)
		if err != nil {
			return quote.CreateParams{}, fmt.Errorf("invalid margin %q", s)
		}

		params.MarginPercent = &margin
	}

	return params, nil
}

func (m NewQuoteModel) View() string {
	content := m.form.View()
	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n\n" + content
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(content)
}

type createQuoteMsg struct {
	quote *quote.Quote
	err   error
}

func (m NewQuoteModel) createCmd(params quote.CreateParams) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		created, err := m.quoteService.Create(ctx, params)

		return createQuoteMsg{quote: created, err: err}
	}
}

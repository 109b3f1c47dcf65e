package view

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/mgoncalv/quotedesk/internal/quote"
)

type boardState int

const (
	boardStateBrowse boardState = iota
	boardStateConfirmDelete
)

// BoardModel is the quote board: every open quote, filterable by status.
type BoardModel struct {
	CommonModel
	quoteService *quote.Service

	state  boardState
	table  table.Model
	quotes []*quote.Quote

	statusFilterIdx int
	filter          quote.ListFilter

	loading bool
	err     error
	status  string
}

func NewBoardModel(quoteSvc *quote.Service) BoardModel {
	columns := []table.Column{
		{Title: "Created", Width: 12},
		{Title: "Status", Width: 10},
		{Title: "Tier", Width: 8},
		{Title: "Customer", Width: 28},
		{Title: "Total", Width: 12},
		{Title: "Profit", Width: 12},
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

	return BoardModel{
		quoteService: quoteSvc,
		table:        t,
		filter:       quote.ListFilter{},
	}
}

func (m BoardModel) Title() string { return "Quote Board" }

func (m BoardModel) ShortHelp() string {
	if m.state == boardStateConfirmDelete {
		return "y: delete | n: cancel"
	}

	return "Esc: back | Enter: open | s: status filter | x: delete draft | r: refresh"
}

func (m BoardModel) Init() tea.Cmd {
	return m.loadQuotesCmd()
}

func (m BoardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadBoardMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.quotes = msg.quotes
		m.err = nil
		m.refreshTable()

		return m, nil

	case deleteQuoteMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error deleting: %v", msg.err)
		} else {
			m.status = "Draft deleted."
		}

		m.state = boardStateBrowse

		return m, m.loadQuotesCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	switch m.state {
	case boardStateBrowse:
		return m.updateBrowse(msg)
	case boardStateConfirmDelete:
		return m.updateConfirmDelete(msg)
	}

	return m, nil
}

func (m BoardModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadQuotesCmd()
		case "s":
			m.statusFilterIdx = (m.statusFilterIdx + 1) % 7
			m.applyFilter()

			return m, m.loadQuotesCmd()
		case "x":
			if q := m.selectedQuote(); q != nil {
				if q.Status != quote.StatusDraft {
					m.status = "Only drafts can be deleted."
					return m, nil
				}

				m.state = boardStateConfirmDelete
			}

			return m, nil
		case "enter":
			if q := m.selectedQuote(); q != nil {
				return m, m.openQuoteCmd(q.ID)
			}

			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m BoardModel) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "y":
		q := m.selectedQuote()
		if q == nil {
			m.state = boardStateBrowse
			return m, nil
		}

		return m, m.deleteQuoteCmd(q)
	case "n", "esc":
		m.state = boardStateBrowse
	}

	return m, nil
}

func (m BoardModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading quotes...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	filterLabels := []string{"All", "Draft", "Sent", "Viewed", "Accepted", "Rejected", "Expired"}

	header := fmt.Sprintf("Filter: [s] Status: %s",
		lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(filterLabels[m.statusFilterIdx]))

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	if m.state == boardStateConfirmDelete {
		if q := m.selectedQuote(); q != nil {
			panel := lipgloss.NewStyle().
				Padding(1, 2).
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("196")).
				Render(fmt.Sprintf("Delete draft for %s?\n\n(y/n)", q.CustomerName))

			content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
		}
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m BoardModel) selectedQuote() *quote.Quote {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.quotes) {
		return nil
	}

	return m.quotes[idx]
}

func (m *BoardModel) applyFilter() {
	statuses := []quote.Status{
		quote.StatusDraft, quote.StatusSent, quote.StatusViewed,
		quote.StatusAccepted, quote.StatusRejected, quote.StatusExpired,
	}

	if m.statusFilterIdx == 0 {
		m.filter.Status = nil
		return
	}

	m.filter.Status = &statuses[m.statusFilterIdx-1]
}

func (m *BoardModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.quotes))
	for _, q := range m.quotes {
		rows = append(rows, table.Row{
			FormatDate(q.CreatedAt),
			string(q.Status),
			string(q.Tier),
			q.CustomerName,
			FormatMoney(q.Total),
			FormatMoney(q.Profit),
		})
	}

	m.table.SetRows(rows)
}

// Messages

type loadBoardMsg struct {
	quotes []*quote.Quote
	err    error
}

func (m BoardModel) loadQuotesCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		quotes, err := m.quoteService.List(ctx, m.filter)

		return loadBoardMsg{quotes: quotes, err: err}
	}
}

// openQuoteCmd re-reads the quote so the detail screen starts from the
// store's copy, ledger included.
func (m BoardModel) openQuoteCmd(id uuid.UUID) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		q, err := m.quoteService.Get(ctx, id)
		if err != nil {
			return loadBoardMsg{err: err}
		}

		return OpenQuoteMsg{Quote: q}
	}
}

type deleteQuoteMsg struct {
	err error
}

func (m BoardModel) deleteQuoteCmd(q *quote.Quote) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		return deleteQuoteMsg{err: m.quoteService.Delete(ctx, q.ID)}
	}
}

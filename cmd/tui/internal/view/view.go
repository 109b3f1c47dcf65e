package view

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mgoncalv/quotedesk/internal/quote"
)

// View is the interface that all TUI screens implement.
type View interface {
	tea.Model
	Title() string
	ShortHelp() string
}

// CommonModel is embedded by all views.
type CommonModel struct{}

type BackMsg struct{}

func Back() tea.Msg {
	return BackMsg{}
}

// OpenQuoteMsg asks the root model to open the detail screen for a quote.
type OpenQuoteMsg struct {
	Quote *quote.Quote
}

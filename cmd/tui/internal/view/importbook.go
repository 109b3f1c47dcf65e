package view

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/mgoncalv/quotedesk/internal/importer"
	"github.com/mgoncalv/quotedesk/internal/pricebook"
)

type importState int

const (
	importStateForm importState = iota
	importStateRunning
	importStateDone
)

// ImportBookModel loads a supplier price list from a CSV file into the
// price book.
type ImportBookModel struct {
	CommonModel
	importService *importer.Service
	pricebookSvc  *pricebook.Service

	state   importState
	form    *huh.Form
	spinner spinner.Model
	result  string

	formPath string
}

func NewImportBookModel(importSvc *importer.Service, pricebookSvc *pricebook.Service) ImportBookModel {
	s := spinner.New()
	s.Spinner = spinner.Dot

	m := ImportBookModel{
		importService: importSvc,
		pricebookSvc:  pricebookSvc,
		spinner:       s,
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("path").
				Title("Price list CSV").
				Placeholder("/path/to/pricelist.csv").
				Value(&m.formPath).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("path cannot be empty")
					}
					return nil
				}),
		),
	).WithWidth(60).WithShowHelp(false)

	return m
}

func (m ImportBookModel) Title() string { return "Import Price List" }

func (m ImportBookModel) ShortHelp() string {
	switch m.state {
	case importStateRunning:
		return "Importing..."
	case importStateDone:
		return "Esc: back"
	}

	return "Enter: import | Esc: back"
}

func (m ImportBookModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m ImportBookModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc && m.state != importStateRunning {
			return m, Back
		}
	case importDoneMsg:
		m.state = importStateDone
		if msg.err != nil {
			m.result = fmt.Sprintf("Import failed: %v", msg.err)
		} else {
			m.result = fmt.Sprintf("Imported %d of %d entries.", msg.stored, msg.parsed)
		}

		return m, nil
	}

	switch m.state {
	case importStateForm:
		form, cmd := m.form.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.form = f
		}

		if m.form.State != huh.StateCompleted {
			return m, cmd
		}

		m.state = importStateRunning

		return m, tea.Batch(m.spinner.Tick, m.importCmd(strings.TrimSpace(m.formPath)))

	case importStateRunning:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	return m, nil
}

func (m ImportBookModel) View() string {
	switch m.state {
	case importStateRunning:
		return lipgloss.NewStyle().Padding(1, 2).Render(
			fmt.Sprintf("%s Importing price list...", m.spinner.View()),
		)
	case importStateDone:
		return lipgloss.NewStyle().Padding(1, 2).Render(m.result)
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
}

type importDoneMsg struct {
	parsed int
	stored int
	err    error
}

func (m ImportBookModel) importCmd(path string) tea.Cmd {
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return importDoneMsg{err: err}
		}
		defer f.Close()

		entries, err := m.importService.Import(importer.SourceCSV, f)
		if err != nil {
			return importDoneMsg{err: err}
		}

		ctx, cancel := ReqCtx()
		defer cancel()

		stored, err := m.pricebookSvc.ImportBatch(ctx, entries)

		return importDoneMsg{parsed: len(entries), stored: stored, err: err}
	}
}

package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/mgoncalv/quotedesk/internal/editor"
	"github.com/mgoncalv/quotedesk/internal/pricebook"
	"github.com/mgoncalv/quotedesk/internal/quote"
)

type detailState int

const (
	detailStateBrowse detailState = iota
	detailStateItemForm
	detailStateConfirmRemove
	detailStateSend
	detailStateStatus
)

// DetailModel is the quote-detail screen: the ledger, live totals, and the
// save/send/status actions. All gating decisions come from the editor.
type DetailModel struct {
	CommonModel
	quoteService *quote.Service
	pricebookSvc *pricebook.Service

	ed    *editor.Editor
	state detailState

	itemsTable table.Model
	form       *huh.Form
	editIdx    int // -1 while adding

	status string

	// Form field bindings
	formType  string
	formDesc  string
	formQty   string
	formPrice string
}

func NewDetailModel(quoteSvc *quote.Service, pricebookSvc *pricebook.Service, q *quote.Quote) DetailModel {
	columns := []table.Column{
		{Title: "#", Width: 3},
		{Title: "Type", Width: 10},
		{Title: "Description", Width: 36},
		{Title: "Qty", Width: 8},
		{Title: "Unit Price", Width: 12},
		{Title: "Total", Width: 12},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
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

	m := DetailModel{
		quoteService: quoteSvc,
		pricebookSvc: pricebookSvc,
		ed:           editor.New(q, editor.Options{}),
		itemsTable:   t,
		editIdx:      -1,
	}
	m.refreshItems()

	return m
}

func (m DetailModel) Title() string { return "Quote Detail" }

func (m DetailModel) ShortHelp() string {
	switch m.state {
	case detailStateItemForm:
		return "Navigate form | Esc: cancel"
	case detailStateConfirmRemove:
		return "y: remove | n: cancel"
	case detailStateSend:
		return "e: email | s: sms | Esc: cancel"
	case detailStateStatus:
		return "v: viewed | a: accepted | r: rejected | Esc: cancel"
	}

	return "Esc: back | a: add | e: edit | d: delete | ctrl+s: save | n: send | u: status"
}

func (m DetailModel) Init() tea.Cmd {
	return nil
}

func (m DetailModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case saveResultMsg:
		if err := m.ed.FinishSave(msg.rev, msg.quote, msg.err); err != nil {
			m.status = fmt.Sprintf("Save failed: %v", err)
			return m, nil
		}

		m.status = "Saved."
		m.refreshItems()

		return m, m.learnPricesCmd()

	case sendResultMsg:
		if err := m.ed.FinishSend(msg.rev, msg.quote, msg.err); err != nil {
			m.status = fmt.Sprintf("Send failed: %v", err)
			return m, nil
		}

		m.status = fmt.Sprintf("Quote sent via %s.", msg.method)
		m.refreshItems()

		return m, nil

	case statusResultMsg:
		if err := m.ed.FinishStatus(msg.rev, msg.quote, msg.err); err != nil {
			m.status = fmt.Sprintf("Status update failed: %v", err)
			return m, nil
		}

		m.status = fmt.Sprintf("Status is now %s.", m.ed.Quote().Status)
		m.refreshItems()

		return m, nil

	case tea.WindowSizeMsg:
		m.itemsTable.SetHeight(msg.Height - 14)
		return m, nil
	}

	switch m.state {
	case detailStateBrowse:
		return m.updateBrowse(msg)
	case detailStateItemForm:
		return m.updateItemForm(msg)
	case detailStateConfirmRemove:
		return m.updateConfirmRemove(msg)
	case detailStateSend:
		return m.updateSend(msg)
	case detailStateStatus:
		return m.updateStatus(msg)
	}

	return m, nil
}

func (m DetailModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			m.ed.Close()
			return m, Back
		case "a":
			return m.startItemForm(-1)
		case "e":
			idx := m.itemsTable.Cursor()
			if idx >= 0 && idx < len(m.ed.Items()) {
				return m.startItemForm(idx)
			}

			return m, nil
		case "d":
			idx := m.itemsTable.Cursor()
			if idx >= 0 && idx < len(m.ed.Items()) {
				if !m.ed.Quote().Status.Editable() {
					m.status = "Quote is read-only once sent."
					return m, nil
				}

				m.state = detailStateConfirmRemove
			}

			return m, nil
		case "ctrl+s":
			return m.startSave()
		case "n":
			if m.ed.Dirty() {
				m.status = "Unsaved changes. Save before sending."
				return m, nil
			}

			m.state = detailStateSend

			return m, nil
		case "u":
			m.state = detailStateStatus
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.itemsTable, cmd = m.itemsTable.Update(msg)

	return m, cmd
}

func (m DetailModel) startItemForm(idx int) (tea.Model, tea.Cmd) {
	if !m.ed.Quote().Status.Editable() {
		m.status = "Quote is read-only once sent."
		return m, nil
	}

	m.editIdx = idx
	m.formType = string(quote.ItemEquipment)
	m.formDesc = ""
	m.formQty = "1"
	m.formPrice = ""

	if idx >= 0 {
		item := m.ed.Items()[idx]
		m.formType = string(item.Type)
		m.formDesc = item.Description
		m.formQty = item.Quantity.String()
		m.formPrice = item.UnitPrice.String()
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("item_type").
				Title("Type").
				Options(
					huh.NewOption("Equipment", string(quote.ItemEquipment)),
					huh.NewOption("Labor", string(quote.ItemLabor)),
					huh.NewOption("Materials", string(quote.ItemMaterials)),
					huh.NewOption("Other", string(quote.ItemOther)),
				).
				Value(&m.formType),

			huh.NewInput().
				Key("description").
				Title("Description").
				Value(&m.formDesc).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("description cannot be empty")
					}
					return nil
				}),

			huh.NewInput().
				Key("quantity").
				Title("Quantity").
				Value(&m.formQty),

			huh.NewInput().
				Key("unit_price").
				Title("Unit Price").
				Placeholder("blank = use price book").
				Value(&m.formPrice),
		),
	).WithWidth(50).WithShowHelp(false)

	m.state = detailStateItemForm

	return m, m.form.Init()
}

func (m DetailModel) updateItemForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = detailStateBrowse
			m.form = nil

			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m.applyItemForm()
}

// applyItemForm commits the completed form to the ledger. A blank unit
// price is filled from the price book when a match exists.
func (m DetailModel) applyItemForm() (tea.Model, tea.Cmd) {
	input := editor.ItemInput{
		Type:        quote.ItemType(m.formType),
		Description: m.formDesc,
		Quantity:    m.formQty,
		UnitPrice:   m.formPrice,
	}

	if strings.TrimSpace(input.UnitPrice) == "" {
		ctx, cancel := ReqCtx()
		defer cancel()

		entry, _ := m.pricebookSvc.Suggest(ctx, input.Description)
		if entry != nil {
			input.UnitPrice = entry.UnitPrice.String()
			m.status = fmt.Sprintf("Price book: %s at %s", entry.Description, FormatMoney(entry.UnitPrice))
		}
	}

	var err error
	if m.editIdx >= 0 {
		err = m.ed.UpdateItem(m.editIdx, input)
	} else {
		err = m.ed.AddItem(input)
	}

	m.state = detailStateBrowse
	m.form = nil

	if err != nil {
		m.status = fmt.Sprintf("Error: %v", err)
		return m, nil
	}

	m.refreshItems()

	return m, nil
}

func (m DetailModel) updateConfirmRemove(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "y":
		if err := m.ed.RemoveItem(m.itemsTable.Cursor()); err != nil {
			m.status = fmt.Sprintf("Error: %v", err)
		} else {
			m.refreshItems()
		}

		m.state = detailStateBrowse
	case "n", "esc":
		m.state = detailStateBrowse
	}

	return m, nil
}

func (m DetailModel) startSave() (tea.Model, tea.Cmd) {
	snapshot, rev, err := m.ed.BeginSave()
	if err != nil {
		m.status = fmt.Sprintf("Error: %v", err)
		return m, nil
	}

	m.status = "Saving..."

	return m, m.saveCmd(snapshot, rev)
}

func (m DetailModel) updateSend(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	var method quote.SendMethod

	switch keyMsg.String() {
	case "e":
		method = quote.SendEmail
	case "s":
		method = quote.SendSMS
	case "esc":
		m.state = detailStateBrowse
		return m, nil
	default:
		return m, nil
	}

	rev, err := m.ed.BeginSend(method)
	if err != nil {
		m.status = fmt.Sprintf("Error: %v", err)
		m.state = detailStateBrowse

		return m, nil
	}

	m.state = detailStateBrowse
	m.status = "Sending..."

	return m, m.sendCmd(method, rev)
}

func (m DetailModel) updateStatus(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	var to quote.Status

	// Expiry is deliberately absent: it is time-based and reflected from
	// the store, never set by hand from this screen.
	switch keyMsg.String() {
	case "v":
		to = quote.StatusViewed
	case "a":
		to = quote.StatusAccepted
	case "r":
		to = quote.StatusRejected
	case "esc":
		m.state = detailStateBrowse
		return m, nil
	default:
		return m, nil
	}

	rev, err := m.ed.BeginStatus(to)
	if err != nil {
		m.status = fmt.Sprintf("Error: %v", err)
		m.state = detailStateBrowse

		return m, nil
	}

	m.state = detailStateBrowse
	m.status = "Updating status..."

	return m, m.statusCmd(to, rev)
}

func (m DetailModel) View() string {
	q := m.ed.Quote()

	dirtyMark := ""
	if m.ed.Dirty() {
		dirtyMark = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Render(" [unsaved]")
	}

	header := fmt.Sprintf("%s  [%s]  %s tier%s", q.CustomerName, q.Status, q.Tier, dirtyMark)

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.itemsTable.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Bold(true).PaddingBottom(1).Render(header),
		tableView,
		m.totalsView(),
	)

	switch m.state {
	case detailStateItemForm:
		if m.form != nil {
			panel := lipgloss.NewStyle().
				Padding(1, 2).
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("63")).
				Width(54).
				Render("Line Item\n\n" + m.form.View())

			content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
		}
	case detailStateConfirmRemove:
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("196")).
			Render("Remove this line item?\n\n(y/n)")

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	case detailStateSend:
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Render("Send quote via:\n\n(e) Email  (s) SMS")

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	case detailStateStatus:
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Render("Set status:\n\n(v) Viewed\n(a) Accepted\n(r) Rejected")

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m DetailModel) totalsView() string {
	totals, err := m.ed.Totals()
	if err != nil {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(fmt.Sprintf("Totals unavailable: %v", err))
	}

	left := fmt.Sprintf(
		"Equipment: %s\nLabor:     %s\nMaterials: %s\nSubtotal:  %s",
		FormatMoney(totals.Equipment), FormatMoney(totals.Labor),
		FormatMoney(totals.Materials), FormatMoney(totals.Subtotal),
	)

	right := fmt.Sprintf(
		"Tax:    %s\nTotal:  %s\nCost:   %s\nProfit: %s",
		FormatMoney(totals.Tax), FormatMoney(totals.Total),
		FormatMoney(totals.Cost), FormatMoney(totals.Profit),
	)

	box := lipgloss.NewStyle().Padding(0, 2)

	return lipgloss.JoinHorizontal(lipgloss.Top, box.Render(left), box.Render(right))
}

func (m *DetailModel) refreshItems() {
	items := m.ed.Items()

	rows := make([]table.Row, 0, len(items))
	for i, item := range items {
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", i+1),
			string(item.Type),
			item.Description,
			item.Quantity.String(),
			FormatMoney(item.UnitPrice),
			FormatMoney(item.Total),
		})
	}

	m.itemsTable.SetRows(rows)
}

// Messages

type saveResultMsg struct {
	rev   int
	quote *quote.Quote
	err   error
}

func (m DetailModel) saveCmd(snapshot *quote.Quote, rev int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		saved, err := m.quoteService.Save(ctx, snapshot)

		return saveResultMsg{rev: rev, quote: saved, err: err}
	}
}

// learnPricesCmd feeds the saved ledger back into the price book so the
// next quote starts from today's prices. Best effort only.
func (m DetailModel) learnPricesCmd() tea.Cmd {
	items := m.ed.Items()

	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		for _, item := range items {
			_ = m.pricebookSvc.Learn(ctx, pricebook.Entry{
				Description: item.Description,
				Type:        item.Type,
				UnitPrice:   item.UnitPrice,
			})
		}

		return nil
	}
}

type sendResultMsg struct {
	rev    int
	method quote.SendMethod
	quote  *quote.Quote
	err    error
}

func (m DetailModel) sendCmd(method quote.SendMethod, rev int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		sent, err := m.quoteService.Send(ctx, m.ed.Quote().ID, method)

		return sendResultMsg{rev: rev, method: method, quote: sent, err: err}
	}
}

type statusResultMsg struct {
	rev   int
	quote *quote.Quote
	err   error
}

func (m DetailModel) statusCmd(to quote.Status, rev int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		updated, err := m.quoteService.UpdateStatus(ctx, m.ed.Quote().ID, to)

		return statusResultMsg{rev: rev, quote: updated, err: err}
	}
}

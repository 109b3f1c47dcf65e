// Package editor holds the in-memory line-item ledger for a quote being
// edited. All mutation and derivation is synchronous; the only asynchronous
// work is the remote save/send/status round-trip, which is bracketed by
// Begin*/Finish* pairs so that at most one request per quote is in flight
// and responses that arrive after the editor moved on are discarded.
package editor

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mgoncalv/quotedesk/internal/quote"
)

var (
	// ErrRequestInFlight is returned when a new remote request is started,
	// or the ledger is mutated, while another request for the same quote
	// has not finished.
	ErrRequestInFlight = errors.New("another request is already in flight")

	// ErrStaleResult is returned by Finish* when the response belongs to a
	// superseded request or a closed editor. The result must not be applied.
	ErrStaleResult = errors.New("result is stale and was discarded")
)

// Options tune local input validation.
type Options struct {
	// RejectNegative refuses negative quantities and unit prices. Off by
	// default: negative rows double as manual credits.
	RejectNegative bool
}

// ItemInput is a candidate line item as typed by the user. Quantity and
// unit price arrive as raw strings; unparsable values count as zero.
type ItemInput struct {
	Type        quote.ItemType
	Description string
	Quantity    string
	UnitPrice   string
}

type Editor struct {
	quote *quote.Quote
	items []quote.LineItem
	opts  Options

	dirty    bool
	inFlight bool
	rev      int
	closed   bool
}

// New starts an edit session over a quote fetched from the store. The
// ledger is copied; the passed quote is not mutated until a save result is
// applied.
func New(q *quote.Quote, opts Options) *Editor {
	e := &Editor{quote: q, opts: opts}
	e.items = make([]quote.LineItem, len(q.LineItems))
	copy(e.items, q.LineItems)

	return e
}

func (e *Editor) Quote() *quote.Quote { return e.quote }
func (e *Editor) Dirty() bool         { return e.dirty }
func (e *Editor) InFlight() bool      { return e.inFlight }

// Items returns a copy of the ledger in insertion order.
func (e *Editor) Items() []quote.LineItem {
	items := make([]quote.LineItem, len(e.items))
	copy(items, e.items)

	return items
}

// Totals derives the totals record from the current ledger. Nothing is
// cached: every call recomputes from scratch.
func (e *Editor) Totals() (quote.Totals, error) {
	return quote.DeriveTotals(e.items, e.quote.TaxRate, e.quote.MarginPercent)
}

// AddItem appends a validated line item and marks the ledger dirty. The
// ledger is untouched when validation fails, the quote is not editable, or
// a request is in flight.
func (e *Editor) AddItem(input ItemInput) error {
	if err := e.mutable(); err != nil {
		return err
	}

	item, err := e.buildItem(input)
	if err != nil {
		return err
	}

	e.items = append(e.items, item)
	e.dirty = true

	return nil
}

// UpdateItem replaces the item at index with a freshly validated one.
func (e *Editor) UpdateItem(index int, input ItemInput) error {
	if err := e.mutable(); err != nil {
		return err
	}

	if index < 0 || index >= len(e.items) {
		return &quote.ValidationError{Field: "index", Reason: "out of range"}
	}

	item, err := e.buildItem(input)
	if err != nil {
		return err
	}

	e.items[index] = item
	e.dirty = true

	return nil
}

// RemoveItem deletes the item at index. Confirmation is a UI concern; given
// a valid index the removal is unconditional.
func (e *Editor) RemoveItem(index int) error {
	if err := e.mutable(); err != nil {
		return err
	}

	if index < 0 || index >= len(e.items) {
		return &quote.ValidationError{Field: "index", Reason: "out of range"}
	}

	e.items = append(e.items[:index], e.items[index+1:]...)
	e.dirty = true

	return nil
}

// mutable gates every ledger mutation. Edits while a save is in flight are
// refused rather than queued: a FinishSave would otherwise replace the
// ledger with the pre-edit snapshot and silently drop the edit.
func (e *Editor) mutable() error {
	if !e.quote.Status.Editable() {
		return quote.ErrEditNotAllowed
	}

	if e.inFlight {
		return ErrRequestInFlight
	}

	return nil
}

func (e *Editor) buildItem(input ItemInput) (quote.LineItem, error) {
	qty := parseAmount(input.Quantity)
	price := parseAmount(input.UnitPrice)

	if e.opts.RejectNegative {
		if qty.IsNegative() {
			return quote.LineItem{}, &quote.ValidationError{Field: "quantity", Reason: "must not be negative"}
		}

		if price.IsNegative() {
			return quote.LineItem{}, &quote.ValidationError{Field: "unit_price", Reason: "must not be negative"}
		}
	}

	return quote.NewLineItem(input.Type, input.Description, qty, price)
}

// parseAmount reads a user-typed number. Anything unparsable, including the
// empty string, is treated as zero.
func parseAmount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}

	return d
}

// BeginSave snapshots the ledger with freshly derived totals for the remote
// write and marks a request in flight. The returned revision must be handed
// back to FinishSave.
func (e *Editor) BeginSave() (*quote.Quote, int, error) {
	if !e.quote.Status.Editable() {
		return nil, 0, quote.ErrEditNotAllowed
	}

	totals, err := e.Totals()
	if err != nil {
		return nil, 0, err
	}

	rev, err := e.begin()
	if err != nil {
		return nil, 0, err
	}

	snapshot := *e.quote
	snapshot.LineItems = e.Items()
	snapshot.ApplyTotals(totals)

	return &snapshot, rev, nil
}

// FinishSave applies the outcome of the save request. On success the stored
// quote replaces the local state and the dirty flag clears; on failure the
// ledger stays dirty so the user can retry without losing edits.
func (e *Editor) FinishSave(rev int, saved *quote.Quote, reqErr error) error {
	if !e.finish(rev) {
		return ErrStaleResult
	}

	if reqErr != nil {
		return reqErr
	}

	e.refresh(saved)
	e.dirty = false

	return nil
}

// BeginSend gates the draft -> sent transition: every local edit must have
// been saved first, so the store never transmits stale totals.
func (e *Editor) BeginSend(method quote.SendMethod) (int, error) {
	if !method.IsValid() {
		return 0, &quote.ValidationError{Field: "method", Reason: "unknown send method"}
	}

	if !e.quote.Status.CanTransition(quote.StatusSent) {
		return 0, &quote.InvalidTransitionError{From: e.quote.Status, To: quote.StatusSent}
	}

	if e.dirty {
		return 0, quote.ErrUnsavedChanges
	}

	return e.begin()
}

func (e *Editor) FinishSend(rev int, sent *quote.Quote, reqErr error) error {
	if !e.finish(rev) {
		return ErrStaleResult
	}

	if reqErr != nil {
		return reqErr
	}

	e.refresh(sent)

	return nil
}

// BeginStatus starts a manual or externally reflected status change.
func (e *Editor) BeginStatus(to quote.Status) (int, error) {
	if !e.quote.Status.CanTransition(to) {
		return 0, &quote.InvalidTransitionError{From: e.quote.Status, To: to}
	}

	return e.begin()
}

func (e *Editor) FinishStatus(rev int, updated *quote.Quote, reqErr error) error {
	if !e.finish(rev) {
		return ErrStaleResult
	}

	if reqErr != nil {
		return reqErr
	}

	e.refresh(updated)

	return nil
}

// Close abandons the session. Any in-flight result is discarded when it
// lands, rather than being applied to a torn-down ledger.
func (e *Editor) Close() {
	e.closed = true
	e.rev++
}

func (e *Editor) begin() (int, error) {
	if e.inFlight {
		return 0, ErrRequestInFlight
	}

	e.inFlight = true
	e.rev++

	return e.rev, nil
}

// finish reports whether the response with the given revision may be
// applied. The identity check, not cancellation, guards stale responses.
func (e *Editor) finish(rev int) bool {
	if e.closed || rev != e.rev {
		return false
	}

	e.inFlight = false

	return true
}

// refresh replaces local state with the quote returned by the store, which
// is the single source of truth after any remote mutation.
func (e *Editor) refresh(q *quote.Quote) {
	if q == nil {
		return
	}

	e.quote = q
	e.items = make([]quote.LineItem, len(q.LineItems))
	copy(e.items, q.LineItems)
}

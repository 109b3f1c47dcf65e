package quote

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemType controls which subtotal bucket a line item lands in and whether
// it is taxed. Labor is tax exempt; everything else counts toward the
// taxable base.
type ItemType string

const (
	ItemEquipment ItemType = "equipment"
	ItemLabor     ItemType = "labor"
	ItemMaterials ItemType = "materials"
	ItemOther     ItemType = "other"
)

func (t ItemType) IsValid() bool {
	switch t {
	case ItemEquipment, ItemLabor, ItemMaterials, ItemOther:
		return true
	}

	return false
}

// Status represents the lifecycle state of a quote.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusSent     Status = "sent"
	StatusViewed   Status = "viewed"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusViewed, StatusAccepted, StatusRejected, StatusExpired:
		return true
	}

	return false
}

// Terminal reports whether no further status change is permitted.
func (s Status) Terminal() bool {
	switch s {
	case StatusAccepted, StatusRejected, StatusExpired:
		return true
	}

	return false
}

// Editable reports whether the quote's ledger may still be mutated.
// Once a quote has been transmitted it is read-only.
func (s Status) Editable() bool {
	return s == StatusDraft
}

// CanTransition reports whether the status change s -> to is legal.
// A draft must be sent before it can be accepted or rejected; viewed is
// reflected from the customer side; expiry is time-based and only applies
// to quotes that have been transmitted. Backward transitions are never
// allowed.
func (s Status) CanTransition(to Status) bool {
	switch s {
	case StatusDraft:
		return to == StatusSent
	case StatusSent:
		return to == StatusViewed || to == StatusAccepted || to == StatusRejected || to == StatusExpired
	case StatusViewed:
		return to == StatusAccepted || to == StatusRejected || to == StatusExpired
	}

	return false
}

// Tier labels a quote as one of the good/better/best options presented to
// the customer. It is informational only and never affects pricing.
type Tier string

const (
	TierGood   Tier = "good"
	TierBetter Tier = "better"
	TierBest   Tier = "best"
)

func (t Tier) IsValid() bool {
	switch t {
	case TierGood, TierBetter, TierBest:
		return true
	}

	return false
}

// SendMethod is the delivery channel for a transmitted quote.
type SendMethod string

const (
	SendEmail SendMethod = "email"
	SendSMS   SendMethod = "sms"
)

func (m SendMethod) IsValid() bool {
	return m == SendEmail || m == SendSMS
}

var (
	ErrNotFound = errors.New("quote not found")

	// ErrEditNotAllowed is returned for any mutation (ledger edit, save,
	// delete) attempted on a quote that is no longer in draft.
	ErrEditNotAllowed = errors.New("quote is read-only outside draft")

	// ErrUnsavedChanges is returned when a send is attempted while the
	// ledger has edits that were never persisted. Sending stale totals is
	// never allowed; the caller must save first.
	ErrUnsavedChanges = errors.New("quote has unsaved changes, save before sending")
)

// ValidationError describes invalid user input. It is recovered locally and
// never reaches the remote store.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InvalidTransitionError describes a status change the state machine does
// not permit.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("illegal status transition %s -> %s", e.From, e.To)
}

// LineItem is a single priced row in a quote's ledger. Total is always
// derived from Quantity * UnitPrice and never hand-edited.
type LineItem struct {
	Type        ItemType
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
}

// NewLineItem validates the candidate fields and returns a line item with
// its total computed. Quantity and unit price are accepted as-is, negative
// values included; callers that want a lower bound enforce it themselves.
func NewLineItem(t ItemType, description string, quantity, unitPrice decimal.Decimal) (LineItem, error) {
	if !t.IsValid() {
		return LineItem{}, &ValidationError{Field: "item_type", Reason: fmt.Sprintf("unknown type %q", string(t))}
	}

	description = strings.TrimSpace(description)
	if description == "" {
		return LineItem{}, &ValidationError{Field: "description", Reason: "must not be empty"}
	}

	return LineItem{
		Type:        t,
		Description: description,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		Total:       quantity.Mul(unitPrice).Round(2),
	}, nil
}

// Quote is a priced proposal for a job. The totals fields are a cache of
// the last saved derivation; Save recomputes them from the ledger before
// every write, so they are never independently editable.
type Quote struct {
	ID           uuid.UUID
	Status       Status
	Tier         Tier
	CustomerName string
	CreatedBy    string

	LineItems []LineItem

	TaxRate       decimal.Decimal
	MarginPercent decimal.Decimal

	EquipmentTotal decimal.Decimal
	LaborTotal     decimal.Decimal
	MaterialsTotal decimal.Decimal
	Subtotal       decimal.Decimal
	Tax            decimal.Decimal
	Total          decimal.Decimal
	CostTotal      decimal.Decimal
	Profit         decimal.Decimal

	SentMethod *SendMethod
	SentAt     *time.Time
	ExpiresAt  *time.Time
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}

// ApplyTotals copies a derivation result into the quote's cached totals
// fields prior to persisting.
func (q *Quote) ApplyTotals(t Totals) {
	q.EquipmentTotal = t.Equipment
	q.LaborTotal = t.Labor
	q.MaterialsTotal = t.Materials
	q.Subtotal = t.Subtotal
	q.Tax = t.Tax
	q.Total = t.Total
	q.CostTotal = t.Cost
	q.Profit = t.Profit
}

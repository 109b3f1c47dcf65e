package quote

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=quote
type Repository interface {
	CreateQuote(ctx context.Context, q *Quote) error
	GetQuote(ctx context.Context, id uuid.UUID) (*Quote, error)
	ListQuotes(ctx context.Context, filter ListFilter) ([]*Quote, error)

	// SaveQuote persists the ledger and the cached totals in one write.
	// Implementations must refuse the write when the stored quote is no
	// longer in draft and return ErrEditNotAllowed.
	SaveQuote(ctx context.Context, q *Quote) error

	// UpdateStatus applies from -> to, guarded on the stored status still
	// being from. A quote that moved concurrently is not overwritten; the
	// conflict surfaces as an InvalidTransitionError.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) error
	MarkSent(ctx context.Context, id uuid.UUID, method SendMethod, at time.Time) error

	// DeleteQuote removes a quote still in draft; any other status is
	// rejected with ErrEditNotAllowed.
	DeleteQuote(ctx context.Context, id uuid.UUID) error
}

// Sender delivers a quote to the customer over the chosen channel. The
// delivery implementation lives outside this package and is consumed only
// through this contract.
type Sender interface {
	Send(ctx context.Context, q *Quote, method SendMethod) error
}

// Defaults are applied to new quotes when the conversion that creates them
// does not carry its own rates.
type Defaults struct {
	TaxRate       decimal.Decimal
	MarginPercent decimal.Decimal
	ValidFor      time.Duration
}

type Service struct {
	repo     Repository
	sender   Sender
	defaults Defaults
}

func NewService(repo Repository, sender Sender, defaults Defaults) *Service {
	return &Service{repo: repo, sender: sender, defaults: defaults}
}

type ItemParams struct {
	Type        ItemType
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

type CreateParams struct {
	CustomerName  string
	Tier          Tier
	CreatedBy     string
	TaxRate       *decimal.Decimal
	MarginPercent *decimal.Decimal
	Items         []ItemParams
}

type ListFilter struct {
	Status *Status
}

// Create converts a finished calculation into a new draft quote. Rates fall
// back to the service defaults, and totals are derived before the first
// write so the persisted cache is never stale.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Quote, error) {
	if !params.Tier.IsValid() {
		return nil, &ValidationError{Field: "tier", Reason: fmt.Sprintf("unknown tier %q", string(params.Tier))}
	}

	q := &Quote{
		Status:        StatusDraft,
		Tier:          params.Tier,
		CustomerName:  params.CustomerName,
		CreatedBy:     params.CreatedBy,
		TaxRate:       s.defaults.TaxRate,
		MarginPercent: s.defaults.MarginPercent,
	}

	if params.TaxRate != nil {
		q.TaxRate = *params.TaxRate
	}

	if params.MarginPercent != nil {
		q.MarginPercent = *params.MarginPercent
	}

	for _, p := range params.Items {
		item, err := NewLineItem(p.Type, p.Description, p.Quantity, p.UnitPrice)
		if err != nil {
			return nil, err
		}

		q.LineItems = append(q.LineItems, item)
	}

	totals, err := DeriveTotals(q.LineItems, q.TaxRate, q.MarginPercent)
	if err != nil {
		return nil, err
	}

	q.ApplyTotals(totals)

	if s.defaults.ValidFor > 0 {
		expires := time.Now().Add(s.defaults.ValidFor)
		q.ExpiresAt = &expires
	}

	if err := s.repo.CreateQuote(ctx, q); err != nil {
		return nil, err
	}

	return q, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Quote, error) {
	return s.repo.GetQuote(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Quote, error) {
	return s.repo.ListQuotes(ctx, filter)
}

// Save recomputes every derived field from the ledger and persists ledger
// plus totals together. Caller-supplied totals are ignored: the derivation
// is the only source of those values. Saving is legal only while the quote
// is in draft.
func (s *Service) Save(ctx context.Context, q *Quote) (*Quote, error) {
	if !q.Status.Editable() {
		return nil, ErrEditNotAllowed
	}

	totals, err := DeriveTotals(q.LineItems, q.TaxRate, q.MarginPercent)
	if err != nil {
		return nil, err
	}

	q.ApplyTotals(totals)

	if err := s.repo.SaveQuote(ctx, q); err != nil {
		return nil, err
	}

	return s.repo.GetQuote(ctx, q.ID)
}

// Send delivers the quote over the given channel and moves it draft -> sent.
// Delivery happens before the transition is persisted; a gateway failure
// leaves the quote in draft. The returned quote is re-read from the store,
// which is the source of truth for every transition.
func (s *Service) Send(ctx context.Context, id uuid.UUID, method SendMethod) (*Quote, error) {
	if !method.IsValid() {
		return nil, &ValidationError{Field: "method", Reason: fmt.Sprintf("unknown send method %q", string(method))}
	}

	q, err := s.repo.GetQuote(ctx, id)
	if err != nil {
		return nil, err
	}

	if !q.Status.CanTransition(StatusSent) {
		return nil, &InvalidTransitionError{From: q.Status, To: StatusSent}
	}

	if err := s.sender.Send(ctx, q, method); err != nil {
		return nil, fmt.Errorf("delivering quote: %w", err)
	}

	if err := s.repo.MarkSent(ctx, id, method, time.Now()); err != nil {
		return nil, err
	}

	return s.repo.GetQuote(ctx, id)
}

// UpdateStatus applies an externally driven or manual status change after
// checking it against the state machine.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Quote, error) {
	if !status.IsValid() {
		return nil, &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", string(status))}
	}

	q, err := s.repo.GetQuote(ctx, id)
	if err != nil {
		return nil, err
	}

	if !q.Status.CanTransition(status) {
		return nil, &InvalidTransitionError{From: q.Status, To: status}
	}

	if err := s.repo.UpdateStatus(ctx, id, q.Status, status); err != nil {
		return nil, err
	}

	return s.repo.GetQuote(ctx, id)
}

// Delete removes a quote. Only drafts may be deleted; a quote the customer
// has seen is part of the record and stays.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	q, err := s.repo.GetQuote(ctx, id)
	if err != nil {
		return err
	}

	if q.Status != StatusDraft {
		return ErrEditNotAllowed
	}

	return s.repo.DeleteQuote(ctx, id)
}

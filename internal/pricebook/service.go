package pricebook

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mgoncalv/quotedesk/internal/quote"
)

// Entry is a remembered price for a recurring line item: the part or task
// description, its category, and the unit price last quoted for it.
type Entry struct {
	Description string
	Type        quote.ItemType
	UnitPrice   decimal.Decimal
}

type Repository interface {
	FindEntry(ctx context.Context, description string) (*Entry, error)
	UpsertEntry(ctx context.Context, e Entry) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Suggest looks up the closest price-book entry for a typed description.
// Returns nil when nothing matches.
func (s *Service) Suggest(ctx context.Context, description string) (*Entry, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, nil
	}

	return s.repo.FindEntry(ctx, description)
}

// Learn remembers the price actually quoted for an item so the next quote
// starts from it.
func (s *Service) Learn(ctx context.Context, e Entry) error {
	e.Description = strings.TrimSpace(e.Description)
	if e.Description == "" {
		return &quote.ValidationError{Field: "description", Reason: "must not be empty"}
	}

	if !e.Type.IsValid() {
		return &quote.ValidationError{Field: "item_type", Reason: fmt.Sprintf("unknown type %q", string(e.Type))}
	}

	return s.repo.UpsertEntry(ctx, e)
}

// ImportBatch upserts a parsed vendor price list. Entries that fail
// validation are skipped; the count of stored entries is returned.
func (s *Service) ImportBatch(ctx context.Context, entries []Entry) (int, error) {
	stored := 0

	for _, e := range entries {
		if err := s.Learn(ctx, e); err != nil {
			if _, ok := err.(*quote.ValidationError); ok {
				continue
			}

			return stored, fmt.Errorf("importing %q: %w", e.Description, err)
		}

		stored++
	}

	return stored, nil
}

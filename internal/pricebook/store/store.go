package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mgoncalv/quotedesk/internal/pricebook"
	"github.com/mgoncalv/quotedesk/internal/quote"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// FindEntry matches a typed description against the price book. Longer
// matches win so "condenser fan motor 1/4hp" beats "condenser fan motor".
func (s *Store) FindEntry(ctx context.Context, description string) (*pricebook.Entry, error) {
	query := `
		SELECT description, item_type, unit_price
		FROM price_book
		WHERE $1 ILIKE '%' || description || '%' OR description ILIKE '%' || $1 || '%'
		ORDER BY LENGTH(description) DESC, updated_at DESC
		LIMIT 1
	`

	var e pricebook.Entry

	var typeStr string

	err := s.db.QueryRowContext(ctx, query, description).Scan(&e.Description, &typeStr, &e.UnitPrice)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, fmt.Errorf("finding price book entry: %w", err)
	}

	e.Type = quote.ItemType(typeStr)

	return &e, nil
}

func (s *Store) UpsertEntry(ctx context.Context, e pricebook.Entry) error {
	query := `
		INSERT INTO price_book (description, item_type, unit_price, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (description)
		DO UPDATE SET item_type = EXCLUDED.item_type, unit_price = EXCLUDED.unit_price, updated_at = NOW()
	`

	_, err := s.db.ExecContext(ctx, query, e.Description, e.Type, e.UnitPrice)
	if err != nil {
		return fmt.Errorf("upserting price book entry: %w", err)
	}

	return nil
}

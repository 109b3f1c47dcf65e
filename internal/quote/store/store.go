package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mgoncalv/quotedesk/internal/quote"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectQuoteColumns = `
	q.id, q.status, q.tier, q.customer_name, q.created_by,
	q.tax_rate, q.margin_percent,
	q.equipment_total, q.labor_total, q.materials_total, q.subtotal,
	q.tax, q.total, q.cost_total, q.profit,
	q.sent_method, q.sent_at, q.expires_at, q.created_at, q.updated_at
`

// scanQuote reads a quote row in selectQuoteColumns order. Line items are
// loaded separately.
func scanQuote(s scanner) (*quote.Quote, error) {
	var q quote.Quote

	var statusStr, tierStr string

	var sentMethod sql.NullString

	if err := s.Scan(
		&q.ID, &statusStr, &tierStr, &q.CustomerName, &q.CreatedBy,
		&q.TaxRate, &q.MarginPercent,
		&q.EquipmentTotal, &q.LaborTotal, &q.MaterialsTotal, &q.Subtotal,
		&q.Tax, &q.Total, &q.CostTotal, &q.Profit,
		&sentMethod, &q.SentAt, &q.ExpiresAt, &q.CreatedAt, &q.UpdatedAt,
	); err != nil {
		return nil, err
	}

	q.Status = quote.Status(statusStr)
	q.Tier = quote.Tier(tierStr)

	if sentMethod.Valid {
		m := quote.SendMethod(sentMethod.String)
		q.SentMethod = &m
	}

	return &q, nil
}

func (s *Store) CreateQuote(ctx context.Context, q *quote.Quote) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	query := `
		INSERT INTO quotes (
			status, tier, customer_name, created_by, tax_rate, margin_percent,
			equipment_total, labor_total, materials_total, subtotal, tax, total, cost_total, profit,
			expires_at, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err = dbTx.QueryRowContext(ctx, query,
		q.Status, q.Tier, q.CustomerName, q.CreatedBy, q.TaxRate, q.MarginPercent,
		q.EquipmentTotal, q.LaborTotal, q.MaterialsTotal, q.Subtotal, q.Tax, q.Total, q.CostTotal, q.Profit,
		q.ExpiresAt,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating quote: %w", err)
	}

	if err := insertLineItems(ctx, dbTx, q.ID, q.LineItems); err != nil {
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (s *Store) GetQuote(ctx context.Context, id uuid.UUID) (*quote.Quote, error) {
	query := `SELECT ` + selectQuoteColumns + `
		FROM quotes q
		WHERE q.id = $1 AND q.deleted_at IS NULL`

	q, err := scanQuote(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, quote.ErrNotFound
		}

		return nil, fmt.Errorf("getting quote: %w", err)
	}

	items, err := s.loadLineItems(ctx, id)
	if err != nil {
		return nil, err
	}

	q.LineItems = items

	return q, nil
}

// ListQuotes returns quotes without their ledgers; the cached totals are
// enough for board views, and GetQuote loads the full document.
func (s *Store) ListQuotes(ctx context.Context, filter quote.ListFilter) ([]*quote.Quote, error) {
	query := `SELECT ` + selectQuoteColumns + `
		FROM quotes q
		WHERE q.deleted_at IS NULL`

	var args []any

	if filter.Status != nil {
		query += " AND q.status = $1"

		args = append(args, *filter.Status)
	}

	query += " ORDER BY q.created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing quotes: %w", err)
	}
	defer rows.Close()

	var quotes []*quote.Quote

	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning quote: %w", err)
		}

		quotes = append(quotes, q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating quote rows: %w", err)
	}

	return quotes, nil
}

// SaveQuote replaces the ledger and the cached totals in one transaction.
// The update is guarded on status = draft so a quote transmitted between
// read and write cannot be overwritten.
func (s *Store) SaveQuote(ctx context.Context, q *quote.Quote) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	query := `
		UPDATE quotes
		SET customer_name = $1, tier = $2,
			equipment_total = $3, labor_total = $4, materials_total = $5,
			subtotal = $6, tax = $7, total = $8, cost_total = $9, profit = $10,
			updated_at = NOW()
		WHERE id = $11 AND status = 'draft' AND deleted_at IS NULL
	`

	res, err := dbTx.ExecContext(ctx, query,
		q.CustomerName, q.Tier,
		q.EquipmentTotal, q.LaborTotal, q.MaterialsTotal,
		q.Subtotal, q.Tax, q.Total, q.CostTotal, q.Profit,
		q.ID,
	)
	if err != nil {
		return fmt.Errorf("updating quote: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}

	if affected == 0 {
		return s.missingOrReadOnly(ctx, q.ID)
	}

	if _, err := dbTx.ExecContext(ctx, "DELETE FROM quote_line_items WHERE quote_id = $1", q.ID); err != nil {
		return fmt.Errorf("clearing line items: %w", err)
	}

	if err := insertLineItems(ctx, dbTx, q.ID, q.LineItems); err != nil {
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// UpdateStatus applies from -> to, guarded on the stored status still being
// from. Two clients racing on the same quote both pass their local
// transition check; the guard makes sure only the first write wins and the
// second surfaces the conflict instead of overwriting a settled status.
func (s *Store) UpdateStatus(ctx context.Context, id uuid.UUID, from, to quote.Status) error {
	query := `
		UPDATE quotes
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3 AND deleted_at IS NULL
	`

	res, err := s.db.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking status update result: %w", err)
	}

	if affected == 0 {
		return s.statusConflict(ctx, id, to)
	}

	return nil
}

// statusConflict disambiguates a zero-row guarded status update: the quote
// is gone, or it moved to another status since the caller read it.
func (s *Store) statusConflict(ctx context.Context, id uuid.UUID, to quote.Status) error {
	var current string

	err := s.db.QueryRowContext(ctx,
		"SELECT status FROM quotes WHERE id = $1 AND deleted_at IS NULL", id,
	).Scan(&current)
	if err != nil {
		if err == sql.ErrNoRows {
			return quote.ErrNotFound
		}

		return fmt.Errorf("checking quote status: %w", err)
	}

	return &quote.InvalidTransitionError{From: quote.Status(current), To: to}
}

func (s *Store) MarkSent(ctx context.Context, id uuid.UUID, method quote.SendMethod, at time.Time) error {
	query := `
		UPDATE quotes
		SET status = 'sent', sent_method = $1, sent_at = $2, updated_at = NOW()
		WHERE id = $3 AND status = 'draft' AND deleted_at IS NULL
	`

	res, err := s.db.ExecContext(ctx, query, method, at, id)
	if err != nil {
		return fmt.Errorf("marking quote sent: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking send result: %w", err)
	}

	if affected == 0 {
		return s.missingOrReadOnly(ctx, id)
	}

	return nil
}

// DeleteQuote soft-deletes a draft. Quotes in any other status are part of
// the customer record and stay.
func (s *Store) DeleteQuote(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE quotes
		SET deleted_at = NOW()
		WHERE id = $1 AND status = 'draft' AND deleted_at IS NULL
	`

	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deleting quote: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}

	if affected == 0 {
		return s.missingOrReadOnly(ctx, id)
	}

	return nil
}

// missingOrReadOnly disambiguates a zero-row guarded update: either the
// quote does not exist or it has left draft.
func (s *Store) missingOrReadOnly(ctx context.Context, id uuid.UUID) error {
	var status string

	err := s.db.QueryRowContext(ctx,
		"SELECT status FROM quotes WHERE id = $1 AND deleted_at IS NULL", id,
	).Scan(&status)
	if err != nil {
		if err == sql.ErrNoRows {
			return quote.ErrNotFound
		}

		return fmt.Errorf("checking quote status: %w", err)
	}

	return quote.ErrEditNotAllowed
}

func (s *Store) loadLineItems(ctx context.Context, quoteID uuid.UUID) ([]quote.LineItem, error) {
	query := `
		SELECT item_type, description, quantity, unit_price, total
		FROM quote_line_items
		WHERE quote_id = $1
		ORDER BY position ASC
	`

	rows, err := s.db.QueryContext(ctx, query, quoteID)
	if err != nil {
		return nil, fmt.Errorf("loading line items: %w", err)
	}
	defer rows.Close()

	var items []quote.LineItem

	for rows.Next() {
		var item quote.LineItem

		var typeStr string

		if err := rows.Scan(&typeStr, &item.Description, &item.Quantity, &item.UnitPrice, &item.Total); err != nil {
			return nil, fmt.Errorf("scanning line item: %w", err)
		}

		item.Type = quote.ItemType(typeStr)

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating line item rows: %w", err)
	}

	return items, nil
}

func insertLineItems(ctx context.Context, dbTx *sql.Tx, quoteID uuid.UUID, items []quote.LineItem) error {
	query := `
		INSERT INTO quote_line_items (quote_id, position, item_type, description, quantity, unit_price, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for i, item := range items {
		if _, err := dbTx.ExecContext(ctx, query,
			quoteID, i, item.Type, item.Description, item.Quantity, item.UnitPrice, item.Total,
		); err != nil {
			return fmt.Errorf("inserting line item %d: %w", i, err)
		}
	}

	return nil
}

package quote

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mgoncalv/quotedesk/internal/quote"
)

type lineItemResponse struct {
	ItemType    quote.ItemType  `json:"item_type"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

type quoteResponse struct {
	ID           uuid.UUID    `json:"id"`
	Status       quote.Status `json:"status"`
	Tier         quote.Tier   `json:"tier"`
	CustomerName string       `json:"customer_name"`
	CreatedBy    string       `json:"created_by,omitempty"`

	LineItems []lineItemResponse `json:"line_items"`

	TaxRate       decimal.Decimal `json:"tax_rate"`
	MarginPercent decimal.Decimal `json:"margin_percent"`

	EquipmentTotal decimal.Decimal `json:"equipment_total"`
	LaborTotal     decimal.Decimal `json:"labor_total"`
	MaterialsTotal decimal.Decimal `json:"materials_total"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Tax            decimal.Decimal `json:"tax"`
	Total          decimal.Decimal `json:"total"`
	CostTotal      decimal.Decimal `json:"cost_total"`
	Profit         decimal.Decimal `json:"profit"`

	SentMethod *quote.SendMethod `json:"sent_method,omitempty"`
	SentAt     *time.Time        `json:"sent_at,omitempty"`
	ExpiresAt  *time.Time        `json:"expires_at,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  *time.Time        `json:"updated_at,omitempty"`
}

func toResponse(q *quote.Quote) quoteResponse {
	resp := quoteResponse{
		ID:             q.ID,
		Status:         q.Status,
		Tier:           q.Tier,
		CustomerName:   q.CustomerName,
		CreatedBy:      q.CreatedBy,
		LineItems:      make([]lineItemResponse, 0, len(q.LineItems)),
		TaxRate:        q.TaxRate,
		MarginPercent:  q.MarginPercent,
		EquipmentTotal: q.EquipmentTotal,
		LaborTotal:     q.LaborTotal,
		MaterialsTotal: q.MaterialsTotal,
		Subtotal:       q.Subtotal,
		Tax:            q.Tax,
		Total:          q.Total,
		CostTotal:      q.CostTotal,
		Profit:         q.Profit,
		SentMethod:     q.SentMethod,
		SentAt:         q.SentAt,
		ExpiresAt:      q.ExpiresAt,
		CreatedAt:      q.CreatedAt,
		UpdatedAt:      q.UpdatedAt,
	}

	for _, item := range q.LineItems {
		resp.LineItems = append(resp.LineItems, lineItemResponse{
			ItemType:    item.Type,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Total:       item.Total,
		})
	}

	return resp
}

func toResponseList(quotes []*quote.Quote) []quoteResponse {
	resp := make([]quoteResponse, len(quotes))
	for i, q := range quotes {
		resp[i] = toResponse(q)
	}

	return resp
}

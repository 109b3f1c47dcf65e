package quote

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mgoncalv/quotedesk/internal/http/auth"
	"github.com/mgoncalv/quotedesk/internal/quote"
)

type Handler struct {
	svc *quote.Service
}

func NewHandler(svc *quote.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.save)
	r.Delete("/{id}", h.delete)
	r.Post("/{id}/send", h.send)
	r.Patch("/{id}/status", h.updateStatus)
}

// writeDomainError maps the engine's error taxonomy onto HTTP statuses.
// Validation problems are the caller's to fix; gating and transition
// refusals are conflicts with the quote's current state.
func writeDomainError(w http.ResponseWriter, err error) {
	var validationErr *quote.ValidationError

	var transitionErr *quote.InvalidTransitionError

	switch {
	case errors.As(err, &validationErr):
		http.Error(w, validationErr.Error(), http.StatusBadRequest)
	case errors.Is(err, quote.ErrNotFound):
		http.Error(w, "quote not found", http.StatusNotFound)
	case errors.Is(err, quote.ErrEditNotAllowed),
		errors.Is(err, quote.ErrUnsavedChanges),
		errors.As(err, &transitionErr):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type lineItemRequest struct {
	ItemType    quote.ItemType  `json:"item_type"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type createQuoteRequest struct {
	CustomerName  string            `json:"customer_name"`
	Tier          quote.Tier        `json:"tier"`
	TaxRate       *decimal.Decimal  `json:"tax_rate,omitempty"`
	MarginPercent *decimal.Decimal  `json:"margin_percent,omitempty"`
	LineItems     []lineItemRequest `json:"line_items,omitempty"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	params := quote.CreateParams{
		CustomerName:  req.CustomerName,
		Tier:          req.Tier,
		TaxRate:       req.TaxRate,
		MarginPercent: req.MarginPercent,
	}

	if actor, ok := auth.ActorFrom(r.Context()); ok {
		params.CreatedBy = actor.ID
	}

	for _, item := range req.LineItems {
		params.Items = append(params.Items, quote.ItemParams{
			Type:        item.ItemType,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}

	q, err := h.svc.Create(r.Context(), params)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toResponse(q))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := quote.ListFilter{}

	if s := r.URL.Query().Get("status"); s != "" {
		status := quote.Status(s)
		if !status.IsValid() {
			http.Error(w, "invalid status filter", http.StatusBadRequest)
			return
		}

		filter.Status = &status
	}

	quotes, err := h.svc.List(r.Context(), filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toResponseList(quotes))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	q, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(q))
}

type saveQuoteRequest struct {
	CustomerName *string           `json:"customer_name,omitempty"`
	LineItems    []lineItemRequest `json:"line_items"`
}

// save replaces the quote's ledger. Totals in the payload are ignored: the
// service derives every cached field from the items before persisting, so
// the store never trusts client arithmetic.
func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req saveQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	q, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if req.CustomerName != nil {
		q.CustomerName = *req.CustomerName
	}

	q.LineItems = q.LineItems[:0]

	for _, item := range req.LineItems {
		li, err := quote.NewLineItem(item.ItemType, item.Description, item.Quantity, item.UnitPrice)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		q.LineItems = append(q.LineItems, li)
	}

	saved, err := h.svc.Save(r.Context(), q)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(saved))
}

type sendQuoteRequest struct {
	Method quote.SendMethod `json:"method"`
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req sendQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	q, err := h.svc.Send(r.Context(), id, req.Method)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(q))
}

type updateStatusRequest struct {
	Status quote.Status `json:"status"`
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	q, err := h.svc.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(q))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

package pricebook

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/mgoncalv/quotedesk/internal/importer"
	"github.com/mgoncalv/quotedesk/internal/pricebook"
	"github.com/mgoncalv/quotedesk/internal/quote"
)

type Handler struct {
	pricebookSvc *pricebook.Service
	importSvc    *importer.Service
}

func NewHandler(pricebookSvc *pricebook.Service, importSvc *importer.Service) *Handler {
	return &Handler{pricebookSvc: pricebookSvc, importSvc: importSvc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/suggest", h.suggest)
	r.Post("/import", h.importPriceList)
}

type entryResponse struct {
	Description string          `json:"description"`
	ItemType    quote.ItemType  `json:"item_type"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

func (h *Handler) suggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		http.Error(w, "q parameter is required", http.StatusBadRequest)
		return
	}

	entry, err := h.pricebookSvc.Suggest(r.Context(), q)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if entry == nil {
		http.Error(w, "no match", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	resp := entryResponse{Description: entry.Description, ItemType: entry.Type, UnitPrice: entry.UnitPrice}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type importResponse struct {
	Parsed int `json:"parsed"`
	Stored int `json:"stored"`
}

func (h *Handler) importPriceList(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	entries, err := h.importSvc.Import(importer.SourceCSV, file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	stored, err := h.pricebookSvc.ImportBatch(r.Context(), entries)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(importResponse{Parsed: len(entries), Stored: stored}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

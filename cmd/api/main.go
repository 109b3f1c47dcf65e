package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mgoncalv/quotedesk/internal/config"
	"github.com/mgoncalv/quotedesk/internal/database"
	"github.com/mgoncalv/quotedesk/internal/delivery"
	quotedeskHttp "github.com/mgoncalv/quotedesk/internal/http"
	pricebookHandler "github.com/mgoncalv/quotedesk/internal/http/pricebook"
	quoteHandler "github.com/mgoncalv/quotedesk/internal/http/quote"
	"github.com/mgoncalv/quotedesk/internal/importer"
	"github.com/mgoncalv/quotedesk/internal/pricebook"
	pbStore "github.com/mgoncalv/quotedesk/internal/pricebook/store"
	"github.com/mgoncalv/quotedesk/internal/quote"
	quoteStore "github.com/mgoncalv/quotedesk/internal/quote/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	defaults := quote.Defaults{
		TaxRate:       decimal.NewFromFloat(cfg.Quote.DefaultTaxRate),
		MarginPercent: decimal.NewFromFloat(cfg.Quote.DefaultMarginPercent),
		ValidFor:      time.Duration(cfg.Quote.ValidForDays) * 24 * time.Hour,
	}

	var (
		deliverySvc  = delivery.NewService(cfg.Delivery.BaseURL, cfg.Delivery.Token)
		quoteService = quote.NewService(quoteStore.New(db), deliverySvc, defaults)
		pricebookSvc = pricebook.NewService(pbStore.New(db))
		importSvc    = importer.NewService()
	)

	var (
		quotesH    = quoteHandler.NewHandler(quoteService)
		pricebookH = pricebookHandler.NewHandler(pricebookSvc, importSvc)
	)

	router := quotedeskHttp.New(cfg.Auth.JWTSecret, quotesH, pricebookH)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "port", port)

	if err := http.ListenAndServe(port, router); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

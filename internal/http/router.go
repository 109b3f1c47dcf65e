package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mgoncalv/quotedesk/internal/http/auth"
	"github.com/mgoncalv/quotedesk/internal/http/pricebook"
	"github.com/mgoncalv/quotedesk/internal/http/quote"
)

func New(
	jwtSecret string,
	quotesV1 *quote.Handler,
	pricebookV1 *pricebook.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Middleware(jwtSecret))

		r.Route("/quotes", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			quotesV1.Routes(r)
		})

		r.Route("/pricebook", pricebookV1.Routes)
	})

	return router
}

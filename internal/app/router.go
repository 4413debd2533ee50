package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/carlosryandeveloper/GenericERP/internal/auth"
	"github.com/carlosryandeveloper/GenericERP/internal/catalog/categories"
	"github.com/carlosryandeveloper/GenericERP/internal/catalog/products"
	"github.com/carlosryandeveloper/GenericERP/internal/ledger"
	"github.com/carlosryandeveloper/GenericERP/internal/quotes"
	"github.com/carlosryandeveloper/GenericERP/internal/reports"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	AuthHandler       *auth.Handler
	AuthMiddleware    auth.Middleware
	CategoriesHandler *categories.Handler
	ProductsHandler   *products.Handler
	LedgerHandler     *ledger.Handler
	QuotesHandler     *quotes.Handler
	ReportsHandler    *reports.Handler
}

// NewRouter constructs the chi.Router with GenericERP defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok","service":"GenericERP API"}`))
	})

	r.Route("/auth", func(r chi.Router) {
		params.AuthHandler.MountRoutes(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(params.AuthMiddleware.RequireUser)
		r.Route("/categories", params.CategoriesHandler.MountRoutes)
		r.Route("/products", params.ProductsHandler.MountRoutes)
		r.Route("/stock", params.LedgerHandler.MountRoutes)
		r.Route("/quotes", params.QuotesHandler.MountRoutes)
		r.Route("/reports", params.ReportsHandler.MountRoutes)
	})

	return r
}

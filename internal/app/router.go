package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/gemilang-erp/gemilang-erp/internal/ap"
	"github.com/gemilang-erp/gemilang-erp/internal/ar"
	"github.com/gemilang-erp/gemilang-erp/internal/audit"
	"github.com/gemilang-erp/gemilang-erp/internal/close"
	"github.com/gemilang-erp/gemilang-erp/internal/ledger"
	"github.com/gemilang-erp/gemilang-erp/internal/ledger/accounts"
	"github.com/gemilang-erp/gemilang-erp/internal/observability"
	"github.com/gemilang-erp/gemilang-erp/internal/partners"
	"github.com/gemilang-erp/gemilang-erp/internal/reports"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	LedgerHandler   *ledger.Handler
	AccountsHandler *accounts.Handler
	PartnersHandler *partners.Handler
	APHandler       *ap.Handler
	ARHandler       *ar.Handler
	CloseHandler    *close.Handler
	ReportsHandler  *reports.Handler
	AuditHandler    *audit.Handler
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.LedgerHandler != nil {
		r.Route("/ledger", params.LedgerHandler.MountRoutes)
	}
	if params.AccountsHandler != nil {
		r.Route("/masterdata", func(r chi.Router) {
			params.AccountsHandler.MountRoutes(r)
			if params.PartnersHandler != nil {
				params.PartnersHandler.MountRoutes(r)
			}
		})
	}
	if params.APHandler != nil {
		r.Route("/finance/ap", params.APHandler.MountRoutes)
	}
	if params.ARHandler != nil {
		r.Route("/finance/ar", params.ARHandler.MountRoutes)
	}
	if params.CloseHandler != nil {
		r.Route("/close", params.CloseHandler.MountRoutes)
	}
	if params.ReportsHandler != nil {
		params.ReportsHandler.MountRoutes(r)
	}
	if params.AuditHandler != nil {
		params.AuditHandler.MountRoutes(r)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}

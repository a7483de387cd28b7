package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/warelane/warelane/internal/audit"
	"github.com/warelane/warelane/internal/auth"
	"github.com/warelane/warelane/internal/count"
	"github.com/warelane/warelane/internal/inventory"
	"github.com/warelane/warelane/internal/masterdata"
	"github.com/warelane/warelane/internal/observability"
	"github.com/warelane/warelane/internal/reports"
	"github.com/warelane/warelane/internal/transactions"
	"github.com/warelane/warelane/jobs"
)

// RouterConfig collects every mounted handler.
type RouterConfig struct {
	Middleware   MiddlewareConfig
	Auth         *auth.Handler
	Audit        *audit.Handler
	Inventory    *inventory.Handler
	Count        *count.Handler
	MasterData   *masterdata.Handler
	Transactions *transactions.Handler
	Reports      *reports.Handler
	Jobs         *jobs.Handler
	Metrics      *observability.Metrics
}

// NewRouter assembles the HTTP routing tree. Everything except /auth,
// /healthz, and /metrics requires a signed-in session; master data
// writes and telemetry require the admin role.
func NewRouter(cfg RouterConfig) http.Handler {
	var guard auth.Middleware

	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(cfg.Middleware) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.Route("/auth", func(r chi.Router) {
		cfg.Auth.MountRoutes(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(guard.RequireUser)

		r.Route("/masterdata", func(r chi.Router) {
			r.Use(guard.RequireAdmin)
			cfg.MasterData.MountRoutes(r)
		})
		r.Route("/inventory", func(r chi.Router) {
			cfg.Inventory.MountRoutes(r)
			r.Route("/count", func(r chi.Router) {
				cfg.Count.MountRoutes(r)
			})
		})
		r.Route("/transactions", func(r chi.Router) {
			cfg.Transactions.MountRoutes(r)
		})
		r.Route("/reports", func(r chi.Router) {
			cfg.Reports.MountRoutes(r)
		})

		r.Route("/telemetry", func(r chi.Router) {
			r.Use(guard.RequireAdmin)
			cfg.Audit.MountRoutes(r)
		})
		if cfg.Jobs != nil {
			r.Route("/jobs", func(r chi.Router) {
				r.Use(guard.RequireAdmin)
				cfg.Jobs.MountRoutes(r)
			})
		}
	})

	return r
}

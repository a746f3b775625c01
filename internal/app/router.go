package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/NDJ-create/backend-stockage-clean/internal/history"
	"github.com/NDJ-create/backend-stockage-clean/internal/movements"
	"github.com/NDJ-create/backend-stockage-clean/internal/observability"
	"github.com/NDJ-create/backend-stockage-clean/internal/orders"
	"github.com/NDJ-create/backend-stockage-clean/internal/recipes"
	"github.com/NDJ-create/backend-stockage-clean/internal/reports"
	"github.com/NDJ-create/backend-stockage-clean/internal/sales"
	"github.com/NDJ-create/backend-stockage-clean/internal/stock"
	"github.com/NDJ-create/backend-stockage-clean/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	StockHandler     *stock.Handler
	OrdersHandler    *orders.Handler
	RecipesHandler   *recipes.Handler
	SalesHandler     *sales.Handler
	ReportsHandler   *reports.Handler
	HistoryHandler   *history.Handler
	MovementsHandler *movements.Handler
	JobsHandler      *jobs.Handler
	Metrics          *observability.Metrics
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

	r.Route("/api", func(r chi.Router) {
		r.Use(IdentityMiddleware(params.Logger))

		r.Route("/stock", params.StockHandler.MountRoutes)
		r.Route("/orders", params.OrdersHandler.MountRoutes)
		r.Route("/recipes", params.RecipesHandler.MountRoutes)
		r.Route("/sales", params.SalesHandler.MountRoutes)
		r.Route("/reports", params.ReportsHandler.MountRoutes)
		r.Route("/history", params.HistoryHandler.MountRoutes)
		r.Route("/movements", params.MovementsHandler.MountRoutes)
	})

	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}

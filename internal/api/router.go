// internal/api/router.go
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"finflow-invest/internal/api/handler"
	"finflow-invest/internal/metrics"
)

// Handlers groups the HTTP handlers mounted by the router.
type Handlers struct {
	Accounts     *handler.AccountHandler
	Transactions *handler.TransactionHandler
	Investments  *handler.InvestmentHandler
	Settings     *handler.SettingsHandler
}

// NewRouter sets up and returns a new HTTP router. limiter may be nil.
func NewRouter(h Handlers, limiter *RateLimiter, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)                       // Add a request ID to the context
	r.Use(middleware.RealIP)                          // Use the real IP address
	r.Use(middleware.Logger)                          // Log HTTP requests
	r.Use(middleware.Recoverer)                       // Recover from panics and return 500
	r.Use(metrics.InstrumentHandler)                  // Prometheus request metrics
	r.Use(middleware.Timeout(handler.DefaultTimeout)) // Set a default timeout for requests
	r.Use(handler.WithActor)
	if limiter != nil {
		r.Use(limiter.Handler)
	}

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// Public routes
	r.Post("/accounts", h.Accounts.Register)
	r.Get("/plans", h.Investments.ListPlans)
	r.Get("/settings/wallets", h.Settings.GetWallets)

	// Routes acting on behalf of an account
	r.Group(func(r chi.Router) {
		r.Use(handler.RequireActor)

		r.Get("/accounts/me", h.Accounts.Me)
		r.Get("/accounts/{accountID}", h.Accounts.Get)

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", h.Transactions.List)
			r.Post("/deposits", h.Transactions.CreateDeposit)
			r.Post("/withdrawals", h.Transactions.CreateWithdrawal)
			r.Get("/{transactionID}", h.Transactions.Get)
		})

		r.Route("/investments", func(r chi.Router) {
			r.Get("/", h.Investments.List)
			r.Post("/", h.Investments.Open)
			r.Get("/{investmentID}", h.Investments.Get)
			r.Get("/{investmentID}/roi", h.Investments.ROI)
			r.Post("/{investmentID}/cancel", h.Investments.Cancel)
		})

		// Admin routes; the services check the role.
		r.Route("/admin", func(r chi.Router) {
			r.Get("/accounts", h.Accounts.List)
			r.Post("/accounts", h.Accounts.Create)
			r.Delete("/accounts/{accountID}", h.Accounts.Delete)
			r.Post("/transactions/{transactionID}/resolve", h.Transactions.Resolve)
			r.Put("/settings/wallets", h.Settings.UpdateWallets)
		})
	})

	logger.Debug("HTTP routes registered")
	return r
}

package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/gopayout/internal/adapter/http/handler"
	"github.com/iho/gopayout/internal/adapter/http/middleware"
	"github.com/iho/gopayout/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	BalanceHandler    *handler.BalanceHandler
	WithdrawalHandler *handler.WithdrawalHandler
	SweepHandler      *handler.SweepHandler
	HealthHandler     *handler.HealthHandler
	IdempotencyStore  usecase.IdempotencyStore
	RateLimiter       *middleware.RateLimiter
	Logger            zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewRequestLogger(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	r.Use(middleware.Metrics)
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health and metrics endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Participants
		r.Route("/participants", func(r chi.Router) {
			r.Get("/{id}/balance", cfg.BalanceHandler.GetBalance)
			r.Get("/{id}/earnings", cfg.BalanceHandler.ListEarnings)
			r.Get("/{id}/withdrawals", cfg.WithdrawalHandler.ListByParticipant)
		})

		// Withdrawals
		r.Route("/withdrawals", func(r chi.Router) {
			r.Post("/", cfg.WithdrawalHandler.Create)
			r.Get("/{id}", cfg.WithdrawalHandler.Get)
			r.Post("/{id}/approve", cfg.WithdrawalHandler.Approve)
			r.Post("/{id}/reject", cfg.WithdrawalHandler.Reject)
		})

		// Sweeps
		r.Route("/sweeps", func(r chi.Router) {
			r.Post("/", cfg.SweepHandler.Run)
			r.Get("/", cfg.SweepHandler.ListReports)
			r.Get("/{id}", cfg.SweepHandler.GetReport)
		})

		// Reconciliation
		r.Get("/reconciliation/stale", cfg.SweepHandler.ListStale)
	})

	return r
}

package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dandoingdev/ledger/internal/adapter/http/handler"
	"github.com/dandoingdev/ledger/internal/adapter/http/middleware"
	"github.com/dandoingdev/ledger/internal/infrastructure/auth"
	"github.com/dandoingdev/ledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	LedgerHandler    *handler.LedgerHandler
	AccountHandler   *handler.AccountHandler
	EntryHandler     *handler.EntryHandler
	HealthHandler    *handler.HealthHandler
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	Logging          *middleware.LoggingMiddleware
	RateLimiter      *middleware.RateLimiter
	JWTManager       *auth.JWTManager
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	if cfg.Logging != nil {
		r.Use(cfg.Logging.Wrap)
	}
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
		if cfg.JWTManager != nil {
			r.Use(middleware.AuthMiddleware(cfg.JWTManager))
		}

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Writes require the operator role when auth is enabled.
		operator := func(r chi.Router) chi.Router {
			if cfg.JWTManager == nil {
				return r
			}
			return r.With(middleware.RequireRole(middleware.RoleOperator))
		}

		// Accounts
		r.Route("/accounts", func(r chi.Router) {
			operator(r).Post("/", cfg.AccountHandler.Register)
			r.Get("/", cfg.AccountHandler.List)

			r.Route("/{type}/{id}", func(r chi.Router) {
				r.Get("/", cfg.AccountHandler.Get)
				r.Get("/balance", cfg.LedgerHandler.Balance)
				r.Get("/audit", cfg.LedgerHandler.Audit)
				r.Get("/entries", cfg.EntryHandler.ListByAccount)
				r.Get("/entries/{entryID}", cfg.EntryHandler.Get)
				operator(r).Post("/credit", cfg.LedgerHandler.Credit)
				operator(r).Post("/debit", cfg.LedgerHandler.Debit)
				operator(r).Post("/topup", cfg.LedgerHandler.TopUp)
				operator(r).Post("/transfer", cfg.LedgerHandler.Transfer)
			})
		})
	})

	return r
}

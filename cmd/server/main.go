package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/dandoingdev/ledger/internal/adapter/http"
	"github.com/dandoingdev/ledger/internal/adapter/http/handler"
	"github.com/dandoingdev/ledger/internal/adapter/http/middleware"
	"github.com/dandoingdev/ledger/internal/adapter/repository/memory"
	postgresRepo "github.com/dandoingdev/ledger/internal/adapter/repository/postgres"
	redisRepo "github.com/dandoingdev/ledger/internal/adapter/repository/redis"
	"github.com/dandoingdev/ledger/internal/infrastructure/auth"
	"github.com/dandoingdev/ledger/internal/infrastructure/config"
	"github.com/dandoingdev/ledger/internal/infrastructure/logger"
	"github.com/dandoingdev/ledger/internal/infrastructure/metrics"
	"github.com/dandoingdev/ledger/internal/infrastructure/postgres"
	"github.com/dandoingdev/ledger/internal/infrastructure/redis"
	"github.com/dandoingdev/ledger/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	log.Logger = logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	zerolog.DefaultContextLogger = &log.Logger

	ctx := context.Background()

	// Wire the storage backend
	var (
		txManager usecase.TransactionManager
		entryRepo usecase.EntryRepository
		directory usecase.AccountDirectory
		retrier   usecase.Retrier
		checks    = make(map[string]handler.Pinger)
	)

	switch cfg.StoreBackend {
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to postgres")
		}
		defer pool.Close()
		log.Info().Msg("connected to postgres")

		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}

		txManager = postgresRepo.NewTxManager(pool)
		entryRepo = postgresRepo.NewEntryRepository(pool)
		directory = postgresRepo.NewAccountDirectory(pool)
		retrier = postgresRepo.NewRetrier()
		checks["postgres"] = pool

	case "memory":
		store := memory.NewStore()
		txManager = store
		entryRepo = store
		directory = store
		log.Info().Msg("using in-memory store")

	default:
		log.Fatal().Str("backend", cfg.StoreBackend).Msg("unknown store backend")
	}

	// Connect to Redis (optional)
	var (
		idempotencyStore usecase.IdempotencyStore
		cache            usecase.Cache
	)

	if cfg.RedisURL != "" {
		redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		log.Info().Msg("connected to redis")

		idempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
		cache = redisRepo.NewCache(redisClient)
		checks["redis"] = redisPinger{client: redisClient}
	}

	// Initialize use cases
	m := metrics.New()
	clock := usecase.NewSystemClock()
	idGen := postgresRepo.NewULIDGenerator()

	ledgerUC := usecase.NewLedgerUseCase(txManager, entryRepo, directory, idGen, clock, retrier)
	entryUC := usecase.NewEntryQueryUseCase(entryRepo, directory, clock, cache)
	accountUC := usecase.NewAccountUseCase(directory, clock)

	// Initialize handlers
	ledgerHandler := handler.NewLedgerHandler(ledgerUC, m)
	accountHandler := handler.NewAccountHandler(accountUC, ledgerUC, m)
	entryHandler := handler.NewEntryHandler(entryUC)
	healthHandler := handler.NewHealthHandler(checks)

	// Authentication (optional)
	var jwtManager *auth.JWTManager
	if cfg.AuthEnabled {
		if cfg.JWTSecret == "" {
			log.Fatal().Msg("AUTH_ENABLED requires JWT_SECRET")
		}
		jwtManager = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	}

	// Rate limiting, with periodic cleanup of idle per-IP limiters
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst)
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			rateLimiter.CleanupLimiters()
		}
	}()

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		LedgerHandler:    ledgerHandler,
		AccountHandler:   accountHandler,
		EntryHandler:     entryHandler,
		HealthHandler:    healthHandler,
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		Logging:          middleware.NewLoggingMiddleware(log.Logger),
		RateLimiter:      rateLimiter,
		JWTManager:       jwtManager,
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// redisPinger adapts the redis client to the health check interface.
type redisPinger struct {
	client *goredis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/iho/gopayout/internal/adapter/gateway"
	httpAdapter "github.com/iho/gopayout/internal/adapter/http"
	"github.com/iho/gopayout/internal/adapter/http/handler"
	"github.com/iho/gopayout/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/gopayout/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/gopayout/internal/adapter/repository/redis"
	"github.com/iho/gopayout/internal/domain"
	"github.com/iho/gopayout/internal/infrastructure/config"
	"github.com/iho/gopayout/internal/infrastructure/eventpublisher"
	"github.com/iho/gopayout/internal/infrastructure/logger"
	"github.com/iho/gopayout/internal/infrastructure/metrics"
	"github.com/iho/gopayout/internal/infrastructure/postgres"
	"github.com/iho/gopayout/internal/infrastructure/redis"
	"github.com/iho/gopayout/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	log.Logger = logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	rates, err := domain.ParseRateTable(cfg.RateTable)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid rate table")
	}

	minCredits, err := decimal.NewFromString(cfg.SweepMinCredits)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid sweep minimum")
	}

	ctx := context.Background()

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	m := metrics.New()

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	participantRepo := postgresRepo.NewParticipantRepository(pool)
	earningRepo := postgresRepo.NewEarningRepository(pool)
	withdrawalRepo := postgresRepo.NewWithdrawalRepository(pool)
	destinationRepo := postgresRepo.NewDestinationRepository(pool)
	reportRepo := postgresRepo.NewReportRepository(pool)
	var outboxRepo usecase.OutboxRepository = postgresRepo.NewOutboxRepository(pool)
	if cfg.OutboxPollInterval <= 0 {
		outboxRepo = postgresRepo.NewNullOutboxRepository()
	}
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	balanceCache := redisRepo.NewCache(redisClient)
	idGen := postgresRepo.NewULIDGenerator()

	// Payment gateways
	intl := gateway.NewClient("international", cfg.GatewayIntlURL, cfg.GatewayIntlAPIKey, cfg.GatewayTimeout, m)
	var gw usecase.Gateway = intl
	if cfg.GatewayRegionalURL != "" {
		regional := gateway.NewClient("regional", cfg.GatewayRegionalURL, cfg.GatewayRegionalAPIKey, cfg.GatewayTimeout, m)
		gw = gateway.NewSelector(intl, regional, cfg.GatewayRegionalCCYs)
	}

	// Initialize use cases
	ledgerUC := usecase.NewLedgerUseCase(participantRepo, earningRepo, withdrawalRepo, balanceCache, m)
	eligibilityUC := usecase.NewEligibilityUseCase(ledgerUC, destinationRepo)
	payoutUC := usecase.NewPayoutUseCase(txManager, participantRepo, withdrawalRepo, outboxRepo,
		ledgerUC, eligibilityUC, gw, rates, idGen, m)
	sweepUC := usecase.NewSweepUseCase(txManager, participantRepo, reportRepo, outboxRepo, ledgerUC, payoutUC, idGen, m, minCredits)
	reconcileUC := usecase.NewReconcileUseCase(withdrawalRepo, m, cfg.StaleProcessingThreshold)

	// Initialize handlers
	balanceHandler := handler.NewBalanceHandler(ledgerUC)
	withdrawalHandler := handler.NewWithdrawalHandler(payoutUC)
	sweepHandler := handler.NewSweepHandler(sweepUC, reconcileUC)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	// Create router
	routerCfg := httpAdapter.RouterConfig{
		BalanceHandler:    balanceHandler,
		WithdrawalHandler: withdrawalHandler,
		SweepHandler:      sweepHandler,
		HealthHandler:     healthHandler,
		IdempotencyStore:  idempotencyStore,
		Logger:            log.Logger,
	}
	if cfg.RateLimitPerSecond > 0 {
		routerCfg.RateLimiter = middleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst)
	}
	router := httpAdapter.NewRouter(routerCfg)

	// Outbox publisher
	publisherCtx, stopPublisher := context.WithCancel(ctx)
	defer stopPublisher()

	if cfg.OutboxPollInterval > 0 {
		publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
			OutboxRepo: outboxRepo,
			Publisher:  eventpublisher.NewLogPublisher(log.Logger),
			Logger:     log.Logger,
			Metrics:    m,
			BatchSize:  cfg.OutboxBatchSize,
			Interval:   cfg.OutboxPollInterval,
		})
		go func() {
			if err := publisher.Start(publisherCtx); err != nil && publisherCtx.Err() == nil {
				log.Error().Err(err).Msg("event publisher stopped")
			}
		}()
	} else {
		log.Info().Msg("outbox publishing disabled")
	}

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
	stopPublisher()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

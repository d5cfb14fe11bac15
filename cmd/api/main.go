package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/adapters/cache"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/adapters/database"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/adapters/events"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/adapters/locks"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/adapters/search"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/api/handlers"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/api/middleware"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/api/routes"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/application/services"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/providers"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/infrastructure/clients/postgres"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/infrastructure/clients/redis"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/infrastructure/clients/typesense"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/infrastructure/observability"
	"github.com/Satyam1013/Free-Health-Camp-sub000/pkg/config"
	"github.com/Satyam1013/Free-Health-Camp-sub000/pkg/utils"
)

func main() {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			observability.EnableOTelLogs()
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized successfully")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Redis client")
	}
	defer redisClient.Close()

	// Search is optional; offerings still work without an index
	var index providers.OfferingIndex
	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		log.Warn().Err(err).Msg("Typesense unavailable, offering search disabled")
	} else if err := tsClient.InitSchema(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Typesense schema, offering search disabled")
	} else {
		index = search.NewTypesenseAdapter(tsClient)
	}

	// Adapters
	patientRepo := database.NewPatientAdapter(pgClient)
	phoneRegistry := database.NewPhoneRegistryAdapter(pgClient)
	providerRepo := database.NewProviderAdapter(pgClient)
	eventRepo := database.NewEventAdapter(pgClient)
	slotRepo := database.NewVisitSlotAdapter(pgClient)
	serviceRepo := database.NewServiceAdapter(pgClient)
	memberRepo := database.NewMemberAdapter(pgClient)
	bookingRepo := database.NewBookingAdapter(pgClient)
	settlementStore := database.NewSettlementAdapter(pgClient)
	dashboardRepo := database.NewDashboardAdapter(pgClient)

	cacheProvider := cache.NewRedisAdapter(redisClient)
	eventBus := events.NewRedisEventBus(redisClient)
	locker := locks.NewRedisLocker(redisClient)

	phones, err := utils.NewPhoneNormalizer(cfg.Identity.PhoneCountryCode)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid PHONE_DEFAULT_COUNTRY_CODE")
	}

	// Services
	registry := services.NewFeeSourceRegistry()
	identityService := services.NewIdentityService(patientRepo, providerRepo, phoneRegistry)
	identityService.SetPhoneNormalizer(phones)
	offeringService := services.NewOfferingService(
		providerRepo, eventRepo, slotRepo, serviceRepo, memberRepo, bookingRepo, index, registry,
		cfg.Settlement.EventWindow, cfg.Settlement.OrganizerCommission,
	)
	offeringService.SetPhoneNormalizer(phones)
	bookingService := services.NewBookingService(bookingRepo, patientRepo, providerRepo, offeringService, eventBus)
	settlementService := services.NewSettlementService(settlementStore, providerRepo, registry, eventBus, metrics)
	ledgerService := services.NewLedgerService(providerRepo, eventBus, cfg.Settlement.ReactivateOnPayment, cfg.Settlement.MaxCASRetries)
	dashboardService := services.NewDashboardService(dashboardRepo, cacheProvider, cfg.Settlement.DashboardTTL, metrics)
	suspensionSweeper := services.NewSuspensionSweeper(providerRepo, slotRepo, eventBus, metrics, cfg.Settlement.MaxCASRetries)
	expirySweeper := services.NewExpirySweeper(providerRepo, eventRepo, index, eventBus, metrics)

	scheduler := services.NewScheduler(locker, cfg.Sweeper.LockTTL)
	schedule := func(expr string) string {
		if !cfg.Sweeper.Enabled {
			return ""
		}
		return expr
	}
	for _, job := range []struct {
		name, expr string
		run        services.SweepFunc
	}{
		{services.SweepBalance, cfg.Sweeper.BalanceSchedule, suspensionSweeper.RunBalanceSweep},
		{services.SweepVisits, cfg.Sweeper.VisitSchedule, suspensionSweeper.RunVisitSweep},
		{services.SweepExpiry, cfg.Sweeper.ExpirySchedule, expirySweeper.RunExpirySweep},
	} {
		if err := scheduler.Register(job.name, schedule(job.expr), job.run); err != nil {
			log.Fatal().Err(err).Str("sweep", job.name).Msg("Failed to register sweep")
		}
	}
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start sweep scheduler")
	}
	defer scheduler.Stop()

	cacheInvalidation := services.NewCacheInvalidationService(cacheProvider, eventBus)
	if err := cacheInvalidation.Start(); err != nil {
		log.Warn().Err(err).Msg("Failed to start cache invalidation listener")
	}
	defer cacheInvalidation.Stop()

	// HTTP
	auth := middleware.NewAuthenticator(cfg.Auth.JWTSecret)
	if cfg.Auth.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET is not set; every authenticated route will reject requests")
	}

	router := routes.NewRouter(
		handlers.NewIdentityHandler(identityService, auth),
		handlers.NewOfferingHandler(offeringService),
		handlers.NewBookingHandler(bookingService, settlementService),
		handlers.NewAdminHandler(ledgerService, dashboardService, scheduler),
		auth,
		middleware.NewCacheMiddleware(cacheProvider, metrics),
		providerRepo,
		metrics,
		cfg.Server.AllowedOrigins,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

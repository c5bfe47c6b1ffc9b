package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"

	"honeypot-lab/internal/api"
	"honeypot-lab/internal/api/handlers"
	"honeypot-lab/internal/config"
	"honeypot-lab/internal/domain/services"
	"honeypot-lab/internal/domain/services/ai"
	grpcserver "honeypot-lab/internal/grpc/intel"
	"honeypot-lab/internal/infrastructure/cache"
	"honeypot-lab/internal/infrastructure/database"
	"honeypot-lab/internal/infrastructure/database/repository"
	"honeypot-lab/internal/streaming"
	"honeypot-lab/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	var log *logger.Logger
	if cfg.App.Environment == "production" {
		log = logger.NewProduction()
	} else {
		log = logger.NewDevelopment()
	}
	logger.SetGlobal(log)

	log.Info().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Environment).
		Str("version", cfg.App.Version).
		Msg("starting Honeypot Lab")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize infrastructure
	db, redisCache, err := initInfrastructure(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize infrastructure")
	}
	defer func() {
		db.Close()
		if redisCache != nil {
			redisCache.Close()
		}
	}()

	// The turn store is the session source of truth, so the schema must exist
	// before the first webhook lands.
	turnRepo := repository.NewTurnRepository(db.Pool(), log)
	if err := turnRepo.Bootstrap(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to bootstrap turn store schema")
	}
	log.Info().Msg("turn store initialized")

	// Initialize streaming infrastructure
	var natsPublisher *streaming.NATSPublisher
	if cfg.NATS.Enabled {
		natsPublisher, err = streaming.NewNATSPublisher(ctx, cfg.NATS, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to NATS, continuing without real-time streaming")
		} else {
			log.Info().Str("url", cfg.NATS.URL).Msg("connected to NATS")
		}
	}

	// Initialize services
	extractor := services.NewPatternExtractor(log)
	reporter := services.NewReportGenerator(log)
	generator := ai.NewClient(ai.Config{
		APIKey:         cfg.Generation.APIKey,
		Models:         cfg.Generation.Models,
		AttemptTimeout: cfg.Generation.AttemptTimeout,
		Temperature:    cfg.Generation.Temperature,
	}, log)

	var publisher services.EventPublisher
	if natsPublisher != nil {
		publisher = natsPublisher
	}
	var reportCache services.ReportCache
	if redisCache != nil {
		reportCache = redisCache
	}

	engine := services.NewEngine(
		services.EngineConfig{HistoryLimit: cfg.Generation.HistoryLimit},
		turnRepo,
		extractor,
		generator,
		reporter,
		publisher,
		reportCache,
		log,
	)
	log.Info().
		Strs("models", cfg.Generation.Models).
		Int("history_limit", cfg.Generation.HistoryLimit).
		Bool("credentials", cfg.Generation.APIKey != "").
		Msg("decoy engine initialized")

	// Initialize handlers
	deps := handlers.Dependencies{
		Engine: engine,
		Cache:  redisCache,
		DB:     db,
		Logger: log,
	}
	h := handlers.NewHandlers(deps)

	// Create router
	router := api.NewRouter(*cfg, h, redisCache, log)
	httpHandler := router.Setup()

	// Start HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler:      httpHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().
			Str("addr", httpServer.Addr).
			Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Start gRPC server (health only)
	grpcListener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.GRPCPort))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create gRPC listener")
	}

	grpcServer := grpc.NewServer()
	grpcserver.RegisterHealthServer(ctx, grpcServer, db, redisCache)

	go func() {
		log.Info().
			Str("addr", grpcListener.Addr().String()).
			Msg("starting gRPC server")
		if err := grpcServer.Serve(grpcListener); err != nil {
			log.Fatal().Err(err).Msg("gRPC server failed")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")

	// Cancel context to stop background services
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	grpcServer.GracefulStop()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	if natsPublisher != nil {
		natsPublisher.Close()
	}

	log.Info().Msg("shutdown complete")
}

// initInfrastructure initializes database and cache connections. Postgres is
// required; Redis is optional (report caching and rate limiting degrade off).
func initInfrastructure(ctx context.Context, cfg *config.Config, log *logger.Logger) (*database.PostgresDB, *cache.RedisCache, error) {
	db, err := database.NewPostgres(ctx, cfg.Database, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	redisCache, err := cache.NewRedis(ctx, cfg.Redis, log)
	if err != nil {
		log.Warn().Err(err).Msg("failed to connect to Redis, continuing without cache")
		redisCache = nil
	}

	return db, redisCache, nil
}

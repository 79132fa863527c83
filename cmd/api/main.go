package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shareit/internal/api"
	"shareit/internal/config"
	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/logging"
	"shareit/internal/metrics"
	"shareit/internal/repository"
	"shareit/internal/seed"
	"shareit/internal/service"
	"shareit/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.Database, &logger)
	if err != nil {
		logger.Error().Err(err).Str("driver", cfg.Database.Driver).Msg("init database")
		return err
	}
	defer db.Close()

	if err := applySeed(ctx, cfg, db, &logger); err != nil {
		return err
	}

	go database.NewBackupService(db, cfg.Backup, &logger).Start(ctx)

	if !cfg.API.Enabled {
		logger.Warn().Msg("API is disabled in config, but starting API application. Check your config.")
	}

	limiterRepo, redisClient := initRateLimiter(ctx, cfg, &logger)
	if redisClient != nil {
		defer (func() { _ = repository.Close(redisClient) })()
	}
	writes := api.NewWriteLimiter(limiterRepo, cfg.Booking, &logger)

	eventBus := events.NewEventBus(&logger)
	events.SubscribeAudit(eventBus, &logger)

	users := service.NewUserService(db, &logger)
	items := service.NewItemService(db, users, eventBus, &logger)
	bookings := service.NewBookingService(db, users, items, domain.SystemClock{}, eventBus, &logger)

	var grpcServer *api.GRPCServer
	if cfg.API.GRPC.Enabled {
		grpcServer, err = api.NewGRPCServer(&cfg.API, bookings, writes, &logger)
		if err != nil {
			logger.Error().Err(err).Msg("create grpc server")
			return err
		}
	}

	httpServer := api.NewHTTPServer(cfg.API, api.Services{
		Bookings: bookings,
		Users:    users,
		Items:    items,
	}, writes, &logger)

	startMetrics(ctx, cfg, &logger)

	return startServers(ctx, grpcServer, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func applySeed(ctx context.Context, cfg *config.Config, db *database.DB, logger *zerolog.Logger) error {
	if cfg.Seed.Path == "" {
		return nil
	}

	fx, err := seed.Load(cfg.Seed.Path)
	if err != nil {
		logger.Error().Err(err).Str("seed_path", cfg.Seed.Path).Msg("load seed")
		return err
	}

	seedCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if _, err := seed.Apply(seedCtx, db, fx, logger); err != nil {
		logger.Error().Err(err).Str("seed_path", cfg.Seed.Path).Msg("apply seed")
		return err
	}
	return nil
}

// initRateLimiter counts writes in Redis when configured, falling back to
// process memory while Redis is unreachable.
func initRateLimiter(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (domain.RateLimitRepository, *redis.Client) {
	window := time.Duration(cfg.Booking.WriteWindow) * time.Second
	memory := repository.NewMemoryRateLimiter()
	go memory.RunSweeper(ctx, window)

	if cfg.Redis.Address == "" {
		logger.Info().Msg("redis not configured, counting writes in memory")
		return memory, nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, client); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, starting on memory fallback")
	} else {
		logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	}

	retry := time.Duration(cfg.Booking.FailoverRetry) * time.Second
	policy := worker.RetryPolicy{
		InitialDelay:  retry,
		MaxDelay:      10 * retry,
		BackoffFactor: 2,
	}
	return repository.NewFailoverRateLimiter(repository.NewRedisRateLimiter(client), memory, policy, logger), client
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServers(
	ctx context.Context,
	grpcServer *api.GRPCServer,
	httpServer *api.HTTPServer,
	cfg *config.Config,
	logger *zerolog.Logger,
) error {
	if grpcServer != nil {
		go func() {
			if err := grpcServer.Serve(); err != nil {
				logger.Error().Err(err).Msg("grpc server stopped")
			}
		}()
	}

	go func() {
		if !cfg.API.HTTP.Enabled {
			return
		}
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().
		Bool("grpc_enabled", grpcServer != nil).
		Int("grpc_port", cfg.API.GRPC.Port).
		Int("http_port", cfg.API.HTTP.Port).
		Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if grpcServer != nil {
		grpcServer.Shutdown(shutdownCtx)
	}
	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/contact-dispatch/cmd/mainconfig"
	"github.com/wolfman30/contact-dispatch/internal/api/router"
	"github.com/wolfman30/contact-dispatch/internal/app/bootstrap"
	appconfig "github.com/wolfman30/contact-dispatch/internal/config"
	"github.com/wolfman30/contact-dispatch/internal/dispatch"
	"github.com/wolfman30/contact-dispatch/internal/http/handlers"
	"github.com/wolfman30/contact-dispatch/internal/observability/metrics"
	"github.com/wolfman30/contact-dispatch/internal/whatsapp"
	"github.com/wolfman30/contact-dispatch/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting contact-dispatch API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	metricsHandler, dispatchMetrics := setupMetrics()

	redisClient := bootstrap.BuildRedisClient(bgCtx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}

	kind, err := bootstrap.ResolveJobStoreKind(cfg, redisClient != nil)
	if err != nil {
		logger.Error("invalid job store", "error", err)
		os.Exit(1)
	}
	backends, closeBackends, err := buildBackends(bgCtx, cfg, kind, redisClient, logger)
	if err != nil {
		logger.Error("failed to initialize job store backend", "store", kind, "error", err)
		os.Exit(1)
	}
	defer closeBackends()

	jobStore, purger, err := bootstrap.BuildJobStore(cfg, kind, backends, logger)
	if err != nil {
		logger.Error("failed to build job store", "error", err)
		os.Exit(1)
	}
	if purger != nil {
		go dispatch.RunPurger(bgCtx, purger, cfg.JobPurgeInterval, logger)
	}
	logger.Info("job store ready", "store", kind, "ttl", cfg.JobTTL)

	limiter, counter := bootstrap.BuildLimiter(cfg, redisClient, logger, dispatchMetrics)
	if counter != nil {
		logger.Warn("redis not configured; rate limiting is per process")
		go counter.Run(bgCtx, cfg.RateLimitWindow)
	}

	transport := whatsapp.New(whatsapp.Config{
		BaseURL:    cfg.WhatsAppAPIBaseURL,
		Timeout:    cfg.DispatchSendTimeout,
		MaxRetries: cfg.WhatsAppMaxRetries,
		Logger:     logger.Logger,
	})
	dispatcher := dispatch.New(bootstrap.DispatchConfig(cfg), jobStore, transport, logger, dispatchMetrics)

	// Setup router
	routerCfg := &router.Config{
		Logger:             logger,
		ContactsHandler:    handlers.NewContactsHandler(cfg.DefaultCountryArea, logger),
		DispatchHandler:    handlers.NewDispatchHandler(dispatcher, logger),
		HealthHandler:      handlers.NewHealthHandler(redisClient, kind),
		RateLimiter:        limiter,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}
	r := router.New(routerCfg)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	if err := dispatcher.Wait(ctx); err != nil {
		logger.Warn("dispatch jobs still running at shutdown", "error", err)
	}
	stopBackground()

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

func setupMetrics() (http.Handler, *metrics.DispatchMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewDispatchMetrics(reg)
}

// buildBackends opens the client the selected job store needs. The returned
// func releases it.
func buildBackends(ctx context.Context, cfg *appconfig.Config, kind string, redisClient *redis.Client, logger *logging.Logger) (bootstrap.Backends, func(), error) {
	backends := bootstrap.Backends{Redis: redisClient}
	noop := func() {}
	switch kind {
	case appconfig.JobStoreRedis:
		if redisClient == nil {
			return backends, noop, errors.New("REDIS_ADDR is not reachable")
		}
	case appconfig.JobStoreDynamoDB:
		client, err := mainconfig.NewDynamoClient(ctx, cfg)
		if err != nil {
			return backends, noop, fmt.Errorf("load aws config: %w", err)
		}
		backends.Dynamo = client
	case appconfig.JobStorePostgres:
		pool := connectPostgresPool(ctx, cfg.DatabaseURL, logger)
		if pool == nil {
			return backends, noop, errors.New("postgres is not reachable")
		}
		backends.Postgres = pool
		return backends, pool.Close, nil
	}
	return backends, noop, nil
}

func connectPostgresPool(ctx context.Context, url string, logger *logging.Logger) *pgxpool.Pool {
	if url == "" {
		return nil
	}
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		return nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		logger.Error("failed to ping postgres", "error", err)
		pool.Close()
		return nil
	}
	return pool
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/followuphq/followup/internal/api/router"
	"github.com/followuphq/followup/internal/app/bootstrap"
	appconfig "github.com/followuphq/followup/internal/config"
	"github.com/followuphq/followup/internal/http/handlers"
	httpmiddleware "github.com/followuphq/followup/internal/http/middleware"
	"github.com/followuphq/followup/internal/leads"
	"github.com/followuphq/followup/internal/observability/metrics"
	"github.com/followuphq/followup/internal/session"
	"github.com/followuphq/followup/pkg/logging"
)

func main() {
	// Load .env in development; ignore when absent.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting followup API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	if cfg.SessionJWTSecret == "" && cfg.RedisAddr == "" {
		logger.Error("no session verification configured, set SESSION_JWT_SECRET or REDIS_ADDR")
		os.Exit(1)
	}

	ctx := context.Background()

	// Storage: Postgres when configured, in-memory otherwise (dev mode).
	var (
		leadsRepo        leads.Repository
		dashboardHandler *handlers.DashboardHandler
	)
	leadMetrics := metrics.NewLeadMetrics(prometheus.DefaultRegisterer)
	if cfg.DatabaseURL != "" {
		pool, db, err := bootstrap.OpenDatabases(ctx, cfg)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		defer func() { _ = db.Close() }()

		leadsRepo = leads.NewPostgresRepository(pool)
		dashboardHandler = handlers.NewDashboardHandler(db, leadMetrics, logger)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory lead store")
		leadsRepo = leads.NewInMemoryRepository()
	}

	// Opaque session tokens need Redis; without it only JWTs are accepted.
	var sessionStore *session.Store
	if redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true); redisClient != nil {
		sessionStore = session.NewStore(redisClient, cfg.SessionTTL)
		defer func() { _ = redisClient.Close() }()
	}

	routerCfg := &router.Config{
		Logger:             logger,
		LeadsHandler:       leads.NewHandler(leadsRepo, leadMetrics, logger),
		DashboardHandler:   dashboardHandler,
		SignoutHandler:     session.NewSignoutHandler(sessionStore, logger),
		SessionSecret:      cfg.SessionJWTSecret,
		SessionStore:       sessionStore,
		MetricsHandler:     promhttp.Handler(),
		HTTPMetrics:        httpmiddleware.NewHTTPMetrics(prometheus.DefaultRegisterer),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerSecond: float64(cfg.RateLimitPerSecond),
		RateLimitBurst:     cfg.RateLimitBurst,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

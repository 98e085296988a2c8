// Package main is the entrypoint for the Playbook server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kiranshivaraju/playbook/internal/ai"
	"github.com/kiranshivaraju/playbook/internal/analysis"
	"github.com/kiranshivaraju/playbook/internal/analytics"
	"github.com/kiranshivaraju/playbook/internal/api"
	"github.com/kiranshivaraju/playbook/internal/api/handler"
	mw "github.com/kiranshivaraju/playbook/internal/api/middleware"
	"github.com/kiranshivaraju/playbook/internal/api/response"
	"github.com/kiranshivaraju/playbook/internal/cache"
	"github.com/kiranshivaraju/playbook/internal/config"
	"github.com/kiranshivaraju/playbook/internal/metrics"
	"github.com/kiranshivaraju/playbook/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 30 * time.Second

// envFiles are loaded in order; variables already set are never overwritten.
var envFiles = []string{".env.local", ".env"}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := loadEnvFiles(envFiles...); err != nil {
		slog.Error("env file unreadable", "error", err)
		os.Exit(1)
	}

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func loadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func run() error {
	// 1. Load config; fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "ai_provider", cfg.AI.Provider, "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Metrics registry
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// 3. Optional event archive
	var archive store.Store
	if cfg.Database.URL != "" {
		pool, err := store.Connect(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()
		slog.Info("database connected")

		if err := store.RunMigrations(cfg.Database.URL); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		slog.Info("database migrations applied")
		archive = store.NewPostgresStore(pool)
	} else {
		slog.Info("event archive disabled")
	}

	// 4. Cache: Redis when configured, in-process otherwise
	c, err := openCache(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer c.Close()

	// 5. AI provider. A missing key keeps the page up with generation off.
	gen, err := ai.NewProvider(ctx, cfg.AI)
	if err != nil {
		slog.Warn("AI provider unavailable", "provider", cfg.AI.Provider, "error", err)
		gen = nil
	} else {
		slog.Info("AI provider initialized", "provider", gen.Name(), "model", gen.Model())
	}
	streamer := analysis.NewStreamer(gen, cfg.Report, m, slog.Default())

	// 6. Analytics delivery
	emitter := analytics.NewEmitter(cfg.Analytics.Timeout, m, slog.Default(), sinks(cfg.Analytics, archive)...)

	// 7. Build router with dependencies
	pageDeps := handler.PageDeps{
		Runner:  streamer,
		Tracker: emitter,
		Cache:   c,
		Page:    cfg.Page,
		Logger:  slog.Default(),
	}
	deps := api.Dependencies{
		Auth:       mw.NewAuth(cfg.Server.AdminTokenHash),
		RateLimit:  mw.NewRateLimit(c, cfg.Server.RateLimitPerHour, m),
		TrustProxy: cfg.Server.TrustProxy,

		PageHandler:    handler.NewPageHandler(pageDeps),
		StreamHandler:  handler.NewStreamHandler(pageDeps),
		CTAHandler:     handler.NewCTAHandler(pageDeps),
		HealthHandler:  healthHandler(archive, c),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	}
	if archive != nil {
		deps.ListEventsHandler = handler.NewListEventsHandler(archive)
	}

	router := api.NewRouter(deps)

	// 8. Start HTTP server. Streams stay open for the whole report, so
	// there is no write timeout.
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	if err := emitter.Close(shutdownCtx); err != nil {
		slog.Warn("analytics deliveries abandoned", "error", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

func openCache(ctx context.Context, cfg config.RedisConfig) (cache.Cache, error) {
	if cfg.URL == "" {
		slog.Info("using in-process cache")
		return cache.NewMemoryCache(), nil
	}
	redisCache, err := cache.NewRedisCache(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("create redis cache: %w", err)
	}
	if err := redisCache.Ping(ctx); err != nil {
		redisCache.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")
	return redisCache, nil
}

func sinks(cfg config.AnalyticsConfig, archive store.Store) []analytics.Sink {
	var out []analytics.Sink
	if cfg.Endpoint != "" {
		out = append(out, analytics.NewHTTPSink(cfg.Endpoint, &http.Client{Timeout: cfg.Timeout}))
	}
	if archive != nil {
		out = append(out, analytics.NewStoreSink(archive))
	}
	if len(out) == 0 {
		slog.Info("no analytics sinks configured; events are counted only")
	}
	return out
}

// healthHandler checks cache and archive connectivity. A nil archive is
// reported as disabled.
func healthHandler(s store.Store, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": "disabled",
			"cache":    "ok",
		}

		if s != nil {
			checks["database"] = "ok"
			if err := s.Ping(r.Context()); err != nil {
				checks["database"] = "degraded"
			}
		}
		if err := c.Ping(r.Context()); err != nil {
			checks["cache"] = "degraded"
		}

		degraded := checks["database"] == "degraded" || checks["cache"] == "degraded"
		if degraded {
			response.Error(w, http.StatusServiceUnavailable, response.CodeDegraded,
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}

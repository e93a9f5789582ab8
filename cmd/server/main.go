// Command server starts the Vision U career guidance HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Subhamsidhanta/Vision-U/internal/adapter/ai/gemini"
	aistub "github.com/Subhamsidhanta/Vision-U/internal/adapter/ai/stub"
	httpserver "github.com/Subhamsidhanta/Vision-U/internal/adapter/httpserver"
	"github.com/Subhamsidhanta/Vision-U/internal/adapter/observability"
	"github.com/Subhamsidhanta/Vision-U/internal/adapter/render/artifactcache"
	"github.com/Subhamsidhanta/Vision-U/internal/adapter/render/gotenberg"
	"github.com/Subhamsidhanta/Vision-U/internal/adapter/repo/postgres"
	"github.com/Subhamsidhanta/Vision-U/internal/app"
	"github.com/Subhamsidhanta/Vision-U/internal/config"
	"github.com/Subhamsidhanta/Vision-U/internal/domain"
	obs "github.com/Subhamsidhanta/Vision-U/internal/observability"
	"github.com/Subhamsidhanta/Vision-U/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	// Register all Prometheus metrics once per process so that /metrics
	// exposes HTTP, AI and render instrumentation.
	obs.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	// Infra: DB pool
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	planRepo := postgres.NewPlanRepo(pool)

	// AI client: fall back to the deterministic stub when no key is set
	// outside production, so the whole pipeline stays runnable locally.
	var aiClient domain.RecommendationClient
	if cfg.GeminiAPIKey == "" && !cfg.IsProd() {
		slog.Warn("GEMINI_API_KEY not set, using stub recommendation client")
		aiClient = aistub.New()
	} else {
		aiClient = gemini.New(cfg)
	}

	// Render engine and optional artifact cache
	engine := gotenberg.New(cfg.RenderEngineURL, cfg.RenderTimeout)
	var cache domain.ArtifactCache
	var redisCheck func(ctx context.Context) error
	if cfg.RedisURL != "" {
		rc, err := artifactcache.New(cfg.RedisURL, cfg.ArtifactCacheTTL)
		if err != nil {
			slog.Error("redis connect failed", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() { _ = rc.Close() }()
		cache = rc
		redisCheck = rc.Ping
	}

	// Usecases
	store := usecase.NewPlanStore(planRepo, cfg.GenerationTimeout)
	recommendSvc := usecase.NewRecommendService(store, aiClient)
	reportSvc := usecase.NewReportService(store, engine, cache)

	srv := &httpserver.Server{
		Cfg:        cfg,
		Recommend:  recommendSvc,
		Reports:    reportSvc,
		DBCheck:    func(ctx context.Context) error { return pool.Ping(ctx) },
		RedisCheck: redisCheck,
	}
	handler := app.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}

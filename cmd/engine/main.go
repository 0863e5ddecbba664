package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/motion-granted/engine/internal/adapter/gateway"
	enghttp "github.com/motion-granted/engine/internal/adapter/http"
	engnats "github.com/motion-granted/engine/internal/adapter/nats"
	engotel "github.com/motion-granted/engine/internal/adapter/otel"
	"github.com/motion-granted/engine/internal/adapter/postgres"
	"github.com/motion-granted/engine/internal/adapter/ristretto"
	"github.com/motion-granted/engine/internal/adapter/slack"
	"github.com/motion-granted/engine/internal/config"
	"github.com/motion-granted/engine/internal/domain/phase"
	"github.com/motion-granted/engine/internal/logger"
	"github.com/motion-granted/engine/internal/port/notifier"
	"github.com/motion-granted/engine/internal/resilience"
	"github.com/motion-granted/engine/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	slog.SetDefault(logger.New(cfg.Logging))

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"sweep_interval", cfg.Workflow.SweepInterval,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Observability ---
	otelShutdown, err := engotel.Setup(ctx, cfg.Logging.Service, cfg.OTel)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Error("otel shutdown", "error", err)
		}
	}()
	metrics, err := engotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("otel metrics: %w", err)
	}

	// --- Infrastructure ---
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	queue, err := engnats.Connect(ctx, cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer func() { _ = queue.Close() }()

	cache, err := ristretto.New(cfg.Cache.MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer cache.Close()

	var alerts notifier.Notifier
	if cfg.Alerts.SlackWebhookURL != "" {
		alerts = slack.NewNotifier(cfg.Alerts.SlackWebhookURL)
	}

	// --- Model routing ---
	registry, err := phase.DefaultRegistry().WithModelOverrides(cfg.Workflow.ModelOverrides)
	if err != nil {
		return fmt.Errorf("model overrides: %w", err)
	}

	caller := gateway.NewClient(cfg.Gateway.URL, cfg.Gateway.APIKey, cfg.Gateway.Timeout)
	caller.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))

	// --- Services ---
	store := postgres.NewStore(pool)
	orderSvc := service.NewOrderService(store, queue, metrics)
	costSvc := service.NewCostService(store, queue, alerts)
	citationSvc := service.NewCitationService(store, cache)
	refundSvc := service.NewRefundService(store, orderSvc)
	searchSvc := service.NewSearchService(store, cache)
	driver := service.NewPhaseDriver(store, caller, queue, orderSvc, costSvc, citationSvc, registry, metrics)
	jobs := service.NewJobs(store, orderSvc, driver, alerts, cfg.Workflow)

	cancelPhases, err := driver.StartPhaseSubscriber(ctx)
	if err != nil {
		return fmt.Errorf("phase subscriber: %w", err)
	}
	defer cancelPhases()

	// --- HTTP ---
	handlers := enghttp.NewHandlers(orderSvc, costSvc, citationSvc, refundSvc, searchSvc, driver,
		cfg.Workflow.HoldInactivityWindow)

	r := chi.NewRouter()
	r.Use(enghttp.CORS(cfg.Server.CORSOrigin))
	r.Use(enghttp.RequestID)
	r.Use(enghttp.Logger)
	r.Use(engotel.HTTPMiddleware(cfg.Logging.Service))
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))

	enghttp.MountRoutes(r, handlers)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		jobs.Start(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

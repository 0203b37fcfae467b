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

	"github.com/boddenberg/home-mind-bridge/internal/config"
	"github.com/boddenberg/home-mind-bridge/internal/handler"
	"github.com/boddenberg/home-mind-bridge/internal/infra/client"
	"github.com/boddenberg/home-mind-bridge/internal/infra/observability"
	"github.com/boddenberg/home-mind-bridge/internal/infra/resilience"
	"github.com/boddenberg/home-mind-bridge/internal/infra/store"
	"github.com/boddenberg/home-mind-bridge/internal/infra/supabase"
	"github.com/boddenberg/home-mind-bridge/internal/port"
	"github.com/boddenberg/home-mind-bridge/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("store_driver", cfg.StoreDriver),
		zap.Duration("health_timeout", cfg.HealthTimeout),
		zap.Duration("chat_timeout", cfg.ChatTimeout),
		zap.Bool("breaker_enabled", cfg.BreakerEnabled),
		zap.Bool("tracing_enabled", cfg.TracingEnabled),
		zap.Bool("caller_identity", cfg.JWTSecret != ""),
	)

	// --- Tracing ---
	endpoint := ""
	if cfg.TracingEnabled {
		endpoint = cfg.OTLPEndpoint
	}
	shutdownTracer, err := observability.InitTracer(endpoint, "home-mind-bridge")
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer shutdownTracer(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Entry store ---
	entries, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// --- Client ---
	breakers := resilience.NewSet("home-mind-api", breakerConfig(cfg), logger)
	api := newAPIClient(cfg, breakers, logger)

	// --- Services ---
	registry := service.NewRegistry(api, entries, metrics, logger)
	if err := registry.Load(ctx); err != nil {
		return fmt.Errorf("load entries: %w", err)
	}

	validator := service.NewValidator(api, metrics, logger)
	flow := service.NewConfigFlow(validator, entries, registry, metrics, logger)

	// --- Router ---
	router := handler.NewRouter(handler.Deps{
		Flow:      flow,
		Registry:  registry,
		Entries:   entries,
		Breakers:  breakers,
		Metrics:   metrics,
		Logger:    logger,
		JWTSecret: cfg.JWTSecret,
	})

	// --- Server ---
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// Chat calls may take the full chat timeout.
		WriteTimeout: cfg.ChatTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()
		logger.Info("server shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced shutdown: %w", err)
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}

func openStore(cfg *config.Config, logger *zap.Logger) (port.EntryStore, func(), error) {
	switch cfg.StoreDriver {
	case "memory":
		return store.NewMemoryStore(), func() {}, nil
	case "supabase":
		logger.Info("using Supabase as entry store", zap.String("supabase_url", cfg.SupabaseURL))
		sb := supabase.NewClient(&http.Client{Timeout: 10 * time.Second}, cfg.SupabaseURL, cfg.SupabaseServiceKey, logger)
		return supabase.NewEntryStore(sb), func() {}, nil
	}
	s, err := store.NewSQLiteStore(cfg.StorePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open entry store: %w", err)
	}
	return s, func() { s.Close() }, nil
}

func breakerConfig(cfg *config.Config) resilience.Config {
	return resilience.Config{
		Enabled:      cfg.BreakerEnabled,
		MinRequests:  cfg.BreakerMinRequests,
		FailureRatio: cfg.BreakerFailureRatio,
		OpenTimeout:  cfg.BreakerOpenTimeout,
	}
}

func newAPIClient(cfg *config.Config, breakers *resilience.Set, logger *zap.Logger) *client.HomeMindClient {
	// Per-call deadlines come from the client options, not http.Client.Timeout.
	return client.NewHomeMindClient(&http.Client{}, breakers, client.Options{
		HealthTimeout: cfg.HealthTimeout,
		ChatTimeout:   cfg.ChatTimeout,
	}, logger)
}

package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/jaedolph/verified-first/internal/adapter/httpserver"
	"github.com/jaedolph/verified-first/internal/adapter/metrics"
	"github.com/jaedolph/verified-first/internal/adapter/postgres"
	"github.com/jaedolph/verified-first/internal/app"
	"github.com/jaedolph/verified-first/internal/platform/config"
	"github.com/jaedolph/verified-first/internal/platform/logging"
	"github.com/jaedolph/verified-first/internal/twitch"
	"github.com/jaedolph/verified-first/internal/verify"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := postgres.RunMigrationsWithLock(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func runGracefulShutdown(srv *httpserver.Server) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	pool := setupDB(cfg)
	defer pool.Close()

	broadcasterRepo := postgres.NewBroadcasterRepo(pool)
	firstRepo := postgres.NewFirstRepo(pool)

	registry := metrics.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)
	twitchMetrics := metrics.NewTwitchMetrics(registry)

	httpClient := &http.Client{
		Timeout:   cfg.RequestTimeout,
		Transport: twitchMetrics.Transport(nil),
	}

	authClient := twitch.NewAuthClient(httpClient,
		cfg.TwitchClientID, cfg.TwitchClientSecret, cfg.TwitchRedirectURI, cfg.TwitchOAuthURL,
		broadcasterRepo)
	apiClient := twitch.NewClient(cfg.TwitchClientID, httpClient)
	executor := twitch.NewExecutor(apiClient, authClient, twitch.NewTokenCache())
	helix := twitch.NewAPI(executor, apiClient, cfg.TwitchAPIBaseURL, cfg.EventSubCallbackURL, cfg.EventSubSecret)
	reconciler := twitch.NewReconciler(helix, broadcasterRepo)

	appSvc := app.NewService(broadcasterRepo, firstRepo, authClient, helix, reconciler)

	verifier := verify.NewSignatureVerifier(cfg.EventSubSecret)
	validator := verify.NewTokenValidator(cfg.ExtensionSecretBytes())
	replay := httpserver.NewReplayCache(clock)

	healthChecks := []httpserver.HealthCheck{
		{Name: "database", Check: pool.Ping},
	}

	srv, err := httpserver.NewServer(cfg, appSvc, verifier, validator, replay,
		metrics.Handler(registry), httpMetrics.Middleware(), healthChecks)
	if err != nil {
		slog.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	done := runGracefulShutdown(srv)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}

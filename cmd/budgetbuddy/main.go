package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"budgetbuddy/internal/backend"
	"budgetbuddy/internal/cache"
	"budgetbuddy/internal/cli"
	apphttp "budgetbuddy/internal/http"
	"budgetbuddy/internal/log"
	"budgetbuddy/internal/services"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func main() {
	cfg, logger, err := cli.Bootstrap(log.ComponentApp)
	if err != nil {
		cli.Exit(logger, "Failed to start budgetbuddy", err)
	}

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Exit(logger, "Invalid backend configuration", err)
	}
	result, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		cli.Exit(logger, "Failed to initialize backend", err)
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	svc := services.NewBudgetService(result.Backend, result.Publisher, cfg.Threshold(), cfg.CurrencySymbol)

	sweeps := cache.NewManager()
	sweeps.Register(svc.IdleSweeper(cfg.SessionTTL))
	sweeps.StartCleanup(cfg.SessionSweepInterval)
	defer sweeps.Stop()

	opts := apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
		SecureCookies:      cfg.SecureCookies,
	}
	if p, ok := result.Backend.(pinger); ok {
		opts.Ready = p.Ping
	}
	srv, err := apphttp.NewServer(":"+cfg.Port, svc, opts)
	if err != nil {
		cli.Exit(logger, "Failed to create HTTP server", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting budgetbuddy server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"alert_feed", result.Publisher != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", log.FieldError, err)
		return
	}
	logger.Info("Server stopped gracefully")
}

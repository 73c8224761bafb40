package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/angeloszaimis/news-aggregator/config"
	"github.com/angeloszaimis/news-aggregator/internal/aggregator"
	"github.com/angeloszaimis/news-aggregator/internal/circuitbreaker"
	"github.com/angeloszaimis/news-aggregator/internal/handler"
	"github.com/angeloszaimis/news-aggregator/internal/httpserver"
	"github.com/angeloszaimis/news-aggregator/internal/metrics"
	"github.com/angeloszaimis/news-aggregator/internal/provider"
	"github.com/angeloszaimis/news-aggregator/internal/retry"
	"github.com/angeloszaimis/news-aggregator/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, true, cfg.Server.Environment)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	providers, err := initializeProviders(cfg, log)
	if err != nil {
		log.Error("Failed to initialize providers", slog.Any("err", err))
		os.Exit(1)
	}

	collector := metrics.NewCollector(cfg.Metrics.BufferSize, log)
	collector.Start(ctx)

	breakerSettings, err := breakerSettingsFromConfig(cfg.CircuitBreaker)
	if err != nil {
		log.Error("Invalid circuit breaker settings", slog.Any("err", err))
		os.Exit(1)
	}

	retryPolicy, err := retryPolicyFromConfig(cfg.Retry)
	if err != nil {
		log.Error("Invalid retry settings", slog.Any("err", err))
		os.Exit(1)
	}

	agg := aggregator.New(providers, aggregator.Options{
		Logger:          log,
		BreakerSettings: breakerSettings,
		RetryPolicy:     retryPolicy,
		Collector:       collector,
	})

	newsHandler := handler.NewNewsHandler(log, agg)

	srv, err := httpserver.New(cfg.Server.Address, setupRouter(newsHandler, collector))
	if err != nil {
		log.Error("Failed to create server", slog.Any("err", err))
		os.Exit(1)
	}

	log.Info("News aggregator listening",
		slog.String("address", cfg.Server.Address),
		slog.Int("providers", len(providers)))

	srvErrCh := make(chan error, 1)

	go func() {
		srvErrCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error("Error during shutdown", slog.Any("err", err))
		}
	case err := <-srvErrCh:
		if err != nil {
			log.Error("Error starting server", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

func initializeProviders(cfg *config.Config, log *slog.Logger) (map[string]provider.Provider, error) {
	providers := make(map[string]provider.Provider, len(cfg.Providers))

	for _, pc := range cfg.Providers {
		var timeout time.Duration
		if pc.Timeout != "" {
			parsed, err := time.ParseDuration(pc.Timeout)
			if err != nil {
				return nil, err
			}
			timeout = parsed
		}

		client, err := provider.NewHTTPProvider(provider.HTTPProviderOptions{
			Name:       pc.Name,
			BaseURL:    pc.BaseURL,
			APIKey:     pc.APIKey,
			SearchPath: pc.SearchPath,
			HealthPath: pc.HealthPath,
			Timeout:    timeout,
		})
		if err != nil {
			log.Error("Failed to create provider",
				slog.String("provider", pc.Name),
				slog.String("error", err.Error()))
			return nil, err
		}

		if !client.IsConfigured() {
			log.Warn("Provider has no API key, calls will be reported as failed",
				slog.String("provider", pc.Name))
		}

		providers[pc.Name] = client
	}

	if len(providers) == 0 {
		return nil, os.ErrInvalid
	}

	return providers, nil
}

func breakerSettingsFromConfig(cfg config.CircuitBreakerConfig) (circuitbreaker.Settings, error) {
	recoveryTimeout, err := time.ParseDuration(cfg.RecoveryTimeout)
	if err != nil {
		return circuitbreaker.Settings{}, err
	}

	monitoringWindow, err := time.ParseDuration(cfg.MonitoringWindow)
	if err != nil {
		return circuitbreaker.Settings{}, err
	}

	return circuitbreaker.Settings{
		FailureThreshold: cfg.FailureThreshold,
		RecoveryTimeout:  recoveryTimeout,
		MonitoringWindow: monitoringWindow,
		MinimumRequests:  cfg.MinimumRequests,
	}, nil
}

func retryPolicyFromConfig(cfg config.RetryConfig) (retry.Policy, error) {
	baseDelay, err := time.ParseDuration(cfg.BaseDelay)
	if err != nil {
		return retry.Policy{}, err
	}

	var maxJitter time.Duration
	if cfg.MaxJitter != "" {
		maxJitter, err = time.ParseDuration(cfg.MaxJitter)
		if err != nil {
			return retry.Policy{}, err
		}
	}

	return retry.Policy{
		MaxAttempts: cfg.MaxAttempts,
		BaseDelay:   baseDelay,
		Multiplier:  cfg.Multiplier,
		MaxJitter:   maxJitter,
	}, nil
}

// Package app wires configuration, providers, the fetcher and the HTTP
// server into a runnable dashboard backend.
package app

import (
	"context"
	"time"

	"github.com/openfolio/pulse/internal/api"
	"github.com/openfolio/pulse/internal/api/handler"
	"github.com/openfolio/pulse/internal/config"
	"github.com/openfolio/pulse/internal/fetch"
	"github.com/openfolio/pulse/internal/metrics"
	"github.com/openfolio/pulse/internal/provider"
	"github.com/openfolio/pulse/internal/provider/alphavantage"
	"github.com/openfolio/pulse/internal/provider/yahoo"
	"go.uber.org/zap"
)

// App is the assembled dashboard backend.
type App struct {
	cfg     *config.Config
	logger  *zap.Logger
	fetcher *fetch.Fetcher
	server  *api.Server
	metrics *metrics.Registry
}

// New builds the App from configuration. Providers are constructed and
// ordered per the config; unknown names in the order are skipped by
// construction since Validate rejects them earlier.
func New(cfg *config.Config, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}

	var reg *metrics.Registry
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
	}

	providers := buildProviders(cfg, logger)

	fetcher := fetch.New(fetch.Config{
		MaxAttempts: cfg.Fetch.MaxAttempts,
		Backoff:     cfg.Fetch.Backoff,
		CacheTTL:    cfg.Cache.TTL,
	}, providers, logger, reg)

	h := handler.New(fetcher, logger)

	server := api.NewServer(api.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		APIKey:      cfg.Server.APIKey,
		MetricsPath: cfg.Metrics.Path,
	}, h, reg, logger)

	return &App{
		cfg:     cfg,
		logger:  logger,
		fetcher: fetcher,
		server:  server,
		metrics: reg,
	}
}

// buildProviders constructs the provider chain in the configured
// fallback order.
func buildProviders(cfg *config.Config, logger *zap.Logger) []provider.Provider {
	registry := provider.NewRegistry()
	registry.Register(alphavantage.New(cfg.Providers.AlphaVantage.APIKey))
	if cfg.Providers.Yahoo.Enabled {
		registry.Register(yahoo.New())
	}

	ordered := make([]provider.Provider, 0, len(cfg.Providers.Order))
	for _, name := range cfg.Providers.Order {
		p, ok := registry.Get(name)
		if !ok {
			logger.Warn("provider in order is not enabled", zap.String("provider", name))
			continue
		}
		ordered = append(ordered, p)
	}
	if len(ordered) == 0 {
		ordered = registry.All()
	}
	return ordered
}

// Fetcher returns the assembled fetcher, for one-shot CLI use.
func (a *App) Fetcher() *fetch.Fetcher {
	return a.fetcher
}

// Run starts the HTTP server and blocks until the context is cancelled,
// then shuts the server down gracefully.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return a.server.Shutdown(shutdownCtx)
}

package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/openfolio/pulse/internal/app"
	"github.com/openfolio/pulse/internal/config"
	"github.com/openfolio/pulse/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Pulse server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	log.Info("starting Pulse server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.Strings("providers", cfg.Providers.Order),
	)

	a := app.New(cfg, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return a.Run(ctx)
}

func loadConfig(log *zap.Logger) (*config.Config, error) {
	if cfgFile != "" {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		return cfg, nil
	}

	log.Warn("no config file specified, using defaults")
	cfg := config.Defaults()
	if cfg.Providers.AlphaVantage.APIKey == "" {
		log.Warn("no Alpha Vantage key found", zap.String("env", config.EnvAlphaVantageKey))
	}
	return cfg, nil
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/openfolio/pulse/internal/app"
	"github.com/openfolio/pulse/internal/core"
	"github.com/openfolio/pulse/internal/indicator"
	"github.com/openfolio/pulse/internal/logger"
	"github.com/spf13/cobra"
)

var (
	fetchPeriod    string
	fetchBenchmark string
	fetchJSON      bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch SYMBOL",
	Short: "Fetch history and print indicators for one symbol",
	Args:  cobra.ExactArgs(1),
	RunE:  runFetch,
}

func init() {
	fetchCmd.Flags().StringVarP(&fetchPeriod, "period", "p", "6m", "lookback period (1m, 6m, 1y, 5y, max)")
	fetchCmd.Flags().StringVarP(&fetchBenchmark, "benchmark", "b", "", "benchmark symbol for beta")
	fetchCmd.Flags().BoolVar(&fetchJSON, "json", false, "print raw JSON")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	fetcher := app.New(cfg, log).Fetcher()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	series, err := fetcher.GetSeries(ctx, args[0], fetchPeriod)
	if err != nil {
		return err
	}
	if series == nil {
		return fmt.Errorf("no data available for %s over %s", args[0], fetchPeriod)
	}

	var benchmark *core.Series
	if fetchBenchmark != "" {
		benchmark, err = fetcher.GetSeries(ctx, fetchBenchmark, fetchPeriod)
		if err != nil {
			return fmt.Errorf("fetching benchmark: %w", err)
		}
	}

	set := indicator.ComputeWithBenchmark(series, benchmark)

	if fetchJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"symbol":     series.Symbol,
			"period":     fetchPeriod,
			"source":     series.Source,
			"bars":       series.Len(),
			"indicators": set,
		})
	}

	fmt.Printf("%s (%s, %d bars via %s)\n", series.Symbol, fetchPeriod, series.Len(), series.Source)
	printField("Last price", set.LastPrice, "%.2f")
	printField("Day change", set.PriceChangePct, "%.2f%%")
	printField("Period return", set.PeriodReturnPct, "%.2f%%")
	printField("CAGR", set.CAGRPct, "%.2f%%")
	printField("Volatility (ann.)", set.AnnualizedVolatilityPct, "%.2f%%")
	printField("Sharpe ratio", set.SharpeRatio, "%.2f")
	printField("Max drawdown", set.MaxDrawdownPct, "%.2f%%")
	printField("Beta", set.BetaVsBenchmark, "%.2f")
	printField("Avg volume", set.AvgVolume, "%.0f")
	printField("MA20", set.MA20, "%.2f")
	printField("MA50", set.MA50, "%.2f")
	return nil
}

func printField(label string, v *float64, format string) {
	if v == nil {
		return
	}
	fmt.Printf("  %-18s "+format+"\n", label, *v)
}

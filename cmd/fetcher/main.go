// Command fetcher downloads daily closes for a set of tickers, saves them as
// per-ticker CSV files in the data directory, then rebuilds the dashboard
// workbook from what landed on disk.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"marketdash/internal/app"
	"marketdash/internal/config"
	"marketdash/internal/fetch"
	"marketdash/internal/infrastructure"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	tickers := flag.String("tickers", "AAPL,SPY,JPM", "comma-separated tickers to fetch")
	rangeArg := flag.String("range", "", "history range, e.g. 1mo, 3mo, 1y (overrides config)")
	interval := flag.String("interval", "", "bar interval, e.g. 1d, 1wk (overrides config)")
	skipBuild := flag.Bool("no-build", false, "fetch only, skip the workbook build")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *rangeArg != "" {
		cfg.Fetch.Range = *rangeArg
	}
	if *interval != "" {
		cfg.Fetch.Interval = *interval
	}

	logger, cleanup, err := infrastructure.SetupLogger(cfg.Logging)
	if err != nil {
		slog.Error("failed to set up logger", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := fetch.NewClient(cfg.Fetch, logger)
	store := fetch.NewStore(cfg.Data.Dir, logger)

	fetched := 0
	for _, ticker := range strings.Split(*tickers, ",") {
		ticker = strings.TrimSpace(ticker)
		if ticker == "" {
			continue
		}

		observations, err := client.DailyCloses(ctx, ticker)
		if err != nil {
			logger.Error("fetch failed", slog.String("ticker", ticker), slog.String("error", err.Error()))
			continue
		}
		if err := store.Save(ctx, ticker, observations); err != nil {
			logger.Error("save failed", slog.String("ticker", ticker), slog.String("error", err.Error()))
			continue
		}
		if len(observations) > 0 {
			fetched++
		}
	}

	if fetched == 0 {
		logger.Error("no tickers fetched successfully")
		os.Exit(1)
	}

	if *skipBuild {
		logger.Info("fetch completed", slog.Int("tickers", fetched))
		return
	}

	result, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("build failed", "error", err)
		os.Exit(1)
	}

	logger.Info("dashboard written",
		slog.String("path", cfg.Data.OutFile),
		slog.Int("tickers", len(result.Summaries)))
}

// Command dashboard rebuilds the market insights workbook from the CSV
// files in the data directory.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"marketdash/internal/app"
	"marketdash/internal/config"
	"marketdash/internal/infrastructure"
	"marketdash/internal/ingest"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	dataDir := flag.String("data", "", "input directory with per-ticker CSV files (overrides config)")
	outFile := flag.String("out", "", "output .xlsx path (overrides config)")
	exportCSV := flag.Bool("csv", false, "also export metrics.csv and summary.csv")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *dataDir != "" {
		cfg.Data.Dir = *dataDir
	}
	if *outFile != "" {
		cfg.Data.OutFile = *outFile
	}
	if *exportCSV {
		cfg.Data.ExportCSV = true
	}

	logger, cleanup, err := infrastructure.SetupLogger(cfg.Logging)
	if err != nil {
		slog.Error("failed to set up logger", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, err := app.Build(ctx, cfg, logger)
	if err != nil {
		var noInput *ingest.NoValidInputError
		if errors.As(err, &noInput) {
			logger.Error("nothing to process",
				slog.String("data_dir", cfg.Data.Dir),
				slog.String("error", noInput.Error()))
		} else {
			logger.Error("build failed", "error", err)
		}
		os.Exit(1)
	}

	logger.Info("dashboard written",
		slog.String("path", cfg.Data.OutFile),
		slog.Int("tickers", len(result.Summaries)))
}

// Package app ties the collaborators around the pipeline into the build
// flow shared by the binaries: discover sources, run the pipeline, render
// the workbook, optionally export CSV tables and record history.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"marketdash/internal/config"
	"marketdash/internal/exporter"
	"marketdash/internal/ingest"
	"marketdash/internal/metrics"
	"marketdash/internal/pipeline"
	"marketdash/internal/recorder"
)

// Build runs the full dashboard build against cfg and returns the pipeline
// result. A recording failure is logged, not returned: history is an
// auxiliary concern and must never fail a finished build.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pipeline.Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	sources, err := ingest.DiscoverCSVSources(cfg.Data.Dir)
	if err != nil {
		return nil, fmt.Errorf("discover sources: %w", err)
	}

	p := pipeline.New(pipeline.Options{
		Engine: metrics.Config{
			ShortMAWindow:  cfg.Metrics.ShortMAWindow,
			LongMAWindow:   cfg.Metrics.LongMAWindow,
			VolWindow:      cfg.Metrics.VolWindow,
			PeriodsPerYear: cfg.Metrics.PeriodsPerYear,
		},
		Logger: logger,
	})

	result, err := p.Run(ctx, sources)
	if err != nil {
		return nil, err
	}

	builder := exporter.NewWorkbookBuilder(logger)
	if err := builder.Build(cfg.Data.OutFile, result.Observations, result.Metrics, result.Summaries); err != nil {
		return nil, fmt.Errorf("build workbook: %w", err)
	}

	if cfg.Data.ExportCSV {
		writer := exporter.NewCSVWriter(logger)
		if err := writer.WriteMetrics(filepath.Join(cfg.Data.CSVDir, "metrics.csv"), result.Metrics); err != nil {
			return nil, fmt.Errorf("export metrics csv: %w", err)
		}
		if err := writer.WriteSummary(filepath.Join(cfg.Data.CSVDir, "summary.csv"), result.Summaries); err != nil {
			return nil, fmt.Errorf("export summary csv: %w", err)
		}
	}

	rec, err := newRecorder(cfg, logger)
	if err != nil {
		logger.WarnContext(ctx, "history recorder unavailable", slog.String("error", err.Error()))
		return result, nil
	}
	defer rec.Close()

	if err := rec.RecordRun(ctx, result.RunID, result.Summaries); err != nil {
		logger.WarnContext(ctx, "failed to record run history", slog.String("error", err.Error()))
	}

	return result, nil
}

func newRecorder(cfg *config.Config, logger *slog.Logger) (recorder.Recorder, error) {
	if !cfg.History.Enabled {
		return recorder.NewNoop(), nil
	}
	return recorder.NewSQLiteRecorder(cfg.History.DBPath, logger)
}

// Package pipeline wires the normalizer, the metrics engine and the summary
// reducer into one synchronous run: raw record sources in, normalized
// observations, combined metric series and summary table out.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"marketdash/internal/ingest"
	"marketdash/internal/metrics"
	"marketdash/internal/summary"
	"marketdash/pkg/contracts/domain"
)

// Options configures a pipeline. Everything is explicit; there is no ambient
// process state the run depends on.
type Options struct {
	Engine metrics.Config
	Logger *slog.Logger
}

// Result is the complete output of one run. Observations are ordered by
// ticker then date, Metrics likewise, Summaries alphabetically by ticker.
type Result struct {
	RunID        string
	Observations []domain.Observation
	Metrics      []domain.MetricPoint
	Summaries    []domain.SummaryRow
}

// Pipeline is stateless between runs; a single instance may be reused.
type Pipeline struct {
	logger     *slog.Logger
	normalizer *ingest.Normalizer
	engine     *metrics.Engine
	reducer    *summary.Reducer
}

// New builds a pipeline from the given options.
func New(opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		logger:     logger,
		normalizer: ingest.NewNormalizer(logger),
		engine:     metrics.NewEngine(logger, opts.Engine),
		reducer:    summary.NewReducer(logger),
	}
}

// Run loads every source, computes metrics and reduces summaries. It fails
// only when no source satisfies the required-column contract
// (ingest.NoValidInputError) or the context is cancelled; malformed rows and
// short series are expected and resolve to dropped rows or nil fields.
func (p *Pipeline) Run(ctx context.Context, sources []ingest.RecordSource) (*Result, error) {
	runID := uuid.NewString()
	logger := p.logger.With(slog.String("run_id", runID))
	start := time.Now()

	logger.InfoContext(ctx, "pipeline run started", slog.Int("sources", len(sources)))

	groups, err := p.normalizer.Normalize(ctx, sources)
	if err != nil {
		return nil, fmt.Errorf("normalize input: %w", err)
	}

	points, err := p.engine.ComputeAll(ctx, groups)
	if err != nil {
		return nil, fmt.Errorf("compute metrics: %w", err)
	}

	rows := p.reducer.ReduceAll(points)

	result := &Result{
		RunID:        runID,
		Observations: flatten(groups),
		Metrics:      points,
		Summaries:    rows,
	}

	logger.InfoContext(ctx, "pipeline run completed",
		slog.Int("tickers", len(rows)),
		slog.Int("observations", len(result.Observations)),
		slog.Duration("elapsed", time.Since(start)))

	return result, nil
}

// flatten concatenates the per-ticker groups ordered by ticker then date.
func flatten(groups map[string][]domain.Observation) []domain.Observation {
	tickers := make([]string, 0, len(groups))
	for ticker := range groups {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	var observations []domain.Observation
	for _, ticker := range tickers {
		observations = append(observations, groups[ticker]...)
	}
	return observations
}

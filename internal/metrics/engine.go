// Package metrics derives rolling statistics from normalized price series:
// daily percent change, short and long moving averages, and annualized
// rolling volatility. Each ticker is computed independently, so the engine
// fans out across tickers without affecting results.
package metrics

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"marketdash/pkg/contracts/domain"
)

// Config holds the rolling-window parameters. The defaults mirror the
// dashboard's fixed constants; they are surfaced here so tests and embedders
// can override them.
type Config struct {
	ShortMAWindow  int     // window for the short moving average
	LongMAWindow   int     // window for the long moving average
	VolWindow      int     // window for rolling volatility over percent changes
	PeriodsPerYear float64 // annualization base for volatility (trading periods per year)
}

// DefaultConfig returns the standard daily-bar parameters: 10/30 day moving
// averages and 10-day volatility annualized over 252 trading days.
func DefaultConfig() Config {
	return Config{
		ShortMAWindow:  10,
		LongMAWindow:   30,
		VolWindow:      10,
		PeriodsPerYear: 252,
	}
}

// Engine computes MetricPoint series from Observation series.
type Engine struct {
	logger *slog.Logger
	cfg    Config
}

// NewEngine creates an engine. Zero or negative config fields fall back to
// the defaults; a nil logger falls back to slog.Default.
func NewEngine(logger *slog.Logger, cfg Config) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.ShortMAWindow <= 0 {
		cfg.ShortMAWindow = def.ShortMAWindow
	}
	if cfg.LongMAWindow <= 0 {
		cfg.LongMAWindow = def.LongMAWindow
	}
	if cfg.VolWindow <= 0 {
		cfg.VolWindow = def.VolWindow
	}
	if cfg.PeriodsPerYear <= 0 {
		cfg.PeriodsPerYear = def.PeriodsPerYear
	}
	return &Engine{logger: logger, cfg: cfg}
}

// Compute derives the metric series for a single ticker. The input must be
// ordered by date ascending; the output is the same length, position for
// position. Short series are normal: derived fields stay nil until their
// windows fill.
func (e *Engine) Compute(series []domain.Observation) []domain.MetricPoint {
	points := make([]domain.MetricPoint, len(series))
	closes := make([]float64, len(series))
	pct := make([]*float64, len(series))

	for i, obs := range series {
		closes[i] = obs.Close
		points[i] = domain.MetricPoint{
			Date:   obs.Date,
			Ticker: obs.Ticker,
			Close:  obs.Close,
		}
		if i > 0 {
			pct[i] = domain.Float(obs.Close/closes[i-1] - 1)
		}
		points[i].PctChange = pct[i]

		if ma := windowMean(closes, i, e.cfg.ShortMAWindow); ma != nil {
			points[i].MA10 = ma
		}
		if ma := windowMean(closes, i, e.cfg.LongMAWindow); ma != nil {
			points[i].MA30 = ma
		}
		if vol := windowVol(pct, i, e.cfg.VolWindow, e.cfg.PeriodsPerYear); vol != nil {
			points[i].Vol10 = vol
		}
	}

	return points
}

// ComputeAll computes metric series for every ticker concurrently and returns
// them concatenated, ordered by ticker then date. Tickers have no data
// dependency on each other, so execution order cannot change the result.
func (e *Engine) ComputeAll(ctx context.Context, groups map[string][]domain.Observation) ([]domain.MetricPoint, error) {
	start := time.Now()

	tickers := make([]string, 0, len(groups))
	for ticker := range groups {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	var mu sync.Mutex
	results := make(map[string][]domain.MetricPoint, len(tickers))

	g, ctx := errgroup.WithContext(ctx)
	for _, ticker := range tickers {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			points := e.Compute(groups[ticker])
			mu.Lock()
			results[ticker] = points
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var combined []domain.MetricPoint
	for _, ticker := range tickers {
		combined = append(combined, results[ticker]...)
	}

	e.logger.InfoContext(ctx, "computed metrics",
		slog.Int("tickers", len(tickers)),
		slog.Int("points", len(combined)),
		slog.Duration("elapsed", time.Since(start)))

	return combined, nil
}

// windowMean returns the mean of the window of length size ending at i, or
// nil while the window has not filled yet.
func windowMean(values []float64, i, size int) *float64 {
	if i < size-1 {
		return nil
	}
	return domain.Float(mean(values[i-size+1 : i+1]))
}

// windowVol returns the annualized sample standard deviation of the percent
// changes in the window of length size ending at i. Every value in the
// window must be defined, so the first defined volatility lands one position
// after the window length (pct[0] never exists).
func windowVol(pct []*float64, i, size int, periodsPerYear float64) *float64 {
	if i < size-1 {
		return nil
	}
	window := make([]float64, 0, size)
	for _, p := range pct[i-size+1 : i+1] {
		if p == nil {
			return nil
		}
		window = append(window, *p)
	}
	return domain.Float(sampleStdDev(window) * math.Sqrt(periodsPerYear))
}

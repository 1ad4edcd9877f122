// Package summary reduces per-ticker metric series to single rows of point
// statistics: total return over the loaded period, five-day return, latest
// rolling volatility and last close.
package summary

import (
	"log/slog"
	"sort"

	"marketdash/pkg/contracts/domain"
)

// Reducer turns MetricPoint series into SummaryRows.
type Reducer struct {
	logger *slog.Logger
}

// NewReducer creates a reducer. A nil logger falls back to slog.Default.
func NewReducer(logger *slog.Logger) *Reducer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reducer{logger: logger}
}

// Reduce computes the summary row for one ticker's ordered metric series.
// An empty series yields a row with the ticker set and every numeric field
// nil; short series leave individual fields nil. Neither is an error.
func (r *Reducer) Reduce(ticker string, points []domain.MetricPoint) domain.SummaryRow {
	row := domain.SummaryRow{Ticker: ticker}
	n := len(points)
	if n == 0 {
		return row
	}

	last := points[n-1].Close
	row.LastClose = domain.Float(last)

	if n >= 2 && points[0].Close != 0 {
		row.TotalReturn = domain.Float(last/points[0].Close - 1)
	}

	// Looks back exactly 5 positions from the end.
	if n >= 6 && points[n-6].Close != 0 {
		row.Return5D = domain.Float(last/points[n-6].Close - 1)
	}

	for i := n - 1; i >= 0; i-- {
		if points[i].Vol10 != nil {
			row.Vol10Latest = points[i].Vol10
			break
		}
	}

	return row
}

// ReduceAll groups a combined metric series by ticker and reduces each group,
// returning rows ordered alphabetically by ticker. Points for one ticker must
// already be date-ordered, as produced by the metrics engine.
func (r *Reducer) ReduceAll(points []domain.MetricPoint) []domain.SummaryRow {
	groups := make(map[string][]domain.MetricPoint)
	for _, p := range points {
		groups[p.Ticker] = append(groups[p.Ticker], p)
	}

	rows := make([]domain.SummaryRow, 0, len(groups))
	for ticker, series := range groups {
		rows = append(rows, r.Reduce(ticker, series))
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Ticker < rows[j].Ticker
	})

	return rows
}

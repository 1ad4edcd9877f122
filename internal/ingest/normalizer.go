package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"marketdash/pkg/contracts/domain"
)

// NoValidInputError reports that none of the supplied sources exposed the
// three required columns. It is the only fatal condition in the normalizer;
// everything else degrades to dropped rows.
type NoValidInputError struct {
	Sources int
}

func (e *NoValidInputError) Error() string {
	return fmt.Sprintf("no input source with Date, Ticker and Close columns (checked %d sources)", e.Sources)
}

// columnIndices holds the positions of the required columns within one
// source's header, -1 when absent.
type columnIndices struct {
	dateCol   int
	tickerCol int
	closeCol  int
}

func (c columnIndices) complete() bool {
	return c.dateCol != -1 && c.tickerCol != -1 && c.closeCol != -1
}

// Normalizer turns raw tabular records into per-ticker ordered price series.
// Rows with an unparseable date or close are dropped silently; a source
// missing a required column is skipped entirely.
type Normalizer struct {
	logger *slog.Logger
}

// NewNormalizer creates a normalizer. A nil logger falls back to slog.Default.
func NewNormalizer(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{logger: logger}
}

// Normalize reads every source, coerces types, drops invalid rows and groups
// the survivors by ticker, sorted by date ascending with duplicate dates
// collapsed (last occurrence wins). It returns NoValidInputError when no
// source satisfies the required-column contract.
func (n *Normalizer) Normalize(ctx context.Context, sources []RecordSource) (map[string][]domain.Observation, error) {
	groups := make(map[string][]domain.Observation)
	validSources := 0

	for _, source := range sources {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("normalize cancelled: %w", ctx.Err())
		default:
		}

		header, rows, err := source.Records()
		if err != nil {
			n.logger.WarnContext(ctx, "failed to read source, skipping",
				slog.String("source", source.Name()),
				slog.String("error", err.Error()))
			continue
		}

		cols := resolveColumns(header)
		if !cols.complete() {
			n.logger.WarnContext(ctx, "source missing required columns, skipping",
				slog.String("source", source.Name()),
				slog.Any("header", header))
			continue
		}
		validSources++

		kept, dropped := 0, 0
		for _, row := range rows {
			obs, ok := parseRow(row, cols)
			if !ok {
				dropped++
				continue
			}
			groups[obs.Ticker] = append(groups[obs.Ticker], obs)
			kept++
		}

		n.logger.InfoContext(ctx, "loaded source",
			slog.String("source", source.Name()),
			slog.Int("rows", kept),
			slog.Int("dropped", dropped))
	}

	if validSources == 0 {
		return nil, &NoValidInputError{Sources: len(sources)}
	}

	for ticker, series := range groups {
		groups[ticker] = sortAndDedupe(series)
	}

	return groups, nil
}

// resolveColumns maps header cells to the required columns. Matching is
// case- and whitespace-insensitive, with the common synonyms accepted.
func resolveColumns(header []string) columnIndices {
	cols := columnIndices{dateCol: -1, tickerCol: -1, closeCol: -1}

	for i, cell := range header {
		switch normalizeColumn(cell) {
		case "date":
			if cols.dateCol == -1 {
				cols.dateCol = i
			}
		case "ticker", "symbol":
			if cols.tickerCol == -1 {
				cols.tickerCol = i
			}
		case "close", "closeprice", "close_price", "adj close", "adj_close":
			if cols.closeCol == -1 {
				cols.closeCol = i
			}
		}
	}

	return cols
}

// normalizeColumn strips a stray BOM and surrounding whitespace and lowers
// the cell for comparison.
func normalizeColumn(cell string) string {
	cell = strings.TrimPrefix(cell, "\uFEFF")
	return strings.ToLower(strings.TrimSpace(cell))
}

// parseRow coerces one data row into an Observation. ok is false when the
// row is too short, the date or close does not parse, the close is negative
// or non-finite, or the ticker is empty.
func parseRow(row []string, cols columnIndices) (domain.Observation, bool) {
	max := cols.dateCol
	if cols.tickerCol > max {
		max = cols.tickerCol
	}
	if cols.closeCol > max {
		max = cols.closeCol
	}
	if len(row) <= max {
		return domain.Observation{}, false
	}

	date, err := parseDate(strings.TrimSpace(row[cols.dateCol]))
	if err != nil {
		return domain.Observation{}, false
	}

	ticker := strings.ToUpper(strings.TrimSpace(row[cols.tickerCol]))
	if ticker == "" {
		return domain.Observation{}, false
	}

	close, err := strconv.ParseFloat(strings.TrimSpace(row[cols.closeCol]), 64)
	if err != nil || math.IsNaN(close) || math.IsInf(close, 0) || close < 0 {
		return domain.Observation{}, false
	}

	return domain.Observation{Date: date, Ticker: ticker, Close: close}, true
}

// dateFormats lists the layouts accepted for the date column, most common
// first.
var dateFormats = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"02-01-2006",
}

func parseDate(value string) (time.Time, error) {
	for _, format := range dateFormats {
		if t, err := time.Parse(format, value); err == nil {
			return domain.Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", value)
}

// sortAndDedupe orders a series by date ascending and collapses duplicate
// dates, keeping the last occurrence in input order.
func sortAndDedupe(series []domain.Observation) []domain.Observation {
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})

	deduped := series[:0]
	for _, obs := range series {
		if n := len(deduped); n > 0 && deduped[n-1].Date.Equal(obs.Date) {
			deduped[n-1] = obs
			continue
		}
		deduped = append(deduped, obs)
	}
	return deduped
}

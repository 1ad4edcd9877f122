package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"marketdash/pkg/contracts/domain"
)

// CSVWriter writes tabular exports. Paths are explicit; parent directories
// are created as needed and a UTF-8 BOM is prepended so Excel opens the
// files without mangling.
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a CSV writer. A nil logger falls back to slog.Default.
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger}
}

// Write writes headers followed by records to path, replacing any existing
// file.
func (w *CSVWriter) Write(path string, headers []string, records [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("write headers: %w", err)
	}
	for i, record := range records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}

	w.logger.Info("wrote CSV file",
		slog.String("path", path),
		slog.Int("records", len(records)))

	return writer.Error()
}

// WriteObservations writes a normalized observation table as Date,Ticker,Close.
func (w *CSVWriter) WriteObservations(path string, observations []domain.Observation) error {
	records := make([][]string, len(observations))
	for i, obs := range observations {
		records[i] = []string{obs.DateString(), obs.Ticker, formatFloat(obs.Close)}
	}
	return w.Write(path, []string{"Date", "Ticker", "Close"}, records)
}

// WriteMetrics writes a combined metric series. Nil fields become empty cells.
func (w *CSVWriter) WriteMetrics(path string, points []domain.MetricPoint) error {
	records := make([][]string, len(points))
	for i, p := range points {
		records[i] = []string{
			p.DateString(),
			p.Ticker,
			formatFloat(p.Close),
			formatOptional(p.PctChange),
			formatOptional(p.MA10),
			formatOptional(p.MA30),
			formatOptional(p.Vol10),
		}
	}
	headers := []string{"Date", "Ticker", "Close", "Pct_Change", "MA_10", "MA_30", "Vol_10"}
	return w.Write(path, headers, records)
}

// WriteSummary writes the per-ticker summary table. Nil fields become empty
// cells.
func (w *CSVWriter) WriteSummary(path string, rows []domain.SummaryRow) error {
	records := make([][]string, len(rows))
	for i, row := range rows {
		records[i] = []string{
			row.Ticker,
			formatOptional(row.TotalReturn),
			formatOptional(row.Return5D),
			formatOptional(row.Vol10Latest),
			formatOptional(row.LastClose),
		}
	}
	headers := []string{"Ticker", "Total_Return", "Return_5D", "Vol_10", "Last_Close"}
	return w.Write(path, headers, records)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

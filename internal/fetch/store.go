package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"marketdash/internal/exporter"
	"marketdash/pkg/contracts/domain"
)

// Store persists fetched series as one Date,Ticker,Close CSV per ticker, the
// layout the ingestion layer discovers.
type Store struct {
	dir    string
	writer *exporter.CSVWriter
	logger *slog.Logger
}

// NewStore creates a store writing under dir.
func NewStore(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		dir:    dir,
		writer: exporter.NewCSVWriter(logger),
		logger: logger,
	}
}

// Save writes one ticker's series, replacing any previous file for it.
// Empty series are skipped so a failed fetch never truncates existing data.
func (s *Store) Save(ctx context.Context, ticker string, observations []domain.Observation) error {
	if len(observations) == 0 {
		s.logger.WarnContext(ctx, "skipping empty series", slog.String("ticker", ticker))
		return nil
	}

	path := filepath.Join(s.dir, ticker+".csv")
	if err := s.writer.WriteObservations(path, observations); err != nil {
		return fmt.Errorf("save %s: %w", ticker, err)
	}
	return nil
}

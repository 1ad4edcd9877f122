// Package recorder persists the per-run summary table so successive builds
// leave an inspectable history. The pipeline core does not depend on it;
// recording failures never affect the computed result.
package recorder

import (
	"context"

	"marketdash/pkg/contracts/domain"
)

// Recorder appends one run's summary rows to durable storage.
type Recorder interface {
	RecordRun(ctx context.Context, runID string, rows []domain.SummaryRow) error
	Close() error
}

// Noop is the recorder used when history is disabled.
type Noop struct{}

// NewNoop creates a recorder that discards everything.
func NewNoop() *Noop { return &Noop{} }

func (*Noop) RecordRun(context.Context, string, []domain.SummaryRow) error { return nil }

func (*Noop) Close() error { return nil }

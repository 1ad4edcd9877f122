package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"marketdash/pkg/contracts/domain"
)

// SQLiteRecorder appends summary rows to a SQLite database, one row per
// ticker per run.
type SQLiteRecorder struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteRecorder opens (or creates) the database at dbPath and runs the
// schema migration.
func NewSQLiteRecorder(dbPath string, logger *slog.Logger) (*SQLiteRecorder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("sqlite recorder opened", slog.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS summary_history (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id       TEXT NOT NULL,
			recorded_at  INTEGER NOT NULL,
			ticker       TEXT NOT NULL,
			total_return REAL,
			return_5d    REAL,
			vol_10       REAL,
			last_close   REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_summary_run ON summary_history(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_summary_ticker ON summary_history(ticker, recorded_at)`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}

// RecordRun appends every summary row under the given run ID in one
// transaction. Nil fields are stored as NULL.
func (r *SQLiteRecorder) RecordRun(ctx context.Context, runID string, rows []domain.SummaryRow) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO summary_history
		(run_id, recorded_at, ticker, total_return, return_5d, vol_10, last_close)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	recordedAt := time.Now().Unix()
	for _, row := range rows {
		_, err := stmt.ExecContext(ctx, runID, recordedAt, row.Ticker,
			nullable(row.TotalReturn), nullable(row.Return5D),
			nullable(row.Vol10Latest), nullable(row.LastClose))
		if err != nil {
			return fmt.Errorf("insert summary for %s: %w", row.Ticker, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	r.logger.InfoContext(ctx, "recorded run summary",
		slog.String("run_id", runID),
		slog.Int("rows", len(rows)))

	return nil
}

// Close closes the underlying database.
func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

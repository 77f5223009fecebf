// Package store persists run checkpoints in SQLite. The authoritative
// resume state is the per-run set of completed record indices; a record
// is marked completed only after its output row has been written.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// Store tracks enrichment runs and their per-record progress.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path in WAL mode.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "store: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "store: exec %s", pragma)
		}
	}
	return &Store{db: db}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	input_path  TEXT NOT NULL,
	output_path TEXT NOT NULL,
	stages      TEXT NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS run_records (
	run_id       TEXT NOT NULL REFERENCES runs(id),
	idx          INTEGER NOT NULL,
	status       TEXT NOT NULL,
	tokens       INTEGER NOT NULL DEFAULT 0,
	cost_usd     REAL NOT NULL DEFAULT 0,
	error        TEXT,
	completed_at DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (run_id, idx)
);

CREATE INDEX IF NOT EXISTS idx_run_records_status ON run_records(run_id, status);
`

const (
	statusCompleted = "completed"
	statusFailed    = "failed"
)

// Migrate creates the schema.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "store: migrate")
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureRun returns the most recent run for the input/output/stages
// triple, creating one when none exists. Reusing the run is what makes
// an interrupted invocation resumable.
func (s *Store) EnsureRun(ctx context.Context, inputPath, outputPath, stages string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM runs
		 WHERE input_path = ? AND output_path = ? AND stages = ?
		 ORDER BY created_at DESC LIMIT 1`,
		inputPath, outputPath, stages,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !eris.Is(err, sql.ErrNoRows) {
		return "", eris.Wrap(err, "store: select run")
	}

	id = uuid.New().String()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, input_path, output_path, stages, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, inputPath, outputPath, stages, time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrap(err, "store: insert run")
	}
	return id, nil
}

// MarkCompleted records that the record at idx was enriched and its
// output row persisted. Re-marking an index is idempotent.
func (s *Store) MarkCompleted(ctx context.Context, runID string, idx int, tokens int, costUSD float64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO run_records (run_id, idx, status, tokens, cost_usd, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (run_id, idx) DO UPDATE SET
		   status = excluded.status,
		   tokens = excluded.tokens,
		   cost_usd = excluded.cost_usd,
		   error = NULL,
		   completed_at = excluded.completed_at`,
		runID, idx, statusCompleted, tokens, costUSD, time.Now().UTC(),
	)
	return eris.Wrapf(err, "store: mark completed %d", idx)
}

// MarkFailed records that every stage failed for the record at idx.
func (s *Store) MarkFailed(ctx context.Context, runID string, idx int, msg string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO run_records (run_id, idx, status, error, completed_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (run_id, idx) DO UPDATE SET
		   status = excluded.status,
		   error = excluded.error,
		   completed_at = excluded.completed_at`,
		runID, idx, statusFailed, msg, time.Now().UTC(),
	)
	return eris.Wrapf(err, "store: mark failed %d", idx)
}

// CompletedSet returns the set of completed indices for a run.
func (s *Store) CompletedSet(ctx context.Context, runID string) (map[int]bool, error) {
	return s.indexSet(ctx, runID, statusCompleted)
}

// FailedSet returns the set of failed indices for a run.
func (s *Store) FailedSet(ctx context.Context, runID string) (map[int]bool, error) {
	return s.indexSet(ctx, runID, statusFailed)
}

func (s *Store) indexSet(ctx context.Context, runID, status string) (map[int]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT idx FROM run_records WHERE run_id = ? AND status = ?`,
		runID, status,
	)
	if err != nil {
		return nil, eris.Wrap(err, "store: select indices")
	}
	defer rows.Close()

	set := make(map[int]bool)
	for rows.Next() {
		var idx int
		if err := rows.Scan(&idx); err != nil {
			return nil, eris.Wrap(err, "store: scan index")
		}
		set[idx] = true
	}
	return set, eris.Wrap(rows.Err(), "store: iterate indices")
}

// NextResumeIndex returns the smallest index not yet completed: the
// contiguous frontier. Completed indices above it are skipped via
// CompletedSet, so out-of-order worker completion never loses records.
func (s *Store) NextResumeIndex(ctx context.Context, runID string) (int, error) {
	completed, err := s.CompletedSet(ctx, runID)
	if err != nil {
		return 0, err
	}
	next := 0
	for completed[next] {
		next++
	}
	return next, nil
}

// RunTotals sums persisted tokens and cost for a run.
func (s *Store) RunTotals(ctx context.Context, runID string) (tokens int, costUSD float64, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(tokens), 0), COALESCE(SUM(cost_usd), 0)
		 FROM run_records WHERE run_id = ? AND status = ?`,
		runID, statusCompleted,
	).Scan(&tokens, &costUSD)
	return tokens, costUSD, eris.Wrap(err, "store: run totals")
}

// Package store keeps a local history of remote executions triggered from
// this machine, so `flowctl recent` works without a service round-trip.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/me/flowctl/pkg/workflow"
)

// Run is one recorded execution.
type Run struct {
	Execution string
	Workflow  string
	Version   string
	Project   string
	Domain    string
	Phase     workflow.ExecutionPhase
	CreatedAt time.Time
}

// History is a SQLite-backed execution log.
type History struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the history database at dbPath.
// Use ":memory:" for an in-memory database (useful in tests).
func Open(dbPath string, logger *slog.Logger) (*History, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	// WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}

	return &History{
		db:     db,
		logger: logger.With("component", "history"),
	}, nil
}

// Close closes the underlying database connection.
func (h *History) Close() error {
	return h.db.Close()
}

// schema contains the DDL for the history database.
// Each statement uses IF NOT EXISTS for idempotency.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		execution  TEXT PRIMARY KEY,
		workflow   TEXT NOT NULL,
		version    TEXT NOT NULL,
		project    TEXT NOT NULL,
		domain     TEXT NOT NULL,
		phase      TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC)`,
}

// Migrate creates the runs table and its index.
func (h *History) Migrate(ctx context.Context) error {
	h.logger.Debug("sql", "op", "migrate")
	for _, stmt := range schema {
		if _, err := h.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Record inserts or updates a run.
func (h *History) Record(ctx context.Context, run Run) error {
	h.logger.Debug("sql", "op", "upsert", "table", "runs", "execution", run.Execution)

	_, err := h.db.ExecContext(ctx,
		`INSERT INTO runs (execution, workflow, version, project, domain, phase, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(execution) DO UPDATE SET phase = excluded.phase`,
		run.Execution, run.Workflow, run.Version, run.Project, run.Domain,
		string(run.Phase), run.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// Recent returns up to limit runs, newest first.
func (h *History) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	h.logger.Debug("sql", "op", "select", "table", "runs", "limit", limit)

	rows, err := h.db.QueryContext(ctx,
		`SELECT execution, workflow, version, project, domain, phase, created_at
		 FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var phase, createdAt string
		if err := rows.Scan(&run.Execution, &run.Workflow, &run.Version,
			&run.Project, &run.Domain, &phase, &createdAt); err != nil {
			return nil, err
		}
		run.Phase = workflow.ExecutionPhase(phase)
		if run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Package ledger keeps a SQLite history of runs and their case outcomes.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sourceplane/liteparam/internal/model"
)

const (
	runTable = `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		model_file TEXT,
		model_id TEXT,
		status TEXT,
		cases INTEGER,
		done INTEGER DEFAULT 0,
		failed INTEGER DEFAULT 0,
		pending INTEGER DEFAULT 0,
		cache_hits INTEGER DEFAULT 0,
		manifest TEXT,
		started_at TEXT,
		finished_at TEXT
	);
	`
	outcomeTable = `
	CREATE TABLE IF NOT EXISTS case_outcomes (
		run_id TEXT,
		case_index INTEGER,
		case_key TEXT,
		status TEXT,
		calculator TEXT,
		case_values TEXT,
		output TEXT,
		error_message TEXT,
		PRIMARY KEY (run_id, case_index)
	);
	`

	runStatusRunning  = "running"
	runStatusFinished = "finished"
)

// Run is one row of the run history
type Run struct {
	ID         string
	ModelFile  string
	ModelID    string
	Status     string
	Cases      int
	Done       int
	Failed     int
	Pending    int
	CacheHits  int
	StartedAt  string
	FinishedAt string
}

// Ledger is a run history backed by a SQLite file
type Ledger struct {
	db *sql.DB
}

// Open opens (and creates if needed) the ledger database at path
func Open(path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger %s: %w", path, err)
	}
	// outcomes arrive from concurrent workers; one connection serializes writers
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{runTable, outcomeTable} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize ledger: %w", err)
		}
	}
	return &Ledger{db: db}, nil
}

// Close releases the database
func (l *Ledger) Close() error {
	return l.db.Close()
}

// StartRun records a run as running
func (l *Ledger) StartRun(ctx context.Context, m *model.RunManifest) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (id, model_file, model_id, status, cases, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		m.RunID, m.ModelFile, m.ModelID, runStatusRunning, m.Cases, m.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", m.RunID, err)
	}
	return nil
}

// RecordOutcome stores a finalized case outcome
func (l *Ledger) RecordOutcome(ctx context.Context, runID string, o model.CaseOutcome) error {
	values, err := json.Marshal(o.Values)
	if err != nil {
		return err
	}
	output, err := json.Marshal(o.Output)
	if err != nil {
		return err
	}

	_, err = l.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO case_outcomes (run_id, case_index, case_key, status, calculator, case_values, output, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, o.CaseIndex, string(o.Key), string(o.Status), o.Calculator, string(values), string(output), o.Error)
	if err != nil {
		return fmt.Errorf("failed to record case %s: %w", o.Key, err)
	}
	return nil
}

// FinishRun stores the final counts and manifest of a run
func (l *Ledger) FinishRun(ctx context.Context, m *model.RunManifest) error {
	manifest, err := json.Marshal(m)
	if err != nil {
		return err
	}

	_, err = l.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, done = ?, failed = ?, pending = ?, cache_hits = ?, manifest = ?, finished_at = ? WHERE id = ?`,
		runStatusFinished,
		m.Status[model.StatusDone], m.Status[model.StatusFailed], m.Status[model.StatusPending]+m.Status[model.StatusRunning],
		m.CacheHits, string(manifest), m.FinishedAt, m.RunID)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", m.RunID, err)
	}
	return nil
}

// ListRuns returns the most recent runs first; limit <= 0 returns all
func (l *Ledger) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, model_file, model_id, status, cases, done, failed, pending, cache_hits, started_at, COALESCE(finished_at, '')
		FROM runs ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.ModelFile, &r.ModelID, &r.Status, &r.Cases,
			&r.Done, &r.Failed, &r.Pending, &r.CacheHits, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Outcomes returns the recorded outcomes of a run in case order
func (l *Ledger) Outcomes(ctx context.Context, runID string) ([]model.CaseOutcome, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT case_index, case_key, status, calculator, case_values, output, error_message
		FROM case_outcomes WHERE run_id = ? ORDER BY case_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to read outcomes of run %s: %w", runID, err)
	}
	defer rows.Close()

	var outcomes []model.CaseOutcome
	for rows.Next() {
		var o model.CaseOutcome
		var key, status, values, output string
		if err := rows.Scan(&o.CaseIndex, &key, &status, &o.Calculator, &values, &output, &o.Error); err != nil {
			return nil, err
		}
		o.Key = model.CaseKey(key)
		o.Status = model.Status(status)
		if err := decodeJSON(values, &o.Values); err != nil {
			return nil, err
		}
		if err := decodeJSON(output, &o.Output); err != nil {
			return nil, err
		}
		o.RestoreNumbers()
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

func decodeJSON(data string, v any) error {
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

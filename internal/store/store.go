// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/pitwall/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrNotFound is returned when a row addressed by id does not exist.
var ErrNotFound = errors.New("not found")

// timeLayout is fixed width so that text columns sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps SQLite access for pit runs, setup history and flags.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS pit_runs (
			id INTEGER PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			score INTEGER NOT NULL,
			attempts INTEGER NOT NULL,
			hits INTEGER NOT NULL,
			accuracy INTEGER NOT NULL,
			medal TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS pit_run_steps (
			run_id INTEGER NOT NULL,
			step TEXT NOT NULL,
			hits INTEGER NOT NULL,
			misses INTEGER NOT NULL,
			points INTEGER NOT NULL,
			PRIMARY KEY (run_id, step)
		);`,
		`CREATE TABLE IF NOT EXISTS setup_history (
			id TEXT PRIMARY KEY,
			track_name TEXT NOT NULL,
			weather TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS flags (
			name TEXT PRIMARY KEY,
			enabled INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_pit_runs_ended_at ON pit_runs(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_pit_runs_score ON pit_runs(score);`,
		`CREATE INDEX IF NOT EXISTS idx_setup_history_created_at ON setup_history(created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(v string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, v)
}

// InsertRun stores a finished pit stop run and its per-step stats.
func (s *Store) InsertRun(ctx context.Context, run model.PitRun) (id int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO pit_runs (started_at, ended_at, score, attempts, hits, accuracy, medal)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		formatTime(run.StartedAt),
		formatTime(run.EndedAt),
		run.Score,
		run.Attempts,
		run.Hits,
		run.Accuracy,
		run.Medal,
	)
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(run.Steps) > 0 {
		stmt, perr := tx.PrepareContext(ctx,
			`INSERT INTO pit_run_steps (run_id, step, hits, misses, points)
			 VALUES (?, ?, ?, ?, ?)`)
		if perr != nil {
			err = perr
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, st := range run.Steps {
			if _, err = stmt.ExecContext(ctx, id, st.Step, st.Hits, st.Misses, st.Points); err != nil {
				return 0, err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// ListRuns returns runs in chronological order, filtered by stats config.
// When cfg.Last is positive only the most recent runs are kept.
func (s *Store) ListRuns(ctx context.Context, cfg model.StatsConfig) ([]model.PitRun, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, formatTime(*cfg.Since))
	}
	limit := -1
	if cfg.Last > 0 {
		limit = cfg.Last
	}
	args = append(args, limit)
	query := fmt.Sprintf(`SELECT id, started_at, ended_at, score, attempts, hits, accuracy, medal FROM (
		SELECT * FROM pit_runs
		WHERE %s
		ORDER BY ended_at DESC, id DESC
		LIMIT ?
	) ORDER BY ended_at ASC, id ASC`, strings.Join(clauses, " AND "))
	return s.queryRuns(ctx, query, args...)
}

// TopRuns returns the best runs by score, newest first among ties.
func (s *Store) TopRuns(ctx context.Context, limit int) ([]model.PitRun, error) {
	if limit <= 0 {
		return nil, nil
	}
	return s.queryRuns(ctx, `SELECT id, started_at, ended_at, score, attempts, hits, accuracy, medal
		FROM pit_runs
		ORDER BY score DESC, ended_at DESC, id DESC
		LIMIT ?`, limit)
}

func (s *Store) queryRuns(ctx context.Context, query string, args ...any) ([]model.PitRun, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var runs []model.PitRun
	for rows.Next() {
		var run model.PitRun
		var startedAt, endedAt string
		if err := rows.Scan(&run.ID, &startedAt, &endedAt, &run.Score, &run.Attempts, &run.Hits, &run.Accuracy, &run.Medal); err != nil {
			return nil, err
		}
		if run.StartedAt, err = parseTime(startedAt); err != nil {
			return nil, err
		}
		if run.EndedAt, err = parseTime(endedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// ListStepAggregatesForRuns sums per-step stats across runs.
func (s *Store) ListStepAggregatesForRuns(ctx context.Context, runIDs []int64) ([]model.StepStats, error) {
	if len(runIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(runIDs))
	args := make([]any, len(runIDs))
	for i, id := range runIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT step, SUM(hits) AS hits, SUM(misses) AS misses, SUM(points) AS points
		FROM pit_run_steps
		WHERE run_id IN (%s)
		GROUP BY step`, strings.Join(placeholders, ","))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.StepStats
	for rows.Next() {
		var st model.StepStats
		if err := rows.Scan(&st.Step, &st.Hits, &st.Misses, &st.Points); err != nil {
			return nil, err
		}
		result = append(result, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// InsertHistory records a setup request and trims the history to the newest
// keep entries. A non-positive keep disables trimming.
func (s *Store) InsertHistory(ctx context.Context, entry model.HistoryEntry, keep int) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO setup_history (id, track_name, weather, created_at) VALUES (?, ?, ?, ?)`,
		entry.ID, entry.TrackName, entry.Weather, formatTime(entry.CreatedAt),
	); err != nil {
		return err
	}
	if keep > 0 {
		if _, err = tx.ExecContext(ctx,
			`DELETE FROM setup_history WHERE rowid NOT IN (
				SELECT rowid FROM setup_history ORDER BY created_at DESC, rowid DESC LIMIT ?
			)`, keep); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListHistory returns setup history newest first. A non-positive limit
// returns every entry.
func (s *Store) ListHistory(ctx context.Context, limit int) ([]model.HistoryEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, track_name, weather, created_at FROM setup_history
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var entries []model.HistoryEntry
	for rows.Next() {
		var e model.HistoryEntry
		var createdAt string
		if err := rows.Scan(&e.ID, &e.TrackName, &e.Weather, &createdAt); err != nil {
			return nil, err
		}
		if e.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// DeleteHistory removes one history entry. It returns ErrNotFound when the id
// is unknown.
func (s *Store) DeleteHistory(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM setup_history WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("history entry %s: %w", id, ErrNotFound)
	}
	return nil
}

// SetFlag stores a named boolean.
func (s *Store) SetFlag(ctx context.Context, name string, enabled bool) error {
	v := 0
	if enabled {
		v = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO flags (name, enabled) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET enabled = excluded.enabled`, name, v)
	return err
}

// ListFlags returns every stored flag.
func (s *Store) ListFlags(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, enabled FROM flags`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	flags := map[string]bool{}
	for rows.Next() {
		var name string
		var enabled int
		if err := rows.Scan(&name, &enabled); err != nil {
			return nil, err
		}
		flags[name] = enabled != 0
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return flags, nil
}

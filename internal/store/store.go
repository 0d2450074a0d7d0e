// Package store handles score ledger persistence.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/huehunt/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for score and run data.
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
		`CREATE TABLE IF NOT EXISTS scores (
			id INTEGER PRIMARY KEY,
			remaining_time REAL NOT NULL,
			recorded_at TEXT NOT NULL,
			selected_difficulty TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY,
			ended_at TEXT NOT NULL,
			selected_difficulty TEXT NOT NULL,
			reached_difficulty TEXT NOT NULL,
			sub_level INTEGER NOT NULL,
			won INTEGER NOT NULL,
			remaining_time REAL NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_scores_recorded_at ON scores(recorded_at);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ended_at ON runs(ended_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Append stores a score record at the end of the ledger.
func (s *Store) Append(ctx context.Context, rec model.ScoreRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scores (remaining_time, recorded_at, selected_difficulty) VALUES (?, ?, ?)`,
		rec.RemainingTime,
		rec.Timestamp.UTC().Format(time.RFC3339Nano),
		rec.SelectedDifficulty.String(),
	)
	return err
}

// Load returns every score record in insertion order.
func (s *Store) Load(ctx context.Context) ([]model.ScoreRecord, error) {
	return s.ListScores(ctx, model.ScoreFilter{})
}

// RecordRun stores a finished run, won or lost.
func (s *Store) RecordRun(ctx context.Context, run model.RunRecord) error {
	won := 0
	if run.Won {
		won = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (ended_at, selected_difficulty, reached_difficulty, sub_level, won, remaining_time)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.EndedAt.UTC().Format(time.RFC3339Nano),
		run.SelectedDifficulty.String(),
		run.ReachedDifficulty.String(),
		run.SubLevel,
		won,
		run.RemainingTime,
	)
	return err
}

// ListScores returns score records matching the filter, oldest first.
func (s *Store) ListScores(ctx context.Context, filter model.ScoreFilter) ([]model.ScoreRecord, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Difficulty != nil {
		clauses = append(clauses, "selected_difficulty = ?")
		args = append(args, filter.Difficulty.String())
	}
	if filter.Since != nil {
		clauses = append(clauses, "recorded_at >= ?")
		args = append(args, filter.Since.UTC().Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT remaining_time, recorded_at, selected_difficulty
		FROM scores
		WHERE %s
		ORDER BY id ASC`, strings.Join(clauses, " AND "))
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

	var result []model.ScoreRecord
	for rows.Next() {
		var rec model.ScoreRecord
		var recordedAt, difficulty string
		if err := rows.Scan(&rec.RemainingTime, &recordedAt, &difficulty); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, recordedAt)
		if err != nil {
			return nil, err
		}
		rec.Timestamp = parsed
		rec.SelectedDifficulty, err = model.ParseDifficulty(difficulty)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lastN(result, filter.Last), nil
}

// ListRuns returns finished runs, oldest first.
func (s *Store) ListRuns(ctx context.Context, filter model.ScoreFilter) ([]model.RunRecord, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Difficulty != nil {
		clauses = append(clauses, "selected_difficulty = ?")
		args = append(args, filter.Difficulty.String())
	}
	if filter.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, filter.Since.UTC().Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT ended_at, selected_difficulty, reached_difficulty, sub_level, won, remaining_time
		FROM runs
		WHERE %s
		ORDER BY id ASC`, strings.Join(clauses, " AND "))
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

	var result []model.RunRecord
	for rows.Next() {
		var run model.RunRecord
		var endedAt, selected, reached string
		var won int
		if err := rows.Scan(&endedAt, &selected, &reached, &run.SubLevel, &won, &run.RemainingTime); err != nil {
			return nil, err
		}
		if run.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
			return nil, err
		}
		if run.SelectedDifficulty, err = model.ParseDifficulty(selected); err != nil {
			return nil, err
		}
		if run.ReachedDifficulty, err = model.ParseDifficulty(reached); err != nil {
			return nil, err
		}
		run.Won = won != 0
		result = append(result, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lastN(result, filter.Last), nil
}

func lastN[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[len(items)-n:]
	}
	return items
}

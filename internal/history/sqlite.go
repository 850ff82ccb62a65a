package history

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"git.home.luguber.info/inful/buildpipe/internal/foundation/errors"

	_ "modernc.org/sqlite"
)

// DefaultLimit bounds Recent when the caller passes a non-positive limit.
const DefaultLimit = 20

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens or creates the history database at dbPath.
// Use ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, errors.WrapError(err, errors.CategoryFileSystem, ErrDatabaseOpenFailed.Message()).
				WithContext(errors.ContextPath, dbPath).Build()
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, ErrDatabaseOpenFailed.Message()).
			WithContext(errors.ContextPath, dbPath).Build()
	}
	// A single connection keeps ":memory:" databases shared across queries.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, errors.WrapError(err, errors.CategoryFileSystem, ErrInitializeSchemaFailed.Message()).Build()
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		platform TEXT NOT NULL,
		mode TEXT NOT NULL,
		state TEXT NOT NULL,
		exit_code INTEGER NOT NULL,
		artifact_path TEXT,
		artifact_name TEXT,
		tag_slug TEXT,
		git_commit TEXT,
		error TEXT,
		stages TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_runs_platform ON runs(platform);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record inserts or replaces a run.
func (s *SQLiteStore) Record(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stages, err := json.Marshal(run.Stages)
	if err != nil {
		return fmt.Errorf("marshal stages: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs
			(id, started_at, finished_at, platform, mode, state, exit_code,
			 artifact_path, artifact_name, tag_slug, git_commit, error, stages)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UnixNano(), run.FinishedAt.UnixNano(), run.Platform, run.Mode,
		run.State, run.ExitCode, run.ArtifactPath, run.ArtifactName, run.TagSlug,
		run.Commit, run.Error, string(stages),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

const selectRuns = `SELECT id, started_at, finished_at, platform, mode, state, exit_code,
	artifact_path, artifact_name, tag_slug, git_commit, error, stages FROM runs`

// Get returns the run with id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, selectRuns+" WHERE id = ?", id)
	run, err := scanRun(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrRunNotFound.WithContext("run_id", id)
	}
	return run, err
}

// Recent returns up to limit runs, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := s.db.QueryContext(ctx, selectRuns+" ORDER BY started_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		r                    Run
		started, finished    int64
		path, name, tag      sql.NullString
		commit, errText, stg sql.NullString
	)
	err := sc.Scan(&r.ID, &started, &finished, &r.Platform, &r.Mode, &r.State, &r.ExitCode,
		&path, &name, &tag, &commit, &errText, &stg)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	r.StartedAt = time.Unix(0, started)
	r.FinishedAt = time.Unix(0, finished)
	r.ArtifactPath, r.ArtifactName, r.TagSlug = path.String, name.String, tag.String
	r.Commit, r.Error = commit.String, errText.String
	if stg.String != "" && stg.String != "null" {
		if err := json.Unmarshal([]byte(stg.String), &r.Stages); err != nil {
			return Run{}, fmt.Errorf("unmarshal stages: %w", err)
		}
	}
	return r, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

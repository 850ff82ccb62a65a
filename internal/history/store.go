// Package history persists a record of every pipeline run in SQLite.
package history

import (
	"context"
	"time"
)

// StageRecord is one external tool invocation within a run.
type StageRecord struct {
	Name     string        `json:"name"`
	ExitCode int           `json:"exit_code"`
	Accepted bool          `json:"accepted"`
	Duration time.Duration `json:"duration"`
}

// Run is the persisted summary of a pipeline run.
type Run struct {
	ID           string
	StartedAt    time.Time
	FinishedAt   time.Time
	Platform     string
	Mode         string
	State        string // terminal orchestrator state
	ExitCode     int
	ArtifactPath string
	ArtifactName string
	TagSlug      string
	Commit       string
	Error        string
	Stages       []StageRecord
}

// Duration is FinishedAt minus StartedAt.
func (r Run) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// Succeeded reports whether the run finished with exit code 0.
func (r Run) Succeeded() bool { return r.ExitCode == 0 && r.Error == "" }

// Store defines persistence for run records.
type Store interface {
	// Record inserts or replaces a run.
	Record(ctx context.Context, run Run) error

	// Get returns the run with id.
	Get(ctx context.Context, id string) (Run, error)

	// Recent returns up to limit runs, newest first.
	Recent(ctx context.Context, limit int) ([]Run, error)

	// Close closes the store and releases resources.
	Close() error
}

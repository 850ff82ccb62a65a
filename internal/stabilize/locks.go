package stabilize

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"git.home.luguber.info/inful/buildpipe/internal/config"
	"git.home.luguber.info/inful/buildpipe/internal/logfields"
	"git.home.luguber.info/inful/buildpipe/internal/retry"
)

// Locks polls Paths until no file name matches any of Patterns.
type Locks struct {
	Paths    []string
	Patterns []string
	Timeout  time.Duration
	Backoff  retry.Policy
}

func (l *Locks) Mode() config.StabilizationMode { return config.StabilizeLocks }

func (l *Locks) Wait(parent context.Context) error {
	ctx, cancel := boundedContext(parent, l.Timeout)
	defer cancel()

	backoff := l.Backoff
	if backoff.Validate() != nil {
		backoff = retry.DefaultPolicy()
	}

	for attempt := 1; ; attempt++ {
		pending, err := l.Pending()
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			if attempt > 1 {
				slog.Debug("Lock files released", slog.Int("polls", attempt))
			}
			return nil
		}
		if attempt == 1 {
			slog.Info("Waiting for lock files to be released",
				slog.Int("count", len(pending)),
				logfields.Path(pending[0]))
		}
		if err := backoff.Sleep(ctx, attempt); err != nil {
			if ownDeadline(parent, ctx) {
				return &TimeoutError{Mode: config.StabilizeLocks, Timeout: l.Timeout, Pending: pending}
			}
			return err
		}
	}
}

// Pending lists files under Paths whose base name matches a lock pattern.
// Missing roots are ignored.
func (l *Locks) Pending() ([]string, error) {
	var out []string
	for _, root := range l.Paths {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if os.IsNotExist(err) {
					return nil
				}
				return err
			}
			if d.IsDir() {
				return nil
			}
			for _, pattern := range l.Patterns {
				if ok, _ := filepath.Match(pattern, d.Name()); ok {
					out = append(out, path)
					break
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(out)
	return out, nil
}

package stabilize

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/buildpipe/internal/config"
	"git.home.luguber.info/inful/buildpipe/internal/logfields"
)

// Quiet waits until no filesystem event has been seen under Paths for Window.
type Quiet struct {
	Paths   []string
	Window  time.Duration
	Timeout time.Duration
}

func (q *Quiet) Mode() config.StabilizationMode { return config.StabilizeQuiet }

func (q *Quiet) Wait(parent context.Context) error {
	window := q.Window
	if window <= 0 {
		window = config.DefaultQuietWindow
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	watched := 0
	for _, root := range q.Paths {
		n, err := addDirsRecursive(watcher, root)
		if err != nil {
			return err
		}
		watched += n
	}
	if watched == 0 {
		slog.Debug("No directories to watch; treating workspace as stable")
		return parent.Err()
	}

	ctx, cancel := boundedContext(parent, q.Timeout)
	defer cancel()

	timer := time.NewTimer(window)
	defer timer.Stop()
	events := 0

	for {
		select {
		case <-ctx.Done():
			if ownDeadline(parent, ctx) {
				return &TimeoutError{Mode: config.StabilizeQuiet, Timeout: q.Timeout}
			}
			return ctx.Err()
		case <-timer.C:
			slog.Debug("Workspace quiet", slog.Int("events", events), slog.Int("dirs", watched))
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			events++
			if ev.Op&fsnotify.Create == fsnotify.Create {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					if n, err := addDirsRecursive(watcher, ev.Name); err == nil {
						watched += n
					}
				}
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(window)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Stabilization watcher error", logfields.Error(err))
		}
	}
}

func addDirsRecursive(w *fsnotify.Watcher, root string) (int, error) {
	count := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			if err := w.Add(path); err != nil {
				return fmt.Errorf("watch %s: %w", path, err)
			}
			count++
		}
		return nil
	})
	return count, err
}

package stabilize

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/buildpipe/internal/config"
	"git.home.luguber.info/inful/buildpipe/internal/retry"
)

// ErrStabilizationTimeout is matched by every *TimeoutError.
var ErrStabilizationTimeout = errors.New("stabilization timeout")

// TimeoutError reports that the workspace did not settle within the bound.
type TimeoutError struct {
	Mode    config.StabilizationMode
	Timeout time.Duration
	Pending []string
}

func (e *TimeoutError) Error() string {
	if len(e.Pending) > 0 {
		return fmt.Sprintf("stabilization (%s) did not complete within %s: %d pending (%s)", e.Mode, e.Timeout, len(e.Pending), e.Pending[0])
	}
	return fmt.Sprintf("stabilization (%s) did not complete within %s", e.Mode, e.Timeout)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrStabilizationTimeout }

// Waiter blocks until the workspace is considered stable.
type Waiter interface {
	Wait(ctx context.Context) error
	Mode() config.StabilizationMode
}

// New builds the waiter selected by cfg; relative paths resolve against workspace.
func New(cfg config.StabilizationConfig, workspace string) Waiter {
	paths := make([]string, 0, len(cfg.Paths))
	for _, p := range cfg.Paths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(workspace, p)
		}
		paths = append(paths, p)
	}

	switch cfg.Mode {
	case config.StabilizeLocks:
		return &Locks{
			Paths:    paths,
			Patterns: cfg.LockPatterns,
			Timeout:  cfg.Timeout,
			Backoff:  retry.FromConfig(cfg.Poll),
		}
	case config.StabilizeQuiet:
		return &Quiet{Paths: paths, Window: cfg.Quiet, Timeout: cfg.Timeout}
	default:
		return Fixed{Delay: cfg.Delay}
	}
}

// Fixed sleeps for Delay. It is the blind wait the tool has historically needed.
type Fixed struct {
	Delay time.Duration
}

func (f Fixed) Mode() config.StabilizationMode { return config.StabilizeFixed }

func (f Fixed) Wait(ctx context.Context) error {
	if f.Delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(f.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// boundedContext applies timeout when positive.
func boundedContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}

// ownDeadline reports whether ctx expired on the waiter's own bound rather than
// through the caller.
func ownDeadline(parent, ctx context.Context) bool {
	return parent.Err() == nil && errors.Is(ctx.Err(), context.DeadlineExceeded)
}

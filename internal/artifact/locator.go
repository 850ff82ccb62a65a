package artifact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"git.home.luguber.info/inful/buildpipe/internal/config"
	"git.home.luguber.info/inful/buildpipe/internal/logfields"
)

var (
	// ErrArtifactNotFound is returned when no build output matches the expected layout.
	ErrArtifactNotFound = errors.New("artifact not found")
	// ErrUnsupportedPlatform is returned, together with ErrArtifactNotFound, when
	// no strategy is registered for a platform.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)

// Candidate is a staged build output.
type Candidate struct {
	Path     string
	ModTime  time.Time
	Source   string // directory or file the candidate was produced from
	Fallback bool   // true when the expected location was missing
}

// Request describes what to look for.
type Request struct {
	Platform config.Platform
	Debug    bool
	Root     string // workspace root
	Staging  string // absolute staging directory
}

// OutputDir is {root}/build/{platform}-{mode}.
func (r Request) OutputDir() string {
	return filepath.Join(r.Root, "build", fmt.Sprintf("%s-%s", r.Platform, config.ModeFor(r.Debug)))
}

// Strategy locates the artifact for one platform family.
type Strategy interface {
	Locate(ctx context.Context, req Request) (Candidate, error)
}

// Locator dispatches to the strategy registered for a platform.
type Locator struct {
	strategies map[config.Platform]Strategy
	staging    string
}

// Option configures a Locator.
type Option func(*Locator)

// WithStrategy registers or replaces the strategy for p.
func WithStrategy(p config.Platform, s Strategy) Option {
	return func(l *Locator) { l.strategies[p] = s }
}

// WithStagingDir sets the staging directory; relative paths resolve against the root.
func WithStagingDir(dir string) Option {
	return func(l *Locator) { l.staging = dir }
}

// NewLocator returns a locator with the built-in desktop and mobile strategies.
func NewLocator(opts ...Option) *Locator {
	l := &Locator{
		strategies: map[config.Platform]Strategy{
			config.PlatformWindows: Desktop{},
			config.PlatformMac:     Desktop{},
			config.PlatformLinux:   Desktop{},
			config.PlatformAndroid: Mobile{Ext: ".apk"},
			config.PlatformIOS:     Mobile{Ext: ".ipa"},
		},
		staging: config.DefaultStagingDir,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Platforms lists platforms with a registered strategy.
func (l *Locator) Platforms() []config.Platform {
	out := make([]config.Platform, 0, len(l.strategies))
	for p := range l.strategies {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// StagingDir resolves the staging directory for root.
func (l *Locator) StagingDir(root string) string {
	if filepath.IsAbs(l.staging) {
		return l.staging
	}
	return filepath.Join(root, l.staging)
}

// Locate finds and stages the artifact for platform under root.
func (l *Locator) Locate(ctx context.Context, platform config.Platform, debug bool, root string) (Candidate, error) {
	s, ok := l.strategies[platform]
	if !ok {
		return Candidate{}, fmt.Errorf("%w: %w %q", ErrArtifactNotFound, ErrUnsupportedPlatform, platform)
	}
	req := Request{Platform: platform, Debug: debug, Root: root, Staging: l.StagingDir(root)}
	slog.Info("Looking for build output", logfields.Platform(string(platform)), logfields.Path(req.OutputDir()))

	c, err := s.Locate(ctx, req)
	if err != nil {
		return Candidate{}, err
	}
	slog.Info("Collected artifact",
		logfields.Platform(string(platform)),
		logfields.Artifact(c.Path),
		slog.Bool("fallback", c.Fallback))
	return c, nil
}

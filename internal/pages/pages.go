// Package pages stages the remote asset bundle of a build for static hosting.
package pages

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/buildpipe/internal/config"
	"git.home.luguber.info/inful/buildpipe/internal/logfields"
)

// Result describes a Prepare call.
type Result struct {
	Source  string
	Dest    string
	Skipped bool
	Files   int
}

// ErrUnsafeDest is returned for a destination whose cleanup would remove the
// workspace or the remote directory itself.
var ErrUnsafeDest = errors.New("unsafe pages destination")

// RemoteDir is {root}/build/{platform}/remote.
func RemoteDir(root string, platform config.Platform) string {
	return filepath.Join(root, "build", string(platform), "remote")
}

// Prepare replaces dest with a copy of the platform's remote directory.
// A missing remote directory is reported as skipped rather than an error.
// An empty dest defaults to {root}/public_pages.
func Prepare(root string, platform config.Platform, dest string) (Result, error) {
	src := RemoteDir(root, platform)
	if dest == "" {
		dest = filepath.Join(root, config.DefaultPagesDir)
	} else if !filepath.IsAbs(dest) {
		dest = filepath.Join(root, dest)
	}
	res := Result{Source: src, Dest: dest}
	if err := checkDest(root, src, dest); err != nil {
		return res, err
	}

	fi, err := os.Stat(src)
	if err != nil || !fi.IsDir() {
		slog.Warn("Remote folder not found, skipping pages preparation", logfields.Path(src))
		res.Skipped = true
		return res, nil
	}

	if err := os.RemoveAll(dest); err != nil {
		return res, fmt.Errorf("clean %s: %w", dest, err)
	}
	n, err := CopyDir(src, dest)
	if err != nil {
		return res, fmt.Errorf("copy remote assets: %w", err)
	}
	res.Files = n
	slog.Info("Remote assets prepared", logfields.Path(dest), slog.Int("files", n))
	return res, nil
}

// checkDest refuses a dest whose cleanup would remove the workspace or the
// remote source, and a dest nested inside the source.
func checkDest(root, src, dest string) error {
	switch {
	case within(dest, root):
		return fmt.Errorf("%w: %s contains the workspace %s", ErrUnsafeDest, dest, root)
	case within(dest, src):
		return fmt.Errorf("%w: %s contains the source %s", ErrUnsafeDest, dest, src)
	case within(src, dest):
		return fmt.Errorf("%w: %s is inside the source %s", ErrUnsafeDest, dest, src)
	}
	return nil
}

// within reports whether path equals dir or lies below it.
func within(dir, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

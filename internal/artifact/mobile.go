package artifact

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Mobile selects the newest {output}/publish/{debug|release}/*{Ext} and copies
// it into the staging directory.
type Mobile struct {
	Ext string // including the leading dot
}

// PublishType returns the publish subdirectory for a build mode.
func PublishType(debug bool) string {
	return strings.ToLower(ConfigType(debug))
}

func (m Mobile) Locate(ctx context.Context, req Request) (Candidate, error) {
	dir := filepath.Join(req.OutputDir(), "publish", PublishType(req.Debug))
	pattern := filepath.Join(dir, "*"+m.Ext)

	matches, err := filepath.Glob(pattern)
	if err != nil {
		return Candidate{}, err
	}
	newest, ok := Newest(statFiles(matches))
	if !ok {
		logDiagnostics(filepath.Join(req.OutputDir(), "publish"))
		return Candidate{}, fmt.Errorf("%w: no %s files in %s", ErrArtifactNotFound, m.Ext, dir)
	}
	if err := ctx.Err(); err != nil {
		return Candidate{}, err
	}

	dest := filepath.Join(req.Staging, filepath.Base(newest.Path))
	if err := copyFile(newest.Path, dest); err != nil {
		return Candidate{}, fmt.Errorf("stage %s: %w", newest.Path, err)
	}
	return Candidate{Path: dest, ModTime: newest.ModTime, Source: newest.Path}, nil
}

// Newest returns the candidate with the latest ModTime. Ties go to the
// lexicographically greatest path so the choice is stable.
func Newest(cs []Candidate) (Candidate, bool) {
	if len(cs) == 0 {
		return Candidate{}, false
	}
	sorted := append([]Candidate(nil), cs...)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].ModTime.Equal(sorted[j].ModTime) {
			return sorted[i].ModTime.After(sorted[j].ModTime)
		}
		return sorted[i].Path > sorted[j].Path
	})
	return sorted[0], true
}

// NewestFile returns the newest regular file directly inside dir.
func NewestFile(dir string) (Candidate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		return Candidate{}, err
	}
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	c, ok := Newest(statFiles(paths))
	if !ok {
		return Candidate{}, fmt.Errorf("%w: no files in %s", ErrArtifactNotFound, dir)
	}
	return c, nil
}

func statFiles(paths []string) []Candidate {
	out := make([]Candidate, 0, len(paths))
	for _, p := range paths {
		fi, err := os.Stat(p)
		if err != nil || !fi.Mode().IsRegular() {
			continue
		}
		out = append(out, Candidate{Path: p, ModTime: fi.ModTime()})
	}
	return out
}

// copyFile copies src to dst through a temporary file, keeping mode and mtime.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	fi, err := in.Stat()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := io.Copy(tmp, in); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, fi.Mode().Perm()); err != nil {
		return err
	}
	if err := os.Chtimes(tmpName, time.Now(), fi.ModTime()); err != nil {
		return err
	}
	return os.Rename(tmpName, dst)
}

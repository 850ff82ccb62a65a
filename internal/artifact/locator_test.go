package artifact

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/buildpipe/internal/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func zipEntries(t *testing.T, path string) map[string]string {
	t.Helper()
	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	out := map[string]string{}
	for _, f := range r.File {
		rc, err := f.Open()
		require.NoError(t, err)
		buf, err := io.ReadAll(rc)
		require.NoError(t, err)
		_ = rc.Close()
		out[f.Name] = string(buf)
	}
	return out
}

func TestRequestOutputDir(t *testing.T) {
	req := Request{Platform: config.PlatformWindows, Debug: false, Root: "/ws"}
	assert.Equal(t, filepath.Join("/ws", "build", "windows-release"), req.OutputDir())
	req.Debug = true
	assert.Equal(t, filepath.Join("/ws", "build", "windows-dev"), req.OutputDir())
}

func TestDesktopZipsExpectedDirectory(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "build", "windows-release", "proj")
	writeFile(t, filepath.Join(out, "Release", "game.exe"), "exe")
	writeFile(t, filepath.Join(out, "Release", "data", "assets.bin"), "bin")
	writeFile(t, filepath.Join(out, "Debug", "ignored.exe"), "dbg")

	l := NewLocator()
	c, err := l.Locate(t.Context(), config.PlatformWindows, false, root)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "dist", "windows_build.zip"), c.Path)
	assert.False(t, c.Fallback)
	assert.Equal(t, filepath.Join(out, "Release"), c.Source)
	assert.Equal(t, map[string]string{"game.exe": "exe", "data/assets.bin": "bin"}, zipEntries(t, c.Path))

	leftovers, err := filepath.Glob(filepath.Join(root, "dist", ".windows_build.zip.*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers, "temporary archive must be renamed away")
}

func TestDesktopFallsBackToFirstSubdirectory(t *testing.T) {
	root := t.TempDir()
	proj := filepath.Join(root, "build", "windows-release", "proj")
	writeFile(t, filepath.Join(proj, "RelWithDebInfo", "game.exe"), "exe")
	writeFile(t, filepath.Join(proj, "SomeOtherDir", "other.exe"), "other")
	writeFile(t, filepath.Join(proj, "README.txt"), "not a dir")

	c, err := NewLocator().Locate(t.Context(), config.PlatformWindows, false, root)
	require.NoError(t, err)
	assert.True(t, c.Fallback)
	assert.Equal(t, filepath.Join(proj, "RelWithDebInfo"), c.Source)
	assert.Equal(t, map[string]string{"game.exe": "exe"}, zipEntries(t, c.Path))
}

func TestDesktopNotFound(t *testing.T) {
	root := t.TempDir()
	_, err := NewLocator().Locate(t.Context(), config.PlatformMac, true, root)
	require.ErrorIs(t, err, ErrArtifactNotFound)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "build", "mac-dev", "proj"), 0o750))
	_, err = NewLocator().Locate(t.Context(), config.PlatformMac, true, root)
	require.ErrorIs(t, err, ErrArtifactNotFound)
}

func TestZipDirSkipsSymlinks(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	outside := filepath.Join(root, "outside.txt")
	writeFile(t, filepath.Join(src, "a.txt"), "a")
	writeFile(t, outside, "secret")
	if err := os.Symlink(outside, filepath.Join(src, "link.txt")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	dest := filepath.Join(root, "out", "x.zip")
	require.NoError(t, ZipDir(t.Context(), src, dest))
	assert.Equal(t, map[string]string{"a.txt": "a"}, zipEntries(t, dest))
}

func TestZipDirCancelledLeavesNoOutput(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	writeFile(t, filepath.Join(src, "a.txt"), "a")

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	dest := filepath.Join(root, "out", "x.zip")
	err := ZipDir(ctx, src, dest)
	require.ErrorIs(t, err, context.Canceled)

	entries, err := os.ReadDir(filepath.Join(root, "out"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMobilePicksNewestAndCopies(t *testing.T) {
	root := t.TempDir()
	pub := filepath.Join(root, "build", "android-release", "publish", "release")
	older := filepath.Join(pub, "app-old.apk")
	newer := filepath.Join(pub, "app-new.apk")
	writeFile(t, older, "old")
	writeFile(t, newer, "new")
	writeFile(t, filepath.Join(pub, "mapping.txt"), "ignored")

	base := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(older, base, base))
	require.NoError(t, os.Chtimes(newer, base.Add(time.Minute), base.Add(time.Minute)))

	c, err := NewLocator().Locate(t.Context(), config.PlatformAndroid, false, root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "dist", "app-new.apk"), c.Path)
	assert.Equal(t, newer, c.Source)

	data, err := os.ReadFile(c.Path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
	_, err = os.Stat(newer)
	require.NoError(t, err, "mobile artifacts are copied, not moved")
}

func TestMobileNotFound(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "build", "ios-dev", "publish", "debug", "app.apk"), "wrong ext")

	_, err := NewLocator().Locate(t.Context(), config.PlatformIOS, true, root)
	require.ErrorIs(t, err, ErrArtifactNotFound)
}

func TestNewestTieBreaksLexicographically(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cs := []Candidate{
		{Path: "/p/b.apk", ModTime: ts},
		{Path: "/p/c.apk", ModTime: ts},
		{Path: "/p/a.apk", ModTime: ts},
	}
	for i := 0; i < 3; i++ {
		// rotate input order; the winner must not change
		cs = append(cs[1:], cs[0])
		got, ok := Newest(cs)
		require.True(t, ok)
		assert.Equal(t, "/p/c.apk", got.Path)
	}

	_, ok := Newest(nil)
	assert.False(t, ok)
}

func TestNewestFile(t *testing.T) {
	dir := t.TempDir()
	_, err := NewestFile(dir)
	require.ErrorIs(t, err, ErrArtifactNotFound)

	a := filepath.Join(dir, "a.zip")
	b := filepath.Join(dir, "b.zip")
	writeFile(t, a, "a")
	writeFile(t, b, "b")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o750))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(b, past, past))

	c, err := NewestFile(dir)
	require.NoError(t, err)
	assert.Equal(t, a, c.Path)
}

type stubStrategy struct{ called bool }

func (s *stubStrategy) Locate(_ context.Context, req Request) (Candidate, error) {
	s.called = true
	return Candidate{Path: filepath.Join(req.Staging, "x")}, nil
}

func TestLocatorRegistry(t *testing.T) {
	stub := &stubStrategy{}
	l := NewLocator(WithStrategy("web", stub), WithStagingDir("/abs/out"))

	c, err := l.Locate(t.Context(), "web", false, "/ws")
	require.NoError(t, err)
	assert.True(t, stub.called)
	assert.Equal(t, "/abs/out/x", c.Path)

	_, err = l.Locate(t.Context(), "dreamcast", false, "/ws")
	require.True(t, errors.Is(err, ErrUnsupportedPlatform))
	require.ErrorIs(t, err, ErrArtifactNotFound, "an unknown platform has no artifact to find")

	ps := l.Platforms()
	assert.True(t, sort.SliceIsSorted(ps, func(i, j int) bool { return ps[i] < ps[j] }))
	assert.Contains(t, ps, config.Platform("web"))
	assert.Len(t, ps, 6)
}

package pages

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/buildpipe/internal/config"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestPrepareCopiesRemoteTree(t *testing.T) {
	root := t.TempDir()
	remote := RemoteDir(root, config.PlatformAndroid)
	write(t, filepath.Join(remote, "main", "index.js"), "main")
	write(t, filepath.Join(remote, "resources", "cfg.json"), "{}")
	write(t, filepath.Join(remote, "version.txt"), "1")

	stale := filepath.Join(root, "public_pages", "stale.txt")
	write(t, stale, "old")

	res, err := Prepare(root, config.PlatformAndroid, "")
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, 3, res.Files)
	assert.Equal(t, filepath.Join(root, "public_pages"), res.Dest)

	data, err := os.ReadFile(filepath.Join(res.Dest, "main", "index.js"))
	require.NoError(t, err)
	assert.Equal(t, "main", string(data))
	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err), "destination is cleaned first")
}

func TestPrepareSkipsMissingRemote(t *testing.T) {
	root := t.TempDir()
	existing := filepath.Join(root, "site", "keep.txt")
	write(t, existing, "keep")

	res, err := Prepare(root, config.PlatformIOS, "site")
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	_, err = os.Stat(existing)
	assert.NoError(t, err, "skip leaves destination untouched")
}

func TestPrepareRefusesDestContainingBuildOutput(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(RemoteDir(root, config.PlatformAndroid), "main", "index.js"), "main")
	keep := filepath.Join(root, "build", "keep.apk")
	write(t, keep, "apk")

	for _, dest := range []string{"build", "build/android", ".", root, "build/android/remote/sub"} {
		_, err := Prepare(root, config.PlatformAndroid, dest)
		require.ErrorIs(t, err, ErrUnsafeDest, dest)
	}
	assert.FileExists(t, keep)
	assert.FileExists(t, filepath.Join(RemoteDir(root, config.PlatformAndroid), "main", "index.js"))

	_, err := Prepare(root, config.PlatformIOS, "build")
	require.ErrorIs(t, err, ErrUnsafeDest, "checked before the source lookup")
	assert.FileExists(t, keep)
}

func TestCopyDirMissingSource(t *testing.T) {
	_, err := CopyDir(filepath.Join(t.TempDir(), "absent"), t.TempDir())
	assert.Error(t, err)
}

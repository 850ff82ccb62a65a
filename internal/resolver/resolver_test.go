package resolver

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/buildpipe/internal/config"
)

func writeConfig(t *testing.T, root, name string) string {
	t.Helper()
	dir := filepath.Join(root, ConfigDir)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(`{"platform":"x"}`), 0o600))
	return p
}

func TestResolve_ModeSelectsFile(t *testing.T) {
	root := t.TempDir()
	dev := writeConfig(t, root, "android-dev.json")
	rel := writeConfig(t, root, "android-release.json")

	got, err := Resolve(root, config.PlatformAndroid, true)
	require.NoError(t, err)
	assert.Equal(t, dev, got)
	assert.True(t, strings.HasSuffix(got, "android-dev.json"))

	got, err = Resolve(root, config.PlatformAndroid, false)
	require.NoError(t, err)
	assert.Equal(t, rel, got)
	assert.True(t, strings.HasSuffix(got, "android-release.json"))
}

func TestResolve_Missing(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "windows-dev.json")

	_, err := Resolve(root, config.PlatformWindows, false)
	require.ErrorIs(t, err, ErrConfigNotFound)
	assert.Contains(t, err.Error(), "windows-release.json")
}

func TestResolve_DirectoryIsNotAConfig(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ConfigDir, "ios-dev.json"), 0o755))

	_, err := Resolve(root, config.PlatformIOS, true)
	require.ErrorIs(t, err, ErrConfigNotFound)
}

func TestPath(t *testing.T) {
	assert.Equal(t, filepath.Join("/w", "build-configs", "windows-release.json"), Path("/w", config.PlatformWindows, false))
	assert.Equal(t, "ios-dev.json", FileName(config.PlatformIOS, true))
}

// Package resolver maps a platform and build mode onto the stage config file
// the external tool is driven with.
package resolver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/buildpipe/internal/config"
)

// ConfigDir is the directory under the project root holding stage configs.
const ConfigDir = "build-configs"

// ErrConfigNotFound is returned when the expected stage config file is absent.
var ErrConfigNotFound = errors.New("stage config not found")

// FileName returns "{platform}-{dev|release}.json".
func FileName(platform config.Platform, debug bool) string {
	return fmt.Sprintf("%s-%s.json", platform, config.ModeFor(debug))
}

// Path returns the config path without touching the filesystem.
func Path(root string, platform config.Platform, debug bool) string {
	return filepath.Join(root, ConfigDir, FileName(platform, debug))
}

// Resolve returns the stage config path for platform and mode, failing with
// ErrConfigNotFound when it does not exist on disk.
func Resolve(root string, platform config.Platform, debug bool) (string, error) {
	p := Path(root, platform, debug)
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrConfigNotFound, p)
		}
		return "", fmt.Errorf("stat stage config %s: %w", p, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrConfigNotFound, p)
	}
	return p, nil
}

package artifact

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/buildpipe/internal/logfields"
)

// Desktop packs {output}/proj/{Debug|Release} into {staging}/{platform}_build.zip.
// When the expected configuration directory is missing the first subdirectory
// of proj/ is used instead.
type Desktop struct{}

// ConfigType returns the project configuration directory name for a build mode.
func ConfigType(debug bool) string {
	if debug {
		return "Debug"
	}
	return "Release"
}

// ArchiveName is the staged archive name for a desktop platform.
func ArchiveName(platform string) string {
	return fmt.Sprintf("%s_build.zip", platform)
}

func (Desktop) Locate(ctx context.Context, req Request) (Candidate, error) {
	projDir := filepath.Join(req.OutputDir(), "proj")
	want := filepath.Join(projDir, ConfigType(req.Debug))

	src, fallback, err := desktopSource(projDir, want)
	if err != nil {
		logDiagnostics(req.OutputDir())
		return Candidate{}, err
	}
	if fallback {
		slog.Warn("Expected configuration directory not found, using fallback",
			slog.String("expected", want),
			logfields.Path(src))
	}

	dest := filepath.Join(req.Staging, ArchiveName(string(req.Platform)))
	if err := ZipDir(ctx, src, dest); err != nil {
		return Candidate{}, err
	}
	fi, err := os.Stat(dest)
	if err != nil {
		return Candidate{}, err
	}
	return Candidate{Path: dest, ModTime: fi.ModTime(), Source: src, Fallback: fallback}, nil
}

func desktopSource(projDir, want string) (string, bool, error) {
	if fi, err := os.Stat(want); err == nil && fi.IsDir() {
		return want, false, nil
	}
	entries, err := os.ReadDir(projDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, fmt.Errorf("%w: %s does not exist", ErrArtifactNotFound, want)
		}
		return "", false, err
	}
	for _, e := range entries {
		if e.IsDir() {
			return filepath.Join(projDir, e.Name()), true, nil
		}
	}
	return "", false, fmt.Errorf("%w: no subdirectories in %s", ErrArtifactNotFound, projDir)
}

package artifact

import (
	"log/slog"
	"os"

	"git.home.luguber.info/inful/buildpipe/internal/logfields"
)

// logDiagnostics records what exists at dir so a missing artifact can be
// explained from CI logs.
func logDiagnostics(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		slog.Error("Build output directory unavailable", logfields.Path(dir), logfields.Error(err))
		return
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() {
			n += "/"
		}
		names = append(names, n)
	}
	slog.Error("Artifact not found; directory contents", logfields.Path(dir), slog.Any("entries", names))
}

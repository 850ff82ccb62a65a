package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyStage      = "stage"
	KeyPlatform   = "platform"
	KeyMode       = "mode"
	KeyExitCode   = "exit_code"
	KeyPath       = "path"
	KeyConfigPath = "config_path"
	KeyArtifact   = "artifact"
	KeyTag        = "tag"
	KeyState      = "state"
	KeyDurationMS = "duration_ms"
	KeySink       = "sink"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr        { return slog.String(KeyRunID, id) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func Platform(p string) slog.Attr      { return slog.String(KeyPlatform, p) }
func Mode(m string) slog.Attr          { return slog.String(KeyMode, m) }
func ExitCode(code int) slog.Attr      { return slog.Int(KeyExitCode, code) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func ConfigPath(p string) slog.Attr    { return slog.String(KeyConfigPath, p) }
func Artifact(name string) slog.Attr   { return slog.String(KeyArtifact, name) }
func Tag(slug string) slog.Attr        { return slog.String(KeyTag, slug) }
func State(s string) slog.Attr         { return slog.String(KeyState, s) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Sink(name string) slog.Attr       { return slog.String(KeySink, name) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

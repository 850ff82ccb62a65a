package outputs

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
)

// FileSink appends key=value lines to a command file such as $GITHUB_OUTPUT.
// Multi-line values use the heredoc form with a random delimiter.
type FileSink struct {
	Path      string
	UpperKeys bool // $GITHUB_ENV convention
}

// NewFileSink returns a sink for the $GITHUB_OUTPUT file at path.
func NewFileSink(path string) *FileSink { return &FileSink{Path: path} }

// NewEnvFileSink returns a sink for the $GITHUB_ENV file at path.
func NewEnvFileSink(path string) *FileSink { return &FileSink{Path: path, UpperKeys: true} }

func (s *FileSink) Set(key, value string) error {
	if key == "" || strings.ContainsAny(key, "=\r\n") {
		return fmt.Errorf("invalid output key %q", key)
	}
	if s.UpperKeys {
		key = strings.ToUpper(key)
	}

	f, err := os.OpenFile(s.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString(formatLine(key, value)); err != nil {
		return fmt.Errorf("write output %s: %w", key, err)
	}
	return nil
}

func formatLine(key, value string) string {
	if !strings.ContainsAny(value, "\r\n") {
		return key + "=" + value + "\n"
	}
	delim := "ghadelimiter_" + uuid.NewString()
	return fmt.Sprintf("%s<<%s\n%s\n%s\n", key, delim, value, delim)
}

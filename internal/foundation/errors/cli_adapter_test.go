package errors

import (
	"bytes"
	stderrors "errors"
	"log/slog"
	"strings"
	"testing"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, 0},
		{"validation", ValidationError("bad input").Build(), ExitValidation},
		{"config", ConfigError("config not found").Build(), ExitConfig},
		{"artifact", NewError(CategoryArtifact, "no artifact").Build(), ExitBuild},
		{"timeout", NewError(CategoryTimeout, "stage timed out").Build(), ExitTimeout},
		{"tool with raw exit code", toolError("build stage failed").WithContext(ContextExitCode, 3).Build(), 3},
		{"tool with zero exit code falls back to category", toolError("signal").WithContext(ContextExitCode, 0).Build(), ExitBuild},
		{"unclassified", stderrors.New("boom"), ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(tt.err); got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_ExitCodeThroughWrapping(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())
	inner := toolError("make stage failed").WithContext(ContextExitCode, 137).Build()
	wrapped := fmtWrap(inner)
	if got := adapter.ExitCodeFor(wrapped); got != 137 {
		t.Fatalf("expected 137 through wrapping, got %d", got)
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	cause := stderrors.New("no such file")
	err := WrapError(cause, CategoryConfig, "config not found").Fatal().Build()

	quiet := NewCLIErrorAdapter(false, slog.Default())
	if got := quiet.FormatError(err); got != "Error: config not found: no such file" {
		t.Fatalf("unexpected message %q", got)
	}

	verbose := NewCLIErrorAdapter(true, slog.Default())
	if got := verbose.FormatError(err); got != "config: config not found: no such file" {
		t.Fatalf("unexpected verbose message %q", got)
	}

	if got := quiet.FormatError(stderrors.New("plain")); got != "Error: plain" {
		t.Fatalf("unexpected plain message %q", got)
	}
}

func TestCLIErrorAdapter_Handle(t *testing.T) {
	var out, logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	adapter := NewCLIErrorAdapter(false, logger).WithOutput(&out)

	code := adapter.Handle(toolError("build stage failed").WithContext(ContextExitCode, 2).Build())
	if code != 2 {
		t.Fatalf("expected exit code 2, got %d", code)
	}
	if !strings.Contains(out.String(), "build stage failed") {
		t.Fatalf("user message missing: %q", out.String())
	}
	if !strings.Contains(logs.String(), "exit_code=2") {
		t.Fatalf("log missing exit code: %q", logs.String())
	}
	if adapter.Handle(nil) != 0 {
		t.Fatal("nil error should map to 0")
	}
}

func toolError(message string) *ErrorBuilder { return NewError(CategoryTool, message) }

type wrapper struct{ err error }

func (w wrapper) Error() string { return "wrapped: " + w.err.Error() }
func (w wrapper) Unwrap() error { return w.err }

func fmtWrap(err error) error { return wrapper{err: err} }

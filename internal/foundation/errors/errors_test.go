package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryDefaults(t *testing.T) {
	tests := []struct {
		category ErrorCategory
		severity ErrorSeverity
		retry    RetryStrategy
	}{
		{CategoryConfig, SeverityFatal, RetryUserAction},
		{CategoryValidation, SeverityFatal, RetryUserAction},
		{CategoryTool, SeverityFatal, RetryNever},
		{CategoryTimeout, SeverityError, RetryBackoff},
		{CategoryPublish, SeverityError, RetryBackoff},
		{ErrorCategory("other"), SeverityError, RetryNever},
	}
	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			err := NewError(tt.category, "x").Build()
			assert.Equal(t, tt.severity, err.Severity())
			assert.Equal(t, tt.retry, err.RetryStrategy())
		})
	}
}

func TestErrorBuilder(t *testing.T) {
	cause := stderrors.New("exit status 2")
	err := WrapError(cause, CategoryTool, "build stage failed").
		Warning().
		WithContext(ContextExitCode, 2).
		WithContext(ContextStage, "build").
		Build()

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, SeverityWarning, err.Severity())
	assert.Equal(t, "tool: build stage failed: exit status 2", err.Error())

	code, ok := err.ExitCode()
	require.True(t, ok)
	assert.Equal(t, 2, code)
	stage, ok := err.Context().GetString(ContextStage)
	require.True(t, ok)
	assert.Equal(t, "build", stage)

	_, ok = NewError(CategoryTool, "signal").WithContext(ContextExitCode, 0).Build().ExitCode()
	assert.False(t, ok, "zero exit code is absent")
}

func TestBuildCopiesContext(t *testing.T) {
	b := ConfigError("stage config missing").WithContext(ContextPath, "a.json")
	first := b.Build()
	b.WithContext(ContextPath, "b.json")

	p, _ := first.Context().GetString(ContextPath)
	assert.Equal(t, "a.json", p)
}

func TestWithContextKeepsSentinelIdentity(t *testing.T) {
	sentinel := FileSystemError("rename failed").Build()
	derived := sentinel.WithContext(ContextPath, "/dist/a.zip")

	_, ok := sentinel.Context().Get(ContextPath)
	assert.False(t, ok)
	p, _ := derived.Context().GetString(ContextPath)
	assert.Equal(t, "/dist/a.zip", p)
	assert.ErrorIs(t, derived, sentinel)
	assert.NotErrorIs(t, derived, FileSystemError("other").Build())
}

func TestAsClassifiedThroughWrapping(t *testing.T) {
	base := NewError(CategoryArtifact, "no artifact").Build()
	got, ok := AsClassified(fmt.Errorf("collect: %w", base))
	require.True(t, ok)
	assert.Equal(t, CategoryArtifact, got.Category())

	_, ok = AsClassified(stderrors.New("x"))
	assert.False(t, ok)
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"git.home.luguber.info/inful/buildpipe/internal/artifact"
	ferrors "git.home.luguber.info/inful/buildpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/buildpipe/internal/naming"
	"git.home.luguber.info/inful/buildpipe/internal/resolver"
	"git.home.luguber.info/inful/buildpipe/internal/stabilize"
	"git.home.luguber.info/inful/buildpipe/internal/stage"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		category ferrors.ErrorCategory
		exit     int
	}{
		{"stage failed keeps raw code", &stage.FailedError{Stage: stage.Make, ExitCode: 3}, ferrors.CategoryTool, 3},
		{"signal-killed stage", &stage.FailedError{Stage: stage.Build, ExitCode: -1}, ferrors.CategoryTool, ferrors.ExitBuild},
		{"stage timeout", &stage.TimeoutError{Stage: stage.Build, Timeout: time.Second}, ferrors.CategoryTimeout, ferrors.ExitTimeout},
		{"stabilization timeout", &stabilize.TimeoutError{}, ferrors.CategoryTimeout, ferrors.ExitTimeout},
		{"tool missing", fmt.Errorf("%w: no such file", stage.ErrToolStart), ferrors.CategoryConfig, ferrors.ExitConfig},
		{"config missing", fmt.Errorf("%w: x", resolver.ErrConfigNotFound), ferrors.CategoryConfig, ferrors.ExitConfig},
		{"unsupported platform", fmt.Errorf("%w: %w", artifact.ErrArtifactNotFound, artifact.ErrUnsupportedPlatform), ferrors.CategoryArtifact, ferrors.ExitBuild},
		{"artifact missing", artifact.ErrArtifactNotFound, ferrors.CategoryArtifact, ferrors.ExitBuild},
		{"rename", &naming.RenameError{From: "a", To: "b", Err: errors.New("EXDEV")}, ferrors.CategoryFileSystem, ferrors.ExitBuild},
		{"cancelled", context.Canceled, ferrors.CategoryRuntime, ferrors.ExitRuntime},
		{"unknown", errors.New("boom"), ferrors.CategoryInternal, ferrors.ExitInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ce := Classify(tt.err)
			assert.Equal(t, tt.category, ce.Category())
			assert.ErrorIs(t, ce, tt.err)
			assert.Equal(t, tt.exit, ExitCodeFor(tt.err))
		})
	}
}

func TestClassifyPassesThroughClassified(t *testing.T) {
	orig := ferrors.ValidationError("bad input").Build()
	assert.Same(t, orig, Classify(orig))
	assert.Nil(t, Classify(nil))
	assert.Equal(t, 0, ExitCodeFor(nil))
}

package pipeline

import (
	"context"
	stderrors "errors"

	"git.home.luguber.info/inful/buildpipe/internal/artifact"
	"git.home.luguber.info/inful/buildpipe/internal/engineconfig"
	"git.home.luguber.info/inful/buildpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/buildpipe/internal/naming"
	"git.home.luguber.info/inful/buildpipe/internal/resolver"
	"git.home.luguber.info/inful/buildpipe/internal/stabilize"
	"git.home.luguber.info/inful/buildpipe/internal/stage"
)

// Classify maps a pipeline error onto a ClassifiedError for the process
// boundary. A failed stage carries its raw exit code in the exit_code context
// so the process exits with it. Already classified errors pass through.
func Classify(err error) *errors.ClassifiedError {
	if err == nil {
		return nil
	}
	if ce, ok := errors.AsClassified(err); ok {
		return ce
	}

	var (
		failed  *stage.FailedError
		timeout *stage.TimeoutError
		settle  *stabilize.TimeoutError
		rename  *naming.RenameError
	)
	switch {
	case stderrors.As(err, &failed):
		b := errors.WrapError(err, errors.CategoryTool, "build stage failed").
			Fatal().
			WithContext(errors.ContextStage, string(failed.Stage))
		if failed.ExitCode > 0 {
			b = b.WithContext(errors.ContextExitCode, failed.ExitCode)
		}
		return b.Build()
	case stderrors.As(err, &timeout):
		return errors.WrapError(err, errors.CategoryTimeout, "build stage timed out").
			WithContext(errors.ContextStage, string(timeout.Stage)).
			WithRetry(errors.RetryBackoff).Build()
	case stderrors.As(err, &settle):
		return errors.WrapError(err, errors.CategoryTimeout, "workspace did not stabilize").
			WithRetry(errors.RetryBackoff).Build()
	case stderrors.Is(err, stage.ErrToolStart):
		return errors.WrapError(err, errors.CategoryConfig, "build tool could not be started").
			UserAction().Build()
	case stderrors.Is(err, resolver.ErrConfigNotFound):
		return errors.WrapError(err, errors.CategoryConfig, "stage config not found").
			UserAction().Build()
	case stderrors.Is(err, artifact.ErrArtifactNotFound):
		return errors.WrapError(err, errors.CategoryArtifact, "artifact not found").Fatal().Build()
	case stderrors.As(err, &rename):
		return errors.WrapError(err, errors.CategoryFileSystem, "artifact rename failed").
			Fatal().
			WithContext(errors.ContextPath, rename.To).Build()
	case stderrors.Is(err, engineconfig.ErrEngineConfigMissing):
		return errors.WrapError(err, errors.CategoryConfig, "engine settings not found").
			Warning().Build()
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return errors.WrapError(err, errors.CategoryRuntime, "run interrupted").Build()
	default:
		return errors.WrapError(err, errors.CategoryInternal, "pipeline error").Build()
	}
}

// ExitCodeFor is the process exit code for err: 0 for nil, the raw tool
// exit code for a failed stage, otherwise a code derived from the category.
func ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	return errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(Classify(err))
}

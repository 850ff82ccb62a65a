package stage

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrStageFailed matches any *FailedError.
	ErrStageFailed = errors.New("stage failed")
	// ErrStageTimeout matches any *TimeoutError.
	ErrStageTimeout = errors.New("stage timed out")
	// ErrToolStart indicates the tool process could not be started at all.
	ErrToolStart = errors.New("build tool could not be started")
)

// FailedError reports a stage whose exit code is outside the accepted set.
// ExitCode is -1 when the process was terminated by a signal.
type FailedError struct {
	Stage    Name
	ExitCode int
	// Output holds the tail of the tool's combined output.
	Output string
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("stage %s failed with exit code %d", e.Stage, e.ExitCode)
}

func (e *FailedError) Is(target error) bool { return target == ErrStageFailed }

// TimeoutError reports a stage that exceeded its time bound and was killed.
type TimeoutError struct {
	Stage   Name
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("stage %s exceeded timeout of %s", e.Stage, e.Timeout)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrStageTimeout }

package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning" // accepted non-zero exit code
	ResultFailed   ResultLabel = "failed"
	ResultTimeout  ResultLabel = "timeout"
	ResultCanceled ResultLabel = "canceled"
)

// OutcomeLabel enumerates final pipeline outcomes.
type OutcomeLabel string

const (
	OutcomeSuccess  OutcomeLabel = "success"
	OutcomeFailed   OutcomeLabel = "failed"
	OutcomeCanceled OutcomeLabel = "canceled"
)

// Recorder defines observability hooks for pipeline and stage metrics.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	ObserveStabilization(mode string, d time.Duration)
	ObservePipelineDuration(platform string, d time.Duration)
	IncPipelineOutcome(platform string, outcome OutcomeLabel)
	SetArtifactBytes(platform string, n int64)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration)    {}
func (NoopRecorder) IncStageResult(string, ResultLabel)            {}
func (NoopRecorder) ObserveStabilization(string, time.Duration)    {}
func (NoopRecorder) ObservePipelineDuration(string, time.Duration) {}
func (NoopRecorder) IncPipelineOutcome(string, OutcomeLabel)       {}
func (NoopRecorder) SetArtifactBytes(string, int64)                {}

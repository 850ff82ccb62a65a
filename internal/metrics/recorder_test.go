package metrics

import (
	"testing"
	"time"
)

var _ Recorder = NoopRecorder{}
var _ Recorder = (*PrometheusRecorder)(nil)

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveStageDuration("build", time.Second)
	r.IncStageResult("build", ResultSuccess)
	r.ObserveStabilization("fixed", time.Second)
	r.ObservePipelineDuration("ios", time.Second)
	r.IncPipelineOutcome("ios", OutcomeSuccess)
	r.SetArtifactBytes("ios", 1)
}

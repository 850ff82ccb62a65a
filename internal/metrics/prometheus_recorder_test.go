package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("build", 150*time.Millisecond)
	pr.IncStageResult("build", ResultSuccess)
	pr.IncStageResult("make", ResultWarning)
	pr.ObserveStabilization("fixed", 5*time.Second)
	pr.ObservePipelineDuration("android", time.Minute)
	pr.IncPipelineOutcome("android", OutcomeSuccess)
	pr.SetArtifactBytes("android", 1024)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				values[mf.GetName()] += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				values[mf.GetName()] += m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				values[mf.GetName()] += float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	assert.InDelta(t, 2, values["buildpipe_stage_results_total"], 0)
	assert.InDelta(t, 1024, values["buildpipe_artifact_bytes"], 0)
	assert.InDelta(t, 1, values["buildpipe_pipeline_outcomes_total"], 0)
	assert.InDelta(t, 1, values["buildpipe_stabilization_seconds"], 0)
	assert.Greater(t, values["buildpipe_last_run_timestamp_seconds"], 0.0)
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	assert.NotPanics(t, func() {
		pr.ObserveStageDuration("build", time.Second)
		pr.IncStageResult("build", ResultFailed)
		pr.IncPipelineOutcome("ios", OutcomeFailed)
	})
}

func TestWriteTextfile(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.IncPipelineOutcome("windows", OutcomeFailed)

	path := filepath.Join(t.TempDir(), "textfile", "buildpipe.prom")
	require.NoError(t, pr.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `buildpipe_pipeline_outcomes_total{outcome="failed",platform="windows"} 1`))
}

package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "buildpipe"

// stageBuckets cover external tool stages that run from seconds to an hour.
var stageBuckets = []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 2400, 3600}

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg              *prom.Registry
	stageDuration    *prom.HistogramVec
	stageResults     *prom.CounterVec
	stabilization    *prom.HistogramVec
	pipelineDuration *prom.HistogramVec
	pipelineOutcome  *prom.CounterVec
	artifactBytes    *prom.GaugeVec
	lastRun          prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg,
// or on a fresh registry when reg is nil.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of external tool stages",
			Buckets:   stageBuckets,
		}, []string{"stage"}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		stabilization: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stabilization_seconds",
			Help:      "Time spent waiting for the workspace to settle between stages",
			Buckets:   prom.DefBuckets,
		}, []string{"mode"}),
		pipelineDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "Total pipeline duration",
			Buckets:   stageBuckets,
		}, []string{"platform"}),
		pipelineOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_outcomes_total",
			Help:      "Pipeline outcomes by final status",
		}, []string{"platform", "outcome"}),
		artifactBytes: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "artifact_bytes",
			Help:      "Size of the last published artifact",
		}, []string{"platform"}),
		lastRun: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last pipeline run finished",
		}),
	}
	reg.MustRegister(pr.stageDuration, pr.stageResults, pr.stabilization,
		pr.pipelineDuration, pr.pipelineOutcome, pr.artifactBytes, pr.lastRun)
	return pr
}

// Registry returns the registry the collectors live on.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.reg }

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveStabilization(mode string, d time.Duration) {
	if p == nil {
		return
	}
	p.stabilization.WithLabelValues(mode).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObservePipelineDuration(platform string, d time.Duration) {
	if p == nil {
		return
	}
	p.pipelineDuration.WithLabelValues(platform).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPipelineOutcome(platform string, outcome OutcomeLabel) {
	if p == nil {
		return
	}
	p.pipelineOutcome.WithLabelValues(platform, string(outcome)).Inc()
	p.lastRun.SetToCurrentTime()
}

func (p *PrometheusRecorder) SetArtifactBytes(platform string, n int64) {
	if p == nil {
		return
	}
	p.artifactBytes.WithLabelValues(platform).Set(float64(n))
}

// WriteTextfile writes the registry in the text exposition format to path,
// creating parent directories as needed.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("metrics textfile dir: %w", err)
	}
	if err := prom.WriteToTextfile(path, p.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

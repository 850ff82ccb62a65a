// Package pipeline sequences the stages of a build run.
//
// Run drives the external tool: resolve the stage config, run the build
// stage, and when auto-compile is requested wait for the workspace to settle
// and run the make stage. The first failure aborts the sequence. Release wraps
// Run with artifact collection, naming and the publishing handoff.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/buildpipe/internal/artifact"
	"git.home.luguber.info/inful/buildpipe/internal/config"
	"git.home.luguber.info/inful/buildpipe/internal/gitinfo"
	"git.home.luguber.info/inful/buildpipe/internal/history"
	"git.home.luguber.info/inful/buildpipe/internal/logfields"
	"git.home.luguber.info/inful/buildpipe/internal/metrics"
	"git.home.luguber.info/inful/buildpipe/internal/naming"
	"git.home.luguber.info/inful/buildpipe/internal/outputs"
	"git.home.luguber.info/inful/buildpipe/internal/resolver"
	"git.home.luguber.info/inful/buildpipe/internal/stabilize"
	"git.home.luguber.info/inful/buildpipe/internal/stage"
)

// StageRunner invokes one tool stage.
type StageRunner interface {
	Run(ctx context.Context, inv stage.Invocation) (stage.Result, error)
}

// Locator discovers and stages the build output.
type Locator interface {
	Locate(ctx context.Context, platform config.Platform, debug bool, root string) (artifact.Candidate, error)
	StagingDir(root string) string
}

// Publisher names the staged artifact and moves it to its final name.
type Publisher interface {
	Publish(src, staging string, in naming.Inputs) (naming.Published, error)
}

// Repository supplies git metadata for run records and tag checks.
type Repository interface {
	Head() (gitinfo.Head, error)
	TagExists(name string) (bool, error)
}

// ResolveFunc maps a request onto its stage config path.
type ResolveFunc func(root string, platform config.Platform, debug bool) (string, error)

// StageOutcome is one executed stage.
type StageOutcome struct {
	Stage  stage.Name
	Result stage.Result
}

// Result is the outcome of Run.
type Result struct {
	RunID      string
	State      State
	ConfigPath string
	Stages     []StageOutcome
	StartedAt  time.Time
	Duration   time.Duration
}

// Succeeded reports whether the run reached Done.
func (r Result) Succeeded() bool { return r.State == StateDone }

// Orchestrator runs pipelines for one configuration.
type Orchestrator struct {
	cfg      config.Config
	runner   StageRunner
	waiter   stabilize.Waiter
	locator  Locator
	namer    Publisher
	sink     outputs.Sink
	recorder metrics.Recorder
	history  history.Store
	repo     Repository
	bus      *Bus
	resolve  ResolveFunc
	newID    func() string
	now      func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

func WithRunner(r StageRunner) Option         { return func(o *Orchestrator) { o.runner = r } }
func WithWaiter(w stabilize.Waiter) Option    { return func(o *Orchestrator) { o.waiter = w } }
func WithLocator(l Locator) Option            { return func(o *Orchestrator) { o.locator = l } }
func WithPublisher(p Publisher) Option        { return func(o *Orchestrator) { o.namer = p } }
func WithSink(s outputs.Sink) Option          { return func(o *Orchestrator) { o.sink = s } }
func WithRecorder(r metrics.Recorder) Option  { return func(o *Orchestrator) { o.recorder = r } }
func WithHistory(s history.Store) Option      { return func(o *Orchestrator) { o.history = s } }
func WithRepository(r Repository) Option      { return func(o *Orchestrator) { o.repo = r } }
func WithBus(b *Bus) Option                   { return func(o *Orchestrator) { o.bus = b } }
func WithResolver(f ResolveFunc) Option       { return func(o *Orchestrator) { o.resolve = f } }
func WithIDGenerator(f func() string) Option  { return func(o *Orchestrator) { o.newID = f } }
func WithClock(now func() time.Time) Option   { return func(o *Orchestrator) { o.now = now } }

// New builds an orchestrator with production collaborators derived from cfg.
func New(cfg config.Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:      cfg,
		runner:   stage.NewRunner(stage.NewExitPolicy(cfg.Policy.AcceptedExitCodes...)),
		waiter:   stabilize.New(cfg.Policy.Stabilization, cfg.Workspace),
		locator:  artifact.NewLocator(artifact.WithStagingDir(cfg.Policy.StagingDir)),
		namer:    naming.New(),
		sink:     outputs.Log{},
		recorder: metrics.NoopRecorder{},
		bus:      NewBus(),
		resolve:  resolver.Resolve,
		newID:    uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Bus exposes the event bus for subscribers.
func (o *Orchestrator) Bus() *Bus { return o.bus }

// run carries the per-run state shared by Run and Release.
type run struct {
	id      string
	started time.Time
	req     config.BuildRequest
	sm      machine
	result  Result
	logger  *slog.Logger
}

func (o *Orchestrator) newRun(req config.BuildRequest) *run {
	id := o.newID()
	started := o.now()
	return &run{
		id:      id,
		started: started,
		req:     req,
		sm:      machine{state: StateInit},
		result:  Result{RunID: id, State: StateInit, StartedAt: started},
		logger: slog.With(
			logfields.RunID(id),
			logfields.Platform(string(req.Platform)),
			logfields.Mode(req.Mode())),
	}
}

// Run executes resolve → build → (stabilize → make). It returns the result in
// every case; err is non-nil when the run ends in Failed.
func (o *Orchestrator) Run(ctx context.Context, req config.BuildRequest) (Result, error) {
	r := o.newRun(req)
	err := o.runStages(ctx, r)
	if err == nil {
		err = o.transition(r, StateDone, nil)
	}
	return o.finish(r, err)
}

// runStages moves the run to Built, or Compiled when auto-compile is set.
func (o *Orchestrator) runStages(ctx context.Context, r *run) error {
	r.logger.Info("Starting pipeline", slog.Bool("auto_compile", r.req.AutoCompile))

	cfgPath, err := o.resolve(o.cfg.Workspace, r.req.Platform, r.req.DebugMode)
	if err != nil {
		return err
	}
	r.result.ConfigPath = cfgPath
	r.logger.Info("Resolved stage config", logfields.ConfigPath(cfgPath))
	if err := o.transition(r, StateConfigResolved, nil); err != nil {
		return err
	}

	if err := o.runStage(ctx, r, stage.Build); err != nil {
		return err
	}
	if err := o.transition(r, StateBuilt, nil); err != nil {
		return err
	}

	if r.req.AutoCompile {
		if err := o.stabilize(ctx, r); err != nil {
			return err
		}
		if err := o.runStage(ctx, r, stage.Make); err != nil {
			return err
		}
		return o.transition(r, StateCompiled, nil)
	}
	return nil
}

// Stage resolves the stage config and runs one stage outside the state
// machine. The result is filled in whenever the tool was invoked.
func (o *Orchestrator) Stage(ctx context.Context, req config.BuildRequest, name stage.Name) (stage.Result, error) {
	r := o.newRun(req)
	cfgPath, err := o.resolve(o.cfg.Workspace, req.Platform, req.DebugMode)
	if err != nil {
		return stage.Result{}, err
	}
	r.result.ConfigPath = cfgPath
	err = o.runStage(ctx, r, name)
	if n := len(r.result.Stages); n > 0 {
		return r.result.Stages[n-1].Result, err
	}
	return stage.Result{}, err
}

func (o *Orchestrator) finish(r *run, err error) (Result, error) {
	r.result.Duration = o.now().Sub(r.started)
	if err != nil {
		if !r.sm.state.Terminal() {
			_ = o.transition(r, StateFailed, err)
		}
		r.logger.Error("Pipeline failed",
			logfields.State(string(r.sm.state)),
			logfields.Error(err))
		return r.result, err
	}
	r.logger.Info("Pipeline stages completed", logfields.DurationMS(float64(r.result.Duration.Milliseconds())))
	return r.result, nil
}

func (o *Orchestrator) transition(r *run, to State, cause error) error {
	from, err := r.sm.move(to)
	if err != nil {
		return err
	}
	r.result.State = to
	r.logger.Debug("State transition", slog.String("from", string(from)), slog.String("to", string(to)))
	o.publish(StateChanged{RunID: r.id, From: from, To: to, At: o.now(), Err: cause})
	return nil
}

func (o *Orchestrator) publish(e Event) {
	if o.bus == nil {
		return
	}
	if err := o.bus.Publish(e); err != nil {
		slog.Warn("Event handler failed", slog.String("event", e.Name()), logfields.Error(err))
	}
}

func (o *Orchestrator) invocation(r *run, name stage.Name) stage.Invocation {
	extra := make(stage.Params, 0, len(o.cfg.Policy.StageParams))
	for _, p := range o.cfg.Policy.StageParams {
		extra = append(extra, stage.Param{Key: p.Key, Value: p.Value})
	}
	return stage.Invocation{
		ToolPath:    o.cfg.ToolPath,
		ProjectPath: o.cfg.Workspace,
		Stage:       name,
		ConfigPath:  r.result.ConfigPath,
		Platform:    string(r.req.Platform),
		Extra:       extra,
		Timeout:     o.cfg.Policy.StageTimeout,
	}
}

func (o *Orchestrator) runStage(ctx context.Context, r *run, name stage.Name) error {
	r.logger.Info("Running stage", logfields.Stage(string(name)))
	res, err := o.runner.Run(ctx, o.invocation(r, name))

	r.result.Stages = append(r.result.Stages, StageOutcome{Stage: name, Result: res})
	o.recorder.ObserveStageDuration(string(name), res.Duration)
	o.recorder.IncStageResult(string(name), stageLabel(res, err))
	o.publish(StageFinished{RunID: r.id, Stage: name, Result: res, Err: err})

	if err != nil {
		return err
	}
	if !res.Succeeded {
		return &stage.FailedError{Stage: name, ExitCode: res.ExitCode}
	}
	r.logger.Info("Stage succeeded", logfields.Stage(string(name)), logfields.ExitCode(res.ExitCode))
	return nil
}

func (o *Orchestrator) stabilize(ctx context.Context, r *run) error {
	mode := string(o.waiter.Mode())
	r.logger.Info("Waiting for workspace to settle", slog.String("mode", mode))
	start := o.now()
	err := o.waiter.Wait(ctx)
	d := o.now().Sub(start)
	o.recorder.ObserveStabilization(mode, d)
	o.publish(Stabilized{RunID: r.id, Mode: mode, Duration: d, Err: err})
	return err
}

func stageLabel(res stage.Result, err error) metrics.ResultLabel {
	switch {
	case errors.Is(err, stage.ErrStageTimeout):
		return metrics.ResultTimeout
	case errors.Is(err, context.Canceled):
		return metrics.ResultCanceled
	case err != nil || !res.Succeeded:
		return metrics.ResultFailed
	case res.ExitCode != 0:
		return metrics.ResultWarning
	default:
		return metrics.ResultSuccess
	}
}

func describe(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

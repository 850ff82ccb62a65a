package stage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"git.home.luguber.info/inful/buildpipe/internal/logfields"
)

// Name identifies a pipeline stage understood by the tool.
type Name string

const (
	// Build generates the native project.
	Build Name = "build"
	// Make compiles the generated project.
	Make Name = "make"
)

const outputTailBytes = 4096

// Result is the outcome of one tool invocation.
type Result struct {
	ExitCode  int
	Succeeded bool
	Duration  time.Duration
}

// Invocation describes one stage run.
type Invocation struct {
	ToolPath    string
	ProjectPath string
	Stage       Name
	ConfigPath  string
	Platform    string
	// Extra parameters appended after the fixed ones (packaging options, display name, ...).
	Extra Params
	// Timeout bounds the invocation; zero means no bound.
	Timeout time.Duration
}

// Params returns the ordered parameter list sent to the tool.
func (inv Invocation) Params() Params {
	var p Params
	if inv.Platform != "" {
		p = p.With("platform", inv.Platform)
	}
	p = p.With("configPath", inv.ConfigPath).
		With("stage", string(inv.Stage)).
		With("force", "true")
	for _, kv := range inv.Extra {
		p = p.With(kv.Key, kv.Value)
	}
	return p
}

// Args returns the argv (without the program) for the invocation.
func (inv Invocation) Args() []string {
	return []string{"--project", inv.ProjectPath, "--build", inv.Params().String()}
}

// Runner executes stage invocations.
type Runner struct {
	policy ExitPolicy
	stdout io.Writer
	stderr io.Writer
	env    []string
}

// Option configures a Runner.
type Option func(*Runner)

// WithOutput sets where the tool's streams are relayed.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(r *Runner) {
		if stdout != nil {
			r.stdout = stdout
		}
		if stderr != nil {
			r.stderr = stderr
		}
	}
}

// WithEnv appends KEY=VALUE entries to the tool's environment.
func WithEnv(env ...string) Option {
	return func(r *Runner) { r.env = append(r.env, env...) }
}

// NewRunner creates a runner. An empty policy falls back to DefaultExitPolicy.
func NewRunner(policy ExitPolicy, opts ...Option) *Runner {
	if len(policy.accepted) == 0 {
		policy = DefaultExitPolicy()
	}
	r := &Runner{policy: policy, stdout: os.Stdout, stderr: os.Stderr}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Policy returns the exit policy in use.
func (r *Runner) Policy() ExitPolicy { return r.policy }

// Run invokes the tool once and interprets its exit status. A non-nil error
// is returned for every unsuccessful outcome; Result is filled in as far as
// it is known.
func (r *Runner) Run(ctx context.Context, inv Invocation) (Result, error) {
	if err := inv.Extra.Validate(); err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("stage %s: %w", inv.Stage, err)
	}

	runCtx := ctx
	if inv.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, inv.Timeout)
		defer cancel()
	}

	args := inv.Args()
	cmd := exec.CommandContext(runCtx, inv.ToolPath, args...)
	cmd.Dir = inv.ProjectPath
	if len(r.env) > 0 {
		cmd.Env = append(os.Environ(), r.env...)
	}
	tail := newTailBuffer(outputTailBytes)
	cmd.Stdout = io.MultiWriter(r.stdout, tail)
	cmd.Stderr = io.MultiWriter(r.stderr, tail)
	// Grandchildren may keep the pipes open after the tool is killed.
	cmd.WaitDelay = 5 * time.Second

	slog.Info("Running build stage",
		logfields.Stage(string(inv.Stage)),
		logfields.ConfigPath(inv.ConfigPath),
		slog.String("tool", inv.ToolPath),
		slog.Any("args", args))

	start := time.Now()
	runErr := cmd.Run()
	res := Result{ExitCode: exitCode(cmd, runErr), Duration: time.Since(start)}

	switch {
	case runErr != nil && inv.Timeout > 0 && errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		slog.Error("Build stage timed out", logfields.Stage(string(inv.Stage)), slog.Duration("timeout", inv.Timeout))
		return res, &TimeoutError{Stage: inv.Stage, Timeout: inv.Timeout}
	case runErr != nil && ctx.Err() != nil:
		return res, fmt.Errorf("stage %s: %w", inv.Stage, ctx.Err())
	case runErr != nil && !isExitError(runErr) && !errors.Is(runErr, exec.ErrWaitDelay):
		return res, fmt.Errorf("%w: %s: %w", ErrToolStart, inv.ToolPath, runErr)
	}

	res.Succeeded = r.policy.Accepts(res.ExitCode)
	attrs := []any{
		logfields.Stage(string(inv.Stage)),
		logfields.ExitCode(res.ExitCode),
		logfields.DurationMS(float64(res.Duration.Milliseconds())),
	}
	if !res.Succeeded {
		slog.Error("Build stage failed", attrs...)
		return res, &FailedError{Stage: inv.Stage, ExitCode: res.ExitCode, Output: tail.String()}
	}
	if res.ExitCode != 0 {
		slog.Warn("Build stage succeeded with warnings", attrs...)
	} else {
		slog.Info("Build stage succeeded", attrs...)
	}
	return res, nil
}

func isExitError(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}

func exitCode(cmd *exec.Cmd, err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	return -1
}

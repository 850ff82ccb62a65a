package commands

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/buildpipe/internal/config"
	"git.home.luguber.info/inful/buildpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/buildpipe/internal/gitinfo"
	"git.home.luguber.info/inful/buildpipe/internal/history"
	"git.home.luguber.info/inful/buildpipe/internal/logfields"
	"git.home.luguber.info/inful/buildpipe/internal/metrics"
	"git.home.luguber.info/inful/buildpipe/internal/outputs"
	"git.home.luguber.info/inful/buildpipe/internal/pipeline"
	"git.home.luguber.info/inful/buildpipe/internal/stage"
	"git.home.luguber.info/inful/buildpipe/internal/version"
)

const defaultConfigFile = "buildpipe.yaml"

// Global carries process-wide state into every command's Run method.
type Global struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	// Lookup replaces os.LookupEnv when set (tests).
	Lookup config.LookupFunc
}

// CLI definition & global flags. Flags override the environment, which
// overrides the policy file.
type CLI struct {
	Config    string           `short:"c" help:"Policy file path" default:"buildpipe.yaml" env:"BUILDPIPE_CONFIG"`
	EnvFile   []string         `name:"env-file" help:"Dotenv files loaded before reading the environment" default:".env,.env.local"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	LogFormat string           `name:"log-format" help:"Log output format (text|json)"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Workspace   string `short:"w" help:"Project root (defaults to GITHUB_WORKSPACE or the working directory)"`
	Tool        string `help:"Build tool executable (COCOS_PATH)"`
	Platform    string `short:"p" help:"Target platform (PLATFORM)"`
	Release     bool   `help:"Build the release configuration instead of dev"`
	AutoCompile bool   `name:"auto-compile" help:"Run the make stage after build"`

	Run     RunCmd     `cmd:"" help:"Run the pipeline: build, optional make, collect, rename and publish outputs"`
	Resolve ResolveCmd `cmd:"" help:"Print the stage config path for the request"`
	Stage   StageCmd   `cmd:"" help:"Run a single stage of the build tool"`
	Collect CollectCmd `cmd:"" help:"Locate and stage the build artifact"`
	Rename  RenameCmd  `cmd:"" help:"Name a staged artifact and publish the outputs"`
	Macro   MacroCmd   `cmd:"" help:"Set the CC_DEBUG macro in the engine settings"`
	Pages   PagesCmd   `cmd:"" help:"Copy remote assets into the pages directory"`
	History HistoryCmd `cmd:"" help:"List recent pipeline runs"`

	cfg *config.Config
}

// AfterApply runs after flag parsing: load dotenv files and set up logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	config.LoadEnvFiles(c.EnvFile...)

	lookup := g.lookup()
	raw := func(key string) string {
		v, _ := lookup(key)
		return v
	}
	level := config.NormalizeLogLevel(raw(config.EnvLogLevel)).SlogLevel()
	if c.Verbose {
		level = slog.LevelDebug
	}
	format := config.NormalizeLogFormat(raw(config.EnvLogFormat))
	if c.LogFormat != "" {
		format = config.NormalizeLogFormat(c.LogFormat)
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(g.Stderr, opts)
	if format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(g.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

func (g *Global) lookup() config.LookupFunc {
	if g.Lookup != nil {
		return g.Lookup
	}
	return os.LookupEnv
}

// overrides maps the flags that were set onto their environment keys.
func (c *CLI) overrides() map[string]string {
	o := map[string]string{}
	set := func(key, value string) {
		if value != "" {
			o[key] = value
		}
	}
	set(config.EnvWorkspace, c.Workspace)
	set(config.EnvToolPath, c.Tool)
	set(config.EnvPlatform, c.Platform)
	if c.Release {
		o[config.EnvDevMode] = "false"
	}
	if c.AutoCompile {
		o[config.EnvAutoCompile] = "true"
	}
	return o
}

// configFor builds the configuration on first use and checks what the command needs.
func (c *CLI) configFor(g *Global, req config.Requirement) (*config.Config, error) {
	if c.cfg == nil {
		cfg, err := config.Load(config.LoadOptions{
			File:         c.Config,
			FileRequired: c.Config != "" && c.Config != defaultConfigFile,
			Lookup:       g.lookup(),
			Overrides:    c.overrides(),
		})
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "load configuration").UserAction().Build()
		}
		c.cfg = cfg
	}
	if err := c.cfg.Validate(req); err != nil {
		return nil, errors.WrapError(err, errors.CategoryValidation, "invalid configuration").UserAction().Build()
	}
	return c.cfg, nil
}

// Execute parses args, runs the selected command and returns the process exit code.
func Execute(ctx context.Context, args []string, g *Global) int {
	if g.Ctx == nil {
		g.Ctx = ctx
	}
	if g.Stdout == nil {
		g.Stdout = os.Stdout
	}
	if g.Stderr == nil {
		g.Stderr = os.Stderr
	}

	cli := &CLI{}
	exited := -1
	parser, err := kong.New(cli,
		kong.Name("buildpipe"),
		kong.Description("Drive the game engine build tool through build, make and artifact publishing."),
		kong.Vars{"version": version.String()},
		kong.Writers(g.Stdout, g.Stderr),
		kong.Exit(func(code int) { exited = code }),
		kong.Bind(g),
		kong.UsageOnError(),
	)
	if err != nil {
		_, _ = fmt.Fprintln(g.Stderr, err)
		return errors.ExitInternal
	}

	kctx, err := parser.Parse(args)
	if exited >= 0 {
		// --help and --version terminate through kong.Exit.
		return exited
	}
	adapter := errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).WithOutput(g.Stderr)
	if err != nil {
		var perr *kong.ParseError
		if stderrors.As(err, &perr) {
			_, _ = fmt.Fprintln(g.Stderr, err)
			return errors.ExitValidation
		}
		return adapter.Handle(err)
	}
	if err := kctx.Run(cli); err != nil {
		return adapter.Handle(pipeline.Classify(err))
	}
	return 0
}

// workspacePath resolves p against the workspace unless it is absolute.
func workspacePath(cfg *config.Config, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(cfg.Workspace, p)
}

// services bundles the collaborators of a pipeline command.
type services struct {
	opts        []pipeline.Option
	sink        outputs.Multi
	metrics     *metrics.PrometheusRecorder
	metricsFile string
	closers     []func()
}

// newServices wires the stage runner, output sinks, run history, git
// repository and metrics recorder configured for cfg.
func newServices(g *Global, cfg *config.Config, runID string) (*services, error) {
	svc := &services{}
	runner := stage.NewRunner(
		stage.NewExitPolicy(cfg.Policy.AcceptedExitCodes...),
		stage.WithOutput(g.Stdout, g.Stderr))
	bus := pipeline.NewBus()
	pipeline.LogEvents(bus, slog.Default())
	svc.opts = append(svc.opts,
		pipeline.WithRunner(runner),
		pipeline.WithBus(bus),
		pipeline.WithIDGenerator(func() string { return runID }))

	sink, closeSinks, err := outputs.FromConfig(cfg.Outputs, runID)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryPublish, "connect output sinks").Build()
	}
	svc.sink = sink
	svc.closers = append(svc.closers, closeSinks)
	svc.opts = append(svc.opts, pipeline.WithSink(sink))

	if db := workspacePath(cfg, cfg.Policy.HistoryDB); db != "" {
		store, err := history.NewSQLiteStore(db)
		if err != nil {
			svc.close()
			return nil, err
		}
		svc.closers = append(svc.closers, func() {
			if err := store.Close(); err != nil {
				slog.Warn("Failed to close history store", logfields.Error(err))
			}
		})
		svc.opts = append(svc.opts, pipeline.WithHistory(store))
	}

	if repo, err := gitinfo.Open(cfg.Workspace); err == nil {
		svc.opts = append(svc.opts, pipeline.WithRepository(repo))
	} else {
		slog.Debug("Workspace is not a git repository", logfields.Error(err))
	}

	if f := workspacePath(cfg, cfg.Policy.MetricsFile); f != "" {
		svc.metrics = metrics.NewPrometheusRecorder(nil)
		svc.metricsFile = f
		svc.opts = append(svc.opts, pipeline.WithRecorder(svc.metrics))
	}
	return svc, nil
}

// flush pushes buffered outputs to sinks that batch them.
func (s *services) flush() error {
	return outputs.Flush(s.sink)
}

// close writes the metrics textfile and releases connections.
func (s *services) close() {
	if s.metrics != nil {
		if err := s.metrics.WriteTextfile(s.metricsFile); err != nil {
			slog.Warn("Failed to write metrics textfile", logfields.Path(s.metricsFile), logfields.Error(err))
		}
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

package config

import (
	"strings"
	"time"
)

// Config is the single immutable configuration built once at process entry and
// passed explicitly to every pipeline component.
type Config struct {
	// ToolPath is the external build tool executable.
	ToolPath string
	// Workspace is the project root the tool builds and where outputs land.
	Workspace string
	// Request describes what to build.
	Request BuildRequest
	// CollectedPath is an artifact handed over by a previous collect step.
	CollectedPath string
	// EngineDebug is the CC_DEBUG macro value written into the engine settings.
	EngineDebug bool

	Policy  Policy
	Outputs OutputsConfig
	Logging LoggingConfig
}

// Policy holds the tunables that may come from the YAML file.
type Policy struct {
	AcceptedExitCodes []int               `yaml:"accepted_exit_codes"`
	StageTimeout      time.Duration       `yaml:"stage_timeout"`
	StageParams       []StageParam        `yaml:"stage_params"`
	Stabilization     StabilizationConfig `yaml:"stabilization"`
	StagingDir        string              `yaml:"staging_dir"`
	EngineSettings    string              `yaml:"engine_settings"`
	PagesDir          string              `yaml:"pages_dir"`
	HistoryDB         string              `yaml:"history_db"`
	MetricsFile       string              `yaml:"metrics_file"`
	CheckTags         bool                `yaml:"check_tags"`
}

// StageParam is one extra key=value pair appended to every stage's parameter string.
type StageParam struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

// StabilizationMode selects how the pipeline waits between build and make.
type StabilizationMode string

const (
	StabilizeFixed StabilizationMode = "fixed"
	StabilizeLocks StabilizationMode = "locks"
	StabilizeQuiet StabilizationMode = "quiet"
)

// StabilizationConfig configures the wait between filesystem-mutating stages.
type StabilizationConfig struct {
	Mode         StabilizationMode `yaml:"mode"`
	Delay        time.Duration     `yaml:"delay"`   // fixed mode
	Timeout      time.Duration     `yaml:"timeout"` // locks/quiet upper bound
	Quiet        time.Duration     `yaml:"quiet"`   // quiet mode window
	Paths        []string          `yaml:"paths"`   // relative to workspace
	LockPatterns []string          `yaml:"lock_patterns"`
	Poll         PollConfig        `yaml:"poll"`
}

// PollConfig drives the lock-file polling interval.
type PollConfig struct {
	Backoff RetryBackoffMode `yaml:"backoff"`
	Initial time.Duration    `yaml:"initial"`
	Max     time.Duration    `yaml:"max"`
}

// OutputsConfig names the publishing handoff sinks.
type OutputsConfig struct {
	GitHubOutput string `yaml:"-"`
	GitHubEnv    string `yaml:"-"`
	NATSURL      string `yaml:"nats_url"`
	NATSSubject  string `yaml:"nats_subject"`
}

// LoggingConfig controls the slog handler installed by the CLI.
type LoggingConfig struct {
	Level  LogLevel
	Format LogFormat
}

// Defaults used when neither file nor environment provide a value.
const (
	DefaultStabilizationDelay   = 5 * time.Second
	DefaultStabilizationTimeout = 2 * time.Minute
	DefaultQuietWindow          = 2 * time.Second
	DefaultStagingDir           = "dist"
	DefaultPagesDir             = "public_pages"
	DefaultEngineSettings       = "settings/v2/packages/engine.json"
	DefaultVersionName          = "1.0.0"
	DefaultNATSSubject          = "buildpipe.outputs"
)

// DefaultAcceptedExitCodes are the codes the tool uses for success and
// success-with-warnings.
func DefaultAcceptedExitCodes() []int { return []int{0, 36} }

// DefaultPolicy returns the policy applied before the YAML file is merged.
func DefaultPolicy() Policy {
	return Policy{
		AcceptedExitCodes: DefaultAcceptedExitCodes(),
		Stabilization: StabilizationConfig{
			Mode:         StabilizeFixed,
			Delay:        DefaultStabilizationDelay,
			Timeout:      DefaultStabilizationTimeout,
			Quiet:        DefaultQuietWindow,
			Paths:        []string{"temp", "library"},
			LockPatterns: []string{"*.lock", "*.lck"},
			Poll: PollConfig{
				Backoff: RetryBackoffLinear,
				Initial: 250 * time.Millisecond,
				Max:     2 * time.Second,
			},
		},
		StagingDir:     DefaultStagingDir,
		EngineSettings: DefaultEngineSettings,
		PagesDir:       DefaultPagesDir,
	}
}

var stabilizationModes = map[string]StabilizationMode{
	"fixed": StabilizeFixed,
	"locks": StabilizeLocks,
	"quiet": StabilizeQuiet,
}

// NormalizeStabilizationMode maps raw onto a mode, defaulting to fixed.
func NormalizeStabilizationMode(raw string) StabilizationMode {
	if m, ok := stabilizationModes[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return m
	}
	return StabilizeFixed
}

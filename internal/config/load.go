package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadOptions controls where Load reads its inputs from.
type LoadOptions struct {
	// File is an optional YAML policy file. A missing file is an error only
	// when FileRequired is set.
	File         string
	FileRequired bool
	// Lookup resolves environment keys; defaults to os.LookupEnv.
	Lookup LookupFunc
	// Overrides take precedence over Lookup (CLI flags, keyed by env name).
	Overrides map[string]string
	// Getwd supplies the workspace fallback; defaults to os.Getwd.
	Getwd func() (string, error)
}

// fileDocument is the on-disk YAML layout.
type fileDocument struct {
	Policy  Policy        `yaml:",inline"`
	Outputs OutputsConfig `yaml:"outputs"`
}

// Load builds the Config. Precedence: overrides > environment > file > defaults.
func Load(opts LoadOptions) (*Config, error) {
	if opts.Lookup == nil {
		opts.Lookup = os.LookupEnv
	}
	if opts.Getwd == nil {
		opts.Getwd = os.Getwd
	}

	doc := fileDocument{Policy: DefaultPolicy()}
	if opts.File != "" {
		if err := readFile(opts.File, &doc, opts.FileRequired); err != nil {
			return nil, err
		}
	}

	r := &envReader{lookup: Layered(MapLookup(opts.Overrides), opts.Lookup)}

	workspace := r.str(EnvWorkspace, "")
	if workspace == "" {
		wd, err := opts.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve workspace: %w", err)
		}
		workspace = wd
	}
	if abs, err := filepath.Abs(workspace); err == nil {
		workspace = abs
	}

	policy := doc.Policy
	if codes := r.ints(EnvAcceptedCodes); len(codes) > 0 {
		policy.AcceptedExitCodes = codes
	}
	if raw := r.str(EnvStageTimeout, ""); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			r.errs = append(r.errs, fmt.Sprintf("%s: %v", EnvStageTimeout, err))
		} else {
			policy.StageTimeout = d
		}
	}
	if raw := r.str(EnvStabilize, ""); raw != "" {
		policy.Stabilization.Mode = NormalizeStabilizationMode(raw)
	}
	policy.Stabilization.Mode = NormalizeStabilizationMode(string(policy.Stabilization.Mode))
	policy.Stabilization.Poll.Backoff = NormalizeRetryBackoff(string(policy.Stabilization.Poll.Backoff))

	outputs := doc.Outputs
	outputs.GitHubOutput = r.str(EnvGitHubOutput, "")
	outputs.GitHubEnv = r.str(EnvGitHubEnv, "")
	if outputs.NATSSubject == "" {
		outputs.NATSSubject = DefaultNATSSubject
	}

	cfg := &Config{
		ToolPath:  r.str(EnvToolPath, ""),
		Workspace: workspace,
		Request: BuildRequest{
			Platform:     NormalizePlatform(r.str(EnvPlatform, "")),
			DebugMode:    r.boolean(EnvDevMode, true),
			Environment:  NormalizeEnvironment(r.first(string(EnvironmentDevelopment), EnvEnvironment, EnvEnvironmentV1)),
			VersionName:  r.str(EnvVersionName, DefaultVersionName),
			BuildCounter: r.str(EnvBundleCode, UnsetBuildCounter),
			RunCounter:   r.str(EnvRunNumber, "0"),
			SigningType:  NormalizeSigningType(r.str(EnvSigningType, string(SigningDebug))),
			AutoCompile:  r.boolean(EnvAutoCompile, false),
		},
		CollectedPath: r.str(EnvCollectedPath, ""),
		EngineDebug:   r.boolean(EnvIsDebug, false),
		Policy:        policy,
		Outputs:       outputs,
		Logging: LoggingConfig{
			Level:  NormalizeLogLevel(r.str(EnvLogLevel, string(LogLevelInfo))),
			Format: NormalizeLogFormat(r.str(EnvLogFormat, string(LogFormatText))),
		},
	}

	if len(r.errs) > 0 {
		return nil, fmt.Errorf("invalid environment: %s", strings.Join(r.errs, "; "))
	}
	return cfg, nil
}

// readFile merges the YAML file over doc. ${VAR} references are expanded
// from the process environment before parsing.
func readFile(path string, doc *fileDocument, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), doc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

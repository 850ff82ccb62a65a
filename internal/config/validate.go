package config

import (
	"errors"
	"fmt"
	"strings"

	"git.home.luguber.info/inful/buildpipe/internal/stage"
)

// Requirement flags what a command needs from the configuration.
type Requirement int

const (
	// NeedTool requires the external tool path (stage-running commands).
	NeedTool Requirement = 1 << iota
	// NeedPlatform requires a platform (resolve, stage, collect, run).
	NeedPlatform
)

// Validate checks the invariants the pipeline relies on.
func (c *Config) Validate(req Requirement) error {
	var problems []string

	if req&NeedTool != 0 && strings.TrimSpace(c.ToolPath) == "" {
		problems = append(problems, fmt.Sprintf("build tool path is required (%s)", EnvToolPath))
	}
	if req&NeedPlatform != 0 && c.Request.Platform == "" {
		problems = append(problems, fmt.Sprintf("platform is required (%s)", EnvPlatform))
	}
	if strings.ContainsAny(string(c.Request.Platform), `/\;=`) {
		problems = append(problems, fmt.Sprintf("platform %q contains path or parameter separators", c.Request.Platform))
	}
	if strings.TrimSpace(c.Request.VersionName) == "" {
		problems = append(problems, "version name must not be empty")
	}
	if strings.ContainsAny(c.Request.VersionName, `/\`) || strings.Contains(c.Request.VersionName, "..") {
		problems = append(problems, fmt.Sprintf("version name %q must not contain path separators or '..'", c.Request.VersionName))
	}
	if len(c.Policy.AcceptedExitCodes) == 0 {
		problems = append(problems, "accepted_exit_codes must list at least one code")
	}
	if c.Policy.StageTimeout < 0 {
		problems = append(problems, "stage_timeout must not be negative")
	}
	for _, p := range c.Policy.StageParams {
		if p.Key == "" || strings.ContainsAny(p.Key, "=;") || strings.Contains(p.Value, ";") {
			problems = append(problems, fmt.Sprintf("stage param %q=%q is not a plain key=value pair", p.Key, p.Value))
		}
		if stage.IsReserved(p.Key) {
			problems = append(problems, fmt.Sprintf("stage param %q is set by the pipeline and cannot be overridden", p.Key))
		}
	}

	s := c.Policy.Stabilization
	switch s.Mode {
	case StabilizeFixed:
		if s.Delay < 0 {
			problems = append(problems, "stabilization.delay must not be negative")
		}
	case StabilizeLocks, StabilizeQuiet:
		if s.Timeout <= 0 {
			problems = append(problems, "stabilization.timeout must be positive")
		}
		if s.Mode == StabilizeQuiet && s.Quiet <= 0 {
			problems = append(problems, "stabilization.quiet must be positive")
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

package config

import (
	"strings"

	"git.home.luguber.info/inful/buildpipe/internal/foundation/normalization"
)

// Platform identifies the build target passed to the external tool.
type Platform string

const (
	PlatformWindows Platform = "windows"
	PlatformMac     Platform = "mac"
	PlatformLinux   Platform = "linux"
	PlatformAndroid Platform = "android"
	PlatformIOS     Platform = "ios"
)

// NormalizePlatform lower-cases and trims raw. Unknown platforms are kept as
// given so the tool can still be driven for them; only artifact collection
// needs to know the platform's output shape.
func NormalizePlatform(raw string) Platform {
	return Platform(strings.ToLower(strings.TrimSpace(raw)))
}

// Environment is the deployment tier. It only affects artifact naming.
type Environment string

const (
	EnvironmentProduction  Environment = "production"
	EnvironmentTest        Environment = "test"
	EnvironmentDevelopment Environment = "development"
)

var environmentNormalizer = normalization.NewNormalizer(map[string]Environment{
	"production":  EnvironmentProduction,
	"test":        EnvironmentTest,
	"development": EnvironmentDevelopment,
}, EnvironmentDevelopment)

// NormalizeEnvironment maps raw onto a tier; unrecognized input becomes development.
func NormalizeEnvironment(raw string) Environment {
	return environmentNormalizer.Normalize(raw)
}

// SigningType says whether the artifact is store-signed or locally signed.
type SigningType string

const (
	SigningDebug   SigningType = "debug"
	SigningRelease SigningType = "release"
)

var signingNormalizer = normalization.NewNormalizer(map[string]SigningType{
	"debug":   SigningDebug,
	"release": SigningRelease,
}, SigningDebug)

func NormalizeSigningType(raw string) SigningType {
	return signingNormalizer.Normalize(raw)
}

// UnsetBuildCounter is the sentinel CI passes when no bundle code was given.
const UnsetBuildCounter = "-1"

// BuildRequest is the immutable description of one pipeline run.
type BuildRequest struct {
	Platform     Platform
	DebugMode    bool
	Environment  Environment
	VersionName  string
	BuildCounter string // optional; empty or UnsetBuildCounter means unset
	RunCounter   string // CI run number used when BuildCounter is unset
	SigningType  SigningType
	AutoCompile  bool
}

// Mode returns the "dev"/"release" token used in config and output directory names.
func (r BuildRequest) Mode() string {
	return ModeFor(r.DebugMode)
}

// ModeFor returns "dev" for debug builds and "release" otherwise.
func ModeFor(debug bool) string {
	if debug {
		return "dev"
	}
	return "release"
}

// BuildNumber resolves the build number used in artifact names.
func (r BuildRequest) BuildNumber() string {
	if c := strings.TrimSpace(r.BuildCounter); c != "" && c != UnsetBuildCounter {
		return c
	}
	if r.RunCounter != "" {
		return r.RunCounter
	}
	return "0"
}

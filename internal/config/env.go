package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Recognized environment keys. The names match what the CI workflow exports.
const (
	EnvToolPath      = "COCOS_PATH"
	EnvWorkspace     = "GITHUB_WORKSPACE"
	EnvPlatform      = "PLATFORM"
	EnvDevMode       = "DEV_MODE"
	EnvAutoCompile   = "AUTO_COMPILE"
	EnvEnvironment   = "IN_ENVIRONMENT"
	EnvEnvironmentV1 = "ENVIRONMENT"
	EnvVersionName   = "IN_VERSION_NAME"
	EnvBundleCode    = "IN_BUNDLE_CODE"
	EnvSigningType   = "IN_SIGNING_TYPE"
	EnvRunNumber     = "GITHUB_RUN_NUMBER"
	EnvCollectedPath = "COLLECTED_PATH"
	EnvIsDebug       = "IS_DEBUG"
	EnvGitHubOutput  = "GITHUB_OUTPUT"
	EnvGitHubEnv     = "GITHUB_ENV"
	EnvLogLevel      = "BUILDPIPE_LOG_LEVEL"
	EnvLogFormat     = "BUILDPIPE_LOG_FORMAT"
	EnvStageTimeout  = "BUILDPIPE_STAGE_TIMEOUT"
	EnvStabilize     = "BUILDPIPE_STABILIZATION"
	EnvAcceptedCodes = "BUILDPIPE_ACCEPTED_EXIT_CODES"
)

// LookupFunc resolves a named input. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// MapLookup adapts a map (CLI overrides, tests) to a LookupFunc.
func MapLookup(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

// Layered returns a lookup consulting each source in order, first hit wins.
// Empty values count as unset so a blank flag does not hide the environment.
func Layered(sources ...LookupFunc) LookupFunc {
	return func(key string) (string, bool) {
		for _, src := range sources {
			if src == nil {
				continue
			}
			if v, ok := src(key); ok && strings.TrimSpace(v) != "" {
				return v, true
			}
		}
		return "", false
	}
}

// LoadEnvFiles loads .env style files into the process environment with
// godotenv. Existing variables are never overwritten and missing files are skipped.
func LoadEnvFiles(paths ...string) []string {
	if len(paths) == 0 {
		paths = []string{".env", ".env.local"}
	}
	var loaded []string
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			slog.Warn("Failed to load env file", "path", p, "error", err)
			continue
		}
		loaded = append(loaded, p)
	}
	return loaded
}

type envReader struct {
	lookup LookupFunc
	errs   []string
}

func (r *envReader) str(key, def string) string {
	if v, ok := r.lookup(key); ok {
		return strings.TrimSpace(v)
	}
	return def
}

func (r *envReader) first(def string, keys ...string) string {
	for _, k := range keys {
		if v, ok := r.lookup(k); ok {
			return strings.TrimSpace(v)
		}
	}
	return def
}

// boolean follows the CI convention: only "true" (any case) is true.
func (r *envReader) boolean(key string, def bool) bool {
	v, ok := r.lookup(key)
	if !ok {
		return def
	}
	return strings.EqualFold(strings.TrimSpace(v), "true")
}

func (r *envReader) ints(key string) []int {
	v, ok := r.lookup(key)
	if !ok {
		return nil
	}
	var out []int
	for _, part := range strings.FieldsFunc(v, func(c rune) bool { return c == ',' || c == ' ' }) {
		n, err := strconv.Atoi(part)
		if err != nil {
			r.errs = append(r.errs, fmt.Sprintf("%s: %q is not an integer", key, part))
			continue
		}
		out = append(out, n)
	}
	return out
}

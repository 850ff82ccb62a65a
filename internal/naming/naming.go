// Package naming derives the published artifact file name and its tag slug,
// and moves the staged artifact to that name.
package naming

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/buildpipe/internal/config"
)

// DateLayout is the yymmdd stamp embedded in artifact names.
const DateLayout = "060102"

// StorePrefix marks release-signed artifacts.
const StorePrefix = "Store_"

// Inputs are the request fields that influence the name.
type Inputs struct {
	VersionName  string
	Environment  config.Environment
	SigningType  config.SigningType
	BuildCounter string
	RunCounter   string
}

// InputsFor extracts naming inputs from a build request.
func InputsFor(req config.BuildRequest) Inputs {
	return Inputs{
		VersionName:  req.VersionName,
		Environment:  req.Environment,
		SigningType:  req.SigningType,
		BuildCounter: req.BuildCounter,
		RunCounter:   req.RunCounter,
	}
}

// BuildNumber is the counter when set, else the run counter, else "0".
func (in Inputs) BuildNumber() string {
	return config.BuildRequest{BuildCounter: in.BuildCounter, RunCounter: in.RunCounter}.BuildNumber()
}

// ArtifactName is the final file name and its tag-safe slug.
type ArtifactName struct {
	FileName string
	TagSlug  string
}

// Namer composes artifact names. The date stamp comes from Now.
type Namer struct {
	Now func() time.Time
}

// New returns a Namer using the wall clock.
func New() *Namer {
	return &Namer{Now: time.Now}
}

// SignPrefix returns "Store_" for release signing and "" otherwise.
func SignPrefix(s config.SigningType) string {
	if s == config.SigningRelease {
		return StorePrefix
	}
	return ""
}

// EnvPrefix maps production to "", test to "t" and anything else to "d".
func EnvPrefix(e config.Environment) string {
	switch e {
	case config.EnvironmentProduction:
		return ""
	case config.EnvironmentTest:
		return "t"
	default:
		return "d"
	}
}

// Name derives the artifact name for the file at path. The date stamp is taken
// at call time, so callers must name an artifact exactly once.
func (n *Namer) Name(path string, in Inputs) ArtifactName {
	now := time.Now
	if n != nil && n.Now != nil {
		now = n.Now
	}
	ext := filepath.Ext(path)
	stem := fmt.Sprintf("%s%s%s(%s)_%s",
		SignPrefix(in.SigningType),
		EnvPrefix(in.Environment),
		in.VersionName,
		in.BuildNumber(),
		now().Format(DateLayout))
	return ArtifactName{FileName: stem + ext, TagSlug: Slug(stem)}
}

// Slug turns an extension-less file name into a tag-safe identifier.
// Parentheses and underscores become hyphens, as does any other character
// outside [A-Za-z0-9-]; runs of hyphens collapse and edge hyphens are trimmed.
func Slug(stem string) string {
	var b strings.Builder
	b.Grow(len(stem))
	lastHyphen := false
	for _, r := range stem {
		if isAlnum(r) {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.Trim(b.String(), "-")
}

// SlugFromFileName strips the final extension from name before slugging it.
func SlugFromFileName(name string) string {
	return Slug(strings.TrimSuffix(name, filepath.Ext(name)))
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

package naming

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"

	"git.home.luguber.info/inful/buildpipe/internal/artifact"
	"git.home.luguber.info/inful/buildpipe/internal/logfields"
)

// ErrRenameFailed is matched by every *RenameError.
var ErrRenameFailed = errors.New("rename failed")

// ErrOutsideStaging is returned when the final name would leave the staging directory.
var ErrOutsideStaging = errors.New("artifact name escapes staging directory")

// RenameError reports a failed move of the artifact to its final name.
type RenameError struct {
	From string
	To   string
	Err  error
}

func (e *RenameError) Error() string {
	return fmt.Sprintf("move %s to %s: %v", e.From, e.To, e.Err)
}

func (e *RenameError) Unwrap() error { return e.Err }

func (e *RenameError) Is(target error) bool { return target == ErrRenameFailed }

// Published is the outcome of a successful publish.
type Published struct {
	Path string
	Name ArtifactName
}

// ResolveSource returns src when it exists, otherwise the newest file in staging.
func ResolveSource(src, staging string) (string, error) {
	if src != "" {
		if fi, err := os.Stat(src); err == nil && fi.Mode().IsRegular() {
			return src, nil
		}
		slog.Warn("Collected path missing, falling back to newest staged file", logfields.Path(src))
	}
	c, err := artifact.NewestFile(staging)
	if err != nil {
		return "", err
	}
	slog.Info("Found file in staging directory", logfields.Path(c.Path))
	return c.Path, nil
}

// Publish names the artifact at src and moves it into staging under that name.
// This is destructive and is the last filesystem step of a run.
func (n *Namer) Publish(src, staging string, in Inputs) (Published, error) {
	src, err := ResolveSource(src, staging)
	if err != nil {
		return Published{}, err
	}
	name := n.Name(src, in)
	if err := os.MkdirAll(staging, 0o750); err != nil {
		return Published{}, &RenameError{From: src, To: staging, Err: err}
	}
	dest := filepath.Join(staging, name.FileName)
	if rel, err := filepath.Rel(staging, dest); err != nil || rel != filepath.Base(rel) || rel == ".." {
		return Published{}, &RenameError{From: src, To: dest, Err: ErrOutsideStaging}
	}
	if err := move(src, dest); err != nil {
		return Published{}, &RenameError{From: src, To: dest, Err: err}
	}
	slog.Info("Renamed artifact",
		logfields.Artifact(name.FileName),
		logfields.Tag(name.TagSlug),
		logfields.Path(dest))
	return Published{Path: dest, Name: name}, nil
}

// move renames src to dst. Only a cross-device rename falls back to copying.
func move(src, dst string) error {
	if src == dst {
		return nil
	}
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return err
	}
	if cerr := copyThenRemove(src, dst); cerr != nil {
		return fmt.Errorf("%w (copy fallback: %v)", err, cerr)
	}
	return nil
}

func copyThenRemove(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	fi, err := in.Stat()
	if err != nil {
		_ = in.Close()
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fi.Mode().Perm())
	if err != nil {
		_ = in.Close()
		return err
	}
	_, err = io.Copy(out, in)
	_ = in.Close()
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dst)
		return err
	}
	return os.Remove(src)
}

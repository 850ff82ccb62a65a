// Package gitinfo reads the workspace repository's HEAD and tags for run
// records and tag-collision checks.
package gitinfo

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// ErrNotRepository is returned when no repository encloses the workspace.
var ErrNotRepository = errors.New("not a git repository")

// Head describes the checked-out commit.
type Head struct {
	Commit string
	Branch string // empty when detached
}

// Short returns the abbreviated commit hash.
func (h Head) Short() string {
	if len(h.Commit) > 12 {
		return h.Commit[:12]
	}
	return h.Commit
}

// Repo wraps a go-git repository opened from a workspace path.
type Repo struct {
	repo *git.Repository
}

// Open finds the repository containing path, walking up parent directories.
func Open(path string) (*Repo, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", ErrNotRepository, path)
		}
		return nil, fmt.Errorf("open repository: %w", err)
	}
	return &Repo{repo: repo}, nil
}

// Head resolves HEAD.
func (r *Repo) Head() (Head, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return Head{}, fmt.Errorf("resolve HEAD: %w", err)
	}
	h := Head{Commit: ref.Hash().String()}
	if ref.Name().IsBranch() {
		h.Branch = ref.Name().Short()
	}
	return h, nil
}

// TagExists reports whether a lightweight or annotated tag named name exists.
func (r *Repo) TagExists(name string) (bool, error) {
	_, err := r.repo.Reference(plumbing.NewTagReferenceName(name), false)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("lookup tag %s: %w", name, err)
	}
}

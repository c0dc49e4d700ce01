package repo

import (
	"errors"

	"github.com/skiff-vcs/skiff/pkg/object"
)

// ErrBareRepository is returned by operations that need a working tree when
// the repository was initialized bare.
var ErrBareRepository = errors.New("bare repository has no working tree")

// Repo represents an opened Skiff repository.
//
// A Repo is exclusively owned by its caller: the staging index and working
// tree are a single mutable shared resource with no internal locking, so
// concurrent mutation through one handle must be serialized externally.
// Read-only classification queries may run concurrently with each other.
type Repo struct {
	RootDir  string          // working directory root (equals SkiffDir for bare repos)
	SkiffDir string          // .skiff/ metadata directory
	Bare     bool            // no working tree
	Store    *object.Store   // content-addressed object store
	Ignore   *IgnoreChecker  // compiled once at handle construction
	Config   *Config         // identity and per-repository defaults
}

// DefaultBranch returns the configured default branch name.
func (r *Repo) DefaultBranch() string {
	return r.Config.Core.DefaultBranch
}

func (r *Repo) ensureWorkTree() error {
	if r.Bare {
		return ErrBareRepository
	}
	return nil
}

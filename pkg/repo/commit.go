package repo

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/skiff-vcs/skiff/pkg/object"
)

// ErrNothingStaged is the reason a commit with an empty index is refused.
// Empty commits are forbidden: without staged content there is no tree to
// snapshot.
var ErrNothingStaged = errors.New("nothing staged")

// CommitError reports that the commit could not be constructed, either
// because the index is empty or because the object store or ref update
// rejected the write.
type CommitError struct {
	Err error
}

func (e *CommitError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("commit: %v", e.Err)
}

func (e *CommitError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Identity names the author and committer of a commit. This core has no
// separate-author support; one identity fills both fields.
type Identity struct {
	Name  string
	Email string
}

func (id Identity) String() string {
	return fmt.Sprintf("%s <%s>", id.Name, id.Email)
}

// Commit creates a new commit from the current staging area.
//
//  1. Read staging; refuse an empty index.
//  2. Build the tree from staging.
//  3. Resolve HEAD to get the parent commit hash (if any).
//  4. Write a CommitObj with tree hash, parent, identity, timestamp, message.
//  5. Update the current branch ref (CAS against the parent).
//
// An empty message falls back to the configured default placeholder. The
// store is invoked exactly once per call to construct the commit object.
func (r *Repo) Commit(who Identity, message string) (object.Hash, error) {
	stg, err := r.ReadStaging()
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	if len(stg.Entries) == 0 {
		return "", &CommitError{Err: ErrNothingStaged}
	}

	treeHash, err := r.BuildTree(stg)
	if err != nil {
		return "", &CommitError{Err: err}
	}

	// Resolve HEAD to get the parent (may not exist for the first commit).
	var parents []object.Hash
	parentHash, err := r.ResolveRef("HEAD")
	if err == nil && parentHash != "" {
		parents = append(parents, parentHash)
	}

	if strings.TrimSpace(message) == "" {
		message = r.Config.Core.DefaultMessage
	}

	commitObj := &object.CommitObj{
		TreeHash:  treeHash,
		Parents:   parents,
		Author:    who.String(),
		Committer: who.String(),
		Timestamp: time.Now().Unix(),
		Message:   message,
	}

	commitHash, err := r.Store.WriteCommit(commitObj)
	if err != nil {
		return "", &CommitError{Err: err}
	}

	head, err := r.Head()
	if err != nil {
		return "", &CommitError{Err: err}
	}

	// head is either a ref path ("refs/heads/main") or a detached hash.
	if strings.HasPrefix(head, "refs/") {
		var updateErr error
		if parentHash == "" {
			updateErr = r.UpdateRefCAS(head, commitHash)
		} else {
			updateErr = r.UpdateRefCAS(head, commitHash, parentHash)
		}
		if updateErr != nil {
			return "", &CommitError{Err: updateErr}
		}
	} else {
		// Detached HEAD: update HEAD directly with a CAS against the old hash.
		if err := r.UpdateRefCAS("HEAD", commitHash, object.Hash(strings.TrimSpace(head))); err != nil {
			return "", &CommitError{Err: err}
		}
	}

	return commitHash, nil
}

// Log walks the commit history starting from the given hash, following
// first-parent links, returning up to limit commits newest first.
func (r *Repo) Log(start object.Hash, limit int) ([]*object.CommitObj, error) {
	var commits []*object.CommitObj
	current := start

	for len(commits) < limit {
		c, err := r.Store.ReadCommit(current)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				break
			}
			return nil, fmt.Errorf("log: read commit %s: %w", current, err)
		}
		commits = append(commits, c)

		if len(c.Parents) == 0 {
			break
		}
		current = c.Parents[0]
	}

	return commits, nil
}

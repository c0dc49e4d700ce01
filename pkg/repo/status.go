package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNoCommitsYet is returned when a modification query or commit-timestamp
// lookup runs before the repository has any commits. The modification sets
// are undefined without a commit cutoff, so the condition surfaces instead
// of masquerading as an empty result.
var ErrNoCommitsYet = errors.New("repository has no commits yet")

// The file-state sets below are views: each call re-derives its result from
// the current on-disk and index state. Nothing is cached, so a query always
// reflects filesystem and index changes made since the previous one.

// TrackedFiles returns the paths currently recorded in the staging index.
func (r *Repo) TrackedFiles() (map[string]struct{}, error) {
	stg, err := r.ReadStaging()
	if err != nil {
		return nil, err
	}
	tracked := make(map[string]struct{}, len(stg.Entries))
	for path := range stg.Entries {
		tracked[path] = struct{}{}
	}
	return tracked, nil
}

// UntrackedFiles returns trackable − tracked: files eligible for staging
// that are not yet in the index.
func (r *Repo) UntrackedFiles() (map[string]struct{}, error) {
	trackable, err := r.TrackableFiles()
	if err != nil {
		return nil, err
	}
	tracked, err := r.TrackedFiles()
	if err != nil {
		return nil, err
	}
	for path := range tracked {
		delete(trackable, path)
	}
	return trackable, nil
}

// lastCommitTime resolves HEAD and returns the commit's timestamp, the
// modification cutoff for the classifier. A branch ref that does not exist
// yet means no commits; any other resolution failure is a real error and
// propagates.
func (r *Repo) lastCommitTime() (int64, error) {
	headHash, err := r.ResolveRef("HEAD")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, ErrNoCommitsYet
		}
		return 0, fmt.Errorf("last commit: %w", err)
	}
	if headHash == "" {
		return 0, ErrNoCommitsYet
	}
	commit, err := r.Store.ReadCommit(headHash)
	if err != nil {
		return 0, fmt.Errorf("last commit: %w", err)
	}
	return commit.Timestamp, nil
}

// ModifiedStagedFiles returns tracked files whose staged timestamp is
// strictly newer than the last commit: changes staged since that commit.
// Equal timestamps do not count as modified.
func (r *Repo) ModifiedStagedFiles() (map[string]struct{}, error) {
	cutoff, err := r.lastCommitTime()
	if err != nil {
		return nil, err
	}
	stg, err := r.ReadStaging()
	if err != nil {
		return nil, err
	}

	modified := make(map[string]struct{})
	for path, entry := range stg.Entries {
		if entry.ModTime > cutoff {
			modified[path] = struct{}{}
		}
	}
	return modified, nil
}

// ModifiedUnstagedFiles returns tracked files whose working-tree mtime is
// strictly newer than the last commit. A tracked file missing from disk
// cannot be stat'ed and counts as modified.
func (r *Repo) ModifiedUnstagedFiles() (map[string]struct{}, error) {
	cutoff, err := r.lastCommitTime()
	if err != nil {
		return nil, err
	}
	if err := r.ensureWorkTree(); err != nil {
		return nil, err
	}
	stg, err := r.ReadStaging()
	if err != nil {
		return nil, err
	}

	modified := make(map[string]struct{})
	for path := range stg.Entries {
		info, err := os.Stat(filepath.Join(r.RootDir, filepath.FromSlash(path)))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				modified[path] = struct{}{}
				continue
			}
			return nil, fmt.Errorf("modified unstaged: stat %q: %w", path, err)
		}
		if info.ModTime().Unix() > cutoff {
			modified[path] = struct{}{}
		}
	}
	return modified, nil
}

// ModifiedFiles returns modified-staged ∪ modified-unstaged.
func (r *Repo) ModifiedFiles() (map[string]struct{}, error) {
	staged, err := r.ModifiedStagedFiles()
	if err != nil {
		return nil, err
	}
	unstaged, err := r.ModifiedUnstagedFiles()
	if err != nil {
		return nil, err
	}
	for path := range unstaged {
		staged[path] = struct{}{}
	}
	return staged, nil
}

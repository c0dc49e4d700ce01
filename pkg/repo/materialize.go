package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/skiff-vcs/skiff/pkg/object"
)

// RebuildWorkingTree rewrites the working directory and staging index to
// match the given commit's tree. This is a full, destructive rebuild, not a
// merge: every currently tracked file is removed, every file of the target
// tree is written out, and the index is reset to the target state.
// Uncommitted working-tree edits are overwritten. Fetch and clone use this
// as their materialization step.
//
// Algorithm:
//  1. Read the target commit and flatten its tree.
//  2. Remove all tracked files (HEAD tree + staging), pruning emptied dirs.
//  3. Write every file from the target tree.
//  4. Reset the staging index to match the new tree.
func (r *Repo) RebuildWorkingTree(commitHash object.Hash) error {
	return r.RebuildWorkingTreeFrom(commitHash, r.TrackedSnapshot())
}

// RebuildWorkingTreeFrom is RebuildWorkingTree with an explicitly captured
// prior tracked set. Callers that move HEAD before rebuilding (fetch) must
// snapshot the tracked files first, or files the old HEAD claimed but the
// index no longer does survive as stale working files.
func (r *Repo) RebuildWorkingTreeFrom(commitHash object.Hash, stale map[string]struct{}) error {
	if err := r.ensureWorkTree(); err != nil {
		return fmt.Errorf("rebuild working tree: %w", err)
	}

	commit, err := r.Store.ReadCommit(commitHash)
	if err != nil {
		return fmt.Errorf("rebuild working tree: read commit %s: %w", commitHash, err)
	}
	targetFiles, err := r.FlattenTree(commit.TreeHash)
	if err != nil {
		return fmt.Errorf("rebuild working tree: flatten tree: %w", err)
	}

	// Remove the prior tracked state, including files absent from the target.
	for path := range stale {
		absPath := filepath.Join(r.RootDir, filepath.FromSlash(path))
		if err := os.Remove(absPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("rebuild working tree: remove %q: %w", path, err)
		}
		r.removeEmptyParents(filepath.Dir(absPath))
	}

	// Write all files from the target tree.
	for _, f := range targetFiles {
		absPath := filepath.Join(r.RootDir, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
			return fmt.Errorf("rebuild working tree: mkdir %q: %w", filepath.Dir(absPath), err)
		}

		blob, err := r.Store.ReadBlob(f.BlobHash)
		if err != nil {
			return fmt.Errorf("rebuild working tree: read blob for %q: %w", f.Path, err)
		}
		if err := os.WriteFile(absPath, blob.Data, filePermFromMode(f.Mode)); err != nil {
			return fmt.Errorf("rebuild working tree: write %q: %w", f.Path, err)
		}
	}

	// Reset staging to the new tree.
	stg := &Staging{Entries: make(map[string]*StagingEntry, len(targetFiles))}
	for _, f := range targetFiles {
		absPath := filepath.Join(r.RootDir, filepath.FromSlash(f.Path))
		info, err := os.Stat(absPath)
		if err != nil {
			return fmt.Errorf("rebuild working tree: stat %q: %w", f.Path, err)
		}

		stg.Entries[f.Path] = &StagingEntry{
			Path:     f.Path,
			BlobHash: f.BlobHash,
			Mode:     normalizeFileMode(f.Mode),
			ModTime:  info.ModTime().Unix(),
			Size:     info.Size(),
		}
	}
	if err := r.WriteStaging(stg); err != nil {
		return fmt.Errorf("rebuild working tree: %w", err)
	}

	return nil
}

// TrackedSnapshot merges paths from the HEAD tree and the staging index:
// the set of files the repository currently claims in the working tree.
func (r *Repo) TrackedSnapshot() map[string]struct{} {
	files := make(map[string]struct{})

	if headHash, err := r.ResolveRef("HEAD"); err == nil && headHash != "" {
		if commit, err := r.Store.ReadCommit(headHash); err == nil {
			if flat, err := r.FlattenTree(commit.TreeHash); err == nil {
				for _, f := range flat {
					files[f.Path] = struct{}{}
				}
			}
		}
	}

	if stg, err := r.ReadStaging(); err == nil {
		for path := range stg.Entries {
			files[path] = struct{}{}
		}
	}

	return files
}

// removeEmptyParents removes empty directories up to (but not including)
// the repository root.
func (r *Repo) removeEmptyParents(dir string) {
	for {
		// Never remove the repo root itself.
		if dir == r.RootDir || !strings.HasPrefix(dir, r.RootDir) {
			return
		}

		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}

		os.Remove(dir)
		dir = filepath.Dir(dir)
	}
}

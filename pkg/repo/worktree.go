package repo

import (
	"fmt"
	"io/fs"
	"path/filepath"
)

// ScanWorkingTree enumerates every regular file under root, returning
// slash-separated paths relative to root. Directories are never elements of
// the result. When ignored is non-nil, paths for which it returns true are
// excluded (ignored directories are pruned without descending). Traversal
// errors propagate to the caller; nothing is skipped silently.
func ScanWorkingTree(root string, ignored func(string) bool) (map[string]struct{}, error) {
	files := make(map[string]struct{})
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		// Skip the root directory itself.
		if rel == "." {
			return nil
		}

		if ignored != nil && ignored(rel) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if !d.IsDir() {
			files[rel] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan working tree: %w", err)
	}
	return files, nil
}

// RawFiles returns every regular file under the repository root, including
// files under the metadata directory. Recomputed on every call.
func (r *Repo) RawFiles() (map[string]struct{}, error) {
	if err := r.ensureWorkTree(); err != nil {
		return nil, err
	}
	return ScanWorkingTree(r.RootDir, nil)
}

// IgnoredFiles returns the raw files excluded by the ignore predicate.
func (r *Repo) IgnoredFiles() (map[string]struct{}, error) {
	raw, err := r.RawFiles()
	if err != nil {
		return nil, err
	}
	ignored := make(map[string]struct{})
	for path := range raw {
		if r.Ignore.IsIgnored(path) {
			ignored[path] = struct{}{}
		}
	}
	return ignored, nil
}

// TrackableFiles returns raw − ignored: the files eligible for staging.
func (r *Repo) TrackableFiles() (map[string]struct{}, error) {
	if err := r.ensureWorkTree(); err != nil {
		return nil, err
	}
	return ScanWorkingTree(r.RootDir, r.Ignore.IsIgnored)
}

package repo

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/skiff-vcs/skiff/pkg/object"
)

// StagingEntry records the staged state of a single file. ModTime is the
// working file's modification time in unix seconds, captured at staging
// time; the classifier compares it against the last commit's timestamp.
type StagingEntry struct {
	Path     string      `json:"path"`
	BlobHash object.Hash `json:"blob_hash"`
	Mode     string      `json:"mode"`
	ModTime  int64       `json:"mod_time"`
	Size     int64       `json:"size"`
}

// Staging holds the full staging area (index) for a Skiff repository.
type Staging struct {
	Entries map[string]*StagingEntry `json:"entries"`
}

// RenamePair names one (old, new) rename in a Rename batch.
type RenamePair struct {
	Old string
	New string
}

func (r *Repo) indexPath() string {
	return filepath.Join(r.SkiffDir, "index")
}

// ReadStaging loads the staging area from the index file. If the file does
// not exist, an empty Staging is returned (no error).
func (r *Repo) ReadStaging() (*Staging, error) {
	data, err := os.ReadFile(r.indexPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Staging{Entries: make(map[string]*StagingEntry)}, nil
		}
		return nil, fmt.Errorf("read staging: %w", err)
	}

	var stg Staging
	if err := json.Unmarshal(data, &stg); err != nil {
		return nil, fmt.Errorf("read staging: unmarshal: %w", err)
	}
	if stg.Entries == nil {
		stg.Entries = make(map[string]*StagingEntry)
	}
	return &stg, nil
}

// WriteStaging atomically writes the staging area. Batch mutations call this
// exactly once, so the persisted index is never half-updated relative to the
// in-memory one.
func (r *Repo) WriteStaging(s *Staging) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("write staging: marshal: %w", err)
	}

	// Atomic write via temp file + rename.
	tmp, err := os.CreateTemp(r.SkiffDir, ".index-tmp-*")
	if err != nil {
		return fmt.Errorf("write staging: tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write staging: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write staging: close: %w", err)
	}

	if err := os.Rename(tmpName, r.indexPath()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write staging: rename: %w", err)
	}
	return nil
}

// Add stages the given file paths. Each path is resolved relative to the
// repo root. For each file the raw content is written as a blob to the
// object store and a StagingEntry is created or refreshed. Re-adding an
// unchanged file is a no-op. Ignored paths are an error: the ignore
// predicate gates what may enter the index.
//
// A single path is the one-element batch.
func (r *Repo) Add(paths ...string) error {
	if err := r.ensureWorkTree(); err != nil {
		return fmt.Errorf("add: %w", err)
	}
	stg, err := r.ReadStaging()
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}

	changed := false
	for _, p := range paths {
		relPath, err := r.repoRelPath(p)
		if err != nil {
			return fmt.Errorf("add: resolve path %q: %w", p, err)
		}
		if r.Ignore.IsIgnored(relPath) {
			return fmt.Errorf("add: path %q is ignored", relPath)
		}

		absPath := filepath.Join(r.RootDir, filepath.FromSlash(relPath))
		content, err := os.ReadFile(absPath)
		if err != nil {
			return fmt.Errorf("add: read %q: %w", relPath, err)
		}
		info, err := os.Stat(absPath)
		if err != nil {
			return fmt.Errorf("add: stat %q: %w", relPath, err)
		}

		blobHash, err := r.Store.WriteBlob(&object.Blob{Data: content})
		if err != nil {
			return fmt.Errorf("add: write blob %q: %w", relPath, err)
		}

		next := &StagingEntry{
			Path:     relPath,
			BlobHash: blobHash,
			Mode:     modeFromFileInfo(info),
			ModTime:  info.ModTime().Unix(),
			Size:     info.Size(),
		}
		if prev, ok := stg.Entries[relPath]; ok && *prev == *next {
			continue
		}
		stg.Entries[relPath] = next
		changed = true
	}

	if !changed {
		return nil
	}
	if err := r.WriteStaging(stg); err != nil {
		return fmt.Errorf("add: %w", err)
	}
	return nil
}

// Remove drops index entries for the given paths; the working files are
// kept. Paths absent from the index are silently skipped. Without force, an
// entry whose working file content differs from the staged blob aborts the
// whole batch and the persisted index is left untouched.
//
// A single path is the one-element batch.
func (r *Repo) Remove(force bool, paths ...string) error {
	if err := r.ensureWorkTree(); err != nil {
		return fmt.Errorf("remove: %w", err)
	}
	stg, err := r.ReadStaging()
	if err != nil {
		return fmt.Errorf("remove: %w", err)
	}

	changed := false
	for _, p := range paths {
		relPath, err := r.repoRelPath(p)
		if err != nil {
			return fmt.Errorf("remove: resolve path %q: %w", p, err)
		}
		entry, ok := stg.Entries[relPath]
		if !ok {
			continue
		}

		if !force {
			absPath := filepath.Join(r.RootDir, filepath.FromSlash(relPath))
			content, err := os.ReadFile(absPath)
			if err == nil && object.HashObject(object.TypeBlob, content) != entry.BlobHash {
				return fmt.Errorf("remove: %q has unstaged modifications (use force)", relPath)
			}
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("remove: read %q: %w", relPath, err)
			}
		}

		delete(stg.Entries, relPath)
		changed = true
	}

	if !changed {
		return nil
	}
	if err := r.WriteStaging(stg); err != nil {
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}

// Rename moves files on the filesystem and in the index. Pairs whose old
// path is absent from the index are skipped entirely, filesystem half
// included. For each applied pair the file is renamed on disk first, then
// the new path is staged and the old entry dropped; the index itself is
// written once at the end, so a crash mid-batch leaves the index either
// fully pre- or fully post-batch, with the files recoverable on disk.
//
// A single pair is the one-element batch.
func (r *Repo) Rename(pairs ...RenamePair) error {
	if err := r.ensureWorkTree(); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	stg, err := r.ReadStaging()
	if err != nil {
		return fmt.Errorf("rename: %w", err)
	}

	changed := false
	for _, pair := range pairs {
		oldRel, err := r.repoRelPath(pair.Old)
		if err != nil {
			return fmt.Errorf("rename: resolve path %q: %w", pair.Old, err)
		}
		if _, ok := stg.Entries[oldRel]; !ok {
			continue
		}
		newRel, err := r.repoRelPath(pair.New)
		if err != nil {
			return fmt.Errorf("rename: resolve path %q: %w", pair.New, err)
		}

		oldAbs := filepath.Join(r.RootDir, filepath.FromSlash(oldRel))
		newAbs := filepath.Join(r.RootDir, filepath.FromSlash(newRel))
		if err := os.MkdirAll(filepath.Dir(newAbs), 0o755); err != nil {
			return fmt.Errorf("rename: mkdir for %q: %w", newRel, err)
		}
		if err := os.Rename(oldAbs, newAbs); err != nil {
			return fmt.Errorf("rename: %w", err)
		}

		content, err := os.ReadFile(newAbs)
		if err != nil {
			return fmt.Errorf("rename: read %q: %w", newRel, err)
		}
		info, err := os.Stat(newAbs)
		if err != nil {
			return fmt.Errorf("rename: stat %q: %w", newRel, err)
		}
		blobHash, err := r.Store.WriteBlob(&object.Blob{Data: content})
		if err != nil {
			return fmt.Errorf("rename: write blob %q: %w", newRel, err)
		}

		stg.Entries[newRel] = &StagingEntry{
			Path:     newRel,
			BlobHash: blobHash,
			Mode:     modeFromFileInfo(info),
			ModTime:  info.ModTime().Unix(),
			Size:     info.Size(),
		}
		delete(stg.Entries, oldRel)
		changed = true
	}

	if !changed {
		return nil
	}
	if err := r.WriteStaging(stg); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// repoRelPath converts a path (absolute, or relative to CWD) into a path
// relative to the repository root. If the path is already relative and does
// not resolve inside the repo root, it is assumed to already be
// repo-relative.
func (r *Repo) repoRelPath(p string) (string, error) {
	if filepath.IsAbs(p) {
		rel, err := filepath.Rel(r.RootDir, p)
		if err != nil {
			return "", fmt.Errorf("cannot make %q relative to %q: %w", p, r.RootDir, err)
		}
		return filepath.ToSlash(rel), nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return filepath.ToSlash(filepath.Clean(p)), nil
	}

	abs := filepath.Join(cwd, p)
	rel, err := filepath.Rel(r.RootDir, abs)
	if err != nil {
		return filepath.ToSlash(filepath.Clean(p)), nil
	}

	// If the relative path starts with "..", p is outside the repo.
	// In that case, treat the original p as already repo-relative.
	if len(rel) >= 2 && rel[:2] == ".." {
		return filepath.ToSlash(filepath.Clean(p)), nil
	}

	return filepath.ToSlash(rel), nil
}

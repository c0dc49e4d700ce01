package repo

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/skiff-vcs/skiff/pkg/object"
)

// Init creates a new Skiff repository at path. It creates the .skiff/
// directory structure: HEAD, objects/, and refs/heads/. Returns an error if
// a .skiff/ directory already exists.
func Init(path string) (*Repo, error) {
	skiffDir := filepath.Join(path, ".skiff")

	// Fail if .skiff/ already exists.
	if _, err := os.Stat(skiffDir); err == nil {
		return nil, fmt.Errorf("init: repository already exists at %s", skiffDir)
	}

	if err := initLayout(skiffDir); err != nil {
		return nil, err
	}
	return openAt(path, skiffDir, false)
}

// InitBare creates a bare repository: the metadata lives directly in path
// and there is no working tree.
func InitBare(path string) (*Repo, error) {
	if _, err := os.Stat(filepath.Join(path, "HEAD")); err == nil {
		return nil, fmt.Errorf("init: repository already exists at %s", path)
	}

	if err := initLayout(path); err != nil {
		return nil, err
	}
	return openAt(path, path, true)
}

func initLayout(skiffDir string) error {
	dirs := []string{
		filepath.Join(skiffDir, "objects"),
		filepath.Join(skiffDir, "refs", "heads"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("init: mkdir %s: %w", d, err)
		}
	}

	// Write default HEAD pointing at the (unborn) default branch.
	headPath := filepath.Join(skiffDir, "HEAD")
	if err := os.WriteFile(headPath, []byte("ref: refs/heads/"+DefaultBranchName+"\n"), 0o644); err != nil {
		return fmt.Errorf("init: write HEAD: %w", err)
	}
	return nil
}

// Open searches upward from path for a .skiff/ directory and opens the
// repository. A directory that itself carries the metadata layout (HEAD and
// objects/) is opened as a bare repository. Returns an error if neither is
// found.
func Open(path string) (*Repo, error) {
	// Resolve to absolute path for consistent traversal.
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("open: abs path: %w", err)
	}

	cur := abs
	for {
		skiffDir := filepath.Join(cur, ".skiff")
		if info, err := os.Stat(skiffDir); err == nil && info.IsDir() {
			return openAt(cur, skiffDir, false)
		}
		if isBareLayout(cur) {
			return openAt(cur, cur, true)
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			// Reached filesystem root without finding a repository.
			return nil, fmt.Errorf("open: not a skiff repository (or any parent up to /)")
		}
		cur = parent
	}
}

func isBareLayout(dir string) bool {
	if info, err := os.Stat(filepath.Join(dir, "HEAD")); err != nil || info.IsDir() {
		return false
	}
	info, err := os.Stat(filepath.Join(dir, "objects"))
	return err == nil && info.IsDir()
}

// openAt assembles a handle. The ignore predicate and config are resolved
// exactly once here; classification queries reuse them for the lifetime of
// the handle.
func openAt(rootDir, skiffDir string, bare bool) (*Repo, error) {
	cfg, err := ReadConfig(skiffDir)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	return &Repo{
		RootDir:  rootDir,
		SkiffDir: skiffDir,
		Bare:     bare,
		Store:    object.NewStore(skiffDir),
		Ignore:   NewIgnoreChecker(rootDir),
		Config:   cfg,
	}, nil
}

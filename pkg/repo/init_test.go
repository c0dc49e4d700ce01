package repo

import (
	"os"
	"path/filepath"
	"testing"
)

// Test 1: Init creates the metadata layout and HEAD points at the default
// branch.
func TestInit_Layout(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	for _, sub := range []string{"objects", filepath.Join("refs", "heads")} {
		info, err := os.Stat(filepath.Join(r.SkiffDir, sub))
		if err != nil || !info.IsDir() {
			t.Errorf("missing metadata dir %s: %v", sub, err)
		}
	}

	head, err := r.Head()
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	if head != "refs/heads/"+DefaultBranchName {
		t.Errorf("HEAD = %q, want refs/heads/%s", head, DefaultBranchName)
	}
}

// Test 2: Init refuses an existing repository.
func TestInit_RefusesExisting(t *testing.T) {
	dir := t.TempDir()
	if _, err := Init(dir); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := Init(dir); err == nil {
		t.Fatal("second Init succeeded, want error")
	}
}

// Test 3: Open searches upward from a nested directory.
func TestOpen_UpwardSearch(t *testing.T) {
	dir := t.TempDir()
	if _, err := Init(dir); err != nil {
		t.Fatalf("Init: %v", err)
	}
	nested := filepath.Join(dir, "a", "b", "c")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	r, err := Open(nested)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if r.RootDir != dir {
		t.Errorf("RootDir = %q, want %q", r.RootDir, dir)
	}
	if r.Bare {
		t.Error("repository opened as bare, want non-bare")
	}
}

// Test 4: Open fails outside any repository.
func TestOpen_NotARepository(t *testing.T) {
	if _, err := Open(t.TempDir()); err == nil {
		t.Fatal("Open succeeded outside a repository, want error")
	}
}

// Test 5: a bare repository keeps its metadata at the root and refuses
// working-tree scans.
func TestInitBare_NoWorkTree(t *testing.T) {
	dir := t.TempDir()
	r, err := InitBare(dir)
	if err != nil {
		t.Fatalf("InitBare: %v", err)
	}
	if !r.Bare {
		t.Fatal("InitBare produced a non-bare handle")
	}
	if r.SkiffDir != dir {
		t.Errorf("SkiffDir = %q, want %q", r.SkiffDir, dir)
	}

	if _, err := r.RawFiles(); err == nil {
		t.Error("RawFiles on bare repo should fail")
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("Open bare: %v", err)
	}
	if !reopened.Bare {
		t.Error("reopened repository lost its bare flag")
	}
}

// Test 6: config defaults apply when no config file exists, and a written
// config is read back on reopen.
func TestConfig_DefaultsAndRoundTrip(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	if r.Config.Core.DefaultBranch != DefaultBranchName {
		t.Errorf("DefaultBranch = %q, want %q", r.Config.Core.DefaultBranch, DefaultBranchName)
	}
	if r.Config.Core.DefaultMessage != DefaultCommitMessage {
		t.Errorf("DefaultMessage = %q, want %q", r.Config.Core.DefaultMessage, DefaultCommitMessage)
	}

	r.Config.User.Name = "Ada"
	r.Config.User.Email = "ada@example.com"
	r.Config.Core.DefaultBranch = "trunk"
	if err := r.WriteConfig(r.Config); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if reopened.Config.User.Name != "Ada" || reopened.Config.User.Email != "ada@example.com" {
		t.Errorf("user config = %+v, want Ada/ada@example.com", reopened.Config.User)
	}
	if reopened.DefaultBranch() != "trunk" {
		t.Errorf("DefaultBranch = %q, want %q", reopened.DefaultBranch(), "trunk")
	}
}

package repo

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/skiff-vcs/skiff/pkg/object"
)

func fakeHash(b byte) object.Hash {
	h := make([]byte, 64)
	for i := range h {
		h[i] = "0123456789abcdef"[b%16]
	}
	return object.Hash(h)
}

// Test 1: UpdateRef then ResolveRef round-trips, by full name and bare
// branch name.
func TestRefs_UpdateAndResolve(t *testing.T) {
	r, _ := initRepo(t)
	h := fakeHash(3)

	if err := r.UpdateRef("refs/heads/feature", h); err != nil {
		t.Fatalf("UpdateRef: %v", err)
	}

	got, err := r.ResolveRef("refs/heads/feature")
	if err != nil {
		t.Fatalf("ResolveRef: %v", err)
	}
	if got != h {
		t.Errorf("resolved = %s, want %s", got, h)
	}

	got, err = r.ResolveRef("feature")
	if err != nil {
		t.Fatalf("ResolveRef bare name: %v", err)
	}
	if got != h {
		t.Errorf("resolved bare = %s, want %s", got, h)
	}
}

// Test 2: CAS succeeds against the expected old hash and refuses a stale one.
func TestRefs_CASMismatch(t *testing.T) {
	r, _ := initRepo(t)
	first := fakeHash(1)
	second := fakeHash(2)

	if err := r.UpdateRef("refs/heads/main", first); err != nil {
		t.Fatalf("UpdateRef: %v", err)
	}
	if err := r.UpdateRefCAS("refs/heads/main", second, first); err != nil {
		t.Fatalf("UpdateRefCAS: %v", err)
	}

	err := r.UpdateRefCAS("refs/heads/main", fakeHash(4), first)
	if !errors.Is(err, ErrRefCASMismatch) {
		t.Errorf("err = %v, want ErrRefCASMismatch", err)
	}

	got, err := r.ResolveRef("refs/heads/main")
	if err != nil {
		t.Fatalf("ResolveRef: %v", err)
	}
	if got != second {
		t.Errorf("ref = %s, want %s (failed CAS must not move it)", got, second)
	}
}

// Test 3: a failed CAS leaves no stale lock file behind.
func TestRefs_NoStaleLockAfterFailedCAS(t *testing.T) {
	r, _ := initRepo(t)
	if err := r.UpdateRef("refs/heads/main", fakeHash(1)); err != nil {
		t.Fatalf("UpdateRef: %v", err)
	}
	if err := r.UpdateRefCAS("refs/heads/main", fakeHash(2), fakeHash(9)); err == nil {
		t.Fatal("CAS with wrong old hash succeeded")
	}

	if _, err := os.Stat(filepath.Join(r.SkiffDir, "refs", "heads", "main.lock")); !os.IsNotExist(err) {
		t.Error("lock file left behind after failed CAS")
	}
}

// Test 4: ListRefs returns names relative to refs/ and honors the prefix.
func TestRefs_List(t *testing.T) {
	r, _ := initRepo(t)
	if err := r.UpdateRef("refs/heads/main", fakeHash(1)); err != nil {
		t.Fatalf("UpdateRef: %v", err)
	}
	if err := r.UpdateRef("refs/heads/dev", fakeHash(2)); err != nil {
		t.Fatalf("UpdateRef: %v", err)
	}

	refs, err := r.ListRefs("")
	if err != nil {
		t.Fatalf("ListRefs: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("refs = %v, want 2 entries", refs)
	}
	if refs["heads/main"] != fakeHash(1) || refs["heads/dev"] != fakeHash(2) {
		t.Errorf("refs = %v", refs)
	}
}

// Test 5: detached HEAD resolves to the raw hash, and commits on a detached
// HEAD advance HEAD itself.
func TestRefs_DetachedHead(t *testing.T) {
	r, dir := initRepo(t)
	writeFile(t, dir, "a.txt", "a")
	if err := r.Add("a.txt"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	first, err := r.Commit(Identity{Name: "A", Email: "a@b.c"}, "one")
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if err := r.SetHeadDetached(first); err != nil {
		t.Fatalf("SetHeadDetached: %v", err)
	}
	got, err := r.ResolveRef("HEAD")
	if err != nil {
		t.Fatalf("ResolveRef: %v", err)
	}
	if got != first {
		t.Errorf("HEAD = %s, want %s", got, first)
	}

	writeFile(t, dir, "a.txt", "b")
	if err := r.Add("a.txt"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	second, err := r.Commit(Identity{Name: "A", Email: "a@b.c"}, "two")
	if err != nil {
		t.Fatalf("Commit detached: %v", err)
	}

	got, err = r.ResolveRef("HEAD")
	if err != nil {
		t.Fatalf("ResolveRef: %v", err)
	}
	if got != second {
		t.Errorf("detached HEAD = %s, want %s", got, second)
	}
	// The branch ref must not have moved.
	branch, err := r.ResolveRef("refs/heads/main")
	if err != nil {
		t.Fatalf("ResolveRef main: %v", err)
	}
	if branch != first {
		t.Errorf("refs/heads/main = %s, want %s (detached commit must not move it)", branch, first)
	}
}

package object

import (
	"os"
	"path/filepath"
	"testing"
)

// Test 1: Write then Read round-trips type and content; Has reflects
// presence.
func TestStore_WriteRead(t *testing.T) {
	s := NewStore(t.TempDir())
	data := []byte("some content\n")

	h, err := s.Write(TypeBlob, data)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if h != HashObject(TypeBlob, data) {
		t.Errorf("hash = %s, want envelope hash", h)
	}
	if !s.Has(h) {
		t.Error("Has = false after write")
	}

	objType, got, err := s.Read(h)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if objType != TypeBlob {
		t.Errorf("type = %s, want blob", objType)
	}
	if string(got) != string(data) {
		t.Errorf("content = %q, want %q", got, data)
	}
}

// Test 2: the same content under different types yields different hashes.
func TestStore_TypeAffectsHash(t *testing.T) {
	data := []byte("x")
	if HashObject(TypeBlob, data) == HashObject(TypeCommit, data) {
		t.Error("blob and commit hashes collide for identical content")
	}
}

// Test 3: writing the same object twice is idempotent and keeps one file.
func TestStore_WriteIdempotent(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	data := []byte("dup")

	h1, err := s.Write(TypeBlob, data)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	h2, err := s.Write(TypeBlob, data)
	if err != nil {
		t.Fatalf("Write again: %v", err)
	}
	if h1 != h2 {
		t.Errorf("hashes differ: %s vs %s", h1, h2)
	}

	fanout := filepath.Join(dir, "objects", string(h1[:2]))
	entries, err := os.ReadDir(fanout)
	if err != nil {
		t.Fatalf("read fanout dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("fanout dir has %d entries, want 1", len(entries))
	}
}

// Test 4: typed readers reject objects of the wrong type.
func TestStore_TypedReadRejectsWrongType(t *testing.T) {
	s := NewStore(t.TempDir())
	h, err := s.WriteBlob(&Blob{Data: []byte("not a commit")})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	if _, err := s.ReadCommit(h); err == nil {
		t.Error("ReadCommit accepted a blob")
	}
	if _, err := s.ReadTree(h); err == nil {
		t.Error("ReadTree accepted a blob")
	}
}

// Test 5: ReachableSet walks commit -> tree -> subtree -> blobs and ignores
// missing roots.
func TestStore_ReachableSet(t *testing.T) {
	s := NewStore(t.TempDir())

	blobA, err := s.WriteBlob(&Blob{Data: []byte("a")})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	blobB, err := s.WriteBlob(&Blob{Data: []byte("b")})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	sub, err := s.WriteTree(&TreeObj{Entries: []TreeEntry{
		{Name: "b.txt", Mode: TreeModeFile, BlobHash: blobB},
	}})
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	root, err := s.WriteTree(&TreeObj{Entries: []TreeEntry{
		{Name: "a.txt", Mode: TreeModeFile, BlobHash: blobA},
		{Name: "sub", IsDir: true, SubtreeHash: sub},
	}})
	if err != nil {
		t.Fatalf("WriteTree root: %v", err)
	}
	commit, err := s.WriteCommit(&CommitObj{
		TreeHash:  root,
		Author:    "A <a@b.c>",
		Committer: "A <a@b.c>",
		Timestamp: 1700000000,
		Message:   "m",
	})
	if err != nil {
		t.Fatalf("WriteCommit: %v", err)
	}

	set, err := s.ReachableSet([]Hash{commit})
	if err != nil {
		t.Fatalf("ReachableSet: %v", err)
	}
	for _, h := range []Hash{commit, root, sub, blobA, blobB} {
		if _, ok := set[h]; !ok {
			t.Errorf("reachable set missing %s", h)
		}
	}
	if len(set) != 5 {
		t.Errorf("set size = %d, want 5", len(set))
	}

	// A root the store does not have is skipped, not an error.
	missing := HashObject(TypeBlob, []byte("never written"))
	set, err = s.ReachableSet([]Hash{missing})
	if err != nil {
		t.Fatalf("ReachableSet missing root: %v", err)
	}
	if len(set) != 0 {
		t.Errorf("set = %v, want empty", set)
	}
}

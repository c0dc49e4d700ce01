package object

import (
	"strings"
	"testing"
)

// Test 1: tree serialization sorts entries by name and encodes empty hashes
// as "-", so equal trees hash equal regardless of input order.
func TestMarshalTree_DeterministicOrder(t *testing.T) {
	blobHash := HashObject(TypeBlob, []byte("x"))
	subHash := HashObject(TypeTree, []byte(""))

	a := &TreeObj{Entries: []TreeEntry{
		{Name: "zeta.txt", Mode: TreeModeFile, BlobHash: blobHash},
		{Name: "alpha", IsDir: true, SubtreeHash: subHash},
	}}
	b := &TreeObj{Entries: []TreeEntry{
		{Name: "alpha", IsDir: true, SubtreeHash: subHash},
		{Name: "zeta.txt", Mode: TreeModeFile, BlobHash: blobHash},
	}}

	if string(MarshalTree(a)) != string(MarshalTree(b)) {
		t.Error("entry order changed the serialized tree")
	}

	lines := strings.Split(strings.TrimRight(string(MarshalTree(a)), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	if !strings.HasPrefix(lines[0], "alpha ") {
		t.Errorf("first line = %q, want alpha first", lines[0])
	}
	if !strings.HasSuffix(lines[0], " - "+string(subHash)) {
		t.Errorf("dir line = %q, want dash blob hash and subtree hash", lines[0])
	}
	if !strings.HasSuffix(lines[1], " "+string(blobHash)+" -") {
		t.Errorf("file line = %q, want blob hash and dash subtree", lines[1])
	}
}

// Test 2: tree round-trip preserves names, modes, and dir flags.
func TestTree_RoundTrip(t *testing.T) {
	blobHash := HashObject(TypeBlob, []byte("script"))
	orig := &TreeObj{Entries: []TreeEntry{
		{Name: "run.sh", Mode: TreeModeExecutable, BlobHash: blobHash},
		{Name: "lib", IsDir: true, SubtreeHash: HashObject(TypeTree, nil)},
	}}

	parsed, err := UnmarshalTree(MarshalTree(orig))
	if err != nil {
		t.Fatalf("UnmarshalTree: %v", err)
	}
	if len(parsed.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(parsed.Entries))
	}

	// Sorted output: "lib" before "run.sh".
	if parsed.Entries[0].Name != "lib" || !parsed.Entries[0].IsDir {
		t.Errorf("entry 0 = %+v, want dir lib", parsed.Entries[0])
	}
	if parsed.Entries[1].Mode != TreeModeExecutable {
		t.Errorf("run.sh mode = %q, want executable", parsed.Entries[1].Mode)
	}
	if parsed.Entries[1].BlobHash != blobHash {
		t.Errorf("run.sh blob = %s, want %s", parsed.Entries[1].BlobHash, blobHash)
	}
}

// Test 3: malformed tree lines and unknown modes are rejected.
func TestUnmarshalTree_Malformed(t *testing.T) {
	if _, err := UnmarshalTree([]byte("too few fields\n")); err == nil {
		t.Error("accepted a malformed entry line")
	}
	if _, err := UnmarshalTree([]byte("f 777777 - -\n")); err == nil {
		t.Error("accepted an unknown mode")
	}
}

// Test 4: commit round-trip preserves headers, parent order, and a
// multi-line message.
func TestCommit_SerializeRoundTrip(t *testing.T) {
	orig := &CommitObj{
		TreeHash:  HashObject(TypeTree, []byte("t")),
		Parents:   []Hash{HashObject(TypeCommit, []byte("p1")), HashObject(TypeCommit, []byte("p2"))},
		Author:    "Ada <ada@example.com>",
		Committer: "Ada <ada@example.com>",
		Timestamp: 1723456789,
		Message:   "subject line\n\nbody paragraph with details\n",
	}

	parsed, err := UnmarshalCommit(MarshalCommit(orig))
	if err != nil {
		t.Fatalf("UnmarshalCommit: %v", err)
	}
	if parsed.TreeHash != orig.TreeHash {
		t.Errorf("TreeHash = %s, want %s", parsed.TreeHash, orig.TreeHash)
	}
	if len(parsed.Parents) != 2 || parsed.Parents[0] != orig.Parents[0] || parsed.Parents[1] != orig.Parents[1] {
		t.Errorf("Parents = %v, want %v", parsed.Parents, orig.Parents)
	}
	if parsed.Timestamp != orig.Timestamp {
		t.Errorf("Timestamp = %d, want %d", parsed.Timestamp, orig.Timestamp)
	}
	if parsed.Message != orig.Message {
		t.Errorf("Message = %q, want %q", parsed.Message, orig.Message)
	}
}

// Test 5: a commit without the header/message separator is rejected.
func TestUnmarshalCommit_MissingSeparator(t *testing.T) {
	if _, err := UnmarshalCommit([]byte("tree abc\nauthor x")); err == nil {
		t.Error("accepted a commit without separator")
	}
}

package remote

import (
	"testing"

	"github.com/skiff-vcs/skiff/pkg/object"
)

func packRecords() []ObjectRecord {
	blob := []byte("file content")
	tree := object.MarshalTree(&object.TreeObj{Entries: []object.TreeEntry{
		{Name: "f.txt", Mode: object.TreeModeFile, BlobHash: object.HashObject(object.TypeBlob, blob)},
	}})
	commit := object.MarshalCommit(&object.CommitObj{
		TreeHash:  object.HashObject(object.TypeTree, tree),
		Author:    "A <a@b.c>",
		Committer: "A <a@b.c>",
		Timestamp: 1700000000,
		Message:   "m",
	})

	return []ObjectRecord{
		{Hash: object.HashObject(object.TypeCommit, commit), Type: object.TypeCommit, Data: commit},
		{Hash: object.HashObject(object.TypeTree, tree), Type: object.TypeTree, Data: tree},
		{Hash: object.HashObject(object.TypeBlob, blob), Type: object.TypeBlob, Data: blob},
	}
}

// Test 1: encode/decode round-trips types, data, and recomputed hashes.
func TestPackTransport_RoundTrip(t *testing.T) {
	records := packRecords()

	data, err := EncodePackTransportToBytes(records)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodePackTransport(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(decoded) != len(records) {
		t.Fatalf("decoded %d records, want %d", len(decoded), len(records))
	}
	for i, rec := range decoded {
		if rec.Type != records[i].Type {
			t.Errorf("record %d type = %s, want %s", i, rec.Type, records[i].Type)
		}
		if string(rec.Data) != string(records[i].Data) {
			t.Errorf("record %d data mismatch", i)
		}
		if rec.Hash != records[i].Hash {
			t.Errorf("record %d hash = %s, want %s", i, rec.Hash, records[i].Hash)
		}
	}
}

// Test 2: a corrupted byte fails the checksum trailer.
func TestPackTransport_ChecksumDetectsCorruption(t *testing.T) {
	data, err := EncodePackTransportToBytes(packRecords())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	data[len(data)/2] ^= 0xff
	if _, err := DecodePackTransport(data); err == nil {
		t.Error("decode accepted corrupted pack")
	}
}

// Test 3: truncated packs and an empty payload behave sensibly.
func TestPackTransport_TruncatedAndEmpty(t *testing.T) {
	records, err := DecodePackTransport(nil)
	if err != nil || records != nil {
		t.Errorf("empty payload: records=%v err=%v, want nil/nil", records, err)
	}

	data, err := EncodePackTransportToBytes(packRecords())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodePackTransport(data[:10]); err == nil {
		t.Error("decode accepted a truncated pack")
	}
}

// Test 4: pack round-trip survives zstd compression.
func TestPackTransport_WithZstd(t *testing.T) {
	data, err := EncodePackTransportToBytes(packRecords())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	compressed, err := compressZstd(data)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	restored, err := decompressZstd(compressed)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if string(restored) != string(data) {
		t.Fatal("zstd round trip changed the pack bytes")
	}
	if _, err := DecodePackTransport(restored); err != nil {
		t.Fatalf("decode after zstd: %v", err)
	}
}

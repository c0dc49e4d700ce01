package remote

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/skiff-vcs/skiff/pkg/object"
)

// Pack wire format (application/x-skiff-pack):
//
//	magic   "SKPK" (4 bytes)
//	version 1 byte
//	count   uvarint
//	entries count times:
//	    type   1 byte (1=commit, 2=tree, 3=blob)
//	    length uvarint
//	    data   length bytes
//	trailer SHA-256 of everything above (32 bytes)
//
// The stream carries raw object content; hashes are recomputed on decode.

var packMagic = [4]byte{'S', 'K', 'P', 'K'}

const packVersion = 1

const (
	packCommit byte = 1
	packTree   byte = 2
	packBlob   byte = 3
)

func packTypeOf(t object.ObjectType) (byte, bool) {
	switch t {
	case object.TypeCommit:
		return packCommit, true
	case object.TypeTree:
		return packTree, true
	case object.TypeBlob:
		return packBlob, true
	default:
		return 0, false
	}
}

func objectTypeOf(t byte) (object.ObjectType, bool) {
	switch t {
	case packCommit:
		return object.TypeCommit, true
	case packTree:
		return object.TypeTree, true
	case packBlob:
		return object.TypeBlob, true
	default:
		return "", false
	}
}

// EncodePackTransport encodes ObjectRecords into a pack stream.
func EncodePackTransport(w io.Writer, records []ObjectRecord) error {
	h := sha256.New()
	out := io.MultiWriter(w, h)

	if _, err := out.Write(packMagic[:]); err != nil {
		return fmt.Errorf("write pack header: %w", err)
	}
	if _, err := out.Write([]byte{packVersion}); err != nil {
		return fmt.Errorf("write pack header: %w", err)
	}

	var scratch [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(scratch[:], uint64(len(records)))
	if _, err := out.Write(scratch[:n]); err != nil {
		return fmt.Errorf("write pack count: %w", err)
	}

	for _, rec := range records {
		packType, ok := packTypeOf(rec.Type)
		if !ok {
			return fmt.Errorf("unsupported object type %q", rec.Type)
		}
		if _, err := out.Write([]byte{packType}); err != nil {
			return fmt.Errorf("write pack entry for %s: %w", rec.Hash, err)
		}
		n := binary.PutUvarint(scratch[:], uint64(len(rec.Data)))
		if _, err := out.Write(scratch[:n]); err != nil {
			return fmt.Errorf("write pack entry for %s: %w", rec.Hash, err)
		}
		if _, err := out.Write(rec.Data); err != nil {
			return fmt.Errorf("write pack entry for %s: %w", rec.Hash, err)
		}
	}

	if _, err := w.Write(h.Sum(nil)); err != nil {
		return fmt.Errorf("write pack trailer: %w", err)
	}
	return nil
}

// EncodePackTransportToBytes is a convenience wrapper.
func EncodePackTransportToBytes(records []ObjectRecord) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodePackTransport(&buf, records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodePackTransport decodes a pack stream into ObjectRecords, verifying
// the checksum trailer and recomputing every object hash.
func DecodePackTransport(data []byte) ([]ObjectRecord, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if len(data) < len(packMagic)+1+sha256.Size {
		return nil, fmt.Errorf("pack too short (%d bytes)", len(data))
	}

	body := data[:len(data)-sha256.Size]
	trailer := data[len(data)-sha256.Size:]
	sum := sha256.Sum256(body)
	if !bytes.Equal(sum[:], trailer) {
		return nil, fmt.Errorf("pack checksum mismatch")
	}

	r := bytes.NewReader(body)
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("read pack magic: %w", err)
	}
	if magic != packMagic {
		return nil, fmt.Errorf("bad pack magic %q", magic[:])
	}
	version, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("read pack version: %w", err)
	}
	if version != packVersion {
		return nil, fmt.Errorf("unsupported pack version %d", version)
	}

	count, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("read pack count: %w", err)
	}

	records := make([]ObjectRecord, 0, count)
	for i := uint64(0); i < count; i++ {
		typeByte, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("read entry %d type: %w", i, err)
		}
		objType, ok := objectTypeOf(typeByte)
		if !ok {
			return nil, fmt.Errorf("entry %d: unsupported pack type %d", i, typeByte)
		}
		length, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, fmt.Errorf("read entry %d length: %w", i, err)
		}
		if length > uint64(r.Len()) {
			return nil, fmt.Errorf("entry %d: length %d exceeds remaining pack data", i, length)
		}
		entryData := make([]byte, length)
		if _, err := io.ReadFull(r, entryData); err != nil {
			return nil, fmt.Errorf("read entry %d data: %w", i, err)
		}

		records = append(records, ObjectRecord{
			Hash: object.HashObject(objType, entryData),
			Type: objType,
			Data: entryData,
		})
	}

	if r.Len() != 0 {
		return nil, fmt.Errorf("trailing garbage after %d pack entries", count)
	}
	return records, nil
}

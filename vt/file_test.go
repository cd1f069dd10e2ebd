package vt

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// buildVTFile assembles a minimal on-disk VT page file per spec.md §6.4:
// magic, layer table, page_resolution_with_borders, PIT (write_pages +
// body), then the address table (num_lods + byte_offsets + optional
// coarse table). No page stream payload is appended; these tests only
// exercise header parsing.
func buildVTFile(t *testing.T, numLODs int, writePages int) string {
	t.Helper()
	ot := newOffsetTable(numLODs)

	var buf bytes.Buffer
	var u32 [4]byte
	var u16 [2]byte

	binary.LittleEndian.PutUint32(u32[:], vtMagicLow|uint32(1)<<16) // version 1
	buf.Write(u32[:])

	buf.WriteByte(0) // layer_count = 0; these tests don't read the page stream

	binary.LittleEndian.PutUint16(u16[:], 132) // page_resolution_with_borders
	buf.Write(u16[:])

	binary.LittleEndian.PutUint32(u32[:], uint32(writePages))
	buf.Write(u32[:])
	buf.Write(make([]byte, writePages))

	buf.WriteByte(byte(numLODs))
	buf.Write(make([]byte, ot.totalPages()))
	if numLODs > 4 {
		nodeCount := ot.base[numLODs-4]
		for i := uint32(0); i < nodeCount; i++ {
			binary.LittleEndian.PutUint32(u32[:], 0)
			buf.Write(u32[:])
		}
	}

	path := filepath.Join(t.TempDir(), "test.vt")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

// TestOpenFileZeroStoredLODs covers spec.md §8.3's boundary case: a PIT
// with zero stored LODs serializes write_pages = 0, and the file must
// still open successfully with its LOD count taken from the address
// table, not derived from the (here, empty) PIT body.
func TestOpenFileZeroStoredLODs(t *testing.T) {
	path := buildVTFile(t, 3, 0)

	f, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile with write_pages=0: %v", err)
	}
	defer f.Close()

	ot := newOffsetTable(3)
	if f.NumLODs != 3 {
		t.Errorf("NumLODs = %d, want 3 (from the address table, not the empty PIT)", f.NumLODs)
	}
	if uint32(f.PIT.Len()) != ot.totalPages() {
		t.Errorf("PIT.Len() = %d, want %d (padded to the full quadtree)", f.PIT.Len(), ot.totalPages())
	}
	for abs := uint32(0); abs < ot.totalPages(); abs++ {
		if f.PIT.Stored(abs) {
			t.Errorf("page %d should read as not Stored when write_pages=0", abs)
		}
	}
}

// TestOpenFilePartialStoredLODs covers a VT whose stored-LOD count is
// strictly less than its total LOD count: write_pages only covers the
// coarsest LODs, yet the address table's num_lods spans the full quadtree.
func TestOpenFilePartialStoredLODs(t *testing.T) {
	const numLODs = 4
	ot := newOffsetTable(numLODs)
	// Store only LOD 0 and LOD 1 (5 pages); finer LODs 2-3 aren't on disk.
	writePages := int(ot.base[2])

	path := buildVTFile(t, numLODs, writePages)
	f, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile with a partially stored quadtree: %v", err)
	}
	defer f.Close()

	if f.NumLODs != numLODs {
		t.Errorf("NumLODs = %d, want %d", f.NumLODs, numLODs)
	}
	if uint32(f.PIT.Len()) != ot.totalPages() {
		t.Errorf("PIT.Len() = %d, want %d (the full quadtree, not just write_pages=%d)", f.PIT.Len(), ot.totalPages(), writePages)
	}
}

func TestOpenFileBadMagicErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.vt")
	if err := os.WriteFile(path, []byte("not a vt file at all!!"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := OpenFile(path); err == nil {
		t.Errorf("OpenFile on a bad-magic file should error")
	}
}

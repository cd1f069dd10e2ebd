package vt

import (
	"bytes"
	"testing"
)

func TestAddressTableRoundTrip(t *testing.T) {
	ot := newOffsetTable(6)
	at := NewAddressTable(ot, 6)
	for abs := uint32(0); abs < ot.totalPages(); abs++ {
		at.byteOffsets[abs] = byte(abs * 7)
	}
	for i := range at.table {
		at.table[i] = uint32(i) * 4096
	}

	var buf bytes.Buffer
	if err := at.WriteAddressTable(&buf); err != nil {
		t.Fatalf("WriteAddressTable: %v", err)
	}
	got, gotOT, err := ReadAddressTable(&buf)
	if err != nil {
		t.Fatalf("ReadAddressTable: %v", err)
	}
	if gotOT.totalPages() != ot.totalPages() {
		t.Errorf("ReadAddressTable's derived offsetTable has %d total pages, want %d", gotOT.totalPages(), ot.totalPages())
	}
	if !bytes.Equal(got.byteOffsets, at.byteOffsets) {
		t.Errorf("byteOffsets mismatch after round trip")
	}
	if len(got.table) != len(at.table) {
		t.Fatalf("table length mismatch: got %d, want %d", len(got.table), len(at.table))
	}
	for i := range at.table {
		if got.table[i] != at.table[i] {
			t.Errorf("table[%d] = %d, want %d", i, got.table[i], at.table[i])
		}
	}
}

func TestAddressTableNoCoarseTableBelowLOD4(t *testing.T) {
	ot := newOffsetTable(3)
	at := NewAddressTable(ot, 3)
	if len(at.table) != 0 {
		t.Errorf("quadtrees with fewer than 4 LODs should carry no coarse table, got len %d", len(at.table))
	}
}

func TestPhysicalOffsetUsesCoarseTableAboveLOD4(t *testing.T) {
	ot := newOffsetTable(6)
	at := NewAddressTable(ot, 6)

	abs := ot.relToAbs(0, 5)
	coarseBlockIndex := ot.relToAbs(0, 1) // lod 5 - 4 == coarse LOD 1
	at.table[coarseBlockIndex] = 1000
	at.byteOffsets[abs] = 3

	if got := at.PhysicalOffset(ot, abs); got != 1003 {
		t.Errorf("PhysicalOffset = %d, want 1003 (coarse block 1000 + byte offset 3)", got)
	}
}

package vt

import (
	"fmt"
	"io"
)

// AddressTable maps an absolute page index to its physical file page
// offset (spec.md §3.2): a dense per-page byte table for the cheap case,
// amortised through a coarse per-16x16-block table for LODs ≥ 4.
type AddressTable struct {
	numLODs     int
	byteOffsets []byte   // one per absolute page index, every LOD
	table       []uint32 // quadtree_nodes(numLODs-4) entries; empty if numLODs <= 4
}

// NewAddressTable allocates a zeroed address table sized for an ot-shaped
// quadtree.
func NewAddressTable(ot offsetTable, numLODs int) *AddressTable {
	at := &AddressTable{
		numLODs:     numLODs,
		byteOffsets: make([]byte, ot.totalPages()),
	}
	if numLODs > 4 {
		at.table = make([]uint32, ot.base[numLODs-4])
	}
	return at
}

// PhysicalOffset returns the byte offset (from the start of the page
// stream, in whole pages) of abs's first layer.
func (at *AddressTable) PhysicalOffset(ot offsetTable, abs uint32) uint64 {
	lod, rel, _ := ot.absToRel(abs)
	var block uint32
	if lod >= 4 {
		k := uint(lod)
		x := rel & ((uint32(1) << k) - 1)
		y := rel >> k
		coarseLOD := lod - 4
		coarseRel := (x >> 4) + (y>>4)*(uint32(1)<<uint(coarseLOD))
		block = at.table[ot.relToAbs(coarseRel, coarseLOD)]
	}
	return uint64(block) + uint64(at.byteOffsets[abs])
}

// ReadAddressTable reads a serialized address table per spec.md §6.4:
// num_lods:u8, then total_pages bytes of byte_offsets, then (if
// num_lods > 4) quadtree_nodes(num_lods-4) u32 table entries. This u8 is
// the VT's one authoritative LOD count (VirtualTextureAddressTable::Read
// in original_source/Hork/VirtualTexture/VT.cpp) — it, not the PIT's
// write_pages, is what sizes the quadtree, so ReadAddressTable builds and
// returns the offsetTable itself rather than taking one from the caller.
func ReadAddressTable(r io.Reader) (*AddressTable, offsetTable, error) {
	numLODs, err := readU8(r)
	if err != nil {
		return nil, offsetTable{}, fmt.Errorf("vt: read address table num_lods: %w", err)
	}
	ot := newOffsetTable(int(numLODs))

	at := &AddressTable{numLODs: int(numLODs)}
	at.byteOffsets = make([]byte, ot.totalPages())
	if _, err := io.ReadFull(r, at.byteOffsets); err != nil {
		return nil, offsetTable{}, fmt.Errorf("vt: read byte_offsets: %w", err)
	}

	if numLODs > 4 {
		nodeCount := ot.base[int(numLODs)-4]
		at.table = make([]uint32, nodeCount)
		for i := range at.table {
			if at.table[i], err = readU32(r); err != nil {
				return nil, offsetTable{}, fmt.Errorf("vt: read table[%d]: %w", i, err)
			}
		}
	}
	return at, ot, nil
}

// WriteAddressTable serializes at in the same layout ReadAddressTable
// expects.
func (at *AddressTable) WriteAddressTable(w io.Writer) error {
	if err := writeU8(w, uint8(at.numLODs)); err != nil {
		return err
	}
	if _, err := w.Write(at.byteOffsets); err != nil {
		return err
	}
	for _, v := range at.table {
		if err := writeU32(w, v); err != nil {
			return err
		}
	}
	return nil
}

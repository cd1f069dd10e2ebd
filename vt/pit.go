package vt

import (
	"fmt"
	"io"
)

// PIT flag bits, packed into the low nibble of each page-info byte
// (spec.md §3.2).
const (
	pitCached byte = 1 << 0 // runtime: page is resident in the physical cache
	pitStored byte = 1 << 3 // authoring time: page exists on disk
)

// PageInfoTable is one byte per absolute page index: low nibble holds the
// Stored/Cached flag bits, high nibble holds the LOD of the nearest
// coarser page that exists on disk (the clamp-up target when a requested
// page is missing).
type PageInfoTable struct {
	data []byte
}

// NewPageInfoTable allocates a zeroed PIT for totalPages entries.
func NewPageInfoTable(totalPages uint32) *PageInfoTable {
	return &PageInfoTable{data: make([]byte, totalPages)}
}

func (pit *PageInfoTable) Len() int { return len(pit.data) }

func (pit *PageInfoTable) Stored(abs uint32) bool {
	return pit.data[abs]&pitStored != 0
}

func (pit *PageInfoTable) Cached(abs uint32) bool {
	return pit.data[abs]&pitCached != 0
}

func (pit *PageInfoTable) SetCached(abs uint32, cached bool) {
	if cached {
		pit.data[abs] |= pitCached
	} else {
		pit.data[abs] &^= pitCached
	}
}

// NearestStoredLOD returns the LOD of the nearest coarser page on disk
// for abs, used to clamp a requested LOD up to one that actually exists.
func (pit *PageInfoTable) NearestStoredLOD(abs uint32) int {
	return int(pit.data[abs] >> 4)
}

func (pit *PageInfoTable) setEntry(abs uint32, stored bool, nearestStoredLOD int) {
	b := byte(nearestStoredLOD&0x0F) << 4
	if stored {
		b |= pitStored
	}
	pit.data[abs] = b
}

// ReadPIT reads a serialized PIT: a u32 page count ("write_pages" in
// spec.md §6.4) followed by that many raw bytes. write_pages may be
// smaller than the quadtree's total page count (VirtualTexturePIT::Generate
// only ever writes QuadTreeCalcQuadTreeNodes(stored_lods) entries); callers
// must grow the result to the full page count with padTo once the VT's
// authoritative num_lods is known.
func ReadPIT(r io.Reader) (*PageInfoTable, error) {
	n, err := readU32(r)
	if err != nil {
		return nil, fmt.Errorf("vt: read PIT page count: %w", err)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("vt: read PIT body: %w", err)
	}
	return &PageInfoTable{data: buf}, nil
}

// padTo grows the PIT to total entries, zero-filling everything at or
// beyond write_pages: per spec.md §8.2, bytes past write_pages are treated
// as not Stored, not Cached, with nearest-stored-LOD 0.
func (pit *PageInfoTable) padTo(total int) error {
	if len(pit.data) > total {
		return fmt.Errorf("%w: PIT write_pages %d exceeds quadtree total %d", ErrBadFormat, len(pit.data), total)
	}
	if len(pit.data) < total {
		grown := make([]byte, total)
		copy(grown, pit.data)
		pit.data = grown
	}
	return nil
}

// WritePages serializes the PIT as write_pages:u32 followed by its raw
// bytes, round-tripping with ReadPIT.
func (pit *PageInfoTable) WritePages(w io.Writer) error {
	if err := writeU32(w, uint32(len(pit.data))); err != nil {
		return err
	}
	_, err := w.Write(pit.data)
	return err
}

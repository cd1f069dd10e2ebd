package vt

import "encoding/binary"

// indirectionEntry packs a physical tile index (low 12 bits) and the LOD
// actually resident at that tile (high 4 bits) — spec.md §3.2.
type indirectionEntry = uint16

const (
	tileIndexMask = 0x0FFF
	lodShift      = 12
)

func packIndirection(tile uint32, lod int) indirectionEntry {
	return indirectionEntry(tile&tileIndexMask) | indirectionEntry(lod)<<lodShift
}

// Indirection is the CPU-side mirror of one VT's GPU indirection texture:
// one entry per quadtree page, plus a per-LOD dirty flag so a frame's
// commit only re-uploads the mips that actually changed.
type Indirection struct {
	ot       offsetTable
	numLODs  int
	entries  []indirectionEntry
	dirtyLOD []bool
}

func newIndirection(ot offsetTable, numLODs int) *Indirection {
	return &Indirection{
		ot:       ot,
		numLODs:  numLODs,
		entries:  make([]indirectionEntry, ot.totalPages()),
		dirtyLOD: make([]bool, numLODs),
	}
}

// Entry returns the raw packed indirection value for abs.
func (ind *Indirection) Entry(abs uint32) indirectionEntry { return ind.entries[abs] }

func (ind *Indirection) markDirty(abs uint32) {
	if lod, _, ok := ind.ot.absToRel(abs); ok {
		ind.dirtyLOD[lod] = true
	}
}

// MakeResident marks abs cached at physical tile and lod, then
// propagates the new bits down to every descendant whose Cached bit is
// unset (LOD-fallback, spec.md §4.2.2).
func (ind *Indirection) MakeResident(pit *PageInfoTable, abs uint32, tile uint32, lod int) {
	pit.SetCached(abs, true)
	bits := packIndirection(tile, lod)
	ind.entries[abs] = bits
	ind.markDirty(abs)
	ind.propagateDown(pit, abs, bits)
}

// MakeNonResident clears abs's residency and propagates its parent's
// current indirection entry back down through every descendant whose
// Cached bit is unset. A LOD-0 page has no parent, so its entry reverts
// to zero.
func (ind *Indirection) MakeNonResident(pit *PageInfoTable, abs uint32) {
	pit.SetCached(abs, false)
	var bits indirectionEntry
	if parent, ok := ind.ot.parentAbs(abs); ok {
		bits = ind.entries[parent]
	}
	ind.entries[abs] = bits
	ind.markDirty(abs)
	ind.propagateDown(pit, abs, bits)
}

func (ind *Indirection) propagateDown(pit *PageInfoTable, abs uint32, bits indirectionEntry) {
	for _, child := range ind.ot.children(abs) {
		if pit.Cached(child) {
			continue
		}
		ind.entries[child] = bits
		ind.markDirty(child)
		ind.propagateDown(pit, child, bits)
	}
}

// markAllDirty flags every LOD for the next commit, used by a full cache
// reset where every mip must be re-uploaded regardless of what actually
// changed.
func (ind *Indirection) markAllDirty() {
	for i := range ind.dirtyLOD {
		ind.dirtyLOD[i] = true
	}
}

// DirtyMips returns every LOD whose entries changed since the last call,
// clearing the dirty set.
func (ind *Indirection) DirtyMips() []int {
	var dirty []int
	for lod, d := range ind.dirtyLOD {
		if d {
			dirty = append(dirty, lod)
			ind.dirtyLOD[lod] = false
		}
	}
	return dirty
}

// MipBytes returns lod's indirection entries as a flat little-endian RG8
// byte slice ready for a buffer-to-image copy, and the GPU mip level that
// holds it: mip L-1-k holds LOD k (spec.md §3.2).
func (ind *Indirection) MipBytes(lod int) (data []byte, gpuMip int) {
	start, end := ind.ot.base[lod], ind.ot.base[lod+1]
	data = make([]byte, (end-start)*2)
	for i := start; i < end; i++ {
		binary.LittleEndian.PutUint16(data[(i-start)*2:], ind.entries[i])
	}
	return data, ind.numLODs - 1 - lod
}

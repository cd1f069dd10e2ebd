// Package vt implements the virtual-texture page cache: the on-disk
// quadtree file format, the physical tile cache with LRU eviction, the
// GPU indirection texture, and the feedback-driven streaming pipeline
// that keeps them in sync (spec.md §3.2, §4.2).
package vt

// baseOffset returns the cumulative page count of every LOD coarser than
// lod: sum_{i=0}^{lod-1} 4^i = (4^lod - 1) / 3.
func baseOffset(lod int) uint32 {
	if lod <= 0 {
		return 0
	}
	return (uint32(1)<<(2*uint(lod)) - 1) / 3
}

// offsetTable is a precomputed per-LOD base offset lookup, built once per
// VT at open time so the hot indirection/feedback paths never recompute
// a 4^k pow.
type offsetTable struct {
	base []uint32 // base[k] == baseOffset(k), len == numLODs+1
}

func newOffsetTable(numLODs int) offsetTable {
	t := offsetTable{base: make([]uint32, numLODs+1)}
	for k := 0; k <= numLODs; k++ {
		t.base[k] = baseOffset(k)
	}
	return t
}

// totalPages is the page count across every LOD: baseOffset(numLODs).
func (t offsetTable) totalPages() uint32 {
	return t.base[len(t.base)-1]
}

// relToAbs converts a per-LOD relative page index to the VT's absolute
// page index.
func (t offsetTable) relToAbs(rel uint32, lod int) uint32 {
	return t.base[lod] + rel
}

// absToRel decomposes an absolute page index into its (lod, rel) pair.
// It reports ok=false if abs is out of range.
func (t offsetTable) absToRel(abs uint32) (lod int, rel uint32, ok bool) {
	for k := len(t.base) - 2; k >= 0; k-- {
		if abs >= t.base[k] {
			return k, abs - t.base[k], true
		}
	}
	return 0, 0, false
}

// parentRel returns the relative index, at lod-1, of rel's parent at lod.
// lod must be > 0. This is the closed form from spec.md §3.2:
// ((r mod 2^k) >> 1) + ((r >> (k+1)) << (k-1)).
func parentRel(rel uint32, lod int) uint32 {
	k := uint(lod)
	return ((rel % (uint32(1) << k)) >> 1) + ((rel >> (k + 1)) << (k - 1))
}

// parentAbs returns the absolute index of abs's parent page, and false if
// abs is already at LOD 0 (the root has no parent).
func (t offsetTable) parentAbs(abs uint32) (parent uint32, ok bool) {
	lod, rel, valid := t.absToRel(abs)
	if !valid || lod == 0 {
		return 0, false
	}
	return t.relToAbs(parentRel(rel, lod), lod-1), true
}

// children returns the four descendant absolute indices of abs at the
// next-finer LOD, or nil if abs is already at the finest LOD.
func (t offsetTable) children(abs uint32) []uint32 {
	lod, rel, ok := t.absToRel(abs)
	if !ok || lod+1 >= len(t.base) {
		return nil
	}
	childLOD := lod + 1
	k := uint(lod)
	x := rel & ((uint32(1) << k) - 1)
	y := rel >> k
	out := make([]uint32, 0, 4)
	for dy := uint32(0); dy < 2; dy++ {
		for dx := uint32(0); dx < 2; dx++ {
			cx := x*2 + dx
			cy := y*2 + dy
			crel := cx + cy*(uint32(1)<<uint(childLOD))
			out = append(out, t.relToAbs(crel, childLOD))
		}
	}
	return out
}

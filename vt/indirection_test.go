package vt

import "testing"

func TestIndirectionMakeResidentPropagatesToUncachedDescendants(t *testing.T) {
	ot := newOffsetTable(3)
	pit := NewPageInfoTable(ot.totalPages())
	ind := newIndirection(ot, 3)

	root := ot.relToAbs(0, 0)
	ind.MakeResident(pit, root, 7, 0)

	bits := packIndirection(7, 0)
	for _, child := range ot.children(root) {
		if ind.Entry(child) != bits {
			t.Errorf("child %d entry = %x, want propagated root entry %x", child, ind.Entry(child), bits)
		}
		for _, grandchild := range ot.children(child) {
			if ind.Entry(grandchild) != bits {
				t.Errorf("grandchild %d entry = %x, want propagated root entry %x", grandchild, ind.Entry(grandchild), bits)
			}
		}
	}
}

func TestIndirectionPropagationStopsAtCachedDescendant(t *testing.T) {
	ot := newOffsetTable(3)
	pit := NewPageInfoTable(ot.totalPages())
	ind := newIndirection(ot, 3)

	root := ot.relToAbs(0, 0)
	children := ot.children(root)
	pinned := children[0]
	ind.MakeResident(pit, pinned, 99, 1)

	ind.MakeResident(pit, root, 7, 0)

	if ind.Entry(pinned) == packIndirection(7, 0) {
		t.Errorf("a page with its own Cached residency must not be overwritten by an ancestor's propagation")
	}
	for _, grandchild := range ot.children(pinned) {
		if ind.Entry(grandchild) != packIndirection(99, 1) {
			t.Errorf("grandchild %d entry = %x, want pinned descendant's entry", grandchild, ind.Entry(grandchild))
		}
	}
}

func TestIndirectionMakeNonResidentRevertsToParent(t *testing.T) {
	ot := newOffsetTable(3)
	pit := NewPageInfoTable(ot.totalPages())
	ind := newIndirection(ot, 3)

	root := ot.relToAbs(0, 0)
	child := ot.children(root)[0]

	ind.MakeResident(pit, root, 7, 0)
	ind.MakeResident(pit, child, 11, 1)
	ind.MakeNonResident(pit, child)

	if ind.Entry(child) != packIndirection(7, 0) {
		t.Errorf("MakeNonResident should revert to the parent's entry, got %x", ind.Entry(child))
	}
	if pit.Cached(child) {
		t.Errorf("MakeNonResident should clear the Cached bit")
	}
}

func TestIndirectionMakeNonResidentAtRootRevertsToZero(t *testing.T) {
	ot := newOffsetTable(2)
	pit := NewPageInfoTable(ot.totalPages())
	ind := newIndirection(ot, 2)

	root := ot.relToAbs(0, 0)
	ind.MakeResident(pit, root, 3, 0)
	ind.MakeNonResident(pit, root)

	if ind.Entry(root) != 0 {
		t.Errorf("root has no parent, MakeNonResident should zero its entry, got %x", ind.Entry(root))
	}
}

func TestDirtyMipsClearsOnRead(t *testing.T) {
	ot := newOffsetTable(2)
	pit := NewPageInfoTable(ot.totalPages())
	ind := newIndirection(ot, 2)

	ind.MakeResident(pit, ot.relToAbs(0, 0), 1, 0)
	dirty := ind.DirtyMips()
	if len(dirty) == 0 {
		t.Fatalf("expected at least one dirty LOD after MakeResident")
	}
	if more := ind.DirtyMips(); len(more) != 0 {
		t.Errorf("DirtyMips should clear the dirty set, got %v", more)
	}
}

func TestMipBytesLayoutMatchesGPUMipConvention(t *testing.T) {
	ot := newOffsetTable(3)
	ind := newIndirection(ot, 3)

	// mip L-1-k holds LOD k: LOD 0 (coarsest) lands on the last GPU mip.
	_, gpuMip := ind.MipBytes(0)
	if gpuMip != 2 {
		t.Errorf("MipBytes(0) gpuMip = %d, want 2 (numLODs-1-0)", gpuMip)
	}
	data, gpuMip := ind.MipBytes(2)
	if gpuMip != 0 {
		t.Errorf("MipBytes(2) gpuMip = %d, want 0", gpuMip)
	}
	wantLen := int(ot.base[3]-ot.base[2]) * 2
	if len(data) != wantLen {
		t.Errorf("MipBytes(2) len = %d, want %d", len(data), wantLen)
	}
}

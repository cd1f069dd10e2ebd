package vt

import "testing"

func TestBaseOffset(t *testing.T) {
	cases := []struct {
		lod  int
		want uint32
	}{
		{0, 0},
		{1, 1},
		{2, 5},
		{3, 21},
		{4, 85},
	}
	for _, c := range cases {
		if got := baseOffset(c.lod); got != c.want {
			t.Errorf("baseOffset(%d) = %d, want %d", c.lod, got, c.want)
		}
	}
}

func TestOffsetTableRoundTrip(t *testing.T) {
	ot := newOffsetTable(4)
	for lod := 0; lod < 4; lod++ {
		n := uint32(1) << uint(2*lod)
		for rel := uint32(0); rel < n; rel++ {
			abs := ot.relToAbs(rel, lod)
			gotLOD, gotRel, ok := ot.absToRel(abs)
			if !ok || gotLOD != lod || gotRel != rel {
				t.Fatalf("absToRel(relToAbs(%d, %d)) = (%d, %d, %v), want (%d, %d, true)", rel, lod, gotLOD, gotRel, ok, lod, rel)
			}
		}
	}
}

func TestAbsToRelOutOfRange(t *testing.T) {
	ot := newOffsetTable(2)
	if _, _, ok := ot.absToRel(ot.totalPages()); ok {
		t.Errorf("absToRel(totalPages()) should report ok=false")
	}
}

// parentRel follows the closed-form formula from spec.md §3.2 literally;
// see DESIGN.md for why this disagrees with the document's own worked
// example at (5, 2).
func TestParentRelFormula(t *testing.T) {
	if got := parentRel(5, 2); got != 0 {
		t.Errorf("parentRel(5, 2) = %d, want 0 (closed form, not the worked example)", got)
	}
}

func TestParentAbsAndChildren(t *testing.T) {
	ot := newOffsetTable(3)

	// Every LOD-2 page's parent must be one of LOD-1's four children when
	// walked back down.
	for rel := uint32(0); rel < 16; rel++ {
		abs := ot.relToAbs(rel, 2)
		parent, ok := ot.parentAbs(abs)
		if !ok {
			t.Fatalf("parentAbs(%d) at LOD 2 reported no parent", abs)
		}
		children := ot.children(parent)
		found := false
		for _, c := range children {
			if c == abs {
				found = true
			}
		}
		if !found {
			t.Errorf("abs %d not found among children(parentAbs(%d)) = %v", abs, abs, children)
		}
	}

	root := ot.relToAbs(0, 0)
	if _, ok := ot.parentAbs(root); ok {
		t.Errorf("parentAbs(root) should report ok=false")
	}
	finest := ot.relToAbs(0, 2)
	if c := ot.children(finest); c != nil {
		t.Errorf("children(finest LOD) = %v, want nil", c)
	}
}

func TestTotalPages(t *testing.T) {
	ot := newOffsetTable(5)
	var want uint32
	for k := 0; k < 5; k++ {
		want += uint32(1) << uint(2*k)
	}
	if got := ot.totalPages(); got != want {
		t.Errorf("totalPages() = %d, want %d", got, want)
	}
}

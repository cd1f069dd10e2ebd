package vt

import (
	"bytes"
	"testing"
)

func TestPageInfoTableCachedStored(t *testing.T) {
	pit := NewPageInfoTable(8)
	pit.setEntry(3, true, 0)
	if !pit.Stored(3) {
		t.Errorf("page 3 should be Stored")
	}
	if pit.Cached(3) {
		t.Errorf("page 3 should not start Cached")
	}
	pit.SetCached(3, true)
	if !pit.Cached(3) {
		t.Errorf("SetCached(3, true) did not stick")
	}
	pit.SetCached(3, false)
	if pit.Cached(3) {
		t.Errorf("SetCached(3, false) did not clear")
	}
	// Clearing Cached must not disturb Stored.
	if !pit.Stored(3) {
		t.Errorf("SetCached should not clear the Stored bit")
	}
}

func TestPageInfoTableNearestStoredLOD(t *testing.T) {
	pit := NewPageInfoTable(4)
	pit.setEntry(2, false, 3)
	if got := pit.NearestStoredLOD(2); got != 3 {
		t.Errorf("NearestStoredLOD(2) = %d, want 3", got)
	}
}

func TestPITReadWriteRoundTrip(t *testing.T) {
	pit := NewPageInfoTable(16)
	for i := range pit.data {
		pit.setEntry(uint32(i), i%3 == 0, i%5)
	}
	pit.SetCached(7, true)

	var buf bytes.Buffer
	if err := pit.WritePages(&buf); err != nil {
		t.Fatalf("WritePages: %v", err)
	}
	got, err := ReadPIT(&buf)
	if err != nil {
		t.Fatalf("ReadPIT: %v", err)
	}
	if !bytes.Equal(got.data, pit.data) {
		t.Errorf("round-tripped PIT data mismatch:\nhave %v\nwant %v", got.data, pit.data)
	}
}

func TestPadToGrowsAndZeroFills(t *testing.T) {
	pit := NewPageInfoTable(2)
	pit.setEntry(0, true, 0)
	pit.setEntry(1, true, 0)

	if err := pit.padTo(5); err != nil {
		t.Fatalf("padTo: %v", err)
	}
	if pit.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", pit.Len())
	}
	if !pit.Stored(0) || !pit.Stored(1) {
		t.Errorf("padTo must not disturb the original entries")
	}
	for abs := uint32(2); abs < 5; abs++ {
		if pit.Stored(abs) || pit.Cached(abs) || pit.NearestStoredLOD(abs) != 0 {
			t.Errorf("page %d beyond write_pages should read as not Stored, not Cached, nearest-stored-LOD 0", abs)
		}
	}
}

func TestPadToRejectsShrink(t *testing.T) {
	pit := NewPageInfoTable(5)
	if err := pit.padTo(2); err == nil {
		t.Errorf("padTo should reject a write_pages count larger than the quadtree's total page count")
	}
}

func TestPadToNoopWhenAlreadyFullSize(t *testing.T) {
	pit := NewPageInfoTable(4)
	pit.setEntry(3, true, 2)
	if err := pit.padTo(4); err != nil {
		t.Fatalf("padTo: %v", err)
	}
	if pit.Len() != 4 || !pit.Stored(3) {
		t.Errorf("padTo to the current length should be a no-op")
	}
}

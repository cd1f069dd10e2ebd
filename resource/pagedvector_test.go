package resource

import "testing"

func TestPagedVectorAppendStableAddresses(t *testing.T) {
	var v pagedVector
	slot0, p0 := v.append()
	p0.name = "first"

	// Force growth across a page boundary and confirm the earlier pointer
	// still observes writes made through it.
	for i := 0; i < pageSize; i++ {
		v.append()
	}

	if got := v.at(slot0); got != p0 {
		t.Fatalf("pointer identity changed across page growth")
	}
	if v.at(slot0).name != "first" {
		t.Errorf("at(slot0).name = %q, want %q", v.at(slot0).name, "first")
	}
	if v.length() != pageSize+1 {
		t.Errorf("length() = %d, want %d", v.length(), pageSize+1)
	}
}

func TestPagedVectorAtOutOfRange(t *testing.T) {
	var v pagedVector
	v.append()
	if p := v.at(9999); p != nil {
		t.Errorf("at() of an unallocated slot should return nil, got %v", p)
	}
}

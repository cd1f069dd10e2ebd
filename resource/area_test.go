package resource

import "testing"

func TestSortUniqueIDsDedupsAndSorts(t *testing.T) {
	in := []ID{5, 1, 5, 3, 1}
	out := sortUniqueIDs(in)
	want := []ID{1, 3, 5}
	if len(out) != len(want) {
		t.Fatalf("sortUniqueIDs(%v) = %v, want %v", in, out, want)
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("sortUniqueIDs(%v)[%d] = %v, want %v", in, i, out[i], want[i])
		}
	}
}

func TestAreaAllocatorAllocateFetchFree(t *testing.T) {
	a := newAreaAllocator()
	area := a.allocate([]ID{2, 1})
	if area.id == 0 {
		t.Fatalf("allocate should never hand out AreaID 0")
	}
	if got := a.fetch(area.id); got != area {
		t.Errorf("fetch(%v) = %v, want %v", area.id, got, area)
	}

	a.free(area.id)
	if got := a.fetch(area.id); got != nil {
		t.Errorf("fetch after free should return nil, got %v", got)
	}
}

func TestAreaAllocatorFreeListReusesSlot(t *testing.T) {
	a := newAreaAllocator()
	first := a.allocate([]ID{1})
	a.free(first.id)
	second := a.allocate([]ID{2})
	if second.id != first.id {
		t.Errorf("allocate after free should reuse the freed slot, got %v want %v", second.id, first.id)
	}
}

func TestAreaAllocatorFetchZeroIsNil(t *testing.T) {
	a := newAreaAllocator()
	if got := a.fetch(AreaID(0)); got != nil {
		t.Errorf("fetch(0) should always be nil (the permanent sentinel)")
	}
}

func TestAreaReadyReflectsLoadedCount(t *testing.T) {
	area := &Area{resources: []ID{1, 2, 3}}
	if area.Ready() {
		t.Errorf("a freshly allocated area should not be Ready")
	}
	area.loadedCount = 2
	if area.Ready() {
		t.Errorf("Ready() with loadedCount < len(resources) should be false")
	}
	area.loadedCount = 3
	if !area.Ready() {
		t.Errorf("Ready() with loadedCount == len(resources) should be true")
	}
}

package resource

import "sort"

// AreaID identifies a ResourceArea. 0 is a permanent sentinel: every area
// command on AreaID 0 is a silent no-op (spec §8.3).
type AreaID uint32

// Area is a group of resources with a coherent load/unload lifecycle.
type Area struct {
	id          AreaID
	resources   []ID // sorted, de-duplicated
	loadedCount int
	loaded      bool // load_flag: whether the area currently contributes +1 to each member
}

// ID returns the area's identifier.
func (a *Area) ID() AreaID { return a.id }

// Resources returns the area's sorted, de-duplicated resource list.
func (a *Area) Resources() []ID { return a.resources }

// LoadedCount returns the number of member resources currently Ready or
// Invalid.
func (a *Area) LoadedCount() int { return a.loadedCount }

// Ready reports whether every member resource has finished loading
// (Ready or Invalid).
func (a *Area) Ready() bool { return a.loadedCount == len(a.resources) }

func sortUniqueIDs(in []ID) []ID {
	out := append([]ID(nil), in...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	dst := 0
	for i := 0; i < len(out); i++ {
		if i == 0 || out[i] != out[dst-1] {
			out[dst] = out[i]
			dst++
		}
	}
	return out[:dst]
}

// areaAllocator is a free-list over a dense vector of *Area. Index 0 is a
// permanent sentinel and is never handed out. Behind its own mutex so
// arbitrary caller threads may create/destroy areas without touching the
// registry lock.
type areaAllocator struct {
	areas    []*Area // areas[0] is the permanent nil sentinel
	freeList []AreaID
}

func newAreaAllocator() *areaAllocator {
	return &areaAllocator{areas: []*Area{nil}}
}

func (a *areaAllocator) allocate(resources []ID) *Area {
	area := &Area{resources: sortUniqueIDs(resources)}
	if n := len(a.freeList); n > 0 {
		id := a.freeList[n-1]
		a.freeList = a.freeList[:n-1]
		area.id = id
		a.areas[id] = area
		return area
	}
	area.id = AreaID(len(a.areas))
	a.areas = append(a.areas, area)
	return area
}

func (a *areaAllocator) free(id AreaID) {
	if id == 0 || int(id) >= len(a.areas) || a.areas[id] == nil {
		return
	}
	a.areas[id] = nil
	a.freeList = append(a.freeList, id)
}

func (a *areaAllocator) fetch(id AreaID) *Area {
	if id == 0 || int(id) >= len(a.areas) {
		return nil
	}
	return a.areas[id]
}

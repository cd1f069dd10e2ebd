package vt

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/NOT-REAL-GAMES/ridge/gpu"
)

// Texture is one opened virtual texture: its parsed page file plus the
// GPU-side indirection mip chain that the physical cache keeps current.
// The external refcount tracks every holder beyond the Cache's own
// bookkeeping slot; when it drops to 1 the Cache garbage-collects it
// (spec.md §4.2.1, §4.2.3 step 7).
type Texture struct {
	file        *File
	ot          offsetTable
	pit         *PageInfoTable
	indirection *Indirection

	maxLOD int

	indirectionImage  gpu.Image
	indirectionView   gpu.ImageView
	indirectionMemory gpu.DeviceMemory
	stagingBuffer     gpu.Buffer
	stagingMemory     gpu.DeviceMemory

	mu       sync.Mutex
	resident map[uint32]uint32 // abs page -> physical tile index

	refcount atomic.Int32
}

func newTexture(device gpu.Device, physicalDevice gpu.PhysicalDevice, f *File) (*Texture, error) {
	ot := newOffsetTable(f.NumLODs)
	t := &Texture{
		file:        f,
		ot:          ot,
		pit:         f.PIT,
		indirection: newIndirection(ot, f.NumLODs),
		maxLOD:      f.NumLODs - 1,
		resident:    make(map[uint32]uint32),
	}
	// Starts at 2: one for the cache's own bookkeeping slot, one for the
	// reference CreateTexture is about to hand back to its caller. The
	// cache garbage-collects once this drops back to 1 (spec.md §4.2.3
	// step 7).
	t.refcount.Store(2)

	totalPages := ot.totalPages()
	stagingSize := uint64(totalPages) * 2
	buf, mem, err := device.CreateBufferWithMemory(
		stagingSize,
		gpu.BUFFER_USAGE_TRANSFER_SRC_BIT,
		gpu.MEMORY_PROPERTY_HOST_VISIBLE_BIT|gpu.MEMORY_PROPERTY_HOST_COHERENT_BIT,
		physicalDevice,
	)
	if err != nil {
		return nil, err
	}
	t.stagingBuffer = buf
	t.stagingMemory = mem

	img, imgMem, err := device.CreateImageWithMemory(
		leafDim(f.NumLODs), leafDim(f.NumLODs),
		gpu.FORMAT_R8G8_UNORM,
		gpu.IMAGE_TILING_OPTIMAL,
		gpu.IMAGE_USAGE_TRANSFER_DST_BIT|gpu.IMAGE_USAGE_SAMPLED_BIT,
		gpu.MEMORY_PROPERTY_DEVICE_LOCAL_BIT,
		physicalDevice,
	)
	if err != nil {
		device.DestroyBuffer(buf)
		return nil, err
	}
	view, err := device.CreateImageViewForTexture(img, gpu.FORMAT_R8G8_UNORM)
	if err != nil {
		device.DestroyImage(img)
		device.DestroyBuffer(buf)
		return nil, err
	}
	t.indirectionImage = img
	t.indirectionMemory = imgMem
	t.indirectionView = view
	return t, nil
}

// leafDim is the texel width/height of the indirection image's mip 0,
// which holds the finest LOD: one texel per finest-LOD page, so mip 0 is
// 2^(numLODs-1) square.
func leafDim(numLODs int) uint32 {
	return uint32(1) << uint(numLODs-1)
}

// AddRef increments the external holder count.
func (t *Texture) AddRef() { t.refcount.Add(1) }

// Release decrements the external holder count.
func (t *Texture) Release() { t.refcount.Add(-1) }

func (t *Texture) garbageCollectable() bool { return t.refcount.Load() <= 1 }

// MaxLOD is the coarsest-to-finest LOD count minus one, written into the
// feedback analyzer's per-unit descriptor.
func (t *Texture) MaxLOD() int { return t.maxLOD }

// StoredLODs mirrors MaxLOD()+1: the number of LODs this VT's quadtree
// actually spans.
func (t *Texture) StoredLODs() int { return t.file.NumLODs }

// AbsIndex converts an (x, y, lod) feedback sample into this VT's
// absolute quadtree page index, clamped to the nearest stored ancestor
// if the requested page was never authored on disk (spec.md §4.2.5 step
// 4).
func (t *Texture) AbsIndex(x, y uint32, lod int) (abs uint32, ok bool) {
	if lod < 0 || lod >= t.file.NumLODs {
		return 0, false
	}
	k := uint(lod)
	if x>>k != 0 || y>>k != 0 {
		return 0, false
	}
	rel := x + y*(uint32(1)<<k)
	abs = t.ot.relToAbs(rel, lod)
	if !t.pit.Stored(abs) {
		nearest := t.pit.NearestStoredLOD(abs)
		for d := lod - nearest; d > 0 && lod > 0; d-- {
			abs, ok = t.ot.parentAbs(abs)
			if !ok {
				return 0, false
			}
			lod--
		}
	}
	return abs, true
}

// Cached reports whether abs is currently resident in the physical
// cache.
func (t *Texture) Cached(abs uint32) bool { return t.pit.Cached(abs) }

// NearestCachedAncestor walks toward the quadtree root until it finds a
// Cached page, per spec.md §4.2.5 step 6. Returns abs itself if already
// cached.
func (t *Texture) NearestCachedAncestor(abs uint32) uint32 {
	for !t.pit.Cached(abs) {
		parent, ok := t.ot.parentAbs(abs)
		if !ok {
			return abs
		}
		abs = parent
	}
	return abs
}

// ResidentTile returns the physical tile index abs currently occupies,
// if any.
func (t *Texture) ResidentTile(abs uint32) (uint32, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	tile, ok := t.resident[abs]
	return tile, ok
}

func (t *Texture) makeResident(abs, tile uint32, lod int) {
	t.mu.Lock()
	t.resident[abs] = tile
	t.mu.Unlock()
	t.indirection.MakeResident(t.pit, abs, tile, lod)
}

func (t *Texture) makeNonResident(abs uint32) {
	t.mu.Lock()
	delete(t.resident, abs)
	t.mu.Unlock()
	t.indirection.MakeNonResident(t.pit, abs)
}

// commitIndirection uploads every dirty mip of the indirection texture
// via the staging buffer, bounded to one commit per frame (spec.md
// §4.2.2's closing paragraph).
func (t *Texture) commitIndirection(device gpu.Device, cmd gpu.CommandBuffer) {
	dirty := t.indirection.DirtyMips()
	if len(dirty) == 0 {
		return
	}
	stagingSize := uint64(t.ot.totalPages()) * 2
	ptr, err := device.MapMemory(t.stagingMemory, 0, stagingSize)
	if err != nil {
		return
	}
	defer device.UnmapMemory(t.stagingMemory)
	staging := unsafe.Slice((*byte)(ptr), int(stagingSize))

	var offset uint64
	for _, lod := range dirty {
		data, gpuMip := t.indirection.MipBytes(lod)
		copy(staging[offset:], data)
		dim := uint32(1) << uint(lod)
		cmd.CopyBufferToImage(t.stagingBuffer, t.indirectionImage, gpu.IMAGE_LAYOUT_TRANSFER_DST_OPTIMAL, []gpu.BufferImageCopy{
			{
				BufferOffset:     offset,
				ImageSubresource: gpu.ImageSubresourceLayers{AspectMask: gpu.IMAGE_ASPECT_COLOR_BIT, MipLevel: uint32(gpuMip), BaseArrayLayer: 0, LayerCount: 1},
				ImageExtent:      gpu.Extent3D{Width: dim, Height: dim, Depth: 1},
			},
		})
		offset += uint64(len(data))
	}
}

// Close releases this VT's GPU resources. Only the Cache calls this,
// after eviction has cleared every physical tile it owned.
func (t *Texture) Close(device gpu.Device) {
	device.DestroyImageView(t.indirectionView)
	device.DestroyImage(t.indirectionImage)
	device.FreeMemory(t.indirectionMemory)
	device.DestroyBuffer(t.stagingBuffer)
	device.FreeMemory(t.stagingMemory)
	t.file.Close()
}

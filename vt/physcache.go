package vt

import (
	"fmt"
	"sort"
	"sync"

	"github.com/NOT-REAL-GAMES/ridge/config"
	"github.com/NOT-REAL-GAMES/ridge/gpu"
)

// tileEmpty marks a physical tile with no occupant.
const tileEmpty = ^uint32(0)

// thrashThreshold is the logical-tick window within which a victim is
// considered "just used" — evicting it anyway would thrash (spec.md
// §4.2.3).
const thrashThreshold = 4

// Logger is the minimal sink the physical cache warns through when it
// detects thrashing.
type Logger interface {
	Printf(format string, args ...any)
}

// PhysicalTile is one slot of the shared physical cache grid.
type PhysicalTile struct {
	LastUsedTime int64
	PageIndex    uint32 // abs index of the occupying page, or tileEmpty
	Owner        *Texture
}

// PhysicalCache is the single grid of Cx*Cy physical tiles shared by
// every open Texture, with one GPU atlas image per configured layer
// (spec.md §3.2 "Physical cache").
type PhysicalCache struct {
	device   gpu.Device
	physical gpu.PhysicalDevice
	logger   Logger
	cx, cy   int
	tileRes  int
	pin      int // tile slots [0,pin) are never eviction candidates

	layerImages []gpu.Image
	layerViews  []gpu.ImageView
	layerMemory []gpu.DeviceMemory

	tiles       []PhysicalTile
	logicalTick int64

	touchMu        sync.Mutex
	pendingTouches map[uint32]struct{}
}

func layerFormat(name string) gpu.Format {
	switch name {
	case "rg8", "RG8":
		return gpu.FORMAT_R8G8_UNORM
	case "rgba8", "RGBA8":
		return gpu.FORMAT_R8G8B8A8_UNORM
	case "bc7", "BC7":
		return gpu.FORMAT_BC7_UNORM_BLOCK
	default:
		return gpu.FORMAT_R8G8B8A8_UNORM
	}
}

// NewPhysicalCache allocates the Cx*Cy tile grid and one atlas image per
// configured layer, sized cx*tileRes by cy*tileRes texels.
func NewPhysicalCache(device gpu.Device, physicalDevice gpu.PhysicalDevice, logger Logger, cfg config.VirtualTexture) (*PhysicalCache, error) {
	pc := &PhysicalCache{
		device:         device,
		physical:       physicalDevice,
		logger:         logger,
		cx:             cfg.PageCacheCapacityX,
		cy:             cfg.PageCacheCapacityY,
		tileRes:        cfg.PageResolutionWithBorders,
		pin:            cfg.PinCoarsestLODs,
		pendingTouches: make(map[uint32]struct{}),
	}
	pc.tiles = make([]PhysicalTile, pc.cx*pc.cy)
	for i := range pc.tiles {
		pc.tiles[i].PageIndex = tileEmpty
	}

	width := uint32(pc.cx * pc.tileRes)
	height := uint32(pc.cy * pc.tileRes)
	for _, ld := range cfg.Layers {
		img, mem, err := device.CreateImageWithMemory(
			width, height,
			layerFormat(ld.GPUFormat),
			gpu.IMAGE_TILING_OPTIMAL,
			gpu.IMAGE_USAGE_TRANSFER_DST_BIT|gpu.IMAGE_USAGE_SAMPLED_BIT,
			gpu.MEMORY_PROPERTY_DEVICE_LOCAL_BIT,
			physicalDevice,
		)
		if err != nil {
			return nil, fmt.Errorf("vt: create physical cache layer: %w", err)
		}
		view, err := device.CreateImageViewForTexture(img, layerFormat(ld.GPUFormat))
		if err != nil {
			return nil, fmt.Errorf("vt: create physical cache layer view: %w", err)
		}
		validateCapacity(device, logger, ld.GPUFormat, img, pc.cx, pc.cy, pc.tileRes)
		pc.layerImages = append(pc.layerImages, img)
		pc.layerViews = append(pc.layerViews, view)
		pc.layerMemory = append(pc.layerMemory, mem)
	}
	return pc, nil
}

// TouchTile records that tile was referenced this frame. Safe to call
// from any thread; applied on the next update() that has ready transfers.
// An update() with no ready transfers drops the pending touches.
func (pc *PhysicalCache) TouchTile(tile uint32) {
	pc.touchMu.Lock()
	pc.pendingTouches[tile] = struct{}{}
	pc.touchMu.Unlock()
}

func (pc *PhysicalCache) drainTouches() map[uint32]struct{} {
	pc.touchMu.Lock()
	touches := pc.pendingTouches
	pc.pendingTouches = make(map[uint32]struct{})
	pc.touchMu.Unlock()
	return touches
}

// tileRect returns the pixel-space rectangle of tile within the atlas.
func (pc *PhysicalCache) tileRect(tile uint32) (x, y uint32) {
	col := tile % uint32(pc.cx)
	row := tile / uint32(pc.cx)
	return col * uint32(pc.tileRes), row * uint32(pc.tileRes)
}

// victim is a candidate eviction slot, annotated with its tile index so
// an entry of the sorted candidate list still identifies its tile.
type victim struct {
	tile int
	last int64
}

// update runs one frame of spec.md §4.2.3: apply queued touches, pick
// LRU eviction victims, commit as many ready transfers as the cache's
// thrash guard allows, and report whether it bailed out on thrashing.
func (pc *PhysicalCache) update(cmd gpu.CommandBuffer, ready []*TransferSlot) bool {
	touches := pc.drainTouches()
	if len(ready) == 0 {
		return false
	}

	pc.logicalTick++
	for tile := range touches {
		pc.tiles[tile].LastUsedTime = pc.logicalTick
	}

	candidates := make([]victim, 0, len(pc.tiles)-pc.pin)
	for i := pc.pin; i < len(pc.tiles); i++ {
		candidates = append(candidates, victim{tile: i, last: pc.tiles[i].LastUsedTime})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].last < candidates[j].last })

	for i, slot := range ready {
		if slot == nil {
			continue
		}
		if slot.VT.pit.Cached(slot.PageIndex) {
			slot.discard()
			continue
		}
		if i >= len(candidates) {
			pc.warnThrash()
			pc.cancelRemaining(ready[i:])
			return true
		}
		v := candidates[i]
		if v.last != 0 && v.last+thrashThreshold >= pc.logicalTick {
			pc.warnThrash()
			pc.cancelRemaining(ready[i:])
			return true
		}

		tile := &pc.tiles[v.tile]
		if tile.Owner != nil {
			tile.Owner.makeNonResident(tile.PageIndex)
		}
		pc.commitTransfer(cmd, uint32(v.tile), slot)
		tile.LastUsedTime = pc.logicalTick
		tile.PageIndex = slot.PageIndex
		tile.Owner = slot.VT
		slot.VT.makeResident(slot.PageIndex, uint32(v.tile), slot.LOD)
	}
	return false
}

func (pc *PhysicalCache) warnThrash() {
	if pc.logger != nil {
		pc.logger.Printf("vt: physical cache thrashing at tick %d, aborting remaining transfers", pc.logicalTick)
	}
}

func (pc *PhysicalCache) cancelRemaining(slots []*TransferSlot) {
	for _, s := range slots {
		if s != nil {
			s.discard()
		}
	}
}

// commitTransfer copies slot's staged layer payloads into tile's
// rectangle on every atlas image.
func (pc *PhysicalCache) commitTransfer(cmd gpu.CommandBuffer, tile uint32, slot *TransferSlot) {
	x, y := pc.tileRect(tile)
	for i, img := range pc.layerImages {
		if i >= len(slot.LayerStagingOffsets) {
			break
		}
		cmd.CopyBufferToImage(slot.StagingBuffer, img, gpu.IMAGE_LAYOUT_TRANSFER_DST_OPTIMAL, []gpu.BufferImageCopy{
			{
				BufferOffset:      slot.LayerStagingOffsets[i],
				ImageSubresource:  gpu.ImageSubresourceLayers{AspectMask: gpu.IMAGE_ASPECT_COLOR_BIT, MipLevel: 0, BaseArrayLayer: 0, LayerCount: 1},
				ImageOffset:       gpu.Offset3D{X: int32(x), Y: int32(y), Z: 0},
				ImageExtent:       gpu.Extent3D{Width: uint32(pc.tileRes), Height: uint32(pc.tileRes), Depth: 1},
			},
		})
	}
}

// reset evicts every tile, matching spec.md §4.2.6's reset_cache.
func (pc *PhysicalCache) reset() {
	for i := range pc.tiles {
		t := &pc.tiles[i]
		if t.Owner != nil {
			t.Owner.makeNonResident(t.PageIndex)
		}
		t.LastUsedTime = 0
		t.PageIndex = tileEmpty
		t.Owner = nil
	}
	pc.touchMu.Lock()
	pc.pendingTouches = make(map[uint32]struct{})
	pc.touchMu.Unlock()
	pc.logicalTick = 0
}

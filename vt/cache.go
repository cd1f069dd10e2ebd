package vt

import (
	"fmt"
	"sync"

	"github.com/NOT-REAL-GAMES/ridge/config"
	"github.com/NOT-REAL-GAMES/ridge/gpu"
)

// Cache is the top-level virtual texture system: the shared physical
// tile cache, the transfer ring and stream thread, the feedback
// analyzer, and the registry of open Textures they all operate on
// (spec.md §4.2).
type Cache struct {
	device         gpu.Device
	physicalDevice gpu.PhysicalDevice
	logger         Logger

	phys     *PhysicalCache
	ring     *transferRing
	streamer *Streamer
	feedback *FeedbackAnalyzer

	mu       sync.Mutex
	textures map[*Texture]struct{}

	inFlight []*TransferSlot
}

// NewCache wires up the physical cache, transfer ring, stream thread and
// feedback analyzer from cfg (spec.md §6.5's virtual_texture table).
func NewCache(device gpu.Device, physicalDevice gpu.PhysicalDevice, logger Logger, cfg config.VirtualTexture) (*Cache, error) {
	phys, err := NewPhysicalCache(device, physicalDevice, logger, cfg)
	if err != nil {
		return nil, fmt.Errorf("vt: physical cache: %w", err)
	}

	layerSizes := make([]uint64, len(cfg.Layers))
	for i, l := range cfg.Layers {
		layerSizes[i] = uint64(l.PageSizeBytes)
	}
	ring, err := newTransferRing(device, physicalDevice, layerSizes)
	if err != nil {
		return nil, fmt.Errorf("vt: transfer ring: %w", err)
	}

	feedback, err := NewFeedbackAnalyzer(device, physicalDevice, logger, 0)
	if err != nil {
		return nil, fmt.Errorf("vt: feedback analyzer: %w", err)
	}

	return &Cache{
		device:         device,
		physicalDevice: physicalDevice,
		logger:         logger,
		phys:           phys,
		ring:           ring,
		streamer:       newStreamer(ring, logger),
		feedback:       feedback,
		textures:       make(map[*Texture]struct{}),
	}, nil
}

// CreateTexture opens file_path, parses its header/PIT/address table,
// and registers the resulting VT for bookkeeping and LRU sweeps
// (spec.md §4.2.1).
func (c *Cache) CreateTexture(filePath string) (*Texture, error) {
	f, err := OpenFile(filePath)
	if err != nil {
		return nil, err
	}
	t, err := newTexture(c.device, c.physicalDevice, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	c.mu.Lock()
	c.textures[t] = struct{}{}
	c.mu.Unlock()
	return t, nil
}

// BeginFeedback starts a new frame's feedback collection.
func (c *Cache) BeginFeedback() { c.feedback.Begin() }

// BindFeedbackTexture binds vt to a texture unit for this frame's
// feedback decode.
func (c *Cache) BindFeedbackTexture(unit int, vt *Texture) { c.feedback.BindTexture(unit, vt) }

// AddFeedbackData queues one readback chunk for this frame's decode.
func (c *Cache) AddFeedbackData(data []byte) { c.feedback.AddFeedbackData(data) }

// EndFeedback decodes the frame's queued feedback and submits the
// resulting page requests to the stream thread.
func (c *Cache) EndFeedback() { c.feedback.End(c.phys, c.streamer) }

// Update runs one frame of spec.md §4.2.3: reclaims fenced transfer
// slots, commits as many ready transfers as the thrash guard allows,
// uploads dirty indirection mips, and garbage-collects any Texture whose
// external refcount has dropped to the cache's own reference.
func (c *Cache) Update(cmd gpu.CommandBuffer, frameFence gpu.Fence) {
	still := c.inFlight[:0]
	for _, s := range c.inFlight {
		if !c.ring.reclaim(s) {
			still = append(still, s)
		}
	}
	c.inFlight = still

	ready := c.ring.drain()
	c.phys.update(cmd, ready)
	for _, s := range ready {
		if s != nil && !s.discarded {
			s.setFence(frameFence)
			c.inFlight = append(c.inFlight, s)
		}
	}

	for _, t := range c.snapshotTextures() {
		t.commitIndirection(c.device, cmd)
		if t.garbageCollectable() {
			c.evictAndClose(t)
		}
	}
}

func (c *Cache) snapshotTextures() []*Texture {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Texture, 0, len(c.textures))
	for t := range c.textures {
		out = append(out, t)
	}
	return out
}

func (c *Cache) evictAndClose(t *Texture) {
	for i := range c.phys.tiles {
		tile := &c.phys.tiles[i]
		if tile.Owner == t {
			t.makeNonResident(tile.PageIndex)
			tile.Owner = nil
			tile.PageIndex = tileEmpty
			tile.LastUsedTime = 0
		}
	}
	c.mu.Lock()
	delete(c.textures, t)
	c.mu.Unlock()
	t.Close(c.device)
}

// Reset implements spec.md §4.2.6's reset_cache: evicts every physical
// tile, zeros timestamps and pending state, and forces a full,
// all-zero indirection commit for every open Texture.
func (c *Cache) Reset(cmd gpu.CommandBuffer) {
	c.phys.reset()
	for _, t := range c.snapshotTextures() {
		t.mu.Lock()
		t.resident = make(map[uint32]uint32)
		t.mu.Unlock()
		t.indirection = newIndirection(t.ot, t.file.NumLODs)
		t.indirection.markAllDirty()
		t.commitIndirection(c.device, cmd)
	}
}

// Shutdown stops the stream thread. Call once no further frames will be
// processed.
func (c *Cache) Shutdown() { c.streamer.Shutdown() }

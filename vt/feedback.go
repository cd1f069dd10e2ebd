package vt

import (
	"sort"
	"sync"

	"github.com/NOT-REAL-GAMES/ridge/gpu"
)

// maxTextureUnits bounds how many VTs can be bound for sampling in a
// single frame (spec.md §4.2.5's VT_MAX_TEXTURE_UNITS).
const maxTextureUnits = 32

// maxPendingPages is the default cap on how many distinct pages one
// frame's feedback decode will submit to the stream thread.
const maxPendingPages = 100

// feedbackBindingSlot is the descriptor set slot the per-unit
// descriptor buffer is bound to.
const feedbackBindingSlot = 6

// unitDescriptor is one texture unit's binding metadata, uploaded to the
// GPU so the feedback fragment shader can stamp samples with it.
type unitDescriptor struct {
	MaxLOD   uint8
	Log2Size uint8
}

// FeedbackAnalyzer decodes the GPU-rendered feedback buffer each frame
// into a prioritized set of page requests for the stream thread
// (spec.md §4.2.5).
type FeedbackAnalyzer struct {
	device gpu.Device
	logger Logger

	unitBuffer gpu.Buffer
	unitMemory gpu.DeviceMemory
	units      [maxTextureUnits]unitDescriptor

	// bound/prevBound are double-buffered so a VT stays retained for as
	// long as the GPU might still be reading the previous frame's
	// binding set.
	bound     [maxTextureUnits]*Texture
	prevBound [maxTextureUnits]*Texture

	chunksMu sync.Mutex
	chunks   [][]byte

	maxQueueLength int
}

// NewFeedbackAnalyzer allocates the per-unit descriptor buffer.
func NewFeedbackAnalyzer(device gpu.Device, physicalDevice gpu.PhysicalDevice, logger Logger, maxQueueLength int) (*FeedbackAnalyzer, error) {
	buf, mem, err := device.CreateBufferWithMemory(
		uint64(maxTextureUnits)*2,
		gpu.BUFFER_USAGE_TRANSFER_DST_BIT,
		gpu.MEMORY_PROPERTY_HOST_VISIBLE_BIT|gpu.MEMORY_PROPERTY_HOST_COHERENT_BIT,
		physicalDevice,
	)
	if err != nil {
		return nil, err
	}
	if maxQueueLength <= 0 {
		maxQueueLength = maxPendingPages
	}
	return &FeedbackAnalyzer{
		device:         device,
		logger:         logger,
		unitBuffer:     buf,
		unitMemory:     mem,
		maxQueueLength: maxQueueLength,
	}, nil
}

// Begin clears this frame's unit bindings and uploads the (still empty)
// descriptor block, per spec.md §4.2.5's begin().
func (fa *FeedbackAnalyzer) Begin() {
	fa.units = [maxTextureUnits]unitDescriptor{}
	fa.bound = [maxTextureUnits]*Texture{}
	fa.commitUnits()
	fa.chunksMu.Lock()
	fa.chunks = nil
	fa.chunksMu.Unlock()
}

// BindTexture fills unit's descriptor and retains vt for the current
// swap so it survives until End() has decoded every sample referencing
// it.
func (fa *FeedbackAnalyzer) BindTexture(unit int, vt *Texture) {
	if unit < 0 || unit >= maxTextureUnits {
		return
	}
	vt.AddRef()
	fa.bound[unit] = vt
	fa.units[unit] = unitDescriptor{
		MaxLOD:   uint8(vt.MaxLOD()),
		Log2Size: uint8(vt.file.NumLODs - 1),
	}
	fa.commitUnits()
}

func (fa *FeedbackAnalyzer) commitUnits() {
	data := make([]byte, maxTextureUnits*2)
	for i, u := range fa.units {
		data[i*2] = u.MaxLOD
		data[i*2+1] = u.Log2Size
	}
	_ = fa.device.UploadToBuffer(fa.unitMemory, data)
}

// AddFeedbackData queues one CPU-readable readback chunk for decoding at
// End().
func (fa *FeedbackAnalyzer) AddFeedbackData(data []byte) {
	fa.chunksMu.Lock()
	fa.chunks = append(fa.chunks, data)
	fa.chunksMu.Unlock()
}

type pendingEntry struct {
	vt   *Texture
	abs  uint32
	lod  int
	refs int
}

// End decodes every queued chunk, builds the prioritized page request
// list, submits it to streamer (replacing last frame's submission), and
// releases the previous frame's binding set.
func (fa *FeedbackAnalyzer) End(phys *PhysicalCache, streamer *Streamer) {
	fa.chunksMu.Lock()
	chunks := fa.chunks
	fa.chunks = nil
	fa.chunksMu.Unlock()

	pending := make(map[uint32]*pendingEntry)
	for _, chunk := range chunks {
		fa.decodeChunk(chunk, phys, pending)
	}

	entries := make([]*pendingEntry, 0, len(pending))
	for _, e := range pending {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].refs > entries[j].refs })

	limit := maxPendingPages
	if fa.maxQueueLength < limit {
		limit = fa.maxQueueLength
	}
	if len(entries) < limit {
		limit = len(entries)
	}
	entries = entries[:limit]

	reqs := make([]pageRequest, 0, len(entries))
	for _, e := range entries {
		e.vt.AddRef()
		reqs = append(reqs, pageRequest{VT: e.vt, Abs: e.abs, LOD: e.lod})
	}
	if streamer != nil {
		streamer.Submit(reqs)
	}

	for i, vt := range fa.prevBound {
		if vt != nil {
			vt.Release()
		}
		fa.prevBound[i] = fa.bound[i]
	}
}

// decodeChunk implements spec.md §4.2.5's sample decode: 4 bytes per
// sample, consecutive identical samples collapse with an accumulated
// multiplier.
func (fa *FeedbackAnalyzer) decodeChunk(data []byte, phys *PhysicalCache, pending map[uint32]*pendingEntry) {
	for i := 0; i+4 <= len(data); {
		b0, b1, b2, b3 := data[i], data[i+1], data[i+2], data[i+3]
		refs := 1
		i += 4
		for i+4 <= len(data) && data[i] == b0 && data[i+1] == b1 && data[i+2] == b2 && data[i+3] == b3 {
			refs++
			i += 4
		}
		fa.decodeSample(b0, b1, b2, b3, refs, phys, pending)
	}
}

func (fa *FeedbackAnalyzer) decodeSample(b0, b1, b2, b3 byte, refs int, phys *PhysicalCache, pending map[uint32]*pendingEntry) {
	x := uint32(b3) | uint32(b1&0x03)<<8
	y := uint32(b2) | uint32(b1&0x0C)<<6
	lod := int(b1 >> 4)
	unit := int(b0)

	if unit < 0 || unit >= maxTextureUnits {
		return
	}
	vt := fa.bound[unit]
	if vt == nil || lod >= vt.StoredLODs() {
		return
	}
	abs, ok := vt.AbsIndex(x, y, lod)
	if !ok {
		return
	}

	if vt.Cached(abs) {
		if tile, ok := vt.ResidentTile(abs); ok && phys != nil {
			phys.TouchTile(tile)
		}
		return
	}

	ancestor := vt.NearestCachedAncestor(abs)
	if tile, ok := vt.ResidentTile(ancestor); ok && phys != nil {
		phys.TouchTile(tile)
	}

	key := uint32(b0)<<24 | uint32(b1)<<16 | uint32(b2)<<8 | uint32(b3)
	if e, ok := pending[key]; ok {
		e.refs += refs
		return
	}
	pending[key] = &pendingEntry{vt: vt, abs: abs, lod: lod, refs: refs}
}

package vt

import (
	"context"
	"sync"
	"time"
	"unsafe"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/semaphore"

	"github.com/NOT-REAL-GAMES/ridge/gpu"
)

// copyStaging writes data into memory at byte offset off via a scoped
// map/copy/unmap, the same pattern gpu.Device.UploadToBuffer uses for a
// whole buffer.
func copyStaging(device gpu.Device, memory gpu.DeviceMemory, off uint64, data []byte) {
	if len(data) == 0 {
		return
	}
	ptr, err := device.MapMemory(memory, off, uint64(len(data)))
	if err != nil {
		return
	}
	defer device.UnmapMemory(memory)
	dst := unsafe.Slice((*byte)(ptr), len(data))
	copy(dst, data)
}

// maxUploadsPerFrame is the transfer slot ring's capacity (spec.md
// §3.2's "Page transfer slot", MAX_UPLOADS_PER_FRAME >= 64).
const maxUploadsPerFrame = 64

// dedupWindow is how long a (VT, page) request is suppressed after being
// streamed, before it is eligible again (spec.md §4.2.4).
const dedupWindow = time.Second

// pageRequest is one feedback-derived streaming request.
type pageRequest struct {
	VT  *Texture
	Abs uint32
	LOD int
}

// TransferSlot is one entry of the persistent-staging upload ring: its
// per-layer staging pointers, the fence recorded after its GPU copy, and
// the page it targets.
type TransferSlot struct {
	VT                  *Texture
	PageIndex           uint32
	LOD                 int
	StagingBuffer       gpu.Buffer
	LayerStagingOffsets []uint64

	fence     gpu.Fence
	fenceSet  bool
	discarded bool
	ring      *transferRing
	index     int
}

// discard abandons a transfer slot before it ever had a GPU copy
// recorded against it — a duplicate request, or one pre-empted by
// thrash cancellation (spec.md §4.2.3 step 5, §4.2.4's closing note).
func (s *TransferSlot) discard() {
	s.discarded = true
	s.VT.Release()
	if s.ring != nil {
		s.ring.freeSlot(s)
	}
}

// setFence records the fence covering this slot's committed GPU copy;
// the ring will not reuse it until the fence is observed signalled.
func (s *TransferSlot) setFence(f gpu.Fence) {
	s.fence = f
	s.fenceSet = true
}

// transferRing is the SPSC ring of transfer slots: the stream thread
// allocates and fills slots, the main thread commits and frees them once
// their fence signals (spec.md §4.2.4).
type transferRing struct {
	device         gpu.Device
	stagingBuffer  gpu.Buffer
	stagingMemory  gpu.DeviceMemory
	pageSize       uint64
	layerSizes     []uint64
	slots       []*TransferSlot
	free        *semaphore.Weighted
	freeMu      sync.Mutex
	freeStack   []int
	publishedMu sync.Mutex
	published   []*TransferSlot
}

func newTransferRing(device gpu.Device, physicalDevice gpu.PhysicalDevice, layerSizes []uint64) (*transferRing, error) {
	var pageSize uint64
	for _, s := range layerSizes {
		pageSize += s
	}
	buf, mem, err := device.CreateBufferWithMemory(
		pageSize*maxUploadsPerFrame,
		gpu.BUFFER_USAGE_TRANSFER_SRC_BIT,
		gpu.MEMORY_PROPERTY_HOST_VISIBLE_BIT|gpu.MEMORY_PROPERTY_HOST_COHERENT_BIT,
		physicalDevice,
	)
	if err != nil {
		return nil, err
	}
	r := &transferRing{
		device:        device,
		stagingBuffer: buf,
		stagingMemory: mem,
		pageSize:      pageSize,
		layerSizes:    layerSizes,
		free:          semaphore.NewWeighted(maxUploadsPerFrame),
	}
	r.slots = make([]*TransferSlot, maxUploadsPerFrame)
	r.freeStack = make([]int, maxUploadsPerFrame)
	for i := range r.slots {
		offsets := make([]uint64, len(layerSizes))
		var cursor uint64
		for li, sz := range layerSizes {
			offsets[li] = uint64(i)*pageSize + cursor
			cursor += sz
		}
		r.slots[i] = &TransferSlot{StagingBuffer: buf, LayerStagingOffsets: offsets, ring: r, index: i}
		r.freeStack[i] = i
	}
	return r, nil
}

// alloc blocks (respecting ctx) until a slot is free, and returns it
// filled with fresh target fields. Pairing with the capacity-gating
// semaphore, it is the SPSC alloc side of spec.md §3.2's transfer ring.
func (r *transferRing) alloc(ctx context.Context, req pageRequest) (*TransferSlot, error) {
	if err := r.free.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	r.freeMu.Lock()
	idx := r.freeStack[len(r.freeStack)-1]
	r.freeStack = r.freeStack[:len(r.freeStack)-1]
	r.freeMu.Unlock()

	slot := r.slots[idx]
	slot.VT = req.VT
	slot.PageIndex = req.Abs
	slot.LOD = req.LOD
	slot.discarded = false
	slot.fenceSet = false
	return slot, nil
}

// freeSlot returns slot to the ring immediately, bypassing the fence
// wait. Used for transfers discarded before any GPU copy was ever
// recorded for them (duplicate or pre-empted requests).
func (r *transferRing) freeSlot(slot *TransferSlot) {
	r.freeMu.Lock()
	r.freeStack = append(r.freeStack, slot.index)
	r.freeMu.Unlock()
	r.free.Release(1)
}

// publish makes slot visible to the main thread's update() pass.
func (r *transferRing) publish(slot *TransferSlot) {
	r.publishedMu.Lock()
	r.published = append(r.published, slot)
	r.publishedMu.Unlock()
}

// drain returns every slot published since the last drain.
func (r *transferRing) drain() []*TransferSlot {
	r.publishedMu.Lock()
	slots := r.published
	r.published = nil
	r.publishedMu.Unlock()
	return slots
}

// reclaim frees slot's ring capacity once its fence is observed
// signalled, via a non-blocking client wait (spec.md §4.2.4). Called
// once per frame for every in-flight committed slot. Releases the VT
// reference the feedback analyzer added for this request (symmetric with
// discard's early release). This is the only Release on the successful
// commit path; without it every streamed page would keep its Texture's
// refcount above 1 and garbageCollectable() would never report true.
func (r *transferRing) reclaim(slot *TransferSlot) bool {
	if !slot.fenceSet {
		return false
	}
	signalled, err := r.device.ClientWaitFence(slot.fence, 1)
	if err != nil || !signalled {
		return false
	}
	slot.VT.Release()
	r.freeSlot(slot)
	slot.fenceSet = false
	return true
}

// streamKey identifies one (VT, page) pair for de-duplication.
type streamKey struct {
	vt  *Texture
	abs uint32
}

// Streamer is the stream thread: it services the feedback analyzer's
// per-frame page requests, reading each page's bytes from disk into a
// transfer slot's staging memory.
type Streamer struct {
	ring   *transferRing
	logger Logger
	dedup  *expirable.LRU[streamKey, struct{}]

	mu      sync.Mutex
	pending []pageRequest
	cond    *sync.Cond

	shutdown bool
	wg       sync.WaitGroup
}

func newStreamer(ring *transferRing, logger Logger) *Streamer {
	s := &Streamer{
		ring:   ring,
		logger: logger,
		dedup:  expirable.NewLRU[streamKey, struct{}](4096, nil, dedupWindow),
	}
	s.cond = sync.NewCond(&s.mu)
	s.wg.Add(1)
	go s.run()
	return s
}

// Submit replaces the previous frame's pending request batch, releasing
// the VT references held by any requests that never got serviced
// (spec.md §4.2.5's closing paragraph).
func (s *Streamer) Submit(reqs []pageRequest) {
	s.mu.Lock()
	old := s.pending
	s.pending = reqs
	s.mu.Unlock()
	for _, r := range old {
		r.VT.Release()
	}
	s.cond.Signal()
}

func (s *Streamer) run() {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		for len(s.pending) == 0 && !s.shutdown {
			s.cond.Wait()
		}
		if s.shutdown {
			s.mu.Unlock()
			return
		}
		req := s.pending[0]
		s.pending = s.pending[1:]
		s.mu.Unlock()

		s.service(req)
	}
}

func (s *Streamer) service(req pageRequest) {
	key := streamKey{vt: req.VT, abs: req.Abs}
	if _, ok := s.dedup.Get(key); ok {
		req.VT.Release()
		return
	}
	s.dedup.Add(key, struct{}{})

	slot, err := s.ring.alloc(context.Background(), req)
	if err != nil {
		req.VT.Release()
		return
	}

	payloads, err := req.VT.file.ReadPage(req.Abs)
	if err != nil {
		if s.logger != nil {
			s.logger.Printf("vt: read page %d: %v", req.Abs, err)
		}
		slot.discard()
		return
	}
	for i, p := range payloads {
		if i >= len(slot.LayerStagingOffsets) {
			break
		}
		copyStaging(s.ring.device, s.ring.stagingMemory, slot.LayerStagingOffsets[i], p)
	}
	s.ring.publish(slot)
}

// Shutdown stops the stream thread after its current request finishes.
func (s *Streamer) Shutdown() {
	s.mu.Lock()
	s.shutdown = true
	s.mu.Unlock()
	s.cond.Broadcast()
	s.wg.Wait()
}

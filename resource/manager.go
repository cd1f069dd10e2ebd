package resource

import (
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// Opener resolves a resource path to a readable byte stream. vfs.Store
// implements this; it is the only filesystem dependency this package has.
type Opener interface {
	Open(path string) (io.ReadCloser, error)
}

// Logger receives diagnostic messages for failures that become an Invalid
// proxy state rather than a propagated error (spec §7).
type Logger interface {
	Printf(format string, args ...any)
}

// Manager is the resource registry, command pipeline, loader thread, and
// main-thread pump described in spec §4.1. The zero value is not usable;
// construct with NewManager.
type Manager struct {
	opener Opener
	logger Logger

	nameMu   sync.Mutex
	nameToID map[string]ID
	proxies  pagedVector

	areaMu    sync.Mutex
	areaAlloc *areaAllocator

	cmdBuf commandBuffer

	streamQueue idQueue
	streamEvent *syncEvent

	processedQueue idQueue
	processedEvent *syncEvent

	// delayedRelease and its protecting invariant (main-thread-only
	// access) follow spec §5's per-field ownership table.
	delayedRelease map[ID]struct{}

	shuttingDown atomic.Bool
	loaderWG     sync.WaitGroup
}

// NewManager constructs a manager and starts its loader goroutine.
// opener and logger may not be nil; pass a no-op Logger if diagnostics are
// unwanted.
func NewManager(opener Opener, logger Logger) *Manager {
	m := &Manager{
		opener:         opener,
		logger:         logger,
		nameToID:       make(map[string]ID),
		areaAlloc:      newAreaAllocator(),
		streamEvent:    newSyncEvent(),
		processedEvent: newSyncEvent(),
		delayedRelease: make(map[ID]struct{}),
	}
	// Slot 0 / ID 0 is permanently reserved invalid; burn the first proxy
	// slot so that a freshly-appended slot never aliases ID 0.
	m.proxies.append()
	m.loaderWG.Add(1)
	go m.runLoader()
	return m
}

// GetProxy returns the proxy for id in O(1). Panics if id does not name an
// allocated slot; callers are expected to only ever pass IDs previously
// returned by this manager.
func (m *Manager) GetProxy(id ID) *Proxy {
	p := m.proxies.at(id.Slot())
	if p == nil {
		panic("resource: GetProxy on unallocated slot")
	}
	return p
}

// FindResource returns the proxy registered under name, if any.
func (m *Manager) FindResource(name string) (*Proxy, bool) {
	if name == "" {
		return nil, false
	}
	m.nameMu.Lock()
	id, ok := m.nameToID[name]
	m.nameMu.Unlock()
	if !ok {
		return nil, false
	}
	return m.GetProxy(id), true
}

// GetResourceName returns the canonical name a resource was registered
// under.
func (m *Manager) GetResourceName(id ID) string {
	if !id.Valid() {
		return ""
	}
	return m.GetProxy(id).name
}

// LoadResourceID enqueues a +1 use-count contribution for id.
func (m *Manager) LoadResourceID(id ID) bool {
	if !id.Valid() {
		return false
	}
	m.cmdBuf.push(command{kind: cmdLoadResource, target: uint32(id)})
	return true
}

// UnloadResourceID enqueues a -1 use-count contribution for id.
func (m *Manager) UnloadResourceID(id ID) bool {
	if !id.Valid() {
		return false
	}
	m.cmdBuf.push(command{kind: cmdUnloadResource, target: uint32(id)})
	return true
}

// ReloadResourceID enqueues a reload request for id.
func (m *Manager) ReloadResourceID(id ID) bool {
	if !id.Valid() {
		return false
	}
	m.cmdBuf.push(command{kind: cmdReloadResource, target: uint32(id)})
	return true
}

// IsResourceReady reports whether id has finished loading successfully.
func (m *Manager) IsResourceReady(id ID) bool {
	if !id.Valid() {
		return false
	}
	return m.GetProxy(id).state == StateReady
}

func (m *Manager) isFinished(id ID) bool {
	return m.GetProxy(id).finished()
}

// CreateResourceArea allocates a new area grouping resources (sorted,
// de-duplicated) and enqueues the CreateArea command that links it to its
// member proxies on the next command drain. Safe to call from any thread.
func (m *Manager) CreateResourceArea(resources []ID) AreaID {
	m.areaMu.Lock()
	area := m.areaAlloc.allocate(resources)
	m.areaMu.Unlock()
	m.cmdBuf.push(command{kind: cmdCreateArea, target: uint32(area.id)})
	return area.id
}

// DestroyResourceArea enqueues an Unload followed by a Destroy for area.
// AreaID 0 and already-freed areas are a silent no-op (spec §8.3).
func (m *Manager) DestroyResourceArea(id AreaID) {
	if id == 0 {
		return
	}
	m.cmdBuf.push(command{kind: cmdUnloadArea, target: uint32(id)})
	m.cmdBuf.push(command{kind: cmdDestroyArea, target: uint32(id)})
}

// LoadArea enqueues a +1 contribution to every member resource, once.
func (m *Manager) LoadArea(id AreaID) {
	if id == 0 {
		return
	}
	m.cmdBuf.push(command{kind: cmdLoadArea, target: uint32(id)})
}

// UnloadArea enqueues the symmetric -1 contribution.
func (m *Manager) UnloadArea(id AreaID) {
	if id == 0 {
		return
	}
	m.cmdBuf.push(command{kind: cmdUnloadArea, target: uint32(id)})
}

// ReloadArea enqueues a reload request for every member resource.
func (m *Manager) ReloadArea(id AreaID) {
	if id == 0 {
		return
	}
	m.cmdBuf.push(command{kind: cmdReloadArea, target: uint32(id)})
}

// IsAreaReady reports whether every member resource has finished loading.
// Because reloads can transiently decrement loadedCount, this is a
// snapshot, not a stable level (SPEC_FULL.md open question #3).
func (m *Manager) IsAreaReady(id AreaID) bool {
	m.areaMu.Lock()
	area := m.areaAlloc.fetch(id)
	m.areaMu.Unlock()
	if area == nil {
		return id == 0
	}
	return area.Ready()
}

// executeCommands drains the command buffer and applies the aggregation
// rules of spec §4.1.3. It runs only on the main thread, from within
// MainThreadUpdate.
func (m *Manager) executeCommands() {
	cmds := m.cmdBuf.drain()
	if len(cmds) == 0 {
		return
	}

	refs := make(map[ID]int32, len(cmds))
	reloadSet := make(map[ID]struct{})

	for _, c := range cmds {
		switch c.kind {
		case cmdCreateArea:
			m.areaMu.Lock()
			area := m.areaAlloc.fetch(AreaID(c.target))
			m.areaMu.Unlock()
			if area == nil {
				continue
			}
			for _, r := range area.resources {
				p := m.GetProxy(r)
				p.addArea(area.id)
				if p.finished() {
					area.loadedCount++
				}
			}
		case cmdDestroyArea:
			m.areaMu.Lock()
			area := m.areaAlloc.fetch(AreaID(c.target))
			m.areaMu.Unlock()
			if area == nil {
				continue
			}
			for _, r := range area.resources {
				m.GetProxy(r).removeArea(area.id)
			}
			m.areaMu.Lock()
			m.areaAlloc.free(area.id)
			m.areaMu.Unlock()
		case cmdLoadResource:
			refs[ID(c.target)]++
		case cmdUnloadResource:
			refs[ID(c.target)]--
		case cmdLoadArea:
			m.areaMu.Lock()
			area := m.areaAlloc.fetch(AreaID(c.target))
			m.areaMu.Unlock()
			if area == nil || area.loaded {
				continue
			}
			area.loaded = true
			for _, r := range area.resources {
				refs[r]++
			}
		case cmdUnloadArea:
			m.areaMu.Lock()
			area := m.areaAlloc.fetch(AreaID(c.target))
			m.areaMu.Unlock()
			if area == nil || !area.loaded {
				continue
			}
			area.loaded = false
			for _, r := range area.resources {
				refs[r]--
			}
		case cmdReloadResource:
			reloadSet[ID(c.target)] = struct{}{}
		case cmdReloadArea:
			m.areaMu.Lock()
			area := m.areaAlloc.fetch(AreaID(c.target))
			m.areaMu.Unlock()
			if area == nil {
				continue
			}
			for _, r := range area.resources {
				reloadSet[r] = struct{}{}
			}
		}
	}

	enqueued := false

	for r, delta := range refs {
		if delta == 0 {
			continue
		}
		p := m.GetProxy(r)
		if delta > 0 {
			prev := p.useCount
			p.useCount += delta
			if prev == 0 {
				if _, delayed := m.delayedRelease[r]; delayed {
					delete(m.delayedRelease, r)
				} else if p.state != StateLoad {
					p.state = StateLoad
					m.streamQueue.push(r)
					enqueued = true
				}
			}
			continue
		}
		p.useCount += delta
		if p.useCount < 0 {
			panic("resource: use_count went negative")
		}
		if p.useCount == 0 {
			if p.state == StateLoad {
				m.delayedRelease[r] = struct{}{}
			} else {
				m.release(p)
			}
		}
	}

	for r := range reloadSet {
		p := m.GetProxy(r)
		delete(m.delayedRelease, r)
		if p.state == StateLoad {
			// Coalesces with the in-flight load; see SPEC_FULL.md open
			// question #1.
			continue
		}
		if p.finished() {
			p.data = nil
			for _, a := range p.areas {
				m.areaMu.Lock()
				area := m.areaAlloc.fetch(a)
				m.areaMu.Unlock()
				if area != nil {
					area.loadedCount--
				}
			}
		}
		p.state = StateLoad
		m.streamQueue.push(r)
		enqueued = true
	}

	if enqueued {
		m.streamEvent.Signal()
	}
}

// release purges a proxy's decoded data, marks it Free, and rolls the
// drop back through every owning area's loadedCount.
func (m *Manager) release(p *Proxy) {
	p.data = nil
	p.state = StateFree
	for _, a := range p.areas {
		m.areaMu.Lock()
		area := m.areaAlloc.fetch(a)
		m.areaMu.Unlock()
		if area != nil {
			area.loadedCount--
		}
	}
}

// MainThreadUpdate drains commands, consumes loader results within the
// given wall-time budget, and sweeps delayed releases. A negative budget
// disables the time check (used by the wait helpers).
func (m *Manager) MainThreadUpdate(budget time.Duration) {
	m.executeCommands()

	start := time.Now()
	infinite := budget < 0
	for {
		if !infinite && time.Since(start) > budget {
			break
		}
		id, ok := m.processedQueue.tryPop()
		if !ok {
			break
		}
		p := m.GetProxy(id)
		if p.data != nil {
			p.state = StateReady
			if up, ok := p.data.(Uploader); ok {
				if err := up.Upload(); err != nil && m.logger != nil {
					m.logger.Printf("resource: upload %s: %v", p.name, err)
				}
			}
		} else {
			p.state = StateInvalid
		}
		for _, a := range p.areas {
			m.areaMu.Lock()
			area := m.areaAlloc.fetch(a)
			m.areaMu.Unlock()
			if area != nil {
				area.loadedCount++
			}
		}
	}

	for r := range m.delayedRelease {
		p := m.GetProxy(r)
		if p.state != StateLoad {
			delete(m.delayedRelease, r)
			m.release(p)
		}
	}
}

// MainThreadWaitResource blocks (main thread only) until id has finished
// loading, pumping the manager in the meantime.
func (m *Manager) MainThreadWaitResource(id ID) {
	for {
		m.MainThreadUpdate(-1)
		if m.isFinished(id) {
			return
		}
		m.processedEvent.Wait()
	}
}

// MainThreadWaitArea blocks (main thread only) until every member of area
// has finished loading.
func (m *Manager) MainThreadWaitArea(id AreaID) {
	for {
		m.MainThreadUpdate(-1)
		if m.IsAreaReady(id) {
			return
		}
		m.processedEvent.Wait()
	}
}

func (m *Manager) runLoader() {
	defer m.loaderWG.Done()
	for {
		id, ok := m.streamQueue.tryPop()
		if !ok {
			if m.shuttingDown.Load() {
				return
			}
			m.streamEvent.Wait()
			if m.shuttingDown.Load() && func() bool { _, ok := m.streamQueue.tryPop(); return !ok }() {
				return
			}
			continue
		}
		m.loadOne(id)
	}
}

func (m *Manager) loadOne(id ID) {
	p := m.GetProxy(id)
	name := p.name
	tag := p.tag
	if i := indexHash(name); i >= 0 {
		name = name[:i]
	}

	var decoded any
	rc, err := m.opener.Open(name)
	if err != nil {
		if m.logger != nil {
			m.logger.Printf("resource: open %s: %v", name, err)
		}
	} else {
		func() {
			defer rc.Close()
			dec, ok := decoderFor(tag)
			if !ok {
				return
			}
			v, derr := dec(rc)
			if derr != nil {
				if m.logger != nil {
					m.logger.Printf("resource: decode %s (%s): %v", name, tag, derr)
				}
				return
			}
			decoded = v
		}()
	}

	p.data = decoded
	m.processedQueue.push(id)
	m.processedEvent.Signal()
}

// indexHash returns the index of the first '#' in name, or -1. The '#'
// suffix is a sub-resource selector the loader ignores (spec §4.1.6).
func indexHash(name string) int {
	for i := 0; i < len(name); i++ {
		if name[i] == '#' {
			return i
		}
	}
	return -1
}

// Shutdown stops the loader thread and waits for it to exit.
func (m *Manager) Shutdown() {
	m.shuttingDown.Store(true)
	m.streamEvent.Signal()
	m.loaderWG.Wait()
}

package resource

// GetResource returns a handle for name, registering a new proxy of type T
// if this is the first reference. If name is already registered under a
// different type tag, the returned handle is invalid. Go methods cannot
// carry their own type parameters, so the generic entry points live here
// as free functions taking *Manager, mirroring the package-level
// image.Decode / json.Unmarshal[T] style rather than a method set.
func GetResource[T Typed](m *Manager, name string) Handle[T] {
	if name == "" {
		return Handle[T]{}
	}
	tag := tagOf[T]()
	m.nameMu.Lock()
	defer m.nameMu.Unlock()
	if id, ok := m.nameToID[name]; ok {
		if id.Tag() != tag {
			return Handle[T]{}
		}
		return newHandle[T](id)
	}
	slot, proxy := m.proxies.append()
	id := MakeID(tag, slot)
	proxy.tag = tag
	proxy.name = name
	m.nameToID[name] = id
	return newHandle[T](id)
}

// CreateResourceWithData installs value directly into a (possibly new)
// proxy for name, bypassing the load pipeline. Use for procedurally
// generated or already-in-memory resources (spec §4.1.2).
func CreateResourceWithData[T Typed](m *Manager, name string, value T) Handle[T] {
	if name == "" {
		return Handle[T]{}
	}
	h := GetResource[T](m, name)
	if !h.Valid() {
		return Handle[T]{}
	}
	p := m.GetProxy(h.ID())
	p.data = value
	p.state = StateReady
	p.flags |= FlagProcedural
	p.useCount++
	for _, a := range p.areas {
		m.areaMu.Lock()
		area := m.areaAlloc.fetch(a)
		m.areaMu.Unlock()
		if area != nil {
			area.loadedCount++
		}
	}
	return h
}

// CreateResourceFromFile opens path on the calling thread and decodes it
// synchronously, bypassing the async load pipeline entirely. On any
// failure it installs the zero value of T and marks the proxy Ready
// anyway, matching "constructs an empty T" in spec §4.1.2: callers that
// need failure visibility should use LoadResource instead.
func CreateResourceFromFile[T Typed](m *Manager, path string) Handle[T] {
	tag := tagOf[T]()
	var value T
	if rc, err := m.opener.Open(path); err == nil {
		func() {
			defer rc.Close()
			dec, ok := decoderFor(tag)
			if !ok {
				return
			}
			v, derr := dec(rc)
			if derr != nil {
				return
			}
			if typed, ok := v.(T); ok {
				value = typed
			}
		}()
	}
	return CreateResourceWithData[T](m, path, value)
}

// LoadResource registers (or finds) name and enqueues a load for it. The
// usage counter and state transition happen on the next command drain.
func LoadResource[T Typed](m *Manager, name string) Handle[T] {
	h := GetResource[T](m, name)
	if h.Valid() {
		m.LoadResourceID(h.ID())
	}
	return h
}

// UnloadResource decrements the usage counter of an already-registered
// resource by name. A name that was never registered is a no-op.
func UnloadResource[T Typed](m *Manager, name string) {
	m.nameMu.Lock()
	id, ok := m.nameToID[name]
	m.nameMu.Unlock()
	if ok {
		m.UnloadResourceID(id)
	}
}

// ReloadResource enqueues a reload request for an already-registered
// resource by name.
func ReloadResource[T Typed](m *Manager, name string) {
	m.nameMu.Lock()
	id, ok := m.nameToID[name]
	m.nameMu.Unlock()
	if ok {
		m.ReloadResourceID(id)
	}
}

// TryGet returns the decoded value behind h if it has finished loading
// successfully (state Ready) and holds a T.
func TryGet[T Typed](m *Manager, h Handle[T]) (T, bool) {
	var zero T
	if !h.Valid() {
		return zero, false
	}
	p := m.GetProxy(h.ID())
	if p.state != StateReady {
		return zero, false
	}
	v, ok := p.data.(T)
	return v, ok
}

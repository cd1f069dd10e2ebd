package resource

// State is a proxy's lifecycle stage.
type State uint8

const (
	StateFree State = iota
	StateLoad
	StateReady
	StateInvalid
)

func (s State) String() string {
	switch s {
	case StateFree:
		return "Free"
	case StateLoad:
		return "Load"
	case StateReady:
		return "Ready"
	case StateInvalid:
		return "Invalid"
	default:
		return "Unknown"
	}
}

// Flags is a bitset of per-proxy flags.
type Flags uint8

const (
	// FlagProcedural marks a resource whose bytes never live on disk —
	// it was created directly via CreateResourceWithData.
	FlagProcedural Flags = 1 << iota
)

// Proxy is one registry slot: one per registered resource. Per spec §5,
// state, use_count, and areas are written only by the main thread; data
// is written only by the loader thread while state == Load, and read by
// the main thread only after it observes state == Ready. The happens-before
// edge for that handoff is established by the processed queue's mutex: the
// loader's push and the main-thread pump's tryPop both take it.
type Proxy struct {
	name  string // immutable borrowed reference to the registry's canonical key
	tag   Type
	state State
	flags Flags

	useCount int32
	data     any // present iff state == StateReady

	areas []AreaID // unordered, no duplicates
}

// Name returns the proxy's canonical registry key.
func (p *Proxy) Name() string { return p.name }

// Tag returns the proxy's registered resource type.
func (p *Proxy) Tag() Type { return p.tag }

// State returns the proxy's current lifecycle stage.
func (p *Proxy) State() State { return p.state }

// UseCount returns the outstanding load-contribution count.
func (p *Proxy) UseCount() int32 { return p.useCount }

// Procedural reports whether the resource's bytes never live on disk.
func (p *Proxy) Procedural() bool { return p.flags&FlagProcedural != 0 }

// Data returns the decoded value, valid only when State() == StateReady.
func (p *Proxy) Data() any { return p.data }

func (p *Proxy) hasArea(id AreaID) bool {
	for _, a := range p.areas {
		if a == id {
			return true
		}
	}
	return false
}

func (p *Proxy) addArea(id AreaID) {
	if !p.hasArea(id) {
		p.areas = append(p.areas, id)
	}
}

func (p *Proxy) removeArea(id AreaID) {
	for i, a := range p.areas {
		if a == id {
			p.areas = append(p.areas[:i], p.areas[i+1:]...)
			return
		}
	}
}

func (p *Proxy) finished() bool {
	return p.state == StateReady || p.state == StateInvalid
}

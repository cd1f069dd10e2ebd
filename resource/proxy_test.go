package resource

import "testing"

func TestProxyAreaMembershipNoDuplicates(t *testing.T) {
	p := &Proxy{}
	p.addArea(1)
	p.addArea(1)
	p.addArea(2)
	if len(p.areas) != 2 {
		t.Fatalf("areas = %v, want 2 unique entries", p.areas)
	}
	if !p.hasArea(1) || !p.hasArea(2) {
		t.Errorf("hasArea missing an added area: %v", p.areas)
	}
}

func TestProxyRemoveArea(t *testing.T) {
	p := &Proxy{}
	p.addArea(1)
	p.addArea(2)
	p.removeArea(1)
	if p.hasArea(1) {
		t.Errorf("removeArea(1) left area 1 present: %v", p.areas)
	}
	if !p.hasArea(2) {
		t.Errorf("removeArea(1) should not disturb area 2: %v", p.areas)
	}
}

func TestProxyFinishedStates(t *testing.T) {
	cases := []struct {
		state State
		want  bool
	}{
		{StateFree, false},
		{StateLoad, false},
		{StateReady, true},
		{StateInvalid, true},
	}
	for _, c := range cases {
		p := &Proxy{state: c.state}
		if got := p.finished(); got != c.want {
			t.Errorf("finished() with state %v = %v, want %v", c.state, got, c.want)
		}
	}
}

func TestProxyProceduralFlag(t *testing.T) {
	p := &Proxy{}
	if p.Procedural() {
		t.Errorf("zero-value Proxy should not be Procedural")
	}
	p.flags |= FlagProcedural
	if !p.Procedural() {
		t.Errorf("Procedural() should report true once FlagProcedural is set")
	}
}

func TestStateString(t *testing.T) {
	cases := map[State]string{
		StateFree:    "Free",
		StateLoad:    "Load",
		StateReady:   "Ready",
		StateInvalid: "Invalid",
		State(99):    "Unknown",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}

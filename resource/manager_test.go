package resource

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
)

const testAssetTag Type = 220

type testAsset struct {
	Body string
}

func (testAsset) ResourceTag() Type { return testAssetTag }

func init() {
	RegisterDecoder(testAssetTag, func(r io.Reader) (any, error) {
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		if string(b) == "bad" {
			return nil, fmt.Errorf("poisoned body")
		}
		return testAsset{Body: string(b)}, nil
	})
}

func (testAsset) Upload() error { return nil }

// fakeOpener serves in-memory bodies keyed by path, recording every Open
// call for assertions. Safe for concurrent use by the loader goroutine.
type fakeOpener struct {
	mu    sync.Mutex
	files map[string]string
	opens []string
}

func newFakeOpener(files map[string]string) *fakeOpener {
	return &fakeOpener{files: files}
}

func (o *fakeOpener) Open(path string) (io.ReadCloser, error) {
	o.mu.Lock()
	o.opens = append(o.opens, path)
	body, ok := o.files[path]
	o.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("fakeOpener: no such file %q", path)
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

type fakeLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *fakeLogger) Printf(format string, args ...any) {
	l.mu.Lock()
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
	l.mu.Unlock()
}

func waitForState(t *testing.T, m *Manager, id ID, want State, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		m.MainThreadUpdate(10 * time.Millisecond)
		if m.GetProxy(id).State() == want {
			return
		}
	}
	t.Fatalf("proxy %v did not reach state %v within %v; spew dump: %s", id, want, timeout, spew.Sdump(m.GetProxy(id)))
}

func TestLoadResourceRoundTrip(t *testing.T) {
	opener := newFakeOpener(map[string]string{"a.asset": "hello"})
	m := NewManager(opener, &fakeLogger{})
	defer m.Shutdown()

	h := LoadResource[testAsset](m, "a.asset")
	if !h.Valid() {
		t.Fatalf("LoadResource returned an invalid handle")
	}

	waitForState(t, m, h.ID(), StateReady, 2*time.Second)

	v, ok := TryGet[testAsset](m, h)
	if !ok {
		t.Fatalf("TryGet failed after proxy reached Ready")
	}
	if v.Body != "hello" {
		t.Errorf("decoded Body = %q, want %q", v.Body, "hello")
	}
}

func TestLoadResourceDecodeFailureBecomesInvalid(t *testing.T) {
	opener := newFakeOpener(map[string]string{"bad.asset": "bad"})
	logger := &fakeLogger{}
	m := NewManager(opener, logger)
	defer m.Shutdown()

	h := LoadResource[testAsset](m, "bad.asset")
	waitForState(t, m, h.ID(), StateInvalid, 2*time.Second)

	if _, ok := TryGet[testAsset](m, h); ok {
		t.Errorf("TryGet should fail for an Invalid proxy")
	}
}

func TestLoadResourceMissingFileBecomesInvalid(t *testing.T) {
	opener := newFakeOpener(nil)
	m := NewManager(opener, &fakeLogger{})
	defer m.Shutdown()

	h := LoadResource[testAsset](m, "missing.asset")
	waitForState(t, m, h.ID(), StateInvalid, 2*time.Second)
}

func TestGetResourceSameNameReturnsSameID(t *testing.T) {
	opener := newFakeOpener(map[string]string{"shared.asset": "x"})
	m := NewManager(opener, &fakeLogger{})
	defer m.Shutdown()

	h1 := GetResource[testAsset](m, "shared.asset")
	h2 := GetResource[testAsset](m, "shared.asset")
	if h1.ID() != h2.ID() {
		t.Errorf("GetResource for the same name returned different IDs: %v vs %v", h1.ID(), h2.ID())
	}
}

func TestUnloadResourceWithoutLoadIsNoop(t *testing.T) {
	m := NewManager(newFakeOpener(nil), &fakeLogger{})
	defer m.Shutdown()
	UnloadResource[testAsset](m, "never-registered")
	m.MainThreadUpdate(10 * time.Millisecond)
}

func TestCreateResourceWithDataBypassesLoader(t *testing.T) {
	m := NewManager(newFakeOpener(nil), &fakeLogger{})
	defer m.Shutdown()

	h := CreateResourceWithData[testAsset](m, "procedural", testAsset{Body: "baked"})
	if !h.Valid() {
		t.Fatalf("CreateResourceWithData returned an invalid handle")
	}
	p := m.GetProxy(h.ID())
	if p.State() != StateReady {
		t.Errorf("CreateResourceWithData proxy state = %v, want Ready", p.State())
	}
	if !p.Procedural() {
		t.Errorf("CreateResourceWithData proxy should carry FlagProcedural")
	}
	v, ok := TryGet[testAsset](m, h)
	if !ok || v.Body != "baked" {
		t.Errorf("TryGet = (%v, %v), want (\"baked\", true)", v, ok)
	}
}

func TestAreaBecomesReadyOnceAllMembersLoad(t *testing.T) {
	opener := newFakeOpener(map[string]string{
		"one.asset": "1",
		"two.asset": "2",
	})
	m := NewManager(opener, &fakeLogger{})
	defer m.Shutdown()

	h1 := GetResource[testAsset](m, "one.asset")
	h2 := GetResource[testAsset](m, "two.asset")
	area := m.CreateResourceArea([]ID{h1.ID(), h2.ID()})
	m.LoadArea(area)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && !m.IsAreaReady(area) {
		m.MainThreadUpdate(10 * time.Millisecond)
	}
	if !m.IsAreaReady(area) {
		t.Fatalf("area never became ready")
	}

	m.DestroyResourceArea(area)
	m.MainThreadUpdate(10 * time.Millisecond)
	if m.IsAreaReady(area) {
		t.Errorf("a destroyed area should no longer report Ready via IsAreaReady (area ID recycled to not-found)")
	}
}

func TestDestroyAreaOnUnknownIDIsNoop(t *testing.T) {
	m := NewManager(newFakeOpener(nil), &fakeLogger{})
	defer m.Shutdown()
	m.DestroyResourceArea(AreaID(0))
	m.MainThreadUpdate(10 * time.Millisecond)
}

func TestReloadWhileLoadingCoalesces(t *testing.T) {
	// Reload requests that land while a proxy is still Load must coalesce
	// into the in-flight load rather than queue a second one; see
	// SPEC_FULL.md open question #1.
	opener := newFakeOpener(map[string]string{"r.asset": "v1"})
	m := NewManager(opener, &fakeLogger{})
	defer m.Shutdown()

	h := LoadResource[testAsset](m, "r.asset")
	m.ReloadResourceID(h.ID())
	waitForState(t, m, h.ID(), StateReady, 2*time.Second)

	v, ok := TryGet[testAsset](m, h)
	if !ok || v.Body != "v1" {
		t.Errorf("TryGet after coalesced reload = (%v, %v), want (\"v1\", true)", v, ok)
	}
}

func TestIndexHashStripsSubResourceSelector(t *testing.T) {
	if got := indexHash("mesh.fbx#armature"); got != 8 {
		t.Errorf("indexHash = %d, want 8", got)
	}
	if got := indexHash("mesh.fbx"); got != -1 {
		t.Errorf("indexHash with no selector = %d, want -1", got)
	}
}

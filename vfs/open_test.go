package vfs

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/NOT-REAL-GAMES/ridge/resource"
)

func TestStoreOpenRootPrefersLooseFileOverPack(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("loose"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	s, err := NewStore(root)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer s.Close()

	packPath := buildPackFile(t, []packFileEntry{{name: "a.txt", payload: []byte("packed")}})
	if err := s.AddPack(packPath); err != nil {
		t.Fatalf("AddPack: %v", err)
	}

	rc, err := s.Open("/Root/a.txt")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if string(got) != "loose" {
		t.Errorf("Open(/Root/a.txt) = %q, want %q (loose file wins)", got, "loose")
	}
}

func TestStoreOpenRootFallsBackToPack(t *testing.T) {
	root := t.TempDir()
	s, err := NewStore(root)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer s.Close()

	packPath := buildPackFile(t, []packFileEntry{{name: "b.txt", payload: []byte("packed-only")}})
	if err := s.AddPack(packPath); err != nil {
		t.Fatalf("AddPack: %v", err)
	}

	rc, err := s.Open("/Root/b.txt")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if string(got) != "packed-only" {
		t.Errorf("Open(/Root/b.txt) = %q, want %q", got, "packed-only")
	}
}

func TestStoreOpenRootLastPackWinsOnCollision(t *testing.T) {
	root := t.TempDir()
	s, err := NewStore(root)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer s.Close()

	first := buildPackFile(t, []packFileEntry{{name: "c.txt", payload: []byte("first")}})
	second := buildPackFile(t, []packFileEntry{{name: "c.txt", payload: []byte("second")}})
	if err := s.AddPack(first); err != nil {
		t.Fatalf("AddPack(first): %v", err)
	}
	if err := s.AddPack(second); err != nil {
		t.Fatalf("AddPack(second): %v", err)
	}

	rc, err := s.Open("/Root/c.txt")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if string(got) != "second" {
		t.Errorf("Open(/Root/c.txt) = %q, want %q (last-added pack wins)", got, "second")
	}
}

func TestStoreOpenUnresolvedReturnsSentinel(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer s.Close()

	_, err = s.Open("/Root/nope.txt")
	if !errors.Is(err, resource.ErrPathUnresolved) {
		t.Errorf("Open of an unresolvable path = %v, want wrapping ErrPathUnresolved", err)
	}
}

func TestStoreOpenEmbeddedRequiresSetEmbedded(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer s.Close()

	if _, err := s.Open("/Embedded/x.bin"); !errors.Is(err, resource.ErrPathUnresolved) {
		t.Errorf("Open(/Embedded/...) with no embedded archive set = %v, want ErrPathUnresolved", err)
	}

	embeddedPath := buildPackFile(t, []packFileEntry{{name: "x.bin", payload: []byte("sdf-atlas")}})
	if err := s.SetEmbedded(embeddedPath); err != nil {
		t.Fatalf("SetEmbedded: %v", err)
	}

	rc, err := s.Open("/Embedded/x.bin")
	if err != nil {
		t.Fatalf("Open(/Embedded/x.bin) after SetEmbedded: %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if string(got) != "sdf-atlas" {
		t.Errorf("Open(/Embedded/x.bin) = %q, want %q", got, "sdf-atlas")
	}
}

func TestStoreOpenUnknownPrefixErrors(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer s.Close()
	if _, err := s.Open("garbage"); !errors.Is(err, resource.ErrPathUnresolved) {
		t.Errorf("Open of an unrecognised prefix = %v, want ErrPathUnresolved", err)
	}
}

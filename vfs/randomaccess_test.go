package vfs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRandomAccessReadAtDisjointRanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob.bin")
	content := []byte("0123456789abcdef")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	raf, err := OpenRandomAccess(path)
	if err != nil {
		t.Fatalf("OpenRandomAccess: %v", err)
	}
	defer raf.Close()

	buf := make([]byte, 4)
	if _, err := raf.ReadAt(buf, 10); err != nil {
		t.Fatalf("ReadAt(10): %v", err)
	}
	if string(buf) != "abcd" {
		t.Errorf("ReadAt(10) = %q, want %q", buf, "abcd")
	}

	buf2 := make([]byte, 3)
	if _, err := raf.ReadAt(buf2, 0); err != nil {
		t.Fatalf("ReadAt(0): %v", err)
	}
	if string(buf2) != "012" {
		t.Errorf("ReadAt(0) = %q, want %q", buf2, "012")
	}
}

func TestRandomAccessReadAtPastEndErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.bin")
	if err := os.WriteFile(path, []byte("ab"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	raf, err := OpenRandomAccess(path)
	if err != nil {
		t.Fatalf("OpenRandomAccess: %v", err)
	}
	defer raf.Close()

	buf := make([]byte, 10)
	if _, err := raf.ReadAt(buf, 0); err == nil {
		t.Errorf("ReadAt beyond EOF should error")
	}
}

func TestOpenRandomAccessMissingFileErrors(t *testing.T) {
	if _, err := OpenRandomAccess(filepath.Join(t.TempDir(), "nope.bin")); err == nil {
		t.Errorf("OpenRandomAccess on a missing file should error")
	}
}

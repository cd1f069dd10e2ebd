package vfs

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"
)

type packFileEntry struct {
	name    string
	payload []byte
}

// buildPackFile assembles a pack file per the layout documented in pack.go
// and writes it to a temp path, returning that path.
func buildPackFile(t *testing.T, entries []packFileEntry) string {
	t.Helper()

	var payload bytes.Buffer
	offsets := make([]int64, len(entries))
	for i, e := range entries {
		offsets[i] = int64(payload.Len())
		payload.Write(e.payload)
	}

	var buf bytes.Buffer
	buf.Write(packMagic[:])
	var countBuf [4]byte
	binary.LittleEndian.PutUint32(countBuf[:], uint32(len(entries)))
	buf.Write(countBuf[:])

	for i, e := range entries {
		var lenBuf [4]byte
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(e.name)))
		buf.Write(lenBuf[:])
		buf.WriteString(e.name)

		var rangeBuf [16]byte
		binary.LittleEndian.PutUint64(rangeBuf[0:8], uint64(offsets[i]))
		binary.LittleEndian.PutUint64(rangeBuf[8:16], uint64(len(e.payload)))
		buf.Write(rangeBuf[:])
	}

	buf.Write(payload.Bytes())

	path := filepath.Join(t.TempDir(), "archive.resources")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestOpenPackLocateAndRead(t *testing.T) {
	path := buildPackFile(t, []packFileEntry{
		{name: "a.txt", payload: []byte("alpha")},
		{name: "b.txt", payload: []byte("beta!!")},
	})

	p, err := OpenPack(path)
	if err != nil {
		t.Fatalf("OpenPack: %v", err)
	}
	defer p.Close()

	if !p.Locate("a.txt") || !p.Locate("b.txt") {
		t.Fatalf("Locate failed for a registered entry")
	}
	if p.Locate("missing.txt") {
		t.Errorf("Locate should report false for an unregistered entry")
	}

	rc, err := p.Open("b.txt")
	if err != nil {
		t.Fatalf("Open(b.txt): %v", err)
	}
	defer rc.Close()
	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "beta!!" {
		t.Errorf("payload = %q, want %q", got, "beta!!")
	}
}

func TestOpenPackUnknownEntryErrors(t *testing.T) {
	path := buildPackFile(t, []packFileEntry{{name: "only.bin", payload: []byte("x")}})
	p, err := OpenPack(path)
	if err != nil {
		t.Fatalf("OpenPack: %v", err)
	}
	defer p.Close()

	if _, err := p.Open("nope.bin"); err == nil {
		t.Errorf("Open of an unregistered name should error")
	}
}

func TestOpenPackBadMagicErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.resources")
	if err := os.WriteFile(path, []byte("not a pack file at all"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := OpenPack(path); err == nil {
		t.Errorf("OpenPack on a file with a bad magic should error")
	}
}

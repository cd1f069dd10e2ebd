package vfs

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Pack file layout (spec.md §6.2 leaves the archive format
// implementation-defined; this is the simplest table-of-contents shape
// that satisfies locate_file + byte-range read):
//
//	magic      [4]byte  "HkPk"
//	entryCount uint32
//	entries    [entryCount]{ nameLen uint32, name []byte, offset uint64, size uint64 }
//	...raw byte payloads, referenced by (offset, size) above...
var packMagic = [4]byte{'H', 'k', 'P', 'k'}

type packEntry struct {
	offset int64
	size   int64
}

// Pack is an opened, read-only, random-access archive: a name table plus
// byte-range index over one underlying file.
type Pack struct {
	path    string
	raf     RandomAccessFile
	entries map[string]packEntry
}

// OpenPack opens path and reads its table of contents.
func OpenPack(path string) (*Pack, error) {
	raf, err := OpenRandomAccess(path)
	if err != nil {
		return nil, err
	}
	p := &Pack{path: path, raf: raf, entries: make(map[string]packEntry)}
	if err := p.readIndex(); err != nil {
		raf.Close()
		return nil, err
	}
	return p, nil
}

func (p *Pack) readIndex() error {
	var header [8]byte
	if _, err := p.raf.ReadAt(header[:], 0); err != nil {
		return fmt.Errorf("vfs: %s: read header: %w", p.path, err)
	}
	if header[0] != packMagic[0] || header[1] != packMagic[1] ||
		header[2] != packMagic[2] || header[3] != packMagic[3] {
		return fmt.Errorf("vfs: %s: bad pack magic", p.path)
	}
	count := binary.LittleEndian.Uint32(header[4:8])

	cursor := int64(8)
	for i := uint32(0); i < count; i++ {
		var lenBuf [4]byte
		if _, err := p.raf.ReadAt(lenBuf[:], cursor); err != nil {
			return fmt.Errorf("vfs: %s: read entry %d name length: %w", p.path, i, err)
		}
		cursor += 4

		nameLen := binary.LittleEndian.Uint32(lenBuf[:])
		nameBuf := make([]byte, nameLen)
		if _, err := p.raf.ReadAt(nameBuf, cursor); err != nil {
			return fmt.Errorf("vfs: %s: read entry %d name: %w", p.path, i, err)
		}
		cursor += int64(nameLen)

		var rangeBuf [16]byte
		if _, err := p.raf.ReadAt(rangeBuf[:], cursor); err != nil {
			return fmt.Errorf("vfs: %s: read entry %d range: %w", p.path, i, err)
		}
		cursor += 16

		p.entries[string(nameBuf)] = packEntry{
			offset: int64(binary.LittleEndian.Uint64(rangeBuf[0:8])),
			size:   int64(binary.LittleEndian.Uint64(rangeBuf[8:16])),
		}
	}
	return nil
}

// Locate reports whether relPath exists in the archive.
func (p *Pack) Locate(relPath string) bool {
	_, ok := p.entries[relPath]
	return ok
}

// Open returns a reader over relPath's byte range. The returned
// ReadCloser shares the Pack's underlying file descriptor; closing it
// does not close the Pack.
func (p *Pack) Open(relPath string) (io.ReadCloser, error) {
	e, ok := p.entries[relPath]
	if !ok {
		return nil, fmt.Errorf("vfs: %s: %q not found", p.path, relPath)
	}
	return packSection{io.NewSectionReader(p.raf, e.offset, e.size)}, nil
}

// Close releases the underlying file descriptor.
func (p *Pack) Close() error { return p.raf.Close() }

type packSection struct {
	*io.SectionReader
}

func (packSection) Close() error { return nil }

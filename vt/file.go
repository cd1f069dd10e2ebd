package vt

import (
	"fmt"

	"github.com/NOT-REAL-GAMES/ridge/vfs"
)

// vtMagicLow is the fixed low 16 bits of the file magic: 'V' | 'T'<<8.
// The high 16 bits carry the format version (spec.md §3.2).
const vtMagicLow = uint32('V') | uint32('T')<<8

// FileLayer is one on-disk layer descriptor: its fixed per-page payload
// size and an opaque GPU format tag.
type FileLayer struct {
	SizeInBytes uint32
	PageFormat  uint32
}

// cursorReader adapts a vfs.RandomAccessFile to sequential io.Reader
// reads, tracking how many bytes of header have been consumed so the
// page stream's start offset falls out for free.
type cursorReader struct {
	raf vfs.RandomAccessFile
	pos int64
}

func (c *cursorReader) Read(p []byte) (int, error) {
	n, err := c.raf.ReadAt(p, c.pos)
	c.pos += int64(n)
	return n, err
}

// File is an opened, parsed VT page file: its header, Page Info Table,
// and address table, plus random access to its page stream.
type File struct {
	Version                   uint16
	Layers                    []FileLayer
	PageResolutionWithBorders uint16
	PIT                       *PageInfoTable
	Addr                      *AddressTable
	NumLODs                   int

	offsets         offsetTable
	pageStreamStart int64
	raf             vfs.RandomAccessFile
}

// OpenFile opens and parses a VT page file per spec.md §6.4.
func OpenFile(path string) (*File, error) {
	raf, err := vfs.OpenRandomAccess(path)
	if err != nil {
		return nil, err
	}
	cr := &cursorReader{raf: raf}

	f, err := parseFile(cr)
	if err != nil {
		raf.Close()
		return nil, err
	}
	f.raf = raf
	f.pageStreamStart = cr.pos
	return f, nil
}

func parseFile(cr *cursorReader) (*File, error) {
	magic, err := readU32(cr)
	if err != nil {
		return nil, fmt.Errorf("vt: read magic: %w", err)
	}
	if magic&0xFFFF != vtMagicLow {
		return nil, ErrBadMagic
	}
	version := uint16(magic >> 16)

	layerCount, err := readU8(cr)
	if err != nil {
		return nil, fmt.Errorf("vt: read layer_count: %w", err)
	}
	layers := make([]FileLayer, layerCount)
	for i := range layers {
		if layers[i].SizeInBytes, err = readU32(cr); err != nil {
			return nil, fmt.Errorf("vt: read layer %d size: %w", i, err)
		}
		if layers[i].PageFormat, err = readU32(cr); err != nil {
			return nil, fmt.Errorf("vt: read layer %d format: %w", i, err)
		}
	}

	pageRes, err := readU16(cr)
	if err != nil {
		return nil, fmt.Errorf("vt: read page_resolution_with_borders: %w", err)
	}
	if pageRes <= 8 || pageRes > 512 {
		return nil, fmt.Errorf("%w: page_resolution_with_borders %d out of range", ErrBadFormat, pageRes)
	}

	pit, err := ReadPIT(cr)
	if err != nil {
		return nil, err
	}

	addr, ot, err := ReadAddressTable(cr)
	if err != nil {
		return nil, err
	}
	numLODs := addr.numLODs

	if err := pit.padTo(int(ot.totalPages())); err != nil {
		return nil, err
	}

	return &File{
		Version:                   version,
		Layers:                    layers,
		PageResolutionWithBorders: pageRes,
		PIT:                       pit,
		Addr:                      addr,
		NumLODs:                   numLODs,
		offsets:                   ot,
	}, nil
}

// pageSizeBytes is the fixed per-page payload size: the sum of every
// layer's declared size.
func (f *File) pageSizeBytes() uint64 {
	var total uint64
	for _, l := range f.Layers {
		total += uint64(l.SizeInBytes)
	}
	return total
}

// ReadPage reads every layer's payload for abs's physical page,
// returning one byte slice per layer in declaration order.
func (f *File) ReadPage(abs uint32) ([][]byte, error) {
	physPage := f.Addr.PhysicalOffset(f.offsets, abs)
	cursor := f.pageStreamStart + int64(physPage)*int64(f.pageSizeBytes())

	payloads := make([][]byte, len(f.Layers))
	for i, l := range f.Layers {
		buf := make([]byte, l.SizeInBytes)
		if _, err := f.raf.ReadAt(buf, cursor); err != nil {
			return nil, fmt.Errorf("vt: read page %d layer %d: %w", abs, i, err)
		}
		payloads[i] = buf
		cursor += int64(l.SizeInBytes)
	}
	return payloads, nil
}

// Close releases the underlying file descriptor.
func (f *File) Close() error { return f.raf.Close() }

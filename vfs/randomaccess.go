package vfs

import (
	"fmt"
	"io"

	"golang.org/x/sys/unix"
)

// RandomAccessFile is a read-only, concurrency-safe byte-range reader.
// Multiple goroutines may call ReadAt on disjoint ranges of the same file
// concurrently, which os.File.Seek+Read cannot offer since they share one
// cursor.
type RandomAccessFile interface {
	io.ReaderAt
	Close() error
}

type unixRandomAccessFile struct {
	fd int
}

// OpenRandomAccess opens path for pread-based random access via
// golang.org/x/sys/unix. Used by Pack and the VT page-stream reader,
// both of which issue concurrent reads at arbitrary offsets into one
// large file.
func OpenRandomAccess(path string) (RandomAccessFile, error) {
	fd, err := unix.Open(path, unix.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("vfs: open %s: %w", path, err)
	}
	return &unixRandomAccessFile{fd: fd}, nil
}

func (f *unixRandomAccessFile) ReadAt(p []byte, off int64) (int, error) {
	n, err := unix.Pread(f.fd, p, off)
	if err != nil {
		return n, err
	}
	if n < len(p) {
		return n, io.ErrUnexpectedEOF
	}
	return n, nil
}

func (f *unixRandomAccessFile) Close() error {
	return unix.Close(f.fd)
}

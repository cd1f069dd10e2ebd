// Package decode implements the per-type binary decoders registered into
// the resource package's dispatch table at init time (spec.md §6.3). Each
// decoder is a plain func(io.Reader) (T, error); none of them know about
// proxies, areas, or the command pipeline.
package decode

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/NOT-REAL-GAMES/ridge/resource"
)

// currentFormatVersion is the version byte every decoder in this package
// currently expects; bump it (and give the outgoing format its own named
// constant) the day any per-type binary layout actually changes.
const currentFormatVersion = 1

// readHeader validates the four-byte ('H', 'k', tag, version) magic shared
// by every resource file, including that its version matches
// currentFormatVersion: a recognised magic with an unexpected version is
// still a format mismatch (spec.md §6.3/§7), not a successful decode.
func readHeader(r io.Reader, tag resource.Type) (uint8, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return 0, fmt.Errorf("%w: %v", resource.ErrFormatMismatch, err)
	}
	if magic[0] != 'H' || magic[1] != 'k' || resource.Type(magic[2]) != tag {
		return 0, resource.ErrFormatMismatch
	}
	if magic[3] != currentFormatVersion {
		return 0, fmt.Errorf("%w: version %d", resource.ErrFormatMismatch, magic[3])
	}
	return magic[3], nil
}

func readU8(r io.Reader) (uint8, error) {
	var b [1]byte
	_, err := io.ReadFull(r, b[:])
	return b[0], err
}

func readU32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func readF32(r io.Reader) (float32, error) {
	v, err := readU32(r)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// readString reads a u32 byte-length prefix followed by that many raw
// bytes, the string encoding used throughout the per-type formats.
func readString(r io.Reader) (string, error) {
	n, err := readU32(r)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func readVec2(r io.Reader) (v [2]float32, err error) {
	for i := range v {
		if v[i], err = readF32(r); err != nil {
			return v, err
		}
	}
	return v, nil
}

func readVec3(r io.Reader) (v [3]float32, err error) {
	for i := range v {
		if v[i], err = readF32(r); err != nil {
			return v, err
		}
	}
	return v, nil
}

func readQuat(r io.Reader) (v [4]float32, err error) {
	for i := range v {
		if v[i], err = readF32(r); err != nil {
			return v, err
		}
	}
	return v, nil
}

func readBytes(r io.Reader, n uint32) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

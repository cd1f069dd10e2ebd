package vt

import "errors"

var (
	// ErrBadMagic is returned when a VT file's magic word does not match
	// VT_FILE_ID.
	ErrBadMagic = errors.New("vt: bad file magic")
	// ErrBadFormat is returned for a structurally valid-looking header
	// whose field values cannot describe a real VT (e.g. page resolution
	// out of range, or a page count that is not a power-of-4 quadtree
	// size).
	ErrBadFormat = errors.New("vt: malformed file header")
)

// Package vfs resolves resource paths against a root directory, an
// ordered list of resource packs, and an optional embedded archive
// (spec.md §6.1), and implements resource.Opener so a Store can be wired
// directly into a resource.Manager.
package vfs

import "strings"

// Prefix identifies which backing store a resource path resolves
// through.
type Prefix int

const (
	PrefixUnknown Prefix = iota
	PrefixRoot
	PrefixFS
	PrefixEmbedded
)

// Split parses a "/Root/<rel>", "/FS/<rel>", or "/Embedded/<rel>" path,
// truncating at the first '#' (the sub-resource selector this layer
// ignores). An unrecognised prefix reports PrefixUnknown with an empty
// remainder.
func Split(path string) (Prefix, string) {
	if i := strings.IndexByte(path, '#'); i >= 0 {
		path = path[:i]
	}
	switch {
	case strings.HasPrefix(path, "/Root/"):
		return PrefixRoot, path[len("/Root/"):]
	case strings.HasPrefix(path, "/FS/"):
		return PrefixFS, path[len("/FS/"):]
	case strings.HasPrefix(path, "/Embedded/"):
		return PrefixEmbedded, path[len("/Embedded/"):]
	default:
		return PrefixUnknown, ""
	}
}

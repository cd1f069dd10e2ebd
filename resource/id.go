// Package resource implements the typed, reference-counted, area-scoped
// asynchronous resource loader: the name/ID registry, load/unload command
// pipeline, background loader thread, and main-thread upload pump.
package resource

import "fmt"

// Type is the closed enum of resource kinds. It occupies the high 8 bits
// of a ResourceID.
type Type uint8

const (
	// TypeInvalid never appears on a registered proxy; it exists so the
	// zero ResourceID (tag 0, slot 0) is unambiguously invalid.
	TypeInvalid Type = iota
	TypeMesh
	TypeAnimation
	TypeTexture
	TypeMaterial
	TypeSound
	TypeFont
	TypeTerrain
	TypeSkeleton
	TypeNodeMotion
	TypeCollision
	TypeVirtualTexture
)

func (t Type) String() string {
	switch t {
	case TypeMesh:
		return "Mesh"
	case TypeAnimation:
		return "Animation"
	case TypeTexture:
		return "Texture"
	case TypeMaterial:
		return "Material"
	case TypeSound:
		return "Sound"
	case TypeFont:
		return "Font"
	case TypeTerrain:
		return "Terrain"
	case TypeSkeleton:
		return "Skeleton"
	case TypeNodeMotion:
		return "NodeMotion"
	case TypeCollision:
		return "Collision"
	case TypeVirtualTexture:
		return "VirtualTexture"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// Magic returns the four-byte little-endian file magic for the type:
// ('H', 'k', type, version).
func Magic(t Type, version uint8) [4]byte {
	return [4]byte{'H', 'k', byte(t), version}
}

// ID is a 32-bit tagged resource identifier. The high 8 bits are the type
// tag, the low 24 bits are the slot index into the manager's paged proxy
// vector. ID 0 is reserved invalid.
type ID uint32

const slotMask = 0x00FFFFFF

// MakeID packs a type tag and slot index into an ID.
func MakeID(tag Type, slot uint32) ID {
	return ID(uint32(tag)<<24 | (slot & slotMask))
}

// Valid reports whether the ID is non-zero.
func (id ID) Valid() bool { return id != 0 }

// Tag returns the type tag encoded in the ID's high 8 bits.
func (id ID) Tag() Type { return Type(id >> 24) }

// Slot returns the paged-vector slot index encoded in the ID's low 24 bits.
func (id ID) Slot() uint32 { return uint32(id) & slotMask }

func (id ID) String() string {
	if !id.Valid() {
		return "ID(invalid)"
	}
	return fmt.Sprintf("ID(%s:%d)", id.Tag(), id.Slot())
}

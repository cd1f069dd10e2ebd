package decode

import (
	"io"

	"github.com/NOT-REAL-GAMES/ridge/resource"
)

func init() {
	resource.RegisterDecoder(resource.TypeMaterial, func(r io.Reader) (any, error) {
		return decodeMaterial(r)
	})
}

// TextureSlot binds a named shader sampler slot to a texture resource
// path, resolved by the caller through the same resource manager.
type TextureSlot struct {
	SlotName     string
	TexturePath  string
}

// Material is the decoded value of a (Material) resource file: a named
// shading model plus scalar uniforms and texture slot bindings.
type Material struct {
	ShadingModel string
	Scalars      map[string]float32
	Textures     []TextureSlot
	Transparent  bool
	TwoSided     bool
}

// ResourceTag identifies Material as a resource.TypeMaterial.
func (Material) ResourceTag() resource.Type { return resource.TypeMaterial }

func decodeMaterial(r io.Reader) (Material, error) {
	var m Material
	if _, err := readHeader(r, resource.TypeMaterial); err != nil {
		return Material{}, err
	}

	var err error
	if m.ShadingModel, err = readString(r); err != nil {
		return Material{}, resource.ErrDecodeFailure
	}

	scalarCount, err := readU32(r)
	if err != nil {
		return Material{}, resource.ErrDecodeFailure
	}
	m.Scalars = make(map[string]float32, scalarCount)
	for i := uint32(0); i < scalarCount; i++ {
		name, err := readString(r)
		if err != nil {
			return Material{}, resource.ErrDecodeFailure
		}
		value, err := readF32(r)
		if err != nil {
			return Material{}, resource.ErrDecodeFailure
		}
		m.Scalars[name] = value
	}

	texCount, err := readU32(r)
	if err != nil {
		return Material{}, resource.ErrDecodeFailure
	}
	m.Textures = make([]TextureSlot, texCount)
	for i := range m.Textures {
		t := &m.Textures[i]
		if t.SlotName, err = readString(r); err != nil {
			return Material{}, resource.ErrDecodeFailure
		}
		if t.TexturePath, err = readString(r); err != nil {
			return Material{}, resource.ErrDecodeFailure
		}
	}

	flags, err := readU8(r)
	if err != nil {
		return Material{}, resource.ErrDecodeFailure
	}
	m.Transparent = flags&0x1 != 0
	m.TwoSided = flags&0x2 != 0

	return m, nil
}

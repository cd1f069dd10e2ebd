package decode

import (
	"io"

	"github.com/NOT-REAL-GAMES/ridge/resource"
)

func init() {
	resource.RegisterDecoder(resource.TypeTerrain, func(r io.Reader) (any, error) {
		return decodeTerrain(r)
	})
}

// Terrain is the decoded value of a (Terrain) resource file: a SizeX by
// SizeZ heightmap grid plus world-space scale factors.
type Terrain struct {
	SizeX, SizeZ uint32
	HeightScale  float32
	CellSize     float32
	Heights      []float32 // row-major, SizeX * SizeZ
}

// ResourceTag identifies Terrain as a resource.TypeTerrain.
func (Terrain) ResourceTag() resource.Type { return resource.TypeTerrain }

func decodeTerrain(r io.Reader) (Terrain, error) {
	var t Terrain
	if _, err := readHeader(r, resource.TypeTerrain); err != nil {
		return Terrain{}, err
	}

	var err error
	if t.SizeX, err = readU32(r); err != nil {
		return Terrain{}, resource.ErrDecodeFailure
	}
	if t.SizeZ, err = readU32(r); err != nil {
		return Terrain{}, resource.ErrDecodeFailure
	}
	if t.HeightScale, err = readF32(r); err != nil {
		return Terrain{}, resource.ErrDecodeFailure
	}
	if t.CellSize, err = readF32(r); err != nil {
		return Terrain{}, resource.ErrDecodeFailure
	}

	count := t.SizeX * t.SizeZ
	t.Heights = make([]float32, count)
	for i := range t.Heights {
		if t.Heights[i], err = readF32(r); err != nil {
			return Terrain{}, resource.ErrDecodeFailure
		}
	}
	return t, nil
}

package decode

import (
	"io"

	"github.com/NOT-REAL-GAMES/ridge/resource"
)

func init() {
	resource.RegisterDecoder(resource.TypeMesh, func(r io.Reader) (any, error) {
		return decodeMesh(r)
	})
}

// Vertex is one packed mesh vertex: position, normal, tangent, UV.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	Tangent  [3]float32
	UV       [2]float32
}

// VertexWeight is a per-vertex skinning weight, up to four joints.
type VertexWeight struct {
	JointIndices [4]uint8
	JointWeights [4]uint8
}

// Subpart is a contiguous index-buffer range drawable with one material.
type Subpart struct {
	Name       string
	FirstIndex uint32
	IndexCount uint32
	BaseVertex uint32
}

// Socket is a named attachment transform on the mesh's rest pose.
type Socket struct {
	Name     string
	Position [3]float32
	Rotation [4]float32
}

// SkinJoint is one joint of a mesh's skin definition.
type SkinJoint struct {
	Name            string
	InverseBindPose [16]float32
}

// Mesh is the decoded value of a (Mesh) resource file (spec.md §6.3):
// vertex/weight/lightmap-UV/index/subpart/socket arrays, a skin
// definition, a bounding box, an optional skeleton reference path, a
// skinned flag, and a BVH leaf-primitive hint.
type Mesh struct {
	Vertices    []Vertex
	Weights     []VertexWeight
	LightmapUVs [][2]float32
	Indices     []uint32
	Subparts    []Subpart
	Sockets     []Socket
	Skin        []SkinJoint

	BoundsMin [3]float32
	BoundsMax [3]float32

	Skinned      bool
	SkeletonPath string
	BVHLeafHint  uint32
}

// ResourceTag identifies Mesh as a resource.TypeMesh.
func (Mesh) ResourceTag() resource.Type { return resource.TypeMesh }

func decodeMesh(r io.Reader) (Mesh, error) {
	var m Mesh
	if _, err := readHeader(r, resource.TypeMesh); err != nil {
		return Mesh{}, err
	}

	vertCount, err := readU32(r)
	if err != nil {
		return Mesh{}, resource.ErrDecodeFailure
	}
	m.Vertices = make([]Vertex, vertCount)
	for i := range m.Vertices {
		v := &m.Vertices[i]
		if v.Position, err = readVec3(r); err != nil {
			return Mesh{}, resource.ErrDecodeFailure
		}
		if v.Normal, err = readVec3(r); err != nil {
			return Mesh{}, resource.ErrDecodeFailure
		}
		if v.Tangent, err = readVec3(r); err != nil {
			return Mesh{}, resource.ErrDecodeFailure
		}
		if v.UV, err = readVec2(r); err != nil {
			return Mesh{}, resource.ErrDecodeFailure
		}
	}

	weightCount, err := readU32(r)
	if err != nil {
		return Mesh{}, resource.ErrDecodeFailure
	}
	if weightCount > 0 {
		raw, err := readBytes(r, weightCount*8)
		if err != nil {
			return Mesh{}, resource.ErrDecodeFailure
		}
		m.Weights = make([]VertexWeight, weightCount)
		for i := range m.Weights {
			copy(m.Weights[i].JointIndices[:], raw[i*8:i*8+4])
			copy(m.Weights[i].JointWeights[:], raw[i*8+4:i*8+8])
		}
	}

	lmCount, err := readU32(r)
	if err != nil {
		return Mesh{}, resource.ErrDecodeFailure
	}
	m.LightmapUVs = make([][2]float32, lmCount)
	for i := range m.LightmapUVs {
		if m.LightmapUVs[i], err = readVec2(r); err != nil {
			return Mesh{}, resource.ErrDecodeFailure
		}
	}

	idxCount, err := readU32(r)
	if err != nil {
		return Mesh{}, resource.ErrDecodeFailure
	}
	raw, err := readBytes(r, idxCount*4)
	if err != nil {
		return Mesh{}, resource.ErrDecodeFailure
	}
	m.Indices = make([]uint32, idxCount)
	for i := range m.Indices {
		m.Indices[i] = uint32(raw[i*4]) | uint32(raw[i*4+1])<<8 | uint32(raw[i*4+2])<<16 | uint32(raw[i*4+3])<<24
	}

	subCount, err := readU32(r)
	if err != nil {
		return Mesh{}, resource.ErrDecodeFailure
	}
	m.Subparts = make([]Subpart, subCount)
	for i := range m.Subparts {
		s := &m.Subparts[i]
		if s.Name, err = readString(r); err != nil {
			return Mesh{}, resource.ErrDecodeFailure
		}
		if s.FirstIndex, err = readU32(r); err != nil {
			return Mesh{}, resource.ErrDecodeFailure
		}
		if s.IndexCount, err = readU32(r); err != nil {
			return Mesh{}, resource.ErrDecodeFailure
		}
		if s.BaseVertex, err = readU32(r); err != nil {
			return Mesh{}, resource.ErrDecodeFailure
		}
	}

	sockCount, err := readU32(r)
	if err != nil {
		return Mesh{}, resource.ErrDecodeFailure
	}
	m.Sockets = make([]Socket, sockCount)
	for i := range m.Sockets {
		s := &m.Sockets[i]
		if s.Name, err = readString(r); err != nil {
			return Mesh{}, resource.ErrDecodeFailure
		}
		if s.Position, err = readVec3(r); err != nil {
			return Mesh{}, resource.ErrDecodeFailure
		}
		if s.Rotation, err = readQuat(r); err != nil {
			return Mesh{}, resource.ErrDecodeFailure
		}
	}

	jointCount, err := readU32(r)
	if err != nil {
		return Mesh{}, resource.ErrDecodeFailure
	}
	m.Skin = make([]SkinJoint, jointCount)
	for i := range m.Skin {
		j := &m.Skin[i]
		if j.Name, err = readString(r); err != nil {
			return Mesh{}, resource.ErrDecodeFailure
		}
		for k := range j.InverseBindPose {
			if j.InverseBindPose[k], err = readF32(r); err != nil {
				return Mesh{}, resource.ErrDecodeFailure
			}
		}
	}

	if m.BoundsMin, err = readVec3(r); err != nil {
		return Mesh{}, resource.ErrDecodeFailure
	}
	if m.BoundsMax, err = readVec3(r); err != nil {
		return Mesh{}, resource.ErrDecodeFailure
	}

	skinnedByte, err := readU8(r)
	if err != nil {
		return Mesh{}, resource.ErrDecodeFailure
	}
	m.Skinned = skinnedByte != 0

	if m.SkeletonPath, err = readString(r); err != nil {
		return Mesh{}, resource.ErrDecodeFailure
	}
	if m.BVHLeafHint, err = readU32(r); err != nil {
		return Mesh{}, resource.ErrDecodeFailure
	}

	return m, nil
}

package decode

import (
	"io"

	"github.com/NOT-REAL-GAMES/ridge/resource"
)

func init() {
	resource.RegisterDecoder(resource.TypeCollision, func(r io.Reader) (any, error) {
		return decodeCollision(r)
	})
}

// ShapeKind is the closed enum of primitive collision shapes a Collision
// resource can carry.
type ShapeKind uint8

const (
	ShapeBox ShapeKind = iota
	ShapeSphere
	ShapeCapsule
	ShapeConvexHull
	ShapeTriangleMesh
)

// Shape is one collidable primitive within a Collision resource, in the
// node's local space.
type Shape struct {
	Kind     ShapeKind
	Position [3]float32
	Rotation [4]float32
	// Params holds kind-specific scalars: Box half-extents (3), Sphere
	// radius (1), Capsule radius+half-height (2). ConvexHull and
	// TriangleMesh ignore Params and use Points/Indices instead.
	Params []float32
	Points []float32 // flat xyz triples, ConvexHull/TriangleMesh only
	Indices []uint32  // TriangleMesh only
}

// Collision is the decoded value of a (Collision) resource file: a set of
// primitive shapes composing one rigid collision model.
type Collision struct {
	Shapes []Shape
}

// ResourceTag identifies Collision as a resource.TypeCollision.
func (Collision) ResourceTag() resource.Type { return resource.TypeCollision }

func decodeCollision(r io.Reader) (Collision, error) {
	var c Collision
	if _, err := readHeader(r, resource.TypeCollision); err != nil {
		return Collision{}, err
	}

	shapeCount, err := readU32(r)
	if err != nil {
		return Collision{}, resource.ErrDecodeFailure
	}
	c.Shapes = make([]Shape, shapeCount)
	for i := range c.Shapes {
		s := &c.Shapes[i]
		kind, err := readU8(r)
		if err != nil {
			return Collision{}, resource.ErrDecodeFailure
		}
		s.Kind = ShapeKind(kind)
		if s.Position, err = readVec3(r); err != nil {
			return Collision{}, resource.ErrDecodeFailure
		}
		if s.Rotation, err = readQuat(r); err != nil {
			return Collision{}, resource.ErrDecodeFailure
		}

		paramCount, err := readU32(r)
		if err != nil {
			return Collision{}, resource.ErrDecodeFailure
		}
		s.Params = make([]float32, paramCount)
		for p := range s.Params {
			if s.Params[p], err = readF32(r); err != nil {
				return Collision{}, resource.ErrDecodeFailure
			}
		}

		if s.Kind == ShapeConvexHull || s.Kind == ShapeTriangleMesh {
			pointCount, err := readU32(r)
			if err != nil {
				return Collision{}, resource.ErrDecodeFailure
			}
			s.Points = make([]float32, pointCount*3)
			for p := range s.Points {
				if s.Points[p], err = readF32(r); err != nil {
					return Collision{}, resource.ErrDecodeFailure
				}
			}
		}
		if s.Kind == ShapeTriangleMesh {
			idxCount, err := readU32(r)
			if err != nil {
				return Collision{}, resource.ErrDecodeFailure
			}
			s.Indices = make([]uint32, idxCount)
			for p := range s.Indices {
				if s.Indices[p], err = readU32(r); err != nil {
					return Collision{}, resource.ErrDecodeFailure
				}
			}
		}
	}
	return c, nil
}

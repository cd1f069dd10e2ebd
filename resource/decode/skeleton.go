package decode

import (
	"io"

	"github.com/NOT-REAL-GAMES/ridge/resource"
)

func init() {
	resource.RegisterDecoder(resource.TypeSkeleton, func(r io.Reader) (any, error) {
		return decodeSkeleton(r)
	})
}

// Joint is one bone in a skeleton's rest-pose hierarchy. ParentIndex is -1
// for the root.
type Joint struct {
	Name         string
	ParentIndex  int32
	LocalBindPos [3]float32
	LocalBindRot [4]float32
}

// Skeleton is the decoded value of a (Skeleton) resource file: a flat,
// parent-indexed joint hierarchy in topological (parent-before-child)
// order.
type Skeleton struct {
	Joints []Joint
}

// ResourceTag identifies Skeleton as a resource.TypeSkeleton.
func (Skeleton) ResourceTag() resource.Type { return resource.TypeSkeleton }

func decodeSkeleton(r io.Reader) (Skeleton, error) {
	var s Skeleton
	if _, err := readHeader(r, resource.TypeSkeleton); err != nil {
		return Skeleton{}, err
	}

	jointCount, err := readU32(r)
	if err != nil {
		return Skeleton{}, resource.ErrDecodeFailure
	}
	s.Joints = make([]Joint, jointCount)
	for i := range s.Joints {
		j := &s.Joints[i]
		if j.Name, err = readString(r); err != nil {
			return Skeleton{}, resource.ErrDecodeFailure
		}
		parent, err := readU32(r)
		if err != nil {
			return Skeleton{}, resource.ErrDecodeFailure
		}
		j.ParentIndex = int32(parent) - 1 // on-disk 0 means "no parent"
		if j.LocalBindPos, err = readVec3(r); err != nil {
			return Skeleton{}, resource.ErrDecodeFailure
		}
		if j.LocalBindRot, err = readQuat(r); err != nil {
			return Skeleton{}, resource.ErrDecodeFailure
		}
	}
	return s, nil
}

package decode

import (
	"io"

	"github.com/NOT-REAL-GAMES/ridge/resource"
)

func init() {
	resource.RegisterDecoder(resource.TypeNodeMotion, func(r io.Reader) (any, error) {
		return decodeNodeMotion(r)
	})
}

// MotionKey is a single timed transform sample on a scene-graph node, as
// opposed to Animation's per-joint channels.
type MotionKey struct {
	Time        float32
	Translation [3]float32
	Rotation    [4]float32
	Scale       [3]float32
}

// NodeMotion is the decoded value of a (NodeMotion) resource file: a
// single keyframe track applied directly to a named scene node rather
// than a skinned joint (spec's closed resource-type enum lists it
// separately from Animation for exactly this reason).
type NodeMotion struct {
	NodeName string
	Duration float32
	Keys     []MotionKey
}

// ResourceTag identifies NodeMotion as a resource.TypeNodeMotion.
func (NodeMotion) ResourceTag() resource.Type { return resource.TypeNodeMotion }

func decodeNodeMotion(r io.Reader) (NodeMotion, error) {
	var n NodeMotion
	if _, err := readHeader(r, resource.TypeNodeMotion); err != nil {
		return NodeMotion{}, err
	}

	var err error
	if n.NodeName, err = readString(r); err != nil {
		return NodeMotion{}, resource.ErrDecodeFailure
	}
	if n.Duration, err = readF32(r); err != nil {
		return NodeMotion{}, resource.ErrDecodeFailure
	}

	keyCount, err := readU32(r)
	if err != nil {
		return NodeMotion{}, resource.ErrDecodeFailure
	}
	n.Keys = make([]MotionKey, keyCount)
	for i := range n.Keys {
		k := &n.Keys[i]
		if k.Time, err = readF32(r); err != nil {
			return NodeMotion{}, resource.ErrDecodeFailure
		}
		if k.Translation, err = readVec3(r); err != nil {
			return NodeMotion{}, resource.ErrDecodeFailure
		}
		if k.Rotation, err = readQuat(r); err != nil {
			return NodeMotion{}, resource.ErrDecodeFailure
		}
		if k.Scale, err = readVec3(r); err != nil {
			return NodeMotion{}, resource.ErrDecodeFailure
		}
	}
	return n, nil
}

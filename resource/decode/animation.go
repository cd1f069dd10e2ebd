package decode

import (
	"io"

	"github.com/NOT-REAL-GAMES/ridge/resource"
)

func init() {
	resource.RegisterDecoder(resource.TypeAnimation, func(r io.Reader) (any, error) {
		return decodeAnimation(r)
	})
}

// Keyframe is one sampled pose for a single joint channel.
type Keyframe struct {
	Time        float32
	Translation [3]float32
	Rotation    [4]float32
	Scale       [3]float32
}

// Channel is the keyframe track for one named joint.
type Channel struct {
	JointName string
	Keys      []Keyframe
}

// Animation is the decoded value of an (Animation) resource file: a named
// set of per-joint keyframe channels plus overall duration.
type Animation struct {
	Name     string
	Duration float32
	Channels []Channel
}

// ResourceTag identifies Animation as a resource.TypeAnimation.
func (Animation) ResourceTag() resource.Type { return resource.TypeAnimation }

func decodeAnimation(r io.Reader) (Animation, error) {
	var a Animation
	if _, err := readHeader(r, resource.TypeAnimation); err != nil {
		return Animation{}, err
	}

	var err error
	if a.Name, err = readString(r); err != nil {
		return Animation{}, resource.ErrDecodeFailure
	}
	if a.Duration, err = readF32(r); err != nil {
		return Animation{}, resource.ErrDecodeFailure
	}

	chanCount, err := readU32(r)
	if err != nil {
		return Animation{}, resource.ErrDecodeFailure
	}
	a.Channels = make([]Channel, chanCount)
	for i := range a.Channels {
		c := &a.Channels[i]
		if c.JointName, err = readString(r); err != nil {
			return Animation{}, resource.ErrDecodeFailure
		}
		keyCount, err := readU32(r)
		if err != nil {
			return Animation{}, resource.ErrDecodeFailure
		}
		c.Keys = make([]Keyframe, keyCount)
		for k := range c.Keys {
			key := &c.Keys[k]
			if key.Time, err = readF32(r); err != nil {
				return Animation{}, resource.ErrDecodeFailure
			}
			if key.Translation, err = readVec3(r); err != nil {
				return Animation{}, resource.ErrDecodeFailure
			}
			if key.Rotation, err = readQuat(r); err != nil {
				return Animation{}, resource.ErrDecodeFailure
			}
			if key.Scale, err = readVec3(r); err != nil {
				return Animation{}, resource.ErrDecodeFailure
			}
		}
	}
	return a, nil
}

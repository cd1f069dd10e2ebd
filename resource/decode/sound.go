package decode

import (
	"io"

	"github.com/NOT-REAL-GAMES/ridge/resource"
)

func init() {
	resource.RegisterDecoder(resource.TypeSound, func(r io.Reader) (any, error) {
		return decodeSound(r)
	})
}

// Sound is the decoded value of a (Sound) resource file: a header
// describing the PCM layout plus the raw sample payload. Decoding never
// resamples or transcodes; playback-time mixing is out of scope.
type Sound struct {
	SampleRate uint32
	Channels   uint8
	BitsPerSample uint8
	Looping    bool
	Samples    []byte
}

// ResourceTag identifies Sound as a resource.TypeSound.
func (Sound) ResourceTag() resource.Type { return resource.TypeSound }

func decodeSound(r io.Reader) (Sound, error) {
	var s Sound
	if _, err := readHeader(r, resource.TypeSound); err != nil {
		return Sound{}, err
	}

	var err error
	if s.SampleRate, err = readU32(r); err != nil {
		return Sound{}, resource.ErrDecodeFailure
	}
	if s.Channels, err = readU8(r); err != nil {
		return Sound{}, resource.ErrDecodeFailure
	}
	if s.BitsPerSample, err = readU8(r); err != nil {
		return Sound{}, resource.ErrDecodeFailure
	}
	loopByte, err := readU8(r)
	if err != nil {
		return Sound{}, resource.ErrDecodeFailure
	}
	s.Looping = loopByte != 0

	sampleBytes, err := readU32(r)
	if err != nil {
		return Sound{}, resource.ErrDecodeFailure
	}
	if s.Samples, err = readBytes(r, sampleBytes); err != nil {
		return Sound{}, resource.ErrDecodeFailure
	}
	return s, nil
}

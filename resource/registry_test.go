package resource

import (
	"errors"
	"io"
	"testing"
)

func TestRegisterDecoderAndLookup(t *testing.T) {
	const tag = Type(250)
	want := errors.New("sentinel")
	RegisterDecoder(tag, func(r io.Reader) (any, error) {
		return nil, want
	})

	dec, ok := decoderFor(tag)
	if !ok {
		t.Fatalf("decoderFor(%v) ok = false, want true", tag)
	}
	_, err := dec(nil)
	if !errors.Is(err, want) {
		t.Errorf("registered decoder did not round-trip, got err %v", err)
	}
}

func TestDecoderForUnregisteredTagMissing(t *testing.T) {
	const tag = Type(251)
	if _, ok := decoderFor(tag); ok {
		t.Errorf("decoderFor of a never-registered tag should report ok=false")
	}
}

func TestRegisterDecoderReplacesExisting(t *testing.T) {
	const tag = Type(252)
	RegisterDecoder(tag, func(r io.Reader) (any, error) { return 1, nil })
	RegisterDecoder(tag, func(r io.Reader) (any, error) { return 2, nil })

	dec, ok := decoderFor(tag)
	if !ok {
		t.Fatalf("decoderFor(%v) ok = false after re-registration", tag)
	}
	got, _ := dec(nil)
	if got != 2 {
		t.Errorf("second RegisterDecoder call should win, got %v", got)
	}
}

package decode

import (
	"bytes"
	"errors"
	"testing"

	"github.com/NOT-REAL-GAMES/ridge/resource"
)

func TestReadHeaderAcceptsCurrentVersion(t *testing.T) {
	buf := bytes.NewReader([]byte{'H', 'k', byte(resource.TypeMesh), currentFormatVersion})
	version, err := readHeader(buf, resource.TypeMesh)
	if err != nil {
		t.Fatalf("readHeader: %v", err)
	}
	if version != currentFormatVersion {
		t.Errorf("version = %d, want %d", version, currentFormatVersion)
	}
}

func TestReadHeaderRejectsWrongTag(t *testing.T) {
	buf := bytes.NewReader([]byte{'H', 'k', byte(resource.TypeMesh), currentFormatVersion})
	if _, err := readHeader(buf, resource.TypeTexture); !errors.Is(err, resource.ErrFormatMismatch) {
		t.Errorf("readHeader with mismatched tag = %v, want ErrFormatMismatch", err)
	}
}

func TestReadHeaderRejectsUnknownVersion(t *testing.T) {
	buf := bytes.NewReader([]byte{'H', 'k', byte(resource.TypeMesh), currentFormatVersion + 1})
	if _, err := readHeader(buf, resource.TypeMesh); !errors.Is(err, resource.ErrFormatMismatch) {
		t.Errorf("readHeader with an unrecognised version = %v, want ErrFormatMismatch", err)
	}
}

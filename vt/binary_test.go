package vt

import (
	"bytes"
	"testing"
)

func TestBinaryRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := writeU8(&buf, 0xAB); err != nil {
		t.Fatal(err)
	}
	if err := writeU16(&buf, 0xBEEF); err != nil {
		t.Fatal(err)
	}
	if err := writeU32(&buf, 0xDEADBEEF); err != nil {
		t.Fatal(err)
	}

	u8, err := readU8(&buf)
	if err != nil || u8 != 0xAB {
		t.Errorf("readU8 = (%x, %v), want (ab, nil)", u8, err)
	}
	u16, err := readU16(&buf)
	if err != nil || u16 != 0xBEEF {
		t.Errorf("readU16 = (%x, %v), want (beef, nil)", u16, err)
	}
	u32, err := readU32(&buf)
	if err != nil || u32 != 0xDEADBEEF {
		t.Errorf("readU32 = (%x, %v), want (deadbeef, nil)", u32, err)
	}
}

func TestReadShortBufferErrors(t *testing.T) {
	buf := bytes.NewReader([]byte{1, 2})
	if _, err := readU32(buf); err == nil {
		t.Errorf("readU32 on a 2-byte buffer should error")
	}
}

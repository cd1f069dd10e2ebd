package resource

import "testing"

func TestMakeIDRoundTrip(t *testing.T) {
	id := MakeID(TypeTexture, 12345)
	if id.Tag() != TypeTexture {
		t.Errorf("Tag() = %v, want TypeTexture", id.Tag())
	}
	if id.Slot() != 12345 {
		t.Errorf("Slot() = %d, want 12345", id.Slot())
	}
	if !id.Valid() {
		t.Errorf("MakeID result should be Valid")
	}
}

func TestZeroIDInvalid(t *testing.T) {
	var id ID
	if id.Valid() {
		t.Errorf("zero ID must be invalid")
	}
	if id.Tag() != TypeInvalid {
		t.Errorf("zero ID Tag() = %v, want TypeInvalid", id.Tag())
	}
}

func TestSlotMaskTruncatesOverflow(t *testing.T) {
	id := MakeID(TypeMesh, 0xFFFFFFFF)
	if id.Slot() != slotMask {
		t.Errorf("Slot() = %x, want %x (masked to 24 bits)", id.Slot(), slotMask)
	}
	if id.Tag() != TypeMesh {
		t.Errorf("overflowing slot bits must not bleed into the tag byte, got Tag() = %v", id.Tag())
	}
}

func TestMagicEncodesTypeAndVersion(t *testing.T) {
	m := Magic(TypeFont, 3)
	want := [4]byte{'H', 'k', byte(TypeFont), 3}
	if m != want {
		t.Errorf("Magic(TypeFont, 3) = %v, want %v", m, want)
	}
}

func TestTypeStringKnownAndUnknown(t *testing.T) {
	if got := TypeVirtualTexture.String(); got != "VirtualTexture" {
		t.Errorf("TypeVirtualTexture.String() = %q, want %q", got, "VirtualTexture")
	}
	if got := Type(200).String(); got != "Type(200)" {
		t.Errorf("unknown Type.String() = %q, want %q", got, "Type(200)")
	}
}

func TestIDStringFormat(t *testing.T) {
	var invalid ID
	if got := invalid.String(); got != "ID(invalid)" {
		t.Errorf("invalid ID.String() = %q, want %q", got, "ID(invalid)")
	}
	id := MakeID(TypeSound, 7)
	if got := id.String(); got != "ID(Sound:7)" {
		t.Errorf("ID.String() = %q, want %q", got, "ID(Sound:7)")
	}
}

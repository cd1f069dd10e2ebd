package resource

import "testing"

type fakeTexture struct{}

func (fakeTexture) ResourceTag() Type { return TypeTexture }

type fakeMesh struct{}

func (fakeMesh) ResourceTag() Type { return TypeMesh }

func TestHandleFromIDMatchingTag(t *testing.T) {
	id := MakeID(TypeTexture, 42)
	h := HandleFromID[fakeTexture](id)
	if !h.Valid() {
		t.Fatalf("HandleFromID with matching tag should be Valid")
	}
	if h.ID() != id {
		t.Errorf("h.ID() = %v, want %v", h.ID(), id)
	}
}

func TestHandleFromIDTagMismatch(t *testing.T) {
	id := MakeID(TypeMesh, 42)
	h := HandleFromID[fakeTexture](id)
	if h.Valid() {
		t.Errorf("HandleFromID with mismatched tag should yield an invalid handle")
	}
	if h.ID() != 0 {
		t.Errorf("mismatched HandleFromID should zero the ID, got %v", h.ID())
	}
}

func TestHandleFromInvalidID(t *testing.T) {
	h := HandleFromID[fakeMesh](ID(0))
	if h.Valid() {
		t.Errorf("HandleFromID(0) should be invalid regardless of T")
	}
}

func TestNewHandlePreservesID(t *testing.T) {
	id := MakeID(TypeMesh, 7)
	h := newHandle[fakeMesh](id)
	if h.ID() != id || !h.Valid() {
		t.Errorf("newHandle did not preserve id %v", id)
	}
}

package decode

import (
	"image"
	"io"

	"golang.org/x/image/draw"

	"github.com/NOT-REAL-GAMES/ridge/resource"
)

func init() {
	resource.RegisterDecoder(resource.TypeTexture, func(r io.Reader) (any, error) {
		return decodeTexture(r)
	})
}

// ImageKind is the ImageStorage type enum from spec.md §6.3.
type ImageKind uint8

const (
	Image1D ImageKind = 1 + iota
	Image1DArray
	Image2D
	Image2DArray
	Image3D
	ImageCube
	ImageCubeArray
)

// Texture is the decoded value of a (Texture) resource file: an
// ImageStorage blob describing its kind/format/extents plus one
// contiguous pixel payload per (slice, mip).
type Texture struct {
	Kind       ImageKind
	Format     uint32 // opaque GPU format enum, passed through to gpu.CreateImage
	Width      uint32
	Height     uint32
	Depth      uint32
	MipCount   uint32
	SliceCount uint32

	// Payload[slice][mip] is the raw pixel bytes for that slice/mip pair.
	Payload [][][]byte
}

// ResourceTag identifies Texture as a resource.TypeTexture.
func (Texture) ResourceTag() resource.Type { return resource.TypeTexture }

func decodeTexture(r io.Reader) (Texture, error) {
	var t Texture
	if _, err := readHeader(r, resource.TypeTexture); err != nil {
		return Texture{}, err
	}

	kind, err := readU8(r)
	if err != nil {
		return Texture{}, resource.ErrDecodeFailure
	}
	t.Kind = ImageKind(kind)

	fields := []*uint32{&t.Format, &t.Width, &t.Height, &t.Depth, &t.MipCount, &t.SliceCount}
	for _, f := range fields {
		if *f, err = readU32(r); err != nil {
			return Texture{}, resource.ErrDecodeFailure
		}
	}
	if t.MipCount == 0 || t.SliceCount == 0 {
		return Texture{}, resource.ErrDecodeFailure
	}

	t.Payload = make([][][]byte, t.SliceCount)
	for slice := range t.Payload {
		t.Payload[slice] = make([][]byte, t.MipCount)
		for mip := range t.Payload[slice] {
			size, err := readU32(r)
			if err != nil {
				return Texture{}, resource.ErrDecodeFailure
			}
			buf, err := readBytes(r, size)
			if err != nil {
				return Texture{}, resource.ErrDecodeFailure
			}
			t.Payload[slice][mip] = buf
		}
	}
	if t.MipCount == 1 && t.Kind == Image2D {
		t.generateMipChain()
	}
	return t, nil
}

// formatR8G8B8A8UNorm is VK_FORMAT_R8G8B8A8_UNORM. generateMipChain only
// understands this one uncompressed layout; block-compressed and other
// packed formats keep whatever mip count the file shipped with.
const formatR8G8B8A8UNorm = 37

// generateMipChain fills out a full mip chain for an Image2D resource
// that shipped with only its base level, by bilinear downscaling: each
// level is half of the one before it, starting from mip 0. Authoring tools for materials routinely omit mips for
// textures that are still being iterated on; the loader fills them in
// so the rest of the pipeline never has to special-case MipCount==1.
func (t *Texture) generateMipChain() {
	if t.Format != formatR8G8B8A8UNorm || t.Width == 0 || t.Height == 0 {
		return
	}
	levels := 1
	for w, h := t.Width, t.Height; w > 1 || h > 1; levels++ {
		w, h = max(w/2, 1), max(h/2, 1)
	}
	if levels <= 1 {
		return
	}

	for slice := range t.Payload {
		base := t.Payload[slice][0]
		src := &image.NRGBA{Pix: base, Stride: int(t.Width) * 4, Rect: image.Rect(0, 0, int(t.Width), int(t.Height))}
		mips := make([][]byte, levels)
		mips[0] = base
		w, h := int(t.Width), int(t.Height)
		for mip := 1; mip < levels; mip++ {
			w, h = max(w/2, 1), max(h/2, 1)
			dst := image.NewNRGBA(image.Rect(0, 0, w, h))
			draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
			mips[mip] = dst.Pix
			src = dst
		}
		t.Payload[slice] = mips
	}
	t.MipCount = uint32(levels)
}

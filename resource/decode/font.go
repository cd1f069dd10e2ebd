package decode

/*
#cgo pkg-config: vulkan
#cgo LDFLAGS: -lm

#define STB_TRUETYPE_IMPLEMENTATION
#define STBTT_STATIC
#include <stdlib.h>
#include "stb_truetype.h"
*/
import "C"
import (
	"fmt"
	"image"
	"image/draw"
	"io"
	"unsafe"

	"github.com/NOT-REAL-GAMES/ridge/resource"
)

func init() {
	resource.RegisterDecoder(resource.TypeFont, func(r io.Reader) (any, error) {
		return decodeFont(r)
	})
}

const (
	defaultAtlasWidth  = 512
	defaultAtlasHeight = 512
	defaultFirstChar   = 32
	defaultNumChars    = 96
)

// BakedChar is one glyph's atlas placement and advance metrics, as
// produced by stbtt_BakeFontBitmap.
type BakedChar struct {
	X0, Y0, X1, Y1   uint16
	XOffset, YOffset float32
	XAdvance         float32
}

// Font is the decoded value of a (Font) resource file: the raw TTF bytes
// plus an eagerly-baked ASCII glyph atlas. Baking happens once at decode
// time on the loader thread so the main thread never touches stb_truetype.
type Font struct {
	data   []byte
	handle *C.stbtt_fontinfo

	AtlasWidth  int
	AtlasHeight int
	Atlas       []byte
	Glyphs      []BakedChar
	FirstChar   int
	PixelHeight float32
}

// ResourceTag identifies Font as a resource.TypeFont.
func (Font) ResourceTag() resource.Type { return resource.TypeFont }

func decodeFont(r io.Reader) (Font, error) {
	if _, err := readHeader(r, resource.TypeFont); err != nil {
		return Font{}, err
	}

	sizeBytes, err := readU32(r)
	if err != nil {
		return Font{}, resource.ErrDecodeFailure
	}
	pixelHeight, err := readF32(r)
	if err != nil {
		return Font{}, resource.ErrDecodeFailure
	}
	ttf, err := readBytes(r, sizeBytes)
	if err != nil || len(ttf) == 0 {
		return Font{}, resource.ErrDecodeFailure
	}

	handle := (*C.stbtt_fontinfo)(C.malloc(C.size_t(unsafe.Sizeof(C.stbtt_fontinfo{}))))
	if C.stbtt_InitFont(handle, (*C.uchar)(unsafe.Pointer(&ttf[0])), 0) == 0 {
		C.free(unsafe.Pointer(handle))
		return Font{}, fmt.Errorf("%w: stbtt_InitFont rejected the font data", resource.ErrDecodeFailure)
	}

	atlas := make([]byte, defaultAtlasWidth*defaultAtlasHeight)
	charData := make([]C.stbtt_bakedchar, defaultNumChars)
	result := C.stbtt_BakeFontBitmap(
		(*C.uchar)(unsafe.Pointer(&ttf[0])),
		0,
		C.float(pixelHeight),
		(*C.uchar)(unsafe.Pointer(&atlas[0])),
		C.int(defaultAtlasWidth),
		C.int(defaultAtlasHeight),
		C.int(defaultFirstChar),
		C.int(defaultNumChars),
		&charData[0],
	)
	if result <= 0 {
		C.free(unsafe.Pointer(handle))
		return Font{}, fmt.Errorf("%w: atlas too small for the baked glyph set", resource.ErrDecodeFailure)
	}

	glyphs := make([]BakedChar, defaultNumChars)
	for i := range glyphs {
		c := &charData[i]
		glyphs[i] = BakedChar{
			X0:       uint16(c.x0),
			Y0:       uint16(c.y0),
			X1:       uint16(c.x1),
			Y1:       uint16(c.y1),
			XOffset:  float32(c.xoff),
			YOffset:  float32(c.yoff),
			XAdvance: float32(c.xadvance),
		}
	}

	return Font{
		data:        ttf,
		handle:      handle,
		AtlasWidth:  defaultAtlasWidth,
		AtlasHeight: defaultAtlasHeight,
		Atlas:       atlas,
		Glyphs:      glyphs,
		FirstChar:   defaultFirstChar,
		PixelHeight: pixelHeight,
	}, nil
}

// ScaleForPixelHeight returns the scale factor mapping font units to the
// given pixel height.
func (f *Font) ScaleForPixelHeight(pixelHeight float32) float32 {
	return float32(C.stbtt_ScaleForPixelHeight(f.handle, C.float(pixelHeight)))
}

// GetFontVMetrics returns the font's ascent, descent, and line gap in font
// units.
func (f *Font) GetFontVMetrics() (ascent, descent, lineGap int) {
	var cAscent, cDescent, cLineGap C.int
	C.stbtt_GetFontVMetrics(f.handle, &cAscent, &cDescent, &cLineGap)
	return int(cAscent), int(cDescent), int(cLineGap)
}

// GetCodepointHMetrics returns the advance width and left side bearing
// for a codepoint outside the eagerly-baked ASCII range.
func (f *Font) GetCodepointHMetrics(codepoint int) (advanceWidth, leftSideBearing int) {
	var cAdvance, cLeftBearing C.int
	C.stbtt_GetCodepointHMetrics(f.handle, C.int(codepoint), &cAdvance, &cLeftBearing)
	return int(cAdvance), int(cLeftBearing)
}

// GetCodepointSDF renders a signed-distance-field bitmap for a single
// codepoint on demand, for glyphs not present in the baked atlas.
func (f *Font) GetCodepointSDF(scale float32, codepoint int, padding int, onedgeValue byte, pixelDistScale float32) (bitmap []byte, w, h, xoff, yoff int) {
	var width, height, cxoff, cyoff C.int
	cBitmap := C.stbtt_GetCodepointSDF(
		f.handle,
		C.float(scale),
		C.int(codepoint),
		C.int(padding),
		C.uchar(onedgeValue),
		C.float(pixelDistScale),
		&width, &height, &cxoff, &cyoff,
	)
	if cBitmap == nil {
		return nil, 0, 0, 0, 0
	}

	w, h = int(width), int(height)
	size := w * h
	bitmap = make([]byte, size)
	copy(bitmap, (*[1 << 30]byte)(unsafe.Pointer(cBitmap))[:size:size])
	C.stbtt_FreeSDF((*C.uchar)(cBitmap), nil)
	return bitmap, w, h, int(cxoff), int(cyoff)
}

// ComposeGlyph renders codepoint's SDF bitmap and composites it into the
// atlas at (atlasX, atlasY), growing a BakedChar entry for it. Used for
// glyphs outside the eagerly-baked ASCII range: rather than rebake the
// whole atlas, the caller picks a free atlas rectangle and this just
// blits the one glyph in.
func (f *Font) ComposeGlyph(scale float32, codepoint int, atlasX, atlasY int) (BakedChar, bool) {
	bitmap, w, h, xoff, yoff := f.GetCodepointSDF(scale, codepoint, 1, 180, scale)
	if bitmap == nil {
		return BakedChar{}, false
	}
	if atlasX+w > f.AtlasWidth || atlasY+h > f.AtlasHeight {
		return BakedChar{}, false
	}

	dst := &image.Alpha{Pix: f.Atlas, Stride: f.AtlasWidth, Rect: image.Rect(0, 0, f.AtlasWidth, f.AtlasHeight)}
	src := &image.Alpha{Pix: bitmap, Stride: w, Rect: image.Rect(0, 0, w, h)}
	draw.Draw(dst, image.Rect(atlasX, atlasY, atlasX+w, atlasY+h), src, image.Point{}, draw.Src)

	advance, _ := f.GetCodepointHMetrics(codepoint)
	glyph := BakedChar{
		X0: uint16(atlasX), Y0: uint16(atlasY),
		X1: uint16(atlasX + w), Y1: uint16(atlasY + h),
		XOffset: float32(xoff), YOffset: float32(yoff),
		XAdvance: float32(advance) * scale,
	}
	f.Glyphs = append(f.Glyphs, glyph)
	return glyph, true
}

// Free releases the C-side stbtt_fontinfo. Safe to call once after the
// resource is no longer referenced; a second call is a no-op.
func (f *Font) Free() {
	if f.handle != nil {
		C.free(unsafe.Pointer(f.handle))
		f.handle = nil
	}
}

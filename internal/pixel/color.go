package pixel

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/draw"
	"strconv"
	"strings"
)

// Packing convention.
//
// A pixel is the little-endian load of the four bytes Go's image.RGBA stores
// per pixel, so the red channel sits in the lowest byte lane:
//
//	R | G<<8 | B<<16 | A<<24
//
// Masks are packed the same way. Users usually think in 0xRRGGBBAA notation;
// MaskFromRGBA converts between the two.

// FullMask retains every channel.
const FullMask uint32 = 0xffffffff

// Pack builds a pixel from 8-bit channels.
func Pack(r, g, b, a uint8) uint32 {
	return uint32(r) | uint32(g)<<8 | uint32(b)<<16 | uint32(a)<<24
}

// Unpack splits a pixel into its 8-bit channels.
func Unpack(p uint32) (r, g, b, a uint8) {
	return uint8(p), uint8(p >> 8), uint8(p >> 16), uint8(p >> 24)
}

// MaskFromRGBA converts a 0xRRGGBBAA mask into the packed lane layout.
func MaskFromRGBA(rgba uint32) uint32 {
	return (rgba&0xff)<<24 | (rgba&0xff00)<<8 | (rgba&0xff0000)>>8 | (rgba&0xff000000)>>24
}

// ParseMask parses a 0xRRGGBBAA (or RRGGBBAA, or #RRGGBBAA) string and
// returns the packed mask.
func ParseMask(s string) (uint32, error) {
	t := strings.TrimSpace(s)
	t = strings.TrimPrefix(t, "#")
	t = strings.TrimPrefix(strings.TrimPrefix(t, "0x"), "0X")
	if len(t) != 8 {
		return 0, fmt.Errorf("mask %q: want 8 hex digits (RRGGBBAA)", s)
	}
	v, err := strconv.ParseUint(t, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("mask %q: %w", s, err)
	}
	return MaskFromRGBA(uint32(v)), nil
}

// FormatMask renders a packed mask back in 0xRRGGBBAA notation.
func FormatMask(mask uint32) string {
	// The lane swap is its own inverse.
	return fmt.Sprintf("0x%08x", MaskFromRGBA(mask))
}

// FromRGBA copies img into a dense buffer.
func FromRGBA(img *image.RGBA) Buffer {
	r := img.Bounds()
	w, h := r.Dx(), r.Dy()
	out := Buffer{Pix: make([]uint32, w*h), Width: w, Height: h, Stride: w}
	for y := 0; y < h; y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+w*4]
		dst := out.Pix[y*w : (y+1)*w]
		for x := range dst {
			dst[x] = binary.LittleEndian.Uint32(src[x*4:])
		}
	}
	return out
}

// FromImage converts any image into a dense buffer. Non-RGBA images are
// drawn into an RGBA canvas first, which premultiplies alpha.
func FromImage(img image.Image) Buffer {
	if rgba, ok := img.(*image.RGBA); ok {
		return FromRGBA(rgba)
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return FromRGBA(rgba)
}

// RGBA copies b into a new image.RGBA.
func (b Buffer) RGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, b.Width, b.Height))
	for y := 0; y < b.Height; y++ {
		dst := img.Pix[y*img.Stride:]
		for x, p := range b.Row(y) {
			binary.LittleEndian.PutUint32(dst[x*4:], p)
		}
	}
	return img
}

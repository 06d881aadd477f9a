// Package filter holds in-place pixel transforms used to prepare buffers for
// matching: channel masking, band thresholding and HSL conversion.
package filter

import (
	"errors"
	"fmt"

	"github.com/cwbudde/pixelfind/internal/pixel"
)

// ErrSizeMismatch is returned when source and destination differ in size.
var ErrSizeMismatch = errors.New("filter: buffer sizes differ")

// Mask ANDs every pixel of buf with mask in place.
func Mask(buf pixel.Buffer, mask uint32) {
	if mask == pixel.FullMask {
		return
	}
	for y := 0; y < buf.Height; y++ {
		row := buf.Row(y)
		for x := range row {
			row[x] &= mask
		}
	}
}

// Threshold rewrites the alpha lane of every pixel: 255 when its color lies
// in band, 0 otherwise. Color lanes are left alone.
func Threshold(buf pixel.Buffer, band pixel.Band) {
	for y := 0; y < buf.Height; y++ {
		row := buf.Row(y)
		for x, p := range row {
			if band.Contains(p) {
				row[x] = p | 0xff000000
			} else {
				row[x] = p & 0x00ffffff
			}
		}
	}
}

// ToHSL converts src into dst as 8-bit hue, saturation and lightness in the
// red, green and blue lanes. Alpha is copied. dst and src may be the same
// buffer.
func ToHSL(dst, src pixel.Buffer) error {
	if dst.Width != src.Width || dst.Height != src.Height {
		return fmt.Errorf("%w: %dx%d vs %dx%d", ErrSizeMismatch,
			dst.Width, dst.Height, src.Width, src.Height)
	}
	for y := 0; y < src.Height; y++ {
		in, out := src.Row(y), dst.Row(y)
		for x, p := range in {
			out[x] = hsl(p)
		}
	}
	return nil
}

// hsl is the integer RGB to HSL mapping with every component scaled to
// 0-255. Hue wraps, so 256 steps cover the full circle.
func hsl(p uint32) uint32 {
	r8, g8, b8, a := pixel.Unpack(p)
	r, g, b := int(r8), int(g8), int(b8)

	lo, hi := min(r, g, b), max(r, g, b)
	sum, diff := lo+hi, hi-lo
	l := sum >> 1
	if diff == 0 {
		return pixel.Pack(0, 0, uint8(l), a)
	}

	var s int
	if l >= 128 {
		s = 255 * diff / (510 - sum)
	} else {
		s = 255 * diff / sum
	}

	var h int
	switch hi {
	case r:
		h = 42 * (g - b) / diff
	case g:
		h = 84 + 42*(b-r)/diff
	default:
		h = 168 + 42*(r-g)/diff
	}
	if h < 0 {
		h += 256
	}
	return pixel.Pack(uint8(h), uint8(s), uint8(l), a)
}

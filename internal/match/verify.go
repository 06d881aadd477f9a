package match

import (
	"image"
	"slices"

	"github.com/cwbudde/pixelfind/internal/pixel"
)

// VerifyCrop reports whether needle appears in hay with its top-left corner
// at at. Invalid buffers and offsets that place the needle outside hay
// return false.
func VerifyCrop(hay, needle pixel.Buffer, at image.Point) bool {
	if checkPair(hay, needle) != nil || !fits(hay, needle.Width, needle.Height, at.X, at.Y) {
		return false
	}
	return verifyExact(hay, needle, at.X, at.Y, pixel.FullMask)
}

// VerifyMaskedCrop reports whether hay&mask equals needle at at. The needle
// is expected to be masked already; the mask is applied to hay only.
func VerifyMaskedCrop(hay, needle pixel.Buffer, at image.Point, mask uint32) bool {
	if checkPair(hay, needle) != nil || !fits(hay, needle.Width, needle.Height, at.X, at.Y) {
		return false
	}
	return verifyMasked(hay, needle, at.X, at.Y, mask)
}

// verifyFunc confirms a candidate window. Callers guarantee the window fits.
type verifyFunc func(hay, needle pixel.Buffer, left, top int, mask uint32) bool

func verifyExact(hay, needle pixel.Buffer, left, top int, _ uint32) bool {
	w := needle.Width
	for y := 0; y < needle.Height; y++ {
		if !slices.Equal(hay.Row(top + y)[left:left+w], needle.Row(y)) {
			return false
		}
	}
	return true
}

func verifyMasked(hay, needle pixel.Buffer, left, top int, mask uint32) bool {
	w := needle.Width
	for y := 0; y < needle.Height; y++ {
		hrow := hay.Row(top + y)[left : left+w]
		for x, n := range needle.Row(y) {
			if hrow[x]&mask != n {
				return false
			}
		}
	}
	return true
}

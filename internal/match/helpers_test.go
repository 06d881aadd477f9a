package match

import (
	"image"
	"math/rand"
	"testing"

	"github.com/cwbudde/pixelfind/internal/pixel"
)

// randomBuffer fills a w x h buffer with pixels drawn from palette, or with
// arbitrary 32-bit values when palette is empty.
func randomBuffer(t testing.TB, w, h int, palette []uint32, seed int64) pixel.Buffer {
	t.Helper()
	b, err := pixel.New(w, h)
	if err != nil {
		t.Fatalf("pixel.New(%d, %d): %v", w, h, err)
	}
	rng := rand.New(rand.NewSource(seed))
	for i := range b.Pix {
		if len(palette) == 0 {
			b.Pix[i] = rng.Uint32()
		} else {
			b.Pix[i] = palette[rng.Intn(len(palette))]
		}
	}
	return b
}

// crop returns a dense copy of the w x h window of b at (x, y).
func crop(t testing.TB, b pixel.Buffer, x, y, w, h int) pixel.Buffer {
	t.Helper()
	sub, err := b.Sub(image.Rect(x, y, x+w, y+h))
	if err != nil {
		t.Fatalf("crop %dx%d at (%d,%d): %v", w, h, x, y, err)
	}
	return sub.Clone()
}

// bruteForce lists every offset where the needle verifies, in scan order.
func bruteForce(hay, needle pixel.Buffer, mask uint32) []image.Point {
	var out []image.Point
	for y := 0; y+needle.Height <= hay.Height; y++ {
		for x := 0; x+needle.Width <= hay.Width; x++ {
			if VerifyMaskedCrop(hay, needle, image.Pt(x, y), mask) {
				out = append(out, image.Pt(x, y))
			}
		}
	}
	return out
}

// collect returns a sink appending into *dst.
func collect(dst *[]image.Point) Sink {
	return func(at image.Point) bool {
		*dst = append(*dst, at)
		return true
	}
}

func samePoints(a, b []image.Point) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

var twoColors = []uint32{pixel.Pack(0, 0, 0, 255), pixel.Pack(255, 0, 0, 255)}

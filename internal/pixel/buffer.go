package pixel

import (
	"errors"
	"fmt"
	"image"
	"math"
)

var (
	// ErrInvalidGeometry is returned for non-positive dimensions or a stride
	// narrower than the width.
	ErrInvalidGeometry = errors.New("pixel: invalid buffer geometry")

	// ErrShortBuffer is returned when the backing slice cannot hold the
	// declared geometry.
	ErrShortBuffer = errors.New("pixel: backing slice too short")

	// ErrOutOfBounds is returned when a sub-rectangle leaves the buffer.
	ErrOutOfBounds = errors.New("pixel: rectangle out of bounds")
)

// Buffer is a read-only rectangular view over packed 32-bit pixels.
//
// Row y starts at Pix[y*Stride] and holds Width pixels. Views produced by Sub
// share the parent's backing slice, so Stride may exceed Width.
type Buffer struct {
	Pix    []uint32
	Width  int
	Height int
	Stride int
}

// New allocates a dense, zeroed buffer.
func New(width, height int) (Buffer, error) {
	if width < 1 || height < 1 {
		return Buffer{}, fmt.Errorf("%w: %dx%d", ErrInvalidGeometry, width, height)
	}
	return Buffer{
		Pix:    make([]uint32, width*height),
		Width:  width,
		Height: height,
		Stride: width,
	}, nil
}

// Wrap validates geometry against pix and returns a view over it.
func Wrap(pix []uint32, width, height, stride int) (Buffer, error) {
	if width < 1 || height < 1 || stride < width {
		return Buffer{}, fmt.Errorf("%w: %dx%d stride %d", ErrInvalidGeometry, width, height, stride)
	}
	if height > 1 && stride > (math.MaxInt-width)/(height-1) {
		return Buffer{}, fmt.Errorf("%w: %dx%d stride %d overflows", ErrInvalidGeometry, width, height, stride)
	}
	if need := (height-1)*stride + width; len(pix) < need {
		return Buffer{}, fmt.Errorf("%w: need %d pixels, have %d", ErrShortBuffer, need, len(pix))
	}
	return Buffer{Pix: pix, Width: width, Height: height, Stride: stride}, nil
}

// Validate reports whether b could have been produced by Wrap.
func (b Buffer) Validate() error {
	_, err := Wrap(b.Pix, b.Width, b.Height, b.Stride)
	return err
}

// Bounds returns the buffer rectangle anchored at the origin.
func (b Buffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.Width, b.Height)
}

// Row returns row y, capped so appends cannot spill into the next row.
func (b Buffer) Row(y int) []uint32 {
	off := y * b.Stride
	return b.Pix[off : off+b.Width : off+b.Width]
}

// At returns the pixel at (x, y).
func (b Buffer) At(x, y int) uint32 {
	return b.Pix[y*b.Stride+x]
}

// Set writes the pixel at (x, y).
func (b Buffer) Set(x, y int, v uint32) {
	b.Pix[y*b.Stride+x] = v
}

// Sub returns a view of r, which must lie inside b and be non-empty.
func (b Buffer) Sub(r image.Rectangle) (Buffer, error) {
	if r.Empty() || !r.In(b.Bounds()) {
		return Buffer{}, fmt.Errorf("%w: %v not in %v", ErrOutOfBounds, r, b.Bounds())
	}
	off := r.Min.Y*b.Stride + r.Min.X
	end := (r.Max.Y-1)*b.Stride + r.Max.X
	return Buffer{
		Pix:    b.Pix[off:end:end],
		Width:  r.Dx(),
		Height: r.Dy(),
		Stride: b.Stride,
	}, nil
}

// Clone returns a dense copy of b.
func (b Buffer) Clone() Buffer {
	out := Buffer{
		Pix:    make([]uint32, b.Width*b.Height),
		Width:  b.Width,
		Height: b.Height,
		Stride: b.Width,
	}
	for y := 0; y < b.Height; y++ {
		copy(out.Pix[y*b.Width:], b.Row(y))
	}
	return out
}

// Masked returns a dense copy of b with every pixel ANDed with mask.
func (b Buffer) Masked(mask uint32) Buffer {
	out := b.Clone()
	for i := range out.Pix {
		out.Pix[i] &= mask
	}
	return out
}

// Equal reports whether a and b have the same size and pixels.
func Equal(a, b Buffer) bool {
	if a.Width != b.Width || a.Height != b.Height {
		return false
	}
	for y := 0; y < a.Height; y++ {
		ra, rb := a.Row(y), b.Row(y)
		for x := range ra {
			if ra[x] != rb[x] {
				return false
			}
		}
	}
	return true
}

// Package match implements 2D Rabin-Karp template location over packed pixel
// buffers, plus the exact verifiers and distance comparators around it.
//
// A window's hash folds every column top to bottom with Ky, then folds the
// column hashes left to right with Kx, all modulo M. Digest computes that
// value for a needle; the scanner maintains it incrementally for every
// window of the haystack, so the two must traverse pixels in the same order.
package match

import "github.com/cwbudde/pixelfind/internal/pixel"

// Hasher computes digests and runs scans with a fixed set of HashParams.
// The zero value is not usable; use NewHasher or Default.
type Hasher struct {
	p HashParams
}

// Default is the Hasher used by the package-level functions.
var Default = Hasher{p: DefaultHashParams}

// NewHasher returns a Hasher for p after validating it.
func NewHasher(p HashParams) (Hasher, error) {
	if err := p.Validate(); err != nil {
		return Hasher{}, err
	}
	return Hasher{p: p}, nil
}

// Params returns the hasher's parameters.
func (h Hasher) Params() HashParams { return h.p }

// Digest returns the rolling hash of the whole needle.
func (h Hasher) Digest(needle pixel.Buffer) uint32 {
	return h.digest(needle, pixel.FullMask)
}

// DigestMasked returns the rolling hash of the needle with every pixel ANDed
// with mask first.
func (h Hasher) DigestMasked(needle pixel.Buffer, mask uint32) uint32 {
	return h.digest(needle, mask)
}

func (h Hasher) digest(needle pixel.Buffer, mask uint32) uint32 {
	p := h.p
	var hash uint32
	for x := 0; x < needle.Width; x++ {
		var col uint32
		for y := 0; y < needle.Height; y++ {
			col = p.mulModAdd(col, p.Ky, needle.At(x, y)&mask)
		}
		hash = p.mulModAdd(hash, p.Kx, col)
	}
	return hash
}

// Digest hashes needle with DefaultHashParams.
func Digest(needle pixel.Buffer) uint32 {
	return Default.Digest(needle)
}

// DigestMasked hashes needle&mask with DefaultHashParams.
func DigestMasked(needle pixel.Buffer, mask uint32) uint32 {
	return Default.DigestMasked(needle, mask)
}

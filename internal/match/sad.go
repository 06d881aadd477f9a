package match

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/cwbudde/pixelfind/internal/pixel"
	"golang.org/x/sys/cpu"
)

// Masked SAD (sum of absolute differences) kernel.
//
// For every pixel pair, both sides are ANDed with the mask and the absolute
// differences of all four byte lanes are summed:
//
//	|R1-R2| + |G1-G2| + |B1-B2| + |A1-A2|
//
// Masked-out lanes are zero on both sides and contribute nothing, so the sum
// is zero exactly when the crop equals the needle under the mask, and it is
// symmetric in its two inputs.
//
// Implementations:
//   - sadScalar:   per-pixel reference loop
//   - sadUnrolled: 4 pixels per iteration, branch-free lane arithmetic

// SADBackend indicates which kernel is active for MaskedSumDifference.
type SADBackend int

const (
	SADBackendScalar SADBackend = iota
	SADBackendUnrolled
)

func (b SADBackend) String() string {
	switch b {
	case SADBackendScalar:
		return "scalar"
	case SADBackendUnrolled:
		return "unrolled"
	default:
		return "unknown"
	}
}

// ActiveSADBackend reports which kernel was selected at init.
var ActiveSADBackend SADBackend

// sadKernel sums masked lane differences between the w x h window of hay at
// (left, top) and needle. Callers guarantee the window fits.
type sadKernel func(hay, needle pixel.Buffer, left, top int, mask uint32) int64

var fastSAD sadKernel

func init() {
	// The unrolled loop only pays off on wide out-of-order cores; use the
	// SIMD feature bits as a proxy for those.
	if cpu.X86.HasAVX2 || cpu.ARM64.HasASIMD {
		ActiveSADBackend = SADBackendUnrolled
		fastSAD = sadUnrolled
	} else {
		ActiveSADBackend = SADBackendScalar
		fastSAD = sadScalar
	}
	slog.Debug("SAD kernel initialized", "backend", ActiveSADBackend.String())
}

// MaskedSumDifference returns the masked SAD between needle and the crop of
// hay whose top-left corner is at.
func MaskedSumDifference(hay, needle pixel.Buffer, at image.Point, mask uint32) (int64, error) {
	if err := checkPair(hay, needle); err != nil {
		return 0, err
	}
	if !fits(hay, needle.Width, needle.Height, at.X, at.Y) {
		return 0, fmt.Errorf("%w: %v", ErrOutOfBounds, at)
	}
	return fastSAD(hay, needle, at.X, at.Y, mask), nil
}

func absDiff(a, b uint32) int64 {
	d := int64(a) - int64(b)
	// Branch-free abs: m is 0 or -1.
	m := d >> 63
	return (d ^ m) - m
}

func laneSAD(a, b uint32) int64 {
	return absDiff(a&0xff, b&0xff) +
		absDiff(a>>8&0xff, b>>8&0xff) +
		absDiff(a>>16&0xff, b>>16&0xff) +
		absDiff(a>>24, b>>24)
}

func sadScalar(hay, needle pixel.Buffer, left, top int, mask uint32) int64 {
	var sum int64
	for y := 0; y < needle.Height; y++ {
		hrow := hay.Row(top + y)[left:]
		for x, n := range needle.Row(y) {
			hr, hg, hb, ha := pixel.Unpack(hrow[x] & mask)
			nr, ng, nb, na := pixel.Unpack(n & mask)
			sum += absDiff(uint32(hr), uint32(nr))
			sum += absDiff(uint32(hg), uint32(ng))
			sum += absDiff(uint32(hb), uint32(nb))
			sum += absDiff(uint32(ha), uint32(na))
		}
	}
	return sum
}

func sadUnrolled(hay, needle pixel.Buffer, left, top int, mask uint32) int64 {
	var sum int64
	w := needle.Width
	unroll := w &^ 3

	for y := 0; y < needle.Height; y++ {
		hrow := hay.Row(top + y)[left : left+w]
		nrow := needle.Row(y)

		x := 0
		for ; x < unroll; x += 4 {
			s0 := laneSAD(hrow[x]&mask, nrow[x]&mask)
			s1 := laneSAD(hrow[x+1]&mask, nrow[x+1]&mask)
			s2 := laneSAD(hrow[x+2]&mask, nrow[x+2]&mask)
			s3 := laneSAD(hrow[x+3]&mask, nrow[x+3]&mask)
			sum += s0 + s1 + s2 + s3
		}
		for ; x < w; x++ {
			sum += laneSAD(hrow[x]&mask, nrow[x]&mask)
		}
	}
	return sum
}

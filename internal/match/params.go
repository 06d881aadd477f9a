package match

import "fmt"

// Rolling hash constants.
//
// Kx, Ky < Modulus < 2^31 keeps a*b + c below 2^64 for any a, b < Modulus and
// any 32-bit c, so every step is a single uint64 multiply-add followed by one
// reduction.
const (
	// Kx is the multiplier across column hashes.
	Kx uint32 = 1_000_000_007
	// Ky is the multiplier down a column.
	Ky uint32 = 1_000_000_007
	// Modulus is the hash modulus.
	Modulus uint32 = 2_000_000_011
)

// HashParams selects the multipliers and modulus of the 2D rolling hash.
// Production code uses DefaultHashParams; tests shrink M to force collisions.
type HashParams struct {
	Kx uint32
	Ky uint32
	M  uint32
}

// DefaultHashParams are the constants every digest and scan agree on.
var DefaultHashParams = HashParams{Kx: Kx, Ky: Ky, M: Modulus}

// Validate checks the overflow bound described above.
func (p HashParams) Validate() error {
	if p.M < 2 || p.M > 1<<31 {
		return fmt.Errorf("%w: modulus %d outside [2, 2^31]", ErrInvalidParams, p.M)
	}
	if p.Kx == 0 || p.Kx >= p.M || p.Ky == 0 || p.Ky >= p.M {
		return fmt.Errorf("%w: multipliers must be in [1, %d)", ErrInvalidParams, p.M)
	}
	return nil
}

// (a * b) % m
func (p HashParams) mulMod(a, b uint32) uint32 {
	return uint32(uint64(a) * uint64(b) % uint64(p.M))
}

// (a - b) % m, for a, b < m
func (p HashParams) modSub(a, b uint32) uint32 {
	return uint32((uint64(p.M) + uint64(a) - uint64(b)) % uint64(p.M))
}

// (a * b + c) % m
func (p HashParams) mulModAdd(a, b, c uint32) uint32 {
	return uint32((uint64(a)*uint64(b) + uint64(c)) % uint64(p.M))
}

// pow returns k^n % m.
func (p HashParams) pow(k uint32, n int) uint32 {
	r := uint32(1) % p.M
	for i := 0; i < n; i++ {
		r = p.mulMod(r, k)
	}
	return r
}

// Package locate finds prepared needles in haystack buffers. It wraps the
// rolling-hash scanner in package match with per-needle preparation, scratch
// pooling and result collection.
package locate

import (
	"github.com/cwbudde/pixelfind/internal/match"
	"github.com/cwbudde/pixelfind/internal/pixel"
)

// Needle is a template ready for scanning. Its pixels are already masked, so
// the digest and every verification see the same lanes.
type Needle struct {
	Pixels      pixel.Buffer
	Mask        uint32
	Digest      uint32
	Fingerprint uint64
	params      match.HashParams
}

// Width returns the needle width in pixels.
func (n *Needle) Width() int { return n.Pixels.Width }

// Height returns the needle height in pixels.
func (n *Needle) Height() int { return n.Pixels.Height }

// Prepare copies buf, applies mask and hashes the result with the default
// parameters.
func Prepare(buf pixel.Buffer, mask uint32) (*Needle, error) {
	return defaultLocator.Prepare(buf, mask)
}

func prepare(h match.Hasher, buf pixel.Buffer, mask uint32) (*Needle, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	px := buf.Masked(mask)
	return &Needle{
		Pixels:      px,
		Mask:        mask,
		Digest:      h.DigestMasked(px, mask),
		Fingerprint: pixel.Fingerprint(px, mask),
		params:      h.Params(),
	}, nil
}

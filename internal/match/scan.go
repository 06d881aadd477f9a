package match

import (
	"fmt"
	"image"

	"github.com/cwbudde/pixelfind/internal/pixel"
)

// Sink receives every verified match in scan order: by top row, then by
// column. Returning false stops the scan.
type Sink func(at image.Point) bool

// Result summarizes one scan.
type Result struct {
	// Count is the number of verified matches seen before the scan ended.
	Count int
	// Candidates counts windows whose hash equalled the digest, including
	// collisions rejected by verification.
	Candidates int
	// Last is the top-left corner of the last verified match. Only
	// meaningful when Count > 0.
	Last image.Point
}

// Found reports whether at least one match was verified.
func (r Result) Found() bool { return r.Count > 0 }

// FindCrop scans hay for needle, whose Digest must be digest. scratch holds
// one column hash per haystack column and is overwritten. sink may be nil, in
// which case the whole haystack is scanned and only the last match is kept.
func (h Hasher) FindCrop(hay, needle pixel.Buffer, digest uint32, scratch []uint32, sink Sink) (Result, error) {
	if err := checkScan(hay, needle, scratch); err != nil {
		return Result{}, err
	}
	return h.scan(hay, needle, pixel.FullMask, digest, scratch, verifyExact, sink), nil
}

// FindMaskedCrop is FindCrop with every haystack pixel ANDed with mask before
// hashing and comparison. needle must already be masked and digest must be its
// DigestMasked with the same mask.
func (h Hasher) FindMaskedCrop(hay, needle pixel.Buffer, mask, digest uint32, scratch []uint32, sink Sink) (Result, error) {
	if err := checkScan(hay, needle, scratch); err != nil {
		return Result{}, err
	}
	return h.scan(hay, needle, mask, digest, scratch, verifyMasked, sink), nil
}

// FindCrop runs Default.FindCrop.
func FindCrop(hay, needle pixel.Buffer, digest uint32, scratch []uint32, sink Sink) (Result, error) {
	return Default.FindCrop(hay, needle, digest, scratch, sink)
}

// FindMaskedCrop runs Default.FindMaskedCrop.
func FindMaskedCrop(hay, needle pixel.Buffer, mask, digest uint32, scratch []uint32, sink Sink) (Result, error) {
	return Default.FindMaskedCrop(hay, needle, mask, digest, scratch, sink)
}

func checkScan(hay, needle pixel.Buffer, scratch []uint32) error {
	if err := checkPair(hay, needle); err != nil {
		return err
	}
	if len(scratch) < hay.Width {
		return fmt.Errorf("%w: %d < %d", ErrScratchTooSmall, len(scratch), hay.Width)
	}
	return nil
}

// scan is the 2D Rabin-Karp loop.
//
// col[x] holds the hash of the nh pixels of column x ending at row y. Each
// row folds the new pixel in with Ky and, once the window is full, removes
// the pixel that left it (weighted Ky^nh). Rows from nh-1 on then roll a
// window of nw column hashes across with Kx, removing col[x-nw]*Kx^nw once
// the row window is full. The resulting value equals the digest of the
// nw x nh window ending at (x, y).
func (h Hasher) scan(hay, needle pixel.Buffer, mask, digest uint32, scratch []uint32, verify verifyFunc, sink Sink) Result {
	p := h.p
	nw, nh := needle.Width, needle.Height
	kxw := p.pow(p.Kx, nw)
	kyh := p.pow(p.Ky, nh)

	col := scratch[:hay.Width]
	clear(col)

	var res Result
	for y := 0; y < hay.Height; y++ {
		row := hay.Row(y)
		var old []uint32
		if y >= nh {
			old = hay.Row(y - nh)
		}

		if y < nh-1 {
			for x, px := range row {
				col[x] = p.mulModAdd(col[x], p.Ky, px&mask)
			}
			continue
		}

		top := y - nh + 1
		var hash uint32
		for x, px := range row {
			c := p.mulModAdd(col[x], p.Ky, px&mask)
			if old != nil {
				c = p.modSub(c, p.mulMod(old[x]&mask, kyh))
			}
			col[x] = c

			hash = p.mulModAdd(hash, p.Kx, c)
			if x >= nw {
				hash = p.modSub(hash, p.mulMod(col[x-nw], kxw))
			} else if x < nw-1 {
				continue
			}
			if hash != digest {
				continue
			}

			res.Candidates++
			left := x - nw + 1
			if !verify(hay, needle, left, top, mask) {
				continue
			}
			res.Count++
			res.Last = image.Pt(left, top)
			if sink != nil && !sink(res.Last) {
				return res
			}
		}
	}
	return res
}

// Package objects finds simple shapes made of in-band pixels: tall vertical
// runs (pillars) and 4-connected regions (puddles).
package objects

import (
	"cmp"
	"slices"

	"github.com/cwbudde/pixelfind/internal/pixel"
)

// Pillar is a vertical run of in-band pixels in column X spanning rows
// Top..Bottom inclusive.
type Pillar struct {
	Height int `json:"height"`
	X      int `json:"x"`
	Top    int `json:"top"`
	Bottom int `json:"bottom"`
}

// FindPillars fills out with the len(out) tallest in-band vertical runs of
// buf and returns how many slots were filled. Unused slots are zeroed. The
// result is ordered tallest first, then by column.
//
// Only runs strictly taller than the current shortest kept pillar displace
// it, so among equal heights the leftmost runs win.
func FindPillars(buf pixel.Buffer, band pixel.Band, out []Pillar) int {
	clear(out)
	if len(out) == 0 {
		return 0
	}

	shortest := 0 // index into out
	minHeight := 0
	keep := func(x, run, end int) {
		if run <= minHeight {
			return
		}
		out[shortest] = Pillar{Height: run, X: x, Top: end - run, Bottom: end - 1}
		minHeight = run
		for i := range out {
			if out[i].Height < minHeight {
				minHeight = out[i].Height
				shortest = i
			}
		}
	}

	for x := 0; x < buf.Width; x++ {
		run := 0
		for y := 0; y < buf.Height; y++ {
			if band.Contains(buf.At(x, y)) {
				run++
				continue
			}
			keep(x, run, y)
			run = 0
		}
		keep(x, run, buf.Height)
	}

	slices.SortFunc(out, func(a, b Pillar) int {
		if c := cmp.Compare(b.Height, a.Height); c != 0 {
			return c
		}
		return cmp.Compare(a.X, b.X)
	})
	n := 0
	for _, p := range out {
		if p.Height > 0 {
			n++
		}
	}
	return n
}

package match

import (
	"fmt"
	"image"

	"github.com/cwbudde/pixelfind/internal/pixel"
)

// ThresholdMismatchCount classifies every haystack pixel of the crop at at and
// every needle pixel as in or out of band, and returns how many positions
// disagree. It is a pass/fail comparator, not a distance: a pixel that moves
// within the band costs nothing.
func ThresholdMismatchCount(hay, needle pixel.Buffer, at image.Point, band pixel.Band) (int, error) {
	if err := checkPair(hay, needle); err != nil {
		return 0, err
	}
	if !fits(hay, needle.Width, needle.Height, at.X, at.Y) {
		return 0, fmt.Errorf("%w: %v", ErrOutOfBounds, at)
	}

	mismatches := 0
	for y := 0; y < needle.Height; y++ {
		hrow := hay.Row(at.Y + y)[at.X:]
		for x, n := range needle.Row(y) {
			if band.Contains(hrow[x]) != band.Contains(n) {
				mismatches++
			}
		}
	}
	return mismatches, nil
}

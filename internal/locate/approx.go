package locate

import (
	"fmt"
	"image"
	"math"

	"github.com/cwbudde/pixelfind/internal/match"
	"github.com/cwbudde/pixelfind/internal/opt"
	"github.com/cwbudde/pixelfind/internal/pixel"
)

// Near is the outcome of an approximate search.
type Near struct {
	At    image.Point `json:"at"`
	Score int64       `json:"score"` // masked SAD at At; 0 means an exact match
}

// Approximate searches every top-left offset of hay for the crop closest to
// n by masked sum of absolute differences. Positions are explored by o over
// the box [0, W-w] x [0, H-h]; fractional proposals are rounded. The returned
// score is recomputed at the rounded best position.
func (l *Locator) Approximate(hay pixel.Buffer, n *Needle, o opt.Optimizer) (Near, error) {
	if n == nil {
		return Near{}, fmt.Errorf("approximate: %w", ErrNilNeedle)
	}
	// Surfaces size errors before the optimizer sees an empty box.
	if _, err := match.MaskedSumDifference(hay, n.Pixels, image.Point{}, n.Mask); err != nil {
		return Near{}, fmt.Errorf("approximate: %w", err)
	}

	maxX, maxY := hay.Width-n.Width(), hay.Height-n.Height()
	lower := []float64{0, 0}
	upper := []float64{float64(maxX), float64(maxY)}
	toPoint := func(x []float64) image.Point {
		px := min(max(int(math.Round(x[0])), 0), maxX)
		py := min(max(int(math.Round(x[1])), 0), maxY)
		return image.Pt(px, py)
	}

	objective := func(x []float64) float64 {
		d, err := match.MaskedSumDifference(hay, n.Pixels, toPoint(x), n.Mask)
		if err != nil {
			return math.Inf(1)
		}
		return float64(d)
	}

	best, _, err := o.Minimize(objective, lower, upper)
	if err != nil {
		return Near{}, fmt.Errorf("approximate: %w", err)
	}
	at := toPoint(best)
	score, err := l.Difference(hay, n, at)
	if err != nil {
		return Near{}, fmt.Errorf("approximate: %w", err)
	}
	return Near{At: at, Score: score}, nil
}

// DefaultOptimizer picks an exhaustive grid when the offset box of n in hay
// has at most gridLimit positions, and Mayfly otherwise.
func DefaultOptimizer(hay pixel.Buffer, n *Needle, gridLimit, iters, pop int, seed int64) opt.Optimizer {
	lower := []float64{0, 0}
	upper := []float64{float64(hay.Width - n.Width()), float64(hay.Height - n.Height())}
	if opt.Points(lower, upper) <= gridLimit {
		return opt.Grid{}
	}
	return opt.NewMayfly(iters, pop, seed)
}

package opt

import (
	"fmt"
	"math"
)

// Grid exhaustively evaluates every integer lattice point inside the bounds.
// It is exact and only suitable when the box holds at most MaxPoints points.
type Grid struct {
	MaxPoints int
}

// Points returns how many lattice points the box [lower, upper] contains.
func Points(lower, upper []float64) int {
	n := 1
	for i := range lower {
		span := int(math.Floor(upper[i])-math.Ceil(lower[i])) + 1
		if span <= 0 {
			return 0
		}
		if n > math.MaxInt/span {
			return math.MaxInt
		}
		n *= span
	}
	return n
}

// Minimize walks the lattice in row-major order (last dimension fastest) and
// keeps the first point with the lowest cost.
func (g Grid) Minimize(f Objective, lower, upper []float64) ([]float64, float64, error) {
	if err := checkBounds(lower, upper); err != nil {
		return nil, 0, err
	}
	n := Points(lower, upper)
	if n == 0 {
		return nil, 0, fmt.Errorf("%w: no integer point in box", ErrInvalidBounds)
	}
	if g.MaxPoints > 0 && n > g.MaxPoints {
		return nil, 0, fmt.Errorf("%w: %d lattice points exceed limit %d", ErrInvalidBounds, n, g.MaxPoints)
	}

	dim := len(lower)
	lo := make([]float64, dim)
	hi := make([]float64, dim)
	for i := range lower {
		lo[i], hi[i] = math.Ceil(lower[i]), math.Floor(upper[i])
	}

	x := append([]float64(nil), lo...)
	best := append([]float64(nil), lo...)
	bestCost := math.Inf(1)
	for {
		if c := f(x); c < bestCost {
			bestCost = c
			copy(best, x)
		}
		i := dim - 1
		for ; i >= 0; i-- {
			if x[i] < hi[i] {
				x[i]++
				break
			}
			x[i] = lo[i]
		}
		if i < 0 {
			return best, bestCost, nil
		}
	}
}

// Package opt provides derivative-free minimisers over box-bounded search
// spaces. They back approximate template location, where the objective is a
// pixel difference score and has no usable gradient.
package opt

import (
	"errors"
	"fmt"
)

// ErrInvalidBounds is returned for mismatched or inverted bounds.
var ErrInvalidBounds = errors.New("opt: invalid bounds")

// Objective maps a point of the search space to a cost to minimise.
type Objective func(x []float64) float64

// Optimizer defines an optimization algorithm interface
type Optimizer interface {
	// Minimize searches the box [lower, upper] for the point with the lowest
	// cost. Both slices define the dimensionality and must have equal length.
	Minimize(f Objective, lower, upper []float64) (best []float64, cost float64, err error)
}

func checkBounds(lower, upper []float64) error {
	if len(lower) == 0 || len(lower) != len(upper) {
		return fmt.Errorf("%w: %d lower vs %d upper", ErrInvalidBounds, len(lower), len(upper))
	}
	for i := range lower {
		if lower[i] > upper[i] {
			return fmt.Errorf("%w: dimension %d has %g > %g", ErrInvalidBounds, i, lower[i], upper[i])
		}
	}
	return nil
}

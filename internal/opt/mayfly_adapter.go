package opt

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/cwbudde/mayfly"
)

// minPopulation is the smallest swarm mayfly accepts.
const minPopulation = 20

// MayflyAdapter wraps the external Mayfly library to conform to our Optimizer interface
type MayflyAdapter struct {
	maxIters int
	popSize  int
	seed     int64
}

// NewMayfly creates a new Mayfly optimizer adapter. popSize is raised to the
// library minimum when smaller.
func NewMayfly(maxIters, popSize int, seed int64) *MayflyAdapter {
	return &MayflyAdapter{
		maxIters: maxIters,
		popSize:  max(popSize, minPopulation),
		seed:     seed,
	}
}

// Minimize runs Mayfly on the unit cube and maps positions onto [lower, upper].
// The library only takes one scalar bound pair, so per-dimension boxes are
// handled by normalising every axis.
func (m *MayflyAdapter) Minimize(f Objective, lower, upper []float64) ([]float64, float64, error) {
	if err := checkBounds(lower, upper); err != nil {
		return nil, 0, err
	}
	dim := len(lower)
	denorm := func(u, dst []float64) []float64 {
		for i := range dst {
			v := min(max(u[i], 0), 1)
			dst[i] = lower[i] + v*(upper[i]-lower[i])
		}
		return dst
	}

	config := mayfly.NewDefaultConfig()
	config.ObjectiveFunc = func(u []float64) float64 {
		return f(denorm(u, make([]float64, dim)))
	}
	config.ProblemSize = dim
	config.MaxIterations = m.maxIters
	config.NPop = m.popSize
	config.LowerBound = 0
	config.UpperBound = 1
	config.Rand = rand.New(rand.NewSource(m.seed))

	result, err := mayfly.Optimize(config)
	if err != nil {
		return nil, 0, fmt.Errorf("mayfly: %w", err)
	}

	best := denorm(result.GlobalBest.Position, make([]float64, dim))
	slog.Debug("Mayfly finished", "dim", dim, "iters", m.maxIters, "pop", m.popSize, "cost", result.GlobalBest.Cost)
	return best, result.GlobalBest.Cost, nil
}

package opt

import (
	"errors"
	"testing"
)

func TestGridFindsExactMinimum(t *testing.T) {
	f := func(x []float64) float64 {
		dx, dy := x[0]-7, x[1]-3
		return dx*dx + dy*dy
	}
	best, cost, err := Grid{}.Minimize(f, []float64{0, 0}, []float64{10, 5})
	if err != nil {
		t.Fatal(err)
	}
	if best[0] != 7 || best[1] != 3 || cost != 0 {
		t.Errorf("Grid = %v cost %f, want [7 3] cost 0", best, cost)
	}
}

func TestGridKeepsFirstTie(t *testing.T) {
	flat := func([]float64) float64 { return 1 }
	best, _, err := Grid{}.Minimize(flat, []float64{2, 4}, []float64{5, 9})
	if err != nil {
		t.Fatal(err)
	}
	if best[0] != 2 || best[1] != 4 {
		t.Errorf("Grid = %v, want the first lattice point [2 4]", best)
	}
}

func TestGridLimit(t *testing.T) {
	if n := Points([]float64{0, 0}, []float64{9, 9}); n != 100 {
		t.Fatalf("Points = %d, want 100", n)
	}
	_, _, err := Grid{MaxPoints: 99}.Minimize(sphere, []float64{0, 0}, []float64{9, 9})
	if !errors.Is(err, ErrInvalidBounds) {
		t.Errorf("error %v, want ErrInvalidBounds", err)
	}
	if _, _, err := (Grid{}).Minimize(sphere, []float64{0.2}, []float64{0.8}); !errors.Is(err, ErrInvalidBounds) {
		t.Errorf("box without integer points: error %v, want ErrInvalidBounds", err)
	}
}

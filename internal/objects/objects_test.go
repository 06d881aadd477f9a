package objects

import (
	"image"
	"reflect"
	"testing"

	"github.com/cwbudde/pixelfind/internal/pixel"
)

var (
	red     = pixel.Pack(255, 0, 0, 255)
	black   = pixel.Pack(0, 0, 0, 255)
	redBand = pixel.Band{Min: [3]uint8{200, 0, 0}, Max: [3]uint8{255, 40, 40}}
)

// fromRows builds a buffer where 'I' is red and anything else is black.
func fromRows(t *testing.T, rows ...string) pixel.Buffer {
	t.Helper()
	buf, err := pixel.New(len(rows[0]), len(rows))
	if err != nil {
		t.Fatal(err)
	}
	for y, row := range rows {
		for x, c := range row {
			if c == 'I' {
				buf.Set(x, y, red)
			} else {
				buf.Set(x, y, black)
			}
		}
	}
	return buf
}

func pillarFixture(t *testing.T) pixel.Buffer {
	return fromRows(t,
		"II..I",
		"II.II",
		"I..II",
		"II.II",
		"I....",
	)
}

func TestFindPillars(t *testing.T) {
	buf := pillarFixture(t)

	out := make([]Pillar, 3)
	n := FindPillars(buf, redBand, out)
	want := []Pillar{
		{Height: 5, X: 0, Top: 0, Bottom: 4},
		{Height: 4, X: 4, Top: 0, Bottom: 3},
		{Height: 3, X: 3, Top: 1, Bottom: 3},
	}
	if n != 3 || !reflect.DeepEqual(out, want) {
		t.Errorf("FindPillars = %d %v, want 3 %v", n, out, want)
	}
}

func TestFindPillars_SpareSlots(t *testing.T) {
	buf := pillarFixture(t)

	out := make([]Pillar, 8)
	for i := range out {
		out[i] = Pillar{Height: 99} // stale data must be cleared
	}
	n := FindPillars(buf, redBand, out)
	want := []Pillar{
		{Height: 5, X: 0, Top: 0, Bottom: 4},
		{Height: 4, X: 4, Top: 0, Bottom: 3},
		{Height: 3, X: 3, Top: 1, Bottom: 3},
		{Height: 2, X: 1, Top: 0, Bottom: 1},
		{Height: 1, X: 1, Top: 3, Bottom: 3},
		{}, {}, {},
	}
	if n != 5 || !reflect.DeepEqual(out, want) {
		t.Errorf("FindPillars = %d %v, want 5 %v", n, out, want)
	}
}

func TestFindPillars_TiesKeepLeftmost(t *testing.T) {
	buf := fromRows(t,
		"I.I",
		"I.I",
	)
	out := make([]Pillar, 1)
	FindPillars(buf, redBand, out)
	if out[0].X != 0 {
		t.Errorf("kept pillar at x=%d, want 0", out[0].X)
	}
	if FindPillars(buf, redBand, nil) != 0 {
		t.Error("no slots should find nothing")
	}
}

func puddleFixture(t *testing.T) pixel.Buffer {
	return fromRows(t,
		"II..I",
		".I..I",
		"...II",
		"I....",
	)
}

func TestFindPuddle(t *testing.T) {
	buf := puddleFixture(t)
	out := make([]image.Point, 32)

	steps := [][]image.Point{
		{{0, 0}, {1, 0}, {1, 1}},
		{{4, 0}, {4, 1}, {4, 2}, {3, 2}},
		{{0, 3}},
		{},
	}
	for i, want := range steps {
		n := FindPuddle(buf, redBand, 0, out)
		if got := out[:n]; !samePoints(got, want) {
			t.Fatalf("puddle %d = %v, want %v", i, got, want)
		}
		for _, p := range out[:n] {
			if _, _, _, a := pixel.Unpack(buf.At(p.X, p.Y)); a != 0 {
				t.Errorf("puddle %d: pixel %v not marked visited", i, p)
			}
		}
	}
}

func TestFindPuddle_StartIndex(t *testing.T) {
	buf := puddleFixture(t)
	out := make([]image.Point, 32)

	// Index 6 is (1,1); the fill still reaches back to (0,0).
	n := FindPuddle(buf, redBand, 6, out)
	want := []image.Point{{1, 1}, {1, 0}, {0, 0}}
	if !samePoints(out[:n], want) {
		t.Errorf("puddle = %v, want %v", out[:n], want)
	}

	// Index 10 is (0,2); the first in-band pixel after it is (3,2).
	n = FindPuddle(buf, redBand, 10, out)
	want = []image.Point{{3, 2}, {4, 2}, {4, 1}, {4, 0}}
	if !samePoints(out[:n], want) {
		t.Errorf("puddle from 10 = %v, want %v", out[:n], want)
	}

	if n := FindPuddle(buf, redBand, 14, out); n != 1 || out[0] != image.Pt(0, 3) {
		t.Errorf("puddle from 14 = %v, want [(0,3)]", out[:n])
	}
	if n := FindPuddle(buf, redBand, 100, out); n != 0 {
		t.Errorf("start past the end found %d pixels", n)
	}
}

func TestFindPuddle_StopsWhenFull(t *testing.T) {
	buf := puddleFixture(t)
	out := make([]image.Point, 2)

	n := FindPuddle(buf, redBand, 0, out)
	if n != 2 || out[0] != image.Pt(0, 0) || out[1] != image.Pt(1, 0) {
		t.Fatalf("puddle = %v, want [(0,0) (1,0)]", out[:n])
	}
	if _, _, _, a := pixel.Unpack(buf.At(1, 1)); a != 255 {
		t.Error("pixel beyond the limit should stay unvisited")
	}
}

func TestResetPuddles(t *testing.T) {
	buf := puddleFixture(t)
	orig := buf.Clone()
	out := make([]image.Point, 32)
	for FindPuddle(buf, redBand, 0, out) > 0 {
	}
	if pixel.Equal(buf, orig) {
		t.Fatal("expected visit marks")
	}

	ResetPuddles(buf)
	if !pixel.Equal(buf, orig) {
		t.Error("alpha not completely restored")
	}
}

func samePoints(a, b []image.Point) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

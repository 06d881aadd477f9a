package objects

import (
	"image"

	"github.com/cwbudde/pixelfind/internal/pixel"
)

const alphaMask = 0xff000000

// FindPuddle flood-fills the 4-connected region of in-band pixels that
// starts at the first unvisited in-band pixel whose row-major index is at
// least start. Visited pixels are marked by clearing their alpha lane, which
// also keeps later calls from finding the same puddle again.
//
// Pixel coordinates are written to out in visiting order and the count is
// returned. The fill stops early once out is full. A zero return means no
// unvisited in-band pixel remains at or after start.
func FindPuddle(buf pixel.Buffer, band pixel.Band, start int, out []image.Point) int {
	if len(out) == 0 {
		return 0
	}
	visitable := func(x, y int) bool {
		p := buf.At(x, y)
		return p&alphaMask != 0 && band.Contains(p)
	}
	visit := func(x, y int) {
		buf.Set(x, y, buf.At(x, y)&^alphaMask)
	}

	seed, ok := image.Point{}, false
	for i := max(start, 0); i < buf.Width*buf.Height; i++ {
		x, y := i%buf.Width, i/buf.Width
		if visitable(x, y) {
			seed, ok = image.Pt(x, y), true
			break
		}
	}
	if !ok {
		return 0
	}

	// out doubles as the BFS queue: [head, n) is the frontier.
	visit(seed.X, seed.Y)
	out[0] = seed
	n := 1
	for head := 0; head < n; head++ {
		p := out[head]
		for _, d := range [4]image.Point{{0, -1}, {-1, 0}, {1, 0}, {0, 1}} {
			q := p.Add(d)
			if q.X < 0 || q.Y < 0 || q.X >= buf.Width || q.Y >= buf.Height {
				continue
			}
			if !visitable(q.X, q.Y) {
				continue
			}
			if n == len(out) {
				return n
			}
			visit(q.X, q.Y)
			out[n] = q
			n++
		}
	}
	return n
}

// ResetPuddles sets the alpha lane of every pixel back to 255, undoing the
// visit marks left by FindPuddle.
func ResetPuddles(buf pixel.Buffer) {
	for y := 0; y < buf.Height; y++ {
		row := buf.Row(y)
		for x := range row {
			row[x] |= alphaMask
		}
	}
}

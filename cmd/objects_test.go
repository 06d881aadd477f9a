package cmd

import (
	"bytes"
	"image"
	"strings"
	"testing"

	"github.com/cwbudde/pixelfind/internal/imageio"
	"github.com/cwbudde/pixelfind/internal/objects"
	"github.com/cwbudde/pixelfind/internal/pixel"
)

// fixture builds an opaque buffer where '#' is red and anything else black.
func fixture(t *testing.T, rows ...string) pixel.Buffer {
	t.Helper()
	b, err := pixel.New(len(rows[0]), len(rows))
	if err != nil {
		t.Fatal(err)
	}
	for y, row := range rows {
		for x, c := range row {
			if c == '#' {
				b.Set(x, y, pixel.Pack(255, 0, 0, 255))
			} else {
				b.Set(x, y, pixel.Pack(0, 0, 0, 255))
			}
		}
	}
	return b
}

var redBand = pixel.Band{Min: [3]uint8{200, 0, 0}, Max: [3]uint8{255, 50, 50}}

func TestFindPuddles(t *testing.T) {
	buf := fixture(t,
		"##...",
		"#...#",
		"....#",
		"..#..",
	)

	first := findPuddles(buf, redBand, 0, 16, false)
	if len(first) != 1 || first[0].Pixels != 3 || first[0].Bounds != image.Rect(0, 0, 2, 2) {
		t.Errorf("First puddle = %+v", first)
	}

	all := findPuddles(buf, redBand, 0, 16, true)
	if len(all) != 3 {
		t.Fatalf("Expected 3 puddles, got %d: %+v", len(all), all)
	}
	if all[1].Seed != image.Pt(4, 1) || all[1].Pixels != 2 || all[2].Seed != image.Pt(2, 3) {
		t.Errorf("Unexpected puddles %+v", all)
	}

	// Visit marks are cleared again.
	for _, p := range buf.Pix {
		if p>>24 != 0xff {
			t.Fatal("findPuddles left visited pixels marked")
		}
	}

	capped := findPuddles(buf, redBand, 0, 2, false)
	if capped[0].Pixels != 2 || !capped[0].Full {
		t.Errorf("Capped puddle = %+v", capped[0])
	}
}

func TestPrintPillars(t *testing.T) {
	var out bytes.Buffer
	printPillars(&out, nil)
	if out.String() != "No pillars found.\n" {
		t.Errorf("Got %q", out.String())
	}

	out.Reset()
	printPillars(&out, []objects.Pillar{{Height: 3, X: 1, Top: 0, Bottom: 2}})
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 || strings.Join(strings.Fields(lines[0]), " ") != "HEIGHT X TOP BOTTOM" ||
		strings.Join(strings.Fields(lines[1]), " ") != "3 1 0 2" {
		t.Errorf("Got %q", out.String())
	}
}

func TestRunFilter(t *testing.T) {
	in := writePNG(t, fixture(t, "#.", ".#"), "in.png")
	outPath := strings.TrimSuffix(in, "in.png") + "out.png"

	origBand, origMask, origHSL := filterBand, filterMask, filterHSL
	defer func() { filterBand, filterMask, filterHSL = origBand, origMask, origHSL }()
	filterBand, filterMask, filterHSL = "200-255,0-50,0-50", "", false

	var out bytes.Buffer
	filterCmd.SetOut(&out)
	defer filterCmd.SetOut(nil)
	if err := runFilter(filterCmd, []string{in, outPath}); err != nil {
		t.Fatalf("runFilter failed: %v", err)
	}

	got, err := imageio.Load(outPath)
	if err != nil {
		t.Fatal(err)
	}
	// Out-of-band pixels become fully transparent.
	if got.At(0, 0)>>24 != 0xff || got.At(1, 0)>>24 != 0 {
		t.Errorf("Alpha not thresholded: %08x %08x", got.At(0, 0), got.At(1, 0))
	}
}

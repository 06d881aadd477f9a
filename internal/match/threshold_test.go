package match

import (
	"errors"
	"image"
	"math"
	"testing"

	"github.com/cwbudde/pixelfind/internal/pixel"
)

func TestThresholdMismatchCount(t *testing.T) {
	band := pixel.Band{Min: [3]uint8{200, 0, 0}, Max: [3]uint8{255, 50, 50}}
	in := pixel.Pack(230, 10, 10, 255)
	inToo := pixel.Pack(201, 49, 0, 0)
	out := pixel.Pack(10, 10, 10, 255)

	hay, _ := pixel.New(4, 3)
	for i := range hay.Pix {
		hay.Pix[i] = out
	}
	hay.Set(1, 1, in)
	hay.Set(2, 1, in)

	needle, _ := pixel.New(2, 2)
	needle.Set(0, 0, out)
	needle.Set(1, 0, out)
	needle.Set(0, 1, inToo) // in band, different value: no mismatch
	needle.Set(1, 1, out)   // hay has in-band: mismatch

	got, err := ThresholdMismatchCount(hay, needle, image.Pt(1, 0), band)
	if err != nil {
		t.Fatal(err)
	}
	if got != 1 {
		t.Errorf("mismatches = %d, want 1", got)
	}

	got, err = ThresholdMismatchCount(hay, needle, image.Pt(0, 0), band)
	if err != nil {
		t.Fatal(err)
	}
	// hay window rows: (out,out),(out,in); needle: (out,out),(in,out)
	if got != 2 {
		t.Errorf("mismatches = %d, want 2", got)
	}

	for _, at := range []image.Point{{3, 0}, {math.MaxInt, 0}, {0, math.MaxInt}} {
		if _, err := ThresholdMismatchCount(hay, needle, at, band); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("offset %v: error %v, want ErrOutOfBounds", at, err)
		}
	}
}

func TestThresholdMismatchCount_SelfIsZero(t *testing.T) {
	hay := randomBuffer(t, 32, 32, nil, 8)
	needle := crop(t, hay, 3, 4, 10, 10)
	band := pixel.Band{Min: [3]uint8{0, 64, 0}, Max: [3]uint8{128, 255, 200}}

	got, err := ThresholdMismatchCount(hay, needle, image.Pt(3, 4), band)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Errorf("a crop should classify like itself, got %d mismatches", got)
	}
}

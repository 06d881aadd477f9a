package pixel

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"
)

func TestWrapValidation(t *testing.T) {
	tests := []struct {
		name    string
		pix     int
		w, h, s int
		wantErr error
	}{
		{"dense", 12, 4, 3, 4, nil},
		{"padded last row may be short", 10, 4, 2, 6, nil},
		{"zero width", 12, 0, 3, 4, ErrInvalidGeometry},
		{"negative height", 12, 4, -1, 4, ErrInvalidGeometry},
		{"stride below width", 12, 4, 3, 3, ErrInvalidGeometry},
		{"short slice", 11, 4, 3, 4, ErrShortBuffer},
		{"stride overflows", 10, 4, 3, math.MaxInt / 2, ErrInvalidGeometry},
		{"height overflows", 10, 1, math.MaxInt, 2, ErrInvalidGeometry},
		{"single huge row is only short", 10, math.MaxInt, 1, math.MaxInt, ErrShortBuffer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Wrap(make([]uint32, tt.pix), tt.w, tt.h, tt.s)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Wrap error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSubSharesMemory(t *testing.T) {
	b, err := New(5, 4)
	if err != nil {
		t.Fatal(err)
	}
	for i := range b.Pix {
		b.Pix[i] = uint32(i)
	}

	sub, err := b.Sub(image.Rect(1, 1, 4, 3))
	if err != nil {
		t.Fatalf("Sub failed: %v", err)
	}
	if sub.Width != 3 || sub.Height != 2 || sub.Stride != 5 {
		t.Fatalf("unexpected geometry %dx%d stride %d", sub.Width, sub.Height, sub.Stride)
	}
	if got := sub.At(0, 0); got != 6 {
		t.Errorf("sub.At(0,0) = %d, want 6", got)
	}
	if got := sub.At(2, 1); got != 13 {
		t.Errorf("sub.At(2,1) = %d, want 13", got)
	}
	if err := sub.Validate(); err != nil {
		t.Errorf("sub view does not validate: %v", err)
	}

	sub.Set(0, 0, 99)
	if b.At(1, 1) != 99 {
		t.Error("Sub view should share the parent's pixels")
	}

	dense := sub.Clone()
	if dense.Stride != 3 || !Equal(dense, sub) {
		t.Error("Clone should produce an equal dense buffer")
	}
}

func TestSubRejectsOutside(t *testing.T) {
	b, _ := New(4, 4)
	for _, r := range []image.Rectangle{
		image.Rect(-1, 0, 2, 2),
		image.Rect(2, 2, 5, 3),
		image.Rect(1, 1, 1, 3),
	} {
		if _, err := b.Sub(r); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("Sub(%v) error = %v, want ErrOutOfBounds", r, err)
		}
	}
}

func TestMaskFromRGBA(t *testing.T) {
	cases := map[uint32]uint32{
		0x12345678: 0x78563412,
		0xff000000: 0x000000ff,
		0x00ff0000: 0x0000ff00,
		0x0000ff00: 0x00ff0000,
		0x000000ff: 0xff000000,
		0xffffff00: 0x00ffffff,
	}
	for in, want := range cases {
		if got := MaskFromRGBA(in); got != want {
			t.Errorf("MaskFromRGBA(%08x) = %08x, want %08x", in, got, want)
		}
	}
}

func TestParseMask(t *testing.T) {
	for _, s := range []string{"0xffffff00", "FFFFFF00", "#ffffff00"} {
		m, err := ParseMask(s)
		if err != nil {
			t.Fatalf("ParseMask(%q): %v", s, err)
		}
		if m != 0x00ffffff {
			t.Errorf("ParseMask(%q) = %08x", s, m)
		}
		if FormatMask(m) != "0xffffff00" {
			t.Errorf("FormatMask(%08x) = %s", m, FormatMask(m))
		}
	}

	for _, s := range []string{"", "0xfff", "zzzzzzzz"} {
		if _, err := ParseMask(s); err == nil {
			t.Errorf("ParseMask(%q) should fail", s)
		}
	}
}

func TestRGBARoundTrip(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.SetRGBA(1, 0, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	img.SetRGBA(2, 1, color.RGBA{R: 200, G: 0, B: 7, A: 128})

	b := FromRGBA(img)
	if got := b.At(1, 0); got != Pack(10, 20, 30, 255) {
		t.Errorf("At(1,0) = %08x, want %08x", got, Pack(10, 20, 30, 255))
	}
	r, g, bl, a := Unpack(b.At(2, 1))
	if r != 200 || g != 0 || bl != 7 || a != 128 {
		t.Errorf("Unpack = %d,%d,%d,%d", r, g, bl, a)
	}

	back := b.RGBA()
	for i := range img.Pix {
		if back.Pix[i] != img.Pix[i] {
			t.Fatalf("byte %d differs: %d vs %d", i, back.Pix[i], img.Pix[i])
		}
	}
}

func TestFromRGBASubImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.SetRGBA(2, 3, color.RGBA{R: 1, G: 2, B: 3, A: 4})

	sub := img.SubImage(image.Rect(1, 2, 4, 4)).(*image.RGBA)
	b := FromRGBA(sub)
	if b.Width != 3 || b.Height != 2 {
		t.Fatalf("geometry %dx%d, want 3x2", b.Width, b.Height)
	}
	if got := b.At(1, 1); got != Pack(1, 2, 3, 4) {
		t.Errorf("At(1,1) = %08x", got)
	}
}

func TestFingerprint(t *testing.T) {
	a, _ := New(3, 3)
	for i := range a.Pix {
		a.Pix[i] = Pack(uint8(i), uint8(i*3), 9, 255)
	}

	parent, _ := New(6, 5)
	view, _ := parent.Sub(image.Rect(2, 1, 5, 4))
	for y := 0; y < 3; y++ {
		copy(view.Row(y), a.Row(y))
	}

	if Fingerprint(a, FullMask) != Fingerprint(view, FullMask) {
		t.Error("stride should not affect the fingerprint")
	}

	alphaless := a.Clone()
	alphaless.Set(0, 0, alphaless.At(0, 0)&0x00ffffff)
	if Fingerprint(a, FullMask) == Fingerprint(alphaless, FullMask) {
		t.Error("different pixels should fingerprint differently")
	}
	if Fingerprint(a, 0x00ffffff) != Fingerprint(alphaless, 0x00ffffff) {
		t.Error("masked-out channels should not affect the fingerprint")
	}
	if Fingerprint(a, 0x00ffffff) == Fingerprint(a, FullMask) {
		t.Error("the mask is part of the identity")
	}
}

func TestParseRect(t *testing.T) {
	r, err := ParseRect("10, 20,30,5")
	if err != nil {
		t.Fatal(err)
	}
	if r != image.Rect(10, 20, 40, 25) {
		t.Errorf("ParseRect = %v", r)
	}
	for _, bad := range []string{"", "1,2,3", "1,2,0,4", "a,b,c,d", "1,2,3,-1"} {
		if _, err := ParseRect(bad); err == nil {
			t.Errorf("ParseRect(%q) should fail", bad)
		}
	}
}

func TestParseBand(t *testing.T) {
	b, err := ParseBand("230-255, 150-220,0-120")
	if err != nil {
		t.Fatal(err)
	}
	want := Band{Min: [3]uint8{230, 150, 0}, Max: [3]uint8{255, 220, 120}}
	if b != want {
		t.Errorf("ParseBand = %+v, want %+v", b, want)
	}
	if !b.Contains(Pack(240, 200, 50, 0)) || b.Contains(Pack(240, 200, 121, 255)) {
		t.Error("Contains disagrees with the parsed band")
	}
	for _, bad := range []string{"1-2,3-4", "1-2,3-4,5", "9-1,0-0,0-0", "0-256,0-0,0-0"} {
		if _, err := ParseBand(bad); err == nil {
			t.Errorf("ParseBand(%q) should fail", bad)
		}
	}
}

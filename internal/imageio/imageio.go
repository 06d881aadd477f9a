// Package imageio reads and writes image files as pixel buffers.
package imageio

import (
	"fmt"
	"image"
	"io"

	"github.com/cwbudde/pixelfind/internal/pixel"
	"github.com/disintegration/imaging"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Load decodes the image file at path. EXIF orientation is applied so that
// photos line up with what a viewer shows.
func Load(path string) (pixel.Buffer, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return pixel.Buffer{}, fmt.Errorf("load %s: %w", path, err)
	}
	return pixel.FromImage(img), nil
}

// Decode reads an encoded image from r.
func Decode(r io.Reader) (pixel.Buffer, error) {
	img, err := imaging.Decode(r)
	if err != nil {
		return pixel.Buffer{}, fmt.Errorf("decode: %w", err)
	}
	return pixel.FromImage(img), nil
}

// Save writes buf to path; the format follows the file extension.
func Save(path string, buf pixel.Buffer) error {
	if err := imaging.Save(buf.RGBA(), path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// Encode writes buf to w as PNG.
func Encode(w io.Writer, buf pixel.Buffer) error {
	return imaging.Encode(w, buf.RGBA(), imaging.PNG)
}

// Scale resizes buf by factor with nearest-neighbour sampling, which keeps
// pixel values exact so scaled needles can still match exactly.
func Scale(buf pixel.Buffer, factor float64) (pixel.Buffer, error) {
	if factor <= 0 {
		return pixel.Buffer{}, fmt.Errorf("scale: factor %g must be positive", factor)
	}
	w := max(int(float64(buf.Width)*factor+0.5), 1)
	h := max(int(float64(buf.Height)*factor+0.5), 1)
	img := imaging.Resize(buf.RGBA(), w, h, imaging.NearestNeighbor)
	return pixel.FromImage(img), nil
}

// Crop returns a dense copy of the rectangle r of buf.
func Crop(buf pixel.Buffer, r image.Rectangle) (pixel.Buffer, error) {
	sub, err := buf.Sub(r)
	if err != nil {
		return pixel.Buffer{}, err
	}
	return sub.Clone(), nil
}

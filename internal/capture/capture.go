// Package capture grabs haystacks from the live screen.
package capture

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/cwbudde/pixelfind/internal/pixel"
	"github.com/kbinani/screenshot"
)

// ErrNoDisplay is returned when the requested display does not exist.
var ErrNoDisplay = errors.New("capture: no such display")

// Displays returns the bounds of every active display in virtual screen
// coordinates.
func Displays() []image.Rectangle {
	n := screenshot.NumActiveDisplays()
	out := make([]image.Rectangle, n)
	for i := range out {
		out[i] = screenshot.GetDisplayBounds(i)
	}
	return out
}

// Display captures the whole of display i.
func Display(i int) (pixel.Buffer, error) {
	if n := screenshot.NumActiveDisplays(); i < 0 || i >= n {
		return pixel.Buffer{}, fmt.Errorf("%w: %d of %d", ErrNoDisplay, i, n)
	}
	img, err := screenshot.CaptureDisplay(i)
	if err != nil {
		return pixel.Buffer{}, fmt.Errorf("capture display %d: %w", i, err)
	}
	slog.Debug("Captured display", "display", i, "bounds", img.Bounds().String())
	return pixel.FromRGBA(img), nil
}

// Region captures r in virtual screen coordinates.
func Region(r image.Rectangle) (pixel.Buffer, error) {
	if r.Empty() {
		return pixel.Buffer{}, fmt.Errorf("capture region %v: empty rectangle", r)
	}
	img, err := screenshot.CaptureRect(r)
	if err != nil {
		return pixel.Buffer{}, fmt.Errorf("capture region %v: %w", r, err)
	}
	slog.Debug("Captured region", "rect", r.String())
	return pixel.FromRGBA(img), nil
}

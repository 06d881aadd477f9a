package match

import (
	"errors"
	"fmt"

	"github.com/cwbudde/pixelfind/internal/pixel"
)

var (
	// ErrInvalidParams is returned for hash parameters that could overflow.
	ErrInvalidParams = errors.New("match: invalid hash parameters")

	// ErrNeedleTooLarge is returned when the needle does not fit in the haystack.
	ErrNeedleTooLarge = errors.New("match: needle larger than haystack")

	// ErrScratchTooSmall is returned when the column hash scratch is shorter
	// than the haystack width.
	ErrScratchTooSmall = errors.New("match: scratch shorter than haystack width")

	// ErrOutOfBounds is returned when a comparison offset places the needle
	// outside the haystack.
	ErrOutOfBounds = errors.New("match: needle offset out of bounds")
)

// checkBuffer rejects views whose geometry does not fit their backing slice.
func checkBuffer(name string, b pixel.Buffer) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// checkPair validates both buffers and that needle fits inside hay.
func checkPair(hay, needle pixel.Buffer) error {
	if err := checkBuffer("haystack", hay); err != nil {
		return err
	}
	if err := checkBuffer("needle", needle); err != nil {
		return err
	}
	if needle.Width > hay.Width || needle.Height > hay.Height {
		return fmt.Errorf("%w: %dx%d in %dx%d", ErrNeedleTooLarge,
			needle.Width, needle.Height, hay.Width, hay.Height)
	}
	return nil
}

// fits reports whether a needle of size w x h placed at (x, y) stays in hay.
// The comparisons subtract from the haystack size so huge offsets cannot wrap.
func fits(hay pixel.Buffer, w, h, x, y int) bool {
	return x >= 0 && y >= 0 && w <= hay.Width && h <= hay.Height &&
		x <= hay.Width-w && y <= hay.Height-h
}

package locate

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/cwbudde/pixelfind/internal/match"
	"github.com/cwbudde/pixelfind/internal/pixel"
)

var (
	// ErrParamsMismatch is returned when a needle was prepared by a locator
	// with different hash parameters.
	ErrParamsMismatch = errors.New("locate: needle prepared with different hash parameters")

	// ErrNilNeedle is returned when no needle is given.
	ErrNilNeedle = errors.New("locate: nil needle")
)

// Locator scans haystacks for needles. It is safe for concurrent use; every
// scan borrows its own column-hash scratch from a pool.
type Locator struct {
	hasher  match.Hasher
	scratch sync.Pool
}

var defaultLocator = &Locator{hasher: match.Default}

// Default returns the shared locator using match.DefaultHashParams.
func Default() *Locator { return defaultLocator }

// New returns a locator hashing with p.
func New(p match.HashParams) (*Locator, error) {
	h, err := match.NewHasher(p)
	if err != nil {
		return nil, err
	}
	return &Locator{hasher: h}, nil
}

// Params returns the hash parameters of l.
func (l *Locator) Params() match.HashParams { return l.hasher.Params() }

// Prepare copies buf, applies mask and hashes the result.
func (l *Locator) Prepare(buf pixel.Buffer, mask uint32) (*Needle, error) {
	return prepare(l.hasher, buf, mask)
}

func (l *Locator) getScratch(width int) *[]uint32 {
	if v, ok := l.scratch.Get().(*[]uint32); ok && cap(*v) >= width {
		*v = (*v)[:width]
		return v
	}
	s := make([]uint32, width)
	return &s
}

// Scan runs the scanner over hay and hands every verified match to sink.
func (l *Locator) Scan(hay pixel.Buffer, n *Needle, sink match.Sink) (match.Result, error) {
	if n == nil {
		return match.Result{}, ErrNilNeedle
	}
	if n.params != l.hasher.Params() {
		return match.Result{}, ErrParamsMismatch
	}
	if err := hay.Validate(); err != nil {
		return match.Result{}, fmt.Errorf("haystack: %w", err)
	}
	buf := l.getScratch(hay.Width)
	defer l.scratch.Put(buf)

	if n.Mask == pixel.FullMask {
		return l.hasher.FindCrop(hay, n.Pixels, n.Digest, *buf, sink)
	}
	return l.hasher.FindMaskedCrop(hay, n.Pixels, n.Mask, n.Digest, *buf, sink)
}

// FindAll returns the top-left corners of up to limit matches in scan order
// (rows top to bottom, columns left to right). A limit of zero or less
// returns every match.
func (l *Locator) FindAll(hay pixel.Buffer, n *Needle, limit int) ([]image.Point, match.Result, error) {
	var found []image.Point
	res, err := l.Scan(hay, n, func(at image.Point) bool {
		found = append(found, at)
		return limit <= 0 || len(found) < limit
	})
	if err != nil {
		return nil, res, fmt.Errorf("find: %w", err)
	}
	slog.Debug("Needle scan complete",
		"haystack", fmt.Sprintf("%dx%d", hay.Width, hay.Height),
		"needle", fmt.Sprintf("%dx%d", n.Width(), n.Height()),
		"matches", res.Count, "candidates", res.Candidates)
	return found, res, nil
}

// First returns the first match in scan order.
func (l *Locator) First(hay pixel.Buffer, n *Needle) (image.Point, bool, error) {
	found, _, err := l.FindAll(hay, n, 1)
	if err != nil || len(found) == 0 {
		return image.Point{}, false, err
	}
	return found[0], true, nil
}

// Count returns the number of matches without collecting them.
func (l *Locator) Count(hay pixel.Buffer, n *Needle) (int, error) {
	res, err := l.Scan(hay, n, nil)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return res.Count, nil
}

// Verify reports whether n matches hay exactly at at, under the needle mask.
func (l *Locator) Verify(hay pixel.Buffer, n *Needle, at image.Point) bool {
	if n == nil {
		return false
	}
	if n.Mask == pixel.FullMask {
		return match.VerifyCrop(hay, n.Pixels, at)
	}
	return match.VerifyMaskedCrop(hay, n.Pixels, at, n.Mask)
}

// Difference returns the masked sum of absolute differences between n and
// the crop of hay at at.
func (l *Locator) Difference(hay pixel.Buffer, n *Needle, at image.Point) (int64, error) {
	if n == nil {
		return 0, ErrNilNeedle
	}
	return match.MaskedSumDifference(hay, n.Pixels, at, n.Mask)
}

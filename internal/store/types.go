package store

import (
	"time"

	"github.com/cwbudde/pixelfind/internal/locate"
	"github.com/cwbudde/pixelfind/internal/pixel"
)

// Record is the metadata saved next to a needle's pixels.
type Record struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	Mask        uint32    `json:"mask"` // packed lane layout
	Digest      uint32    `json:"digest"`
	Fingerprint uint64    `json:"fingerprint,string"`
	Created     time.Time `json:"created"`
}

// RecordFor describes a prepared needle. The id is left empty for Save to
// assign.
func RecordFor(name string, n *locate.Needle) *Record {
	return &Record{
		Name:        name,
		Width:       n.Width(),
		Height:      n.Height(),
		Mask:        n.Mask,
		Digest:      n.Digest,
		Fingerprint: n.Fingerprint,
	}
}

// MaskString renders the mask in 0xRRGGBBAA notation.
func (r Record) MaskString() string {
	return pixel.FormatMask(r.Mask)
}

// Needle prepares stored pixels for scanning with l.
func (r Record) Needle(l *locate.Locator, pix pixel.Buffer) (*locate.Needle, error) {
	return l.Prepare(pix, r.Mask)
}

package pixel

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint returns a 64-bit content id for b as seen through mask.
//
// Two buffers share a fingerprint when they have the same size and the same
// masked pixels, regardless of stride. It is an identity key for needle
// libraries, not the search digest.
func Fingerprint(b Buffer, mask uint32) uint64 {
	d := xxhash.New()
	var hdr [12]byte
	binary.LittleEndian.PutUint32(hdr[0:], uint32(b.Width))
	binary.LittleEndian.PutUint32(hdr[4:], uint32(b.Height))
	binary.LittleEndian.PutUint32(hdr[8:], mask)
	d.Write(hdr[:])

	row := make([]byte, b.Width*4)
	for y := 0; y < b.Height; y++ {
		for x, p := range b.Row(y) {
			binary.LittleEndian.PutUint32(row[x*4:], p&mask)
		}
		d.Write(row)
	}
	return d.Sum64()
}

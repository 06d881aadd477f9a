package pixel

import (
	"fmt"
	"strconv"
	"strings"
)

// Band is an inclusive per-channel range over the three color lanes. The
// auxiliary (alpha) lane is not classified.
type Band struct {
	Min [3]uint8
	Max [3]uint8
}

// Contains reports whether every color channel of p lies in the band.
func (b Band) Contains(p uint32) bool {
	r, g, bl, _ := Unpack(p)
	return r >= b.Min[0] && r <= b.Max[0] &&
		g >= b.Min[1] && g <= b.Max[1] &&
		bl >= b.Min[2] && bl <= b.Max[2]
}

// ParseBand parses "minR-maxR,minG-maxG,minB-maxB", e.g. "230-255,150-220,0-120".
func ParseBand(s string) (Band, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return Band{}, fmt.Errorf("band %q: want three min-max ranges", s)
	}
	var b Band
	for i, part := range parts {
		lo, hi, ok := strings.Cut(strings.TrimSpace(part), "-")
		if !ok {
			return Band{}, fmt.Errorf("band %q: range %q has no '-'", s, part)
		}
		from, err := strconv.ParseUint(strings.TrimSpace(lo), 10, 8)
		if err != nil {
			return Band{}, fmt.Errorf("band %q: %w", s, err)
		}
		to, err := strconv.ParseUint(strings.TrimSpace(hi), 10, 8)
		if err != nil {
			return Band{}, fmt.Errorf("band %q: %w", s, err)
		}
		if from > to {
			return Band{}, fmt.Errorf("band %q: min %d above max %d", s, from, to)
		}
		b.Min[i], b.Max[i] = uint8(from), uint8(to)
	}
	return b, nil
}

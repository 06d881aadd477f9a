package pixel

import (
	"fmt"
	"image"
	"strconv"
	"strings"
)

// ParseRect parses "x,y,w,h" into a rectangle.
func ParseRect(s string) (image.Rectangle, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, fmt.Errorf("rect %q: want x,y,w,h", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return image.Rectangle{}, fmt.Errorf("rect %q: %w", s, err)
		}
		v[i] = n
	}
	if v[2] < 1 || v[3] < 1 {
		return image.Rectangle{}, fmt.Errorf("rect %q: width and height must be positive", s)
	}
	return image.Rect(v[0], v[1], v[0]+v[2], v[1]+v[3]), nil
}

package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cwbudde/pixelfind/internal/capture"
	"github.com/cwbudde/pixelfind/internal/imageio"
	"github.com/cwbudde/pixelfind/internal/locate"
	"github.com/cwbudde/pixelfind/internal/pixel"
	"github.com/cwbudde/pixelfind/internal/store"
)

func openStore() (*store.FSStore, error) {
	st, err := store.NewFSStore(cfg.StoreDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open needle store: %w", err)
	}
	return st, nil
}

// haystackFlags selects where a haystack comes from: an image file argument
// or a screen capture.
type haystackFlags struct {
	screen  bool
	display int
	rect    string
	scale   float64
}

func (f *haystackFlags) register(c *cobra.Command) {
	c.Flags().BoolVar(&f.screen, "screen", false, "Capture the haystack from a display instead of a file")
	c.Flags().IntVar(&f.display, "display", 0, "Display index for --screen")
	c.Flags().StringVar(&f.rect, "rect", "", "Restrict the haystack to x,y,w,h (screen or file coordinates)")
	c.Flags().Float64Var(&f.scale, "scale", 1, "Resize the haystack by this factor before scanning")
}

// load returns the haystack and a label describing its origin.
func (f *haystackFlags) load(args []string) (pixel.Buffer, string, error) {
	var (
		hay   pixel.Buffer
		label string
		err   error
	)

	switch {
	case f.screen:
		if f.rect != "" {
			r, perr := pixel.ParseRect(f.rect)
			if perr != nil {
				return pixel.Buffer{}, "", perr
			}
			hay, err = capture.Region(r)
			label = "screen " + f.rect
		} else {
			hay, err = capture.Display(f.display)
			label = fmt.Sprintf("display %d", f.display)
		}
	case len(args) > 0:
		label = args[0]
		hay, err = imageio.Load(args[0])
		if err == nil && f.rect != "" {
			r, perr := pixel.ParseRect(f.rect)
			if perr != nil {
				return pixel.Buffer{}, "", perr
			}
			hay, err = imageio.Crop(hay, r)
		}
	default:
		return pixel.Buffer{}, "", errors.New("a haystack image path or --screen is required")
	}
	if err != nil {
		return pixel.Buffer{}, "", fmt.Errorf("haystack %s: %w", label, err)
	}

	if f.scale != 0 && f.scale != 1 {
		if hay, err = imageio.Scale(hay, f.scale); err != nil {
			return pixel.Buffer{}, "", err
		}
	}
	slog.Debug("Loaded haystack", "source", label, "width", hay.Width, "height", hay.Height)
	return hay, label, nil
}

// resolveNeedle prepares a needle from an image file, or from the library
// by id or name. maskStr applies to files only; stored needles keep the
// mask they were saved with. An empty maskStr means the configured mask.
func resolveNeedle(ref, maskStr string) (*locate.Needle, string, error) {
	if ref == "" {
		return nil, "", errors.New("--needle is required")
	}

	if _, err := os.Stat(ref); err == nil {
		mask := cfg.MaskValue()
		if maskStr != "" {
			if mask, err = pixel.ParseMask(maskStr); err != nil {
				return nil, "", err
			}
		}
		buf, err := imageio.Load(ref)
		if err != nil {
			return nil, "", fmt.Errorf("needle %s: %w", ref, err)
		}
		n, err := locate.Prepare(buf, mask)
		if err != nil {
			return nil, "", fmt.Errorf("needle %s: %w", ref, err)
		}
		return n, ref, nil
	}

	st, err := openStore()
	if err != nil {
		return nil, "", err
	}
	rec, pix, err := st.Resolve(ref)
	if err != nil {
		return nil, "", fmt.Errorf("needle %s: %w", ref, err)
	}
	n, err := rec.Needle(locate.Default(), pix)
	if err != nil {
		return nil, "", fmt.Errorf("needle %s: %w", ref, err)
	}
	return n, rec.ID, nil
}

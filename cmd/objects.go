package cmd

import (
	"errors"
	"fmt"
	"image"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/pixelfind/internal/filter"
	"github.com/cwbudde/pixelfind/internal/imageio"
	"github.com/cwbudde/pixelfind/internal/objects"
	"github.com/cwbudde/pixelfind/internal/pixel"
)

var (
	objectsBand string
	objectsHSL  bool
	pillarCount int
	puddleStart int
	puddleMax   int
	puddleAll   bool
	filterMask  string
	filterBand  string
	filterHSL   bool
)

var pillarsCmd = &cobra.Command{
	Use:   "pillars <image>",
	Short: "List the tallest vertical runs of in-band pixels",
	Args:  cobra.ExactArgs(1),
	RunE:  runPillars,
}

var puddleCmd = &cobra.Command{
	Use:   "puddle <image>",
	Short: "Flood-fill connected regions of in-band pixels",
	Long: `Finds the 4-connected region of in-band pixels that starts at the first
in-band pixel at or after linear index --start. With --all, keeps going until
every region has been reported.`,
	Args: cobra.ExactArgs(1),
	RunE: runPuddle,
}

var filterCmd = &cobra.Command{
	Use:   "filter <in> <out>",
	Short: "Apply mask, HSL and threshold transforms to an image",
	Long: `Writes a transformed copy of an image. Steps run in this order: --hsl
converts to 0-255 HSL, --mask clears channels, --band sets alpha to 255 for
in-band pixels and 0 otherwise.`,
	Args: cobra.ExactArgs(2),
	RunE: runFilter,
}

func init() {
	for _, c := range []*cobra.Command{pillarsCmd, puddleCmd} {
		c.Flags().StringVar(&objectsBand, "band", "", "Color band minR-maxR,minG-maxG,minB-maxB (required)")
		c.Flags().BoolVar(&objectsHSL, "hsl", false, "Classify in HSL instead of RGB")
		c.MarkFlagRequired("band")
	}
	pillarsCmd.Flags().IntVar(&pillarCount, "count", 5, "Number of pillars to keep")
	puddleCmd.Flags().IntVar(&puddleStart, "start", 0, "Linear pixel index to start searching from")
	puddleCmd.Flags().IntVar(&puddleMax, "max", 4096, "Maximum pixels per region")
	puddleCmd.Flags().BoolVar(&puddleAll, "all", false, "Report every region")

	filterCmd.Flags().StringVar(&filterMask, "mask", "", "Channel mask 0xRRGGBBAA")
	filterCmd.Flags().StringVar(&filterBand, "band", "", "Threshold band minR-maxR,minG-maxG,minB-maxB")
	filterCmd.Flags().BoolVar(&filterHSL, "hsl", false, "Convert to HSL first")

	rootCmd.AddCommand(pillarsCmd, puddleCmd, filterCmd)
}

// loadClassified loads an image for band classification, converted to HSL
// when asked.
func loadClassified(path string, hsl bool) (pixel.Buffer, pixel.Band, error) {
	band, err := pixel.ParseBand(objectsBand)
	if err != nil {
		return pixel.Buffer{}, pixel.Band{}, err
	}
	buf, err := imageio.Load(path)
	if err != nil {
		return pixel.Buffer{}, pixel.Band{}, err
	}
	if hsl {
		if err := filter.ToHSL(buf, buf); err != nil {
			return pixel.Buffer{}, pixel.Band{}, err
		}
	}
	return buf, band, nil
}

func runPillars(cmd *cobra.Command, args []string) error {
	if pillarCount <= 0 {
		return errors.New("--count must be positive")
	}
	buf, band, err := loadClassified(args[0], objectsHSL)
	if err != nil {
		return err
	}

	pillars := make([]objects.Pillar, pillarCount)
	n := objects.FindPillars(buf, band, pillars)
	printPillars(cmd.OutOrStdout(), pillars[:n])
	return nil
}

func printPillars(out io.Writer, pillars []objects.Pillar) {
	if len(pillars) == 0 {
		fmt.Fprintln(out, "No pillars found.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "HEIGHT\tX\tTOP\tBOTTOM")
	for _, p := range pillars {
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\n", p.Height, p.X, p.Top, p.Bottom)
	}
	w.Flush()
}

// puddle summarises one flood-filled region.
type puddle struct {
	Seed   image.Point
	Pixels int
	Bounds image.Rectangle
	Full   bool // region may continue past the buffer
}

// findPuddles reports regions starting from linear index start. It stops
// after the first region unless all is set. Visited pixels are restored
// before returning.
func findPuddles(buf pixel.Buffer, band pixel.Band, start, limit int, all bool) []puddle {
	defer objects.ResetPuddles(buf)

	points := make([]image.Point, limit)
	var out []puddle
	for {
		n := objects.FindPuddle(buf, band, start, points)
		if n == 0 {
			return out
		}
		p := puddle{Seed: points[0], Pixels: n, Full: n == limit}
		p.Bounds = image.Rectangle{Min: points[0], Max: points[0].Add(image.Pt(1, 1))}
		for _, pt := range points[1:n] {
			p.Bounds = p.Bounds.Union(image.Rectangle{Min: pt, Max: pt.Add(image.Pt(1, 1))})
		}
		out = append(out, p)
		if !all {
			return out
		}
		start = points[0].Y*buf.Width + points[0].X + 1
	}
}

func runPuddle(cmd *cobra.Command, args []string) error {
	if puddleMax <= 0 {
		return errors.New("--max must be positive")
	}
	buf, band, err := loadClassified(args[0], objectsHSL)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	puddles := findPuddles(buf, band, puddleStart, puddleMax, puddleAll)
	if len(puddles) == 0 {
		fmt.Fprintln(out, "No puddles found.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tPIXELS\tBOUNDS")
	for _, p := range puddles {
		pixels := fmt.Sprint(p.Pixels)
		if p.Full {
			pixels += "+"
		}
		fmt.Fprintf(w, "%d,%d\t%s\t%v\n", p.Seed.X, p.Seed.Y, pixels, p.Bounds)
	}
	w.Flush()
	return nil
}

func runFilter(cmd *cobra.Command, args []string) error {
	buf, err := imageio.Load(args[0])
	if err != nil {
		return err
	}
	if filterHSL {
		if err := filter.ToHSL(buf, buf); err != nil {
			return err
		}
	}
	if filterMask != "" {
		mask, err := pixel.ParseMask(filterMask)
		if err != nil {
			return err
		}
		filter.Mask(buf, mask)
	}
	if filterBand != "" {
		band, err := pixel.ParseBand(filterBand)
		if err != nil {
			return err
		}
		filter.Threshold(buf, band)
	}
	if err := imageio.Save(args[1], buf); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", args[1])
	return nil
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cwbudde/pixelfind/internal/imageio"
	"github.com/cwbudde/pixelfind/internal/locate"
	"github.com/cwbudde/pixelfind/internal/pixel"
)

var digestMask string

var digestCmd = &cobra.Command{
	Use:   "digest <image>",
	Short: "Print the rolling-hash digest of a needle image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mask := cfg.MaskValue()
		if digestMask != "" {
			var err error
			if mask, err = pixel.ParseMask(digestMask); err != nil {
				return err
			}
		}
		buf, err := imageio.Load(args[0])
		if err != nil {
			return err
		}
		n, err := locate.Prepare(buf, mask)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Size: %dx%d\n", n.Width(), n.Height())
		fmt.Fprintf(out, "Mask: %s\n", pixel.FormatMask(n.Mask))
		fmt.Fprintf(out, "Digest: %d (0x%08x)\n", n.Digest, n.Digest)
		fmt.Fprintf(out, "Fingerprint: %016x\n", n.Fingerprint)
		return nil
	},
}

func init() {
	digestCmd.Flags().StringVar(&digestMask, "mask", "", "Channel mask 0xRRGGBBAA (default match.mask)")
	rootCmd.AddCommand(digestCmd)
}

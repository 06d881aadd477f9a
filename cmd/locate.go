package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/pixelfind/internal/locate"
	"github.com/cwbudde/pixelfind/internal/pixel"
	"github.com/cwbudde/pixelfind/internal/server"
)

var (
	locateHay    haystackFlags
	locateNeedle string
	locateMask   string
	locateLimit  int
	locateApprox bool
	locateJSON   bool
)

var locateCmd = &cobra.Command{
	Use:   "locate [haystack]",
	Short: "Find every exact occurrence of a needle",
	Long: `Scans a haystack image (or a screen capture with --screen) for a needle and
prints the top-left corner of each verified match in scan order.

--needle accepts an image file or the id or name of a stored needle.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLocate,
}

func init() {
	locateHay.register(locateCmd)
	locateCmd.Flags().StringVar(&locateNeedle, "needle", "", "Needle image file, or stored needle id or name (required)")
	locateCmd.Flags().StringVar(&locateMask, "mask", "", "Channel mask 0xRRGGBBAA for file needles (default match.mask)")
	locateCmd.Flags().IntVar(&locateLimit, "limit", 0, "Stop after N matches, 0 = unlimited (default match.limit)")
	locateCmd.Flags().BoolVar(&locateApprox, "approx", false, "Report the closest position when there is no exact match")
	locateCmd.Flags().BoolVar(&locateJSON, "json", false, "Print the result as JSON")

	locateCmd.MarkFlagRequired("needle")
	rootCmd.AddCommand(locateCmd)
}

func runLocate(cmd *cobra.Command, args []string) error {
	limit := cfg.Match.Limit
	if cmd.Flags().Changed("limit") {
		limit = locateLimit
	}

	n, name, err := resolveNeedle(locateNeedle, locateMask)
	if err != nil {
		return err
	}
	hay, label, err := locateHay.load(args)
	if err != nil {
		return err
	}

	resp, err := locateOnce(hay, n, name, limit, locateApprox)
	if err != nil {
		return err
	}
	slog.Debug("Locate finished", "needle", name, "haystack", label, "count", resp.Count,
		"candidates", resp.Candidates, "elapsed", resp.Elapsed)
	return printLocate(cmd.OutOrStdout(), resp, locateJSON)
}

// locateOnce scans hay for n and, when asked and nothing matched, runs the
// approximate search with the configured optimizer settings.
func locateOnce(hay pixel.Buffer, n *locate.Needle, name string, limit int, approx bool) (server.LocateResponse, error) {
	l := locate.Default()

	start := time.Now()
	found, res, err := l.FindAll(hay, n, limit)
	if err != nil {
		return server.LocateResponse{}, err
	}

	resp := server.LocateResponse{
		NeedleID:   name,
		Matches:    make([]server.Match, len(found)),
		Count:      res.Count,
		Candidates: res.Candidates,
		Limited:    limit > 0 && res.Count == limit,
		Elapsed:    time.Since(start).Seconds(),
	}
	for i, p := range found {
		resp.Matches[i] = server.Match{X: p.X, Y: p.Y}
	}

	if approx && !res.Found() {
		a := cfg.Approx
		o := locate.DefaultOptimizer(hay, n, a.GridLimit, a.Iters, a.Pop, a.Seed)
		near, err := l.Approximate(hay, n, o)
		if err != nil {
			return server.LocateResponse{}, err
		}
		resp.Near = &near
	}
	return resp, nil
}

func printLocate(w io.Writer, resp server.LocateResponse, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	for _, m := range resp.Matches {
		fmt.Fprintf(w, "%d,%d\n", m.X, m.Y)
	}
	switch {
	case resp.Count == 0 && resp.Near != nil:
		fmt.Fprintf(w, "No exact match. Closest at %d,%d (difference %d)\n",
			resp.Near.At.X, resp.Near.At.Y, resp.Near.Score)
	case resp.Count == 0:
		fmt.Fprintln(w, "No match.")
	case resp.Limited:
		fmt.Fprintf(w, "%d match(es), limit reached\n", resp.Count)
	default:
		fmt.Fprintf(w, "%d match(es)\n", resp.Count)
	}
	return nil
}

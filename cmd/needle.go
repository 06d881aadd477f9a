package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/pixelfind/internal/imageio"
	"github.com/cwbudde/pixelfind/internal/locate"
	"github.com/cwbudde/pixelfind/internal/pixel"
	"github.com/cwbudde/pixelfind/internal/store"
)

var (
	needleName    string
	needleMask    string
	needleRect    string
	keepLast      int
	olderThanDays int
	forcePrune    bool
)

var needleCmd = &cobra.Command{
	Use:   "needle",
	Short: "Manage the needle library",
	Long: `Manage stored needles. A stored needle keeps its pixels, mask and digest so
locate, diff and the server can refer to it by id or name.`,
}

var addNeedleCmd = &cobra.Command{
	Use:   "add <image>",
	Short: "Store a needle image",
	Args:  cobra.ExactArgs(1),
	RunE:  runAddNeedle,
}

var listNeedlesCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored needles",
	RunE:  runListNeedles,
}

var removeNeedleCmd = &cobra.Command{
	Use:   "rm <id|name>...",
	Short: "Delete stored needles",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRemoveNeedles,
}

var pruneNeedlesCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old needles",
	Long: `Delete needles based on retention policy.
You can keep only the newest N needles or delete needles older than N days.`,
	RunE: runPruneNeedles,
}

func init() {
	rootCmd.AddCommand(needleCmd)
	needleCmd.AddCommand(addNeedleCmd, listNeedlesCmd, removeNeedleCmd, pruneNeedlesCmd)

	addNeedleCmd.Flags().StringVar(&needleName, "name", "", "Needle name (default: file name)")
	addNeedleCmd.Flags().StringVar(&needleMask, "mask", "", "Channel mask 0xRRGGBBAA (default match.mask)")
	addNeedleCmd.Flags().StringVar(&needleRect, "rect", "", "Store only the x,y,w,h crop of the image")

	pruneNeedlesCmd.Flags().IntVar(&keepLast, "keep-last", 0, "Keep only the newest N needles (0 = keep all)")
	pruneNeedlesCmd.Flags().IntVar(&olderThanDays, "older-than", 0, "Delete needles older than N days (0 = no age limit)")
	pruneNeedlesCmd.Flags().BoolVarP(&forcePrune, "force", "f", false, "Skip confirmation prompt")
}

func cmdOut(cmd *cobra.Command) io.Writer {
	if cmd == nil {
		return os.Stdout
	}
	return cmd.OutOrStdout()
}

func runAddNeedle(cmd *cobra.Command, args []string) error {
	mask := cfg.MaskValue()
	if needleMask != "" {
		var err error
		if mask, err = pixel.ParseMask(needleMask); err != nil {
			return err
		}
	}
	name := needleName
	if name == "" {
		name = filepath.Base(args[0])
	}

	rec, created, err := addNeedle(args[0], name, mask, needleRect)
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(cmdOut(cmd), "Stored %s (%s, %dx%d)\n", rec.ID, rec.Name, rec.Width, rec.Height)
	} else {
		fmt.Fprintf(cmdOut(cmd), "Already stored as %s (%s)\n", rec.ID, rec.Name)
	}
	return nil
}

// addNeedle stores the image at path unless an identical needle exists.
func addNeedle(path, name string, mask uint32, rect string) (*store.Record, bool, error) {
	buf, err := imageio.Load(path)
	if err != nil {
		return nil, false, err
	}
	if rect != "" {
		r, err := pixel.ParseRect(rect)
		if err != nil {
			return nil, false, err
		}
		if buf, err = imageio.Crop(buf, r); err != nil {
			return nil, false, err
		}
	}
	n, err := locate.Prepare(buf, mask)
	if err != nil {
		return nil, false, err
	}

	st, err := openStore()
	if err != nil {
		return nil, false, err
	}
	if existing, err := st.FindByFingerprint(n.Fingerprint); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}

	rec := store.RecordFor(name, n)
	if err := st.Save(rec, n.Pixels); err != nil {
		return nil, false, fmt.Errorf("failed to save needle: %w", err)
	}
	slog.Info("Stored needle", "id", rec.ID, "name", name)
	return rec, true, nil
}

func runListNeedles(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	records, err := st.List()
	if err != nil {
		return fmt.Errorf("failed to list needles: %w", err)
	}

	out := cmdOut(cmd)
	if len(records) == 0 {
		fmt.Fprintln(out, "No needles found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSIZE\tMASK\tCREATED\tDISK")
	fmt.Fprintln(w, "--\t----\t----\t----\t-------\t----")

	for _, rec := range records {
		size, err := getDirSize(st.Dir(rec.ID))
		sizeStr := "unknown"
		if err == nil {
			sizeStr = formatBytes(size)
		}

		fmt.Fprintf(w, "%s\t%s\t%dx%d\t%s\t%s\t%s\n",
			rec.ID,
			rec.Name,
			rec.Width, rec.Height,
			rec.MaskString(),
			rec.Created.Local().Format("2006-01-02 15:04:05"),
			sizeStr,
		)
	}

	w.Flush()

	fmt.Fprintf(out, "\nTotal needles: %d\n", len(records))
	return nil
}

func runRemoveNeedles(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	for _, ref := range args {
		rec, _, err := st.Resolve(ref)
		if err != nil {
			return err
		}
		if err := st.Delete(rec.ID); err != nil {
			return err
		}
		fmt.Fprintf(cmdOut(cmd), "Deleted %s (%s)\n", rec.ID, rec.Name)
	}
	return nil
}

func runPruneNeedles(cmd *cobra.Command, args []string) error {
	if keepLast == 0 && olderThanDays == 0 {
		return fmt.Errorf("must specify either --keep-last or --older-than")
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	records, err := st.List()
	if err != nil {
		return fmt.Errorf("failed to list needles: %w", err)
	}

	out := cmdOut(cmd)
	toDelete := selectNeedlesForDeletion(records, keepLast, olderThanDays, time.Now())
	if len(toDelete) == 0 {
		fmt.Fprintln(out, "No needles match deletion criteria.")
		return nil
	}

	fmt.Fprintf(out, "Found %d needle(s) to delete:\n", len(toDelete))
	for _, rec := range toDelete {
		fmt.Fprintf(out, "  - %s (%s, %s)\n", rec.ID, rec.Name, rec.Created.Local().Format("2006-01-02 15:04:05"))
	}

	if !forcePrune {
		fmt.Fprint(out, "\nProceed with deletion? [y/N]: ")
		var response string
		fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	deleted, failed := 0, 0
	for _, rec := range toDelete {
		if err := st.Delete(rec.ID); err != nil {
			slog.Error("Failed to delete needle", "id", rec.ID, "error", err)
			failed++
		} else {
			slog.Info("Deleted needle", "id", rec.ID)
			deleted++
		}
	}

	fmt.Fprintf(out, "\nDeleted %d needle(s), %d failed.\n", deleted, failed)
	return nil
}

// selectNeedlesForDeletion returns the records older than olderThanDays
// plus the oldest records beyond the newest keepLast, oldest first and
// without duplicates. Zero disables either rule.
func selectNeedlesForDeletion(records []store.Record, keepLast, olderThanDays int, now time.Time) []store.Record {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b store.Record) int { return a.Created.Compare(b.Created) })

	excess := 0
	if keepLast > 0 && len(sorted) > keepLast {
		excess = len(sorted) - keepLast
	}
	cutoff := now.AddDate(0, 0, -olderThanDays)

	var toDelete []store.Record
	for i, rec := range sorted {
		tooOld := olderThanDays > 0 && rec.Created.Before(cutoff)
		if i < excess || tooOld {
			toDelete = append(toDelete, rec)
		}
	}
	return toDelete
}

// getDirSize calculates the total size of a directory
func getDirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}

// formatBytes formats bytes as human-readable string
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

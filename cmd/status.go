package cmd

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/pixelfind/internal/server"
)

var (
	serverURL      string
	watchNeedle    string
	watchDisplay   int
	watchInterval  time.Duration
	watchMaxFrames int
	watchStopFound bool
	watchFollow    bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Manage display watches on a running server",
	Long: `A watch captures a display repeatedly on the server and locates one stored
needle in every frame. These commands talk to a server started with
"pixelfind serve".`,
}

var watchStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a watch",
	RunE:  runWatchStart,
}

var watchStatusCmd = &cobra.Command{
	Use:   "status [watch-id]",
	Short: "Query all watches or a specific watch",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWatchStatus,
}

var watchStopCmd = &cobra.Command{
	Use:   "stop <watch-id>",
	Short: "Stop a watch",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatchStop,
}

func init() {
	watchCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")

	watchStartCmd.Flags().StringVar(&watchNeedle, "needle", "", "Stored needle id (required)")
	watchStartCmd.Flags().IntVar(&watchDisplay, "display", 0, "Display index")
	watchStartCmd.Flags().DurationVar(&watchInterval, "interval", 500*time.Millisecond, "Time between captures")
	watchStartCmd.Flags().IntVar(&watchMaxFrames, "frames", 0, "Stop after N frames (0 = until stopped)")
	watchStartCmd.Flags().BoolVar(&watchStopFound, "stop-on-found", false, "Finish on the first frame with a match")
	watchStartCmd.Flags().BoolVarP(&watchFollow, "follow", "f", false, "Stream progress until the watch ends")
	watchStartCmd.MarkFlagRequired("needle")

	watchCmd.AddCommand(watchStartCmd, watchStatusCmd, watchStopCmd)
	rootCmd.AddCommand(watchCmd)
}

func runWatchStart(cmd *cobra.Command, args []string) error {
	body, err := json.Marshal(server.WatchConfig{
		NeedleID:    watchNeedle,
		Display:     watchDisplay,
		IntervalMs:  int(watchInterval / time.Millisecond),
		Limit:       cfg.Match.Limit,
		MaxFrames:   watchMaxFrames,
		StopOnFound: watchStopFound,
	})
	if err != nil {
		return err
	}

	resp, err := http.Post(serverURL+"/api/v1/watches", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return serverError(resp)
	}

	var watch server.Watch
	if err := json.NewDecoder(resp.Body).Decode(&watch); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Watch ID: %s\n", watch.ID)
	if !watchFollow {
		return nil
	}
	return followWatch(out, serverURL, watch.ID)
}

// followWatch prints stream events until the watch reaches a final state.
func followWatch(out io.Writer, baseURL, id string) error {
	resp, err := http.Get(fmt.Sprintf("%s/api/v1/watches/%s/stream", baseURL, id))
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return serverError(resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		data, ok := strings.CutPrefix(scanner.Text(), "data: ")
		if !ok {
			continue
		}
		var ev server.MatchEvent
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			return fmt.Errorf("failed to decode event: %w", err)
		}
		printEvent(out, ev)
		if ev.State.Done() {
			return nil
		}
	}
	return scanner.Err()
}

func printEvent(out io.Writer, ev server.MatchEvent) {
	switch {
	case ev.Error != "":
		fmt.Fprintf(out, "[%s] frame %d: %s\n", ev.State, ev.Frame, ev.Error)
	case len(ev.Matches) == 0:
		fmt.Fprintf(out, "[%s] frame %d: no match\n", ev.State, ev.Frame)
	default:
		pts := make([]string, len(ev.Matches))
		for i, m := range ev.Matches {
			pts[i] = fmt.Sprintf("%d,%d", m.X, m.Y)
		}
		fmt.Fprintf(out, "[%s] frame %d: %s\n", ev.State, ev.Frame, strings.Join(pts, " "))
	}
}

func runWatchStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if len(args) == 0 {
		return listWatches(out, fmt.Sprintf("%s/api/v1/watches", serverURL))
	}
	return getWatchStatus(out, fmt.Sprintf("%s/api/v1/watches/%s", serverURL, args[0]), args[0])
}

func listWatches(out io.Writer, url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return serverError(resp)
	}

	var watches []server.Watch
	if err := json.NewDecoder(resp.Body).Decode(&watches); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if len(watches) == 0 {
		fmt.Fprintln(out, "No watches found")
		return nil
	}

	fmt.Fprintf(out, "Found %d watch(es):\n\n", len(watches))
	for _, w := range watches {
		fmt.Fprintf(out, "Watch ID: %s\n", w.ID)
		fmt.Fprintf(out, "  State: %s\n", w.State)
		fmt.Fprintf(out, "  Needle: %s\n", w.Config.NeedleID)
		fmt.Fprintf(out, "  Frames: %d, matches in last frame: %d\n", w.Frames, len(w.Matches))
		fmt.Fprintln(out)
	}
	return nil
}

func getWatchStatus(out io.Writer, url, id string) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("watch not found: %s", id)
	}
	if resp.StatusCode != http.StatusOK {
		return serverError(resp)
	}

	var w server.Watch
	if err := json.NewDecoder(resp.Body).Decode(&w); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Fprintf(out, "Watch: %s\n", w.ID)
	fmt.Fprintf(out, "State: %s\n", w.State)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Configuration:")
	fmt.Fprintf(out, "  Needle: %s\n", w.Config.NeedleID)
	fmt.Fprintf(out, "  Display: %d\n", w.Config.Display)
	fmt.Fprintf(out, "  Interval: %s\n", time.Duration(w.Config.IntervalMs)*time.Millisecond)
	if w.Config.MaxFrames > 0 {
		fmt.Fprintf(out, "  Max frames: %d\n", w.Config.MaxFrames)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Progress:")
	fmt.Fprintf(out, "  Frames: %d\n", w.Frames)
	for _, m := range w.Matches {
		fmt.Fprintf(out, "  Match: %d,%d\n", m.X, m.Y)
	}
	if w.LastFound != nil {
		fmt.Fprintf(out, "  Last found: %s\n", w.LastFound.Format(time.RFC3339))
	}
	end := time.Now()
	if w.EndTime != nil {
		end = *w.EndTime
	}
	fmt.Fprintf(out, "  Elapsed: %s\n", end.Sub(w.StartTime).Round(time.Millisecond))

	if w.Error != "" {
		fmt.Fprintf(out, "\nError: %s\n", w.Error)
	}
	return nil
}

func runWatchStop(cmd *cobra.Command, args []string) error {
	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/v1/watches/%s", serverURL, args[0]), nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("watch not found: %s", args[0])
	}
	if resp.StatusCode != http.StatusAccepted {
		return serverError(resp)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Stopping watch %s\n", args[0])
	return nil
}

func serverError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("server returned error: %s", strings.TrimSpace(string(body)))
}

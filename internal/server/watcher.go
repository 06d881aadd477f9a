package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cwbudde/pixelfind/internal/locate"
)

const (
	defaultWatchInterval = 500 * time.Millisecond
	minWatchInterval     = 10 * time.Millisecond
)

// handleCreateWatch handles POST /api/v1/watches
func (s *Server) handleCreateWatch(w http.ResponseWriter, r *http.Request) {
	var config WatchConfig
	if err := json.NewDecoder(r.Body).Decode(&config); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}
	if config.NeedleID == "" {
		http.Error(w, "needleId is required", http.StatusBadRequest)
		return
	}
	if config.IntervalMs <= 0 {
		config.IntervalMs = int(defaultWatchInterval / time.Millisecond)
	}
	if config.Limit <= 0 {
		config.Limit = defaultLocateLimit
	}

	c, err := s.lookup(config.NeedleID)
	if err != nil {
		writeError(w, err)
		return
	}

	// Watches outlive the request that created them.
	ctx, cancel := context.WithCancel(context.Background())
	watch := s.watches.Create(config, cancel)
	go func() {
		defer cancel()
		if err := s.runWatch(ctx, watch.ID, c.needle); err != nil {
			slog.Debug("Watch ended with error", "watch_id", watch.ID, "error", err)
		}
	}()

	writeJSON(w, http.StatusCreated, watch)
}

// handleGetWatch handles GET /api/v1/watches/:id
func (s *Server) handleGetWatch(w http.ResponseWriter, r *http.Request, id string) {
	watch, exists := s.watches.Get(id)
	if !exists {
		http.Error(w, "Watch not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, watch)
}

// handleStopWatch handles DELETE /api/v1/watches/:id
func (s *Server) handleStopWatch(w http.ResponseWriter, r *http.Request, id string) {
	if !s.watches.Stop(id) {
		http.Error(w, "Watch not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// runWatch captures and scans frames until the watch finishes or ctx is
// cancelled. The first frame is taken immediately.
func (s *Server) runWatch(ctx context.Context, id string, needle *locate.Needle) error {
	wm := s.watches
	watch, exists := wm.Get(id)
	if !exists {
		return fmt.Errorf("watch not found: %s", id)
	}
	defer wm.broadcaster.Close(id)

	if err := wm.Update(id, func(w *Watch) { w.State = StateRunning }); err != nil {
		return err
	}
	slog.Info("Starting watch", "watch_id", id, "needle", watch.Config.NeedleID, "display", watch.Config.Display)

	interval := max(time.Duration(watch.Config.IntervalMs)*time.Millisecond, minWatchInterval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for frame := 1; ; frame++ {
		hay, err := s.frames(watch.Config.Display)
		if err != nil {
			markWatchDone(wm, id, StateFailed, fmt.Errorf("capture: %w", err))
			return err
		}

		start := time.Now()
		found, res, err := s.locator.FindAll(hay, needle, watch.Config.Limit)
		s.metrics.frames.Inc()
		if err != nil {
			markWatchDone(wm, id, StateFailed, err)
			return err
		}
		s.metrics.scanTime.Observe(time.Since(start).Seconds())

		matches := toMatches(found)
		state := StateRunning
		switch {
		case res.Found() && watch.Config.StopOnFound:
			state = StateFound
		case watch.Config.MaxFrames > 0 && frame >= watch.Config.MaxFrames:
			state = StateCompleted
		}

		now := time.Now()
		wm.Update(id, func(w *Watch) {
			w.Frames = frame
			w.Matches = matches
			if res.Found() {
				w.LastFound = &now
			}
		})
		wm.broadcaster.Broadcast(MatchEvent{
			WatchID:   id,
			State:     state,
			Frame:     frame,
			Matches:   matches,
			Timestamp: now,
		})

		if state != StateRunning {
			markWatchDone(wm, id, state, nil)
			return nil
		}

		select {
		case <-ctx.Done():
			markWatchDone(wm, id, StateStopped, nil)
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// markWatchDone records a terminal state and tells stream clients.
func markWatchDone(wm *WatchManager, id string, state WatchState, err error) {
	endTime := time.Now()
	var frames int
	wm.Update(id, func(w *Watch) {
		w.State = state
		w.EndTime = &endTime
		if err != nil {
			w.Error = err.Error()
		}
		frames = w.Frames
	})

	event := MatchEvent{WatchID: id, State: state, Frame: frames, Matches: []Match{}, Timestamp: endTime}
	if err != nil {
		event.Error = err.Error()
		slog.Error("Watch failed", "watch_id", id, "error", err)
	} else {
		slog.Info("Watch finished", "watch_id", id, "state", state, "frames", frames)
	}
	// Terminal events for found/completed were already sent with the frame.
	if state == StateFailed || state == StateStopped {
		wm.broadcaster.Broadcast(event)
	}
}

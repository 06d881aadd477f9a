package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// MatchEvent reports the outcome of one watch frame.
type MatchEvent struct {
	WatchID   string     `json:"watchId"`
	State     WatchState `json:"state"`
	Frame     int        `json:"frame"`
	Matches   []Match    `json:"matches"`
	Error     string     `json:"error,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// EventBroadcaster manages SSE connections for watches
type EventBroadcaster struct {
	mu        sync.Mutex
	clients   map[string]map[chan MatchEvent]bool // watchID -> set of client channels
	lastEvent map[string]MatchEvent               // watchID -> last event for new clients
}

// NewEventBroadcaster creates a new event broadcaster
func NewEventBroadcaster() *EventBroadcaster {
	return &EventBroadcaster{
		clients:   make(map[string]map[chan MatchEvent]bool),
		lastEvent: make(map[string]MatchEvent),
	}
}

// Subscribe adds a client to receive events for a watch
func (eb *EventBroadcaster) Subscribe(watchID string) chan MatchEvent {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	ch := make(chan MatchEvent, 10) // Buffered to prevent blocking

	if eb.clients[watchID] == nil {
		eb.clients[watchID] = make(map[chan MatchEvent]bool)
	}
	eb.clients[watchID][ch] = true

	// Send last event if available (for reconnecting clients)
	if lastEvent, ok := eb.lastEvent[watchID]; ok {
		select {
		case ch <- lastEvent:
		default:
		}
	}

	slog.Debug("SSE client subscribed", "watchID", watchID, "total_clients", len(eb.clients[watchID]))
	return ch
}

// Unsubscribe removes a client from receiving events
func (eb *EventBroadcaster) Unsubscribe(watchID string, ch chan MatchEvent) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if clients, ok := eb.clients[watchID]; ok {
		if clients[ch] {
			delete(clients, ch)
			close(ch)
		}
		if len(clients) == 0 {
			delete(eb.clients, watchID)
		}
	}

	slog.Debug("SSE client unsubscribed", "watchID", watchID)
}

// Broadcast sends an event to all subscribed clients for a watch
func (eb *EventBroadcaster) Broadcast(event MatchEvent) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.lastEvent[event.WatchID] = event

	for ch := range eb.clients[event.WatchID] {
		select {
		case ch <- event:
		default:
			// Channel full, skip this client (prevents blocking)
			slog.Warn("SSE channel full, skipping event", "watchID", event.WatchID)
		}
	}
}

// Close ends every stream for a watch. The last event stays cached so late
// subscribers still see the final state.
func (eb *EventBroadcaster) Close(watchID string) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	for ch := range eb.clients[watchID] {
		close(ch)
	}
	delete(eb.clients, watchID)
	slog.Debug("Closed SSE streams", "watchID", watchID)
}

// handleWatchStream handles SSE connections for watch progress
func (s *Server) handleWatchStream(w http.ResponseWriter, r *http.Request, watchID string) {
	watch, exists := s.watches.Get(watchID)
	if !exists {
		http.Error(w, "Watch not found", http.StatusNotFound)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Send the current state first, then stop if nothing more will come.
	initial := MatchEvent{
		WatchID:   watch.ID,
		State:     watch.State,
		Frame:     watch.Frames,
		Matches:   watch.Matches,
		Error:     watch.Error,
		Timestamp: time.Now(),
	}
	if err := writeSSEEvent(w, initial); err != nil {
		slog.Error("Failed to write initial SSE event", "error", err)
		return
	}
	flusher.Flush()
	if watch.State.Done() {
		return
	}

	eventChan := s.watches.broadcaster.Subscribe(watchID)
	defer s.watches.broadcaster.Unsubscribe(watchID, eventChan)

	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			slog.Debug("SSE client disconnected", "watchID", watchID)
			return

		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if err := writeSSEEvent(w, event); err != nil {
				slog.Error("Failed to write SSE event", "error", err)
				return
			}
			flusher.Flush()
			if event.State.Done() {
				return
			}

		case <-pingTicker.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}

// writeSSEEvent writes an event in SSE format
func writeSSEEvent(w http.ResponseWriter, event MatchEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	// SSE format: "data: {json}\n\n"
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}

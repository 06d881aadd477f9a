package server

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// WatchState represents the current state of a watch
type WatchState string

const (
	StatePending   WatchState = "pending"
	StateRunning   WatchState = "running"
	StateFound     WatchState = "found"
	StateCompleted WatchState = "completed"
	StateFailed    WatchState = "failed"
	StateStopped   WatchState = "stopped"
)

// Done reports whether the state is terminal.
func (s WatchState) Done() bool {
	return s != StatePending && s != StateRunning
}

// WatchConfig describes what a watch scans for.
type WatchConfig struct {
	NeedleID    string `json:"needleId"`
	Display     int    `json:"display"`
	IntervalMs  int    `json:"intervalMs"`
	Limit       int    `json:"limit"`
	MaxFrames   int    `json:"maxFrames,omitempty"`   // 0 = until stopped
	StopOnFound bool   `json:"stopOnFound,omitempty"` // finish on the first frame with a match
}

// Watch repeatedly captures a display and locates one needle in it.
type Watch struct {
	ID        string      `json:"id"`
	State     WatchState  `json:"state"`
	Config    WatchConfig `json:"config"`
	Frames    int         `json:"frames"`
	Matches   []Match     `json:"matches"` // from the latest frame
	LastFound *time.Time  `json:"lastFound,omitempty"`
	StartTime time.Time   `json:"startTime"`
	EndTime   *time.Time  `json:"endTime,omitempty"`
	Error     string      `json:"error,omitempty"`

	cancel context.CancelFunc
}

// snapshot copies w so callers can read it without holding the lock.
func (w *Watch) snapshot() Watch {
	c := *w
	c.Matches = slices.Clone(w.Matches)
	c.cancel = nil
	return c
}

// WatchManager manages the lifecycle of watches
type WatchManager struct {
	mu          sync.RWMutex
	watches     map[string]*Watch
	broadcaster *EventBroadcaster
}

// NewWatchManager creates a new WatchManager
func NewWatchManager() *WatchManager {
	return &WatchManager{
		watches:     make(map[string]*Watch),
		broadcaster: NewEventBroadcaster(),
	}
}

// Create registers a pending watch. cancel stops its worker.
func (wm *WatchManager) Create(config WatchConfig, cancel context.CancelFunc) Watch {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	w := &Watch{
		ID:        uuid.New().String(),
		State:     StatePending,
		Config:    config,
		Matches:   []Match{},
		StartTime: time.Now(),
		cancel:    cancel,
	}
	wm.watches[w.ID] = w
	return w.snapshot()
}

// Get retrieves a watch by ID
func (wm *WatchManager) Get(id string) (Watch, bool) {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	w, exists := wm.watches[id]
	if !exists {
		return Watch{}, false
	}
	return w.snapshot(), true
}

// List returns all watches, oldest first
func (wm *WatchManager) List() []Watch {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	out := make([]Watch, 0, len(wm.watches))
	for _, w := range wm.watches {
		out = append(out, w.snapshot())
	}
	slices.SortFunc(out, func(a, b Watch) int { return a.StartTime.Compare(b.StartTime) })
	return out
}

// Update atomically updates a watch using the provided function
func (wm *WatchManager) Update(id string, updateFn func(*Watch)) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	w, exists := wm.watches[id]
	if !exists {
		return fmt.Errorf("watch not found: %s", id)
	}

	updateFn(w)
	return nil
}

// Stop cancels a watch's worker. The worker records the final state.
func (wm *WatchManager) Stop(id string) bool {
	wm.mu.RLock()
	w, exists := wm.watches[id]
	wm.mu.RUnlock()
	if !exists {
		return false
	}
	if w.cancel != nil {
		w.cancel()
	}
	return true
}

// StopAll cancels every watch.
func (wm *WatchManager) StopAll() {
	wm.mu.RLock()
	defer wm.mu.RUnlock()
	for _, w := range wm.watches {
		if w.cancel != nil {
			w.cancel()
		}
	}
}

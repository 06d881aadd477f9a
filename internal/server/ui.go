package server

import (
	"net/http"

	"github.com/cwbudde/pixelfind/internal/ui"
)

// handleIndex handles GET /
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	// Only handle exact root path
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	records, err := s.store.List()
	if err != nil {
		writeError(w, err)
		return
	}

	needles := make([]ui.NeedleItem, len(records))
	for i, rec := range records {
		needles[i] = ui.NeedleItem{
			ID:     rec.ID,
			Name:   rec.Name,
			Width:  rec.Width,
			Height: rec.Height,
			Mask:   rec.MaskString(),
		}
	}

	list := s.watches.List()
	watches := make([]ui.WatchItem, len(list))
	for i, wt := range list {
		watches[i] = ui.WatchItem{
			ID:      wt.ID,
			State:   string(wt.State),
			Frames:  wt.Frames,
			Matches: len(wt.Matches),
			Error:   wt.Error,
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := ui.Index(needles, watches).Render(r.Context(), w); err != nil {
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
}

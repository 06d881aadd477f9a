package server

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"time"

	"github.com/cwbudde/pixelfind/internal/imageio"
	"github.com/cwbudde/pixelfind/internal/locate"
	"github.com/cwbudde/pixelfind/internal/pixel"
	"github.com/cwbudde/pixelfind/internal/store"
)

// defaultLocateLimit caps matches per locate response unless limit is given.
const defaultLocateLimit = 100

// Match is a top-left corner of a verified match.
type Match struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func toMatches(pts []image.Point) []Match {
	out := make([]Match, len(pts))
	for i, p := range pts {
		out[i] = Match{X: p.X, Y: p.Y}
	}
	return out
}

// LocateResponse is the body returned by POST /api/v1/needles/:id/locate.
type LocateResponse struct {
	NeedleID   string       `json:"needleId"`
	Matches    []Match      `json:"matches"`
	Count      int          `json:"count"`
	Candidates int          `json:"candidates"`
	Limited    bool         `json:"limited"` // scan stopped at the limit
	Near       *locate.Near `json:"near,omitempty"`
	Elapsed    float64      `json:"elapsed"`
}

// lookup returns a prepared needle, from the cache when possible.
func (s *Server) lookup(id string) (cachedNeedle, error) {
	if c, ok := s.cache.Get(id); ok {
		return c, nil
	}
	rec, pix, err := s.store.Load(id)
	if err != nil {
		return cachedNeedle{}, err
	}
	n, err := rec.Needle(s.locator, pix)
	if err != nil {
		return cachedNeedle{}, fmt.Errorf("prepare needle %s: %w", id, err)
	}
	if n.Digest != rec.Digest {
		slog.Warn("Stored digest differs from prepared needle", "id", id,
			"stored", rec.Digest, "prepared", n.Digest)
	}
	c := cachedNeedle{rec: *rec, needle: n}
	s.cache.Add(id, c)
	return c, nil
}

// handleListNeedles handles GET /api/v1/needles
func (s *Server) handleListNeedles(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.List()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// handleCreateNeedle handles POST /api/v1/needles?name=&mask=&rect=
// The body is an encoded image. Uploading a needle that is already stored
// returns the existing record with status 200.
func (s *Server) handleCreateNeedle(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mask := pixel.FullMask
	if v := q.Get("mask"); v != "" {
		m, err := pixel.ParseMask(v)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		mask = m
	}
	name := q.Get("name")
	if name == "" {
		name = "needle"
	}

	buf, err := readImage(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if v := q.Get("rect"); v != "" {
		rect, err := pixel.ParseRect(v)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if buf, err = imageio.Crop(buf, rect); err != nil {
			writeError(w, err)
			return
		}
	}

	n, err := s.locator.Prepare(buf, mask)
	if err != nil {
		writeError(w, err)
		return
	}

	if existing, err := s.store.FindByFingerprint(n.Fingerprint); err == nil {
		writeJSON(w, http.StatusOK, existing)
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		writeError(w, err)
		return
	}

	rec := store.RecordFor(name, n)
	if err := s.store.Save(rec, n.Pixels); err != nil {
		writeError(w, err)
		return
	}
	s.cache.Add(rec.ID, cachedNeedle{rec: *rec, needle: n})

	slog.Info("Needle created", "id", rec.ID, "name", name, "size", fmt.Sprintf("%dx%d", rec.Width, rec.Height))
	writeJSON(w, http.StatusCreated, rec)
}

// handleGetNeedle handles GET /api/v1/needles/:id
func (s *Server) handleGetNeedle(w http.ResponseWriter, r *http.Request, id string) {
	c, err := s.lookup(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c.rec)
}

// handleDeleteNeedle handles DELETE /api/v1/needles/:id
func (s *Server) handleDeleteNeedle(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.store.Delete(id); err != nil {
		writeError(w, err)
		return
	}
	s.cache.Remove(id)
	w.WriteHeader(http.StatusNoContent)
}

// handleNeedlePixels handles GET /api/v1/needles/:id/pixels.png
func (s *Server) handleNeedlePixels(w http.ResponseWriter, r *http.Request, id string) {
	c, err := s.lookup(id)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	if err := imageio.Encode(w, c.needle.Pixels); err != nil {
		slog.Error("Failed to encode PNG", "error", err)
	}
}

// handleLocate handles POST /api/v1/needles/:id/locate?limit=N&approx=1
// The body is the encoded haystack image.
func (s *Server) handleLocate(w http.ResponseWriter, r *http.Request, id string) {
	limit, err := intParam(r, "limit", defaultLocateLimit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	c, err := s.lookup(id)
	if err != nil {
		writeError(w, err)
		return
	}
	hay, err := readImage(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	start := time.Now()
	found, res, err := s.locator.FindAll(hay, c.needle, limit)
	elapsed := time.Since(start)
	s.metrics.observeLocate(res.Found(), err)
	if err != nil {
		writeError(w, err)
		return
	}
	s.metrics.scanTime.Observe(elapsed.Seconds())

	resp := LocateResponse{
		NeedleID:   id,
		Matches:    toMatches(found),
		Count:      res.Count,
		Candidates: res.Candidates,
		Limited:    limit > 0 && res.Count == limit,
		Elapsed:    elapsed.Seconds(),
	}

	if r.URL.Query().Get("approx") != "" && !res.Found() {
		o := locate.DefaultOptimizer(hay, c.needle, s.approx.GridLimit, s.approx.Iters, s.approx.Pop, s.approx.Seed)
		near, err := s.locator.Approximate(hay, c.needle, o)
		if err != nil {
			writeError(w, err)
			return
		}
		resp.Near = &near
	}

	writeJSON(w, http.StatusOK, resp)
}

package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cwbudde/pixelfind/internal/capture"
	"github.com/cwbudde/pixelfind/internal/locate"
	"github.com/cwbudde/pixelfind/internal/pixel"
	"github.com/cwbudde/pixelfind/internal/store"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// FrameSource produces a haystack from a display index.
type FrameSource func(display int) (pixel.Buffer, error)

// ApproxConfig tunes approximate locate requests.
type ApproxConfig struct {
	GridLimit int
	Iters     int
	Pop       int
	Seed      int64
}

// Options configures a Server. Zero values pick defaults.
type Options struct {
	CacheSize int
	Locator   *locate.Locator
	Frames    FrameSource
	Approx    ApproxConfig
}

type cachedNeedle struct {
	rec    store.Record
	needle *locate.Needle
}

// Server represents the HTTP server
type Server struct {
	addr    string
	store   store.Store
	locator *locate.Locator
	cache   *lru.Cache[string, cachedNeedle]
	watches *WatchManager
	metrics *metrics
	frames  FrameSource
	approx  ApproxConfig
	server  *http.Server
}

// NewServer creates a new HTTP server backed by st.
func NewServer(addr string, st store.Store, opts Options) (*Server, error) {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 64
	}
	if opts.Locator == nil {
		opts.Locator = locate.Default()
	}
	if opts.Frames == nil {
		opts.Frames = capture.Display
	}
	if opts.Approx.GridLimit <= 0 {
		opts.Approx.GridLimit = 4096
	}
	if opts.Approx.Iters <= 0 {
		opts.Approx.Iters = 200
	}

	cache, err := lru.New[string, cachedNeedle](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("needle cache: %w", err)
	}

	return &Server{
		addr:    addr,
		store:   st,
		locator: opts.Locator,
		cache:   cache,
		watches: NewWatchManager(),
		metrics: newMetrics(),
		frames:  opts.Frames,
		approx:  opts.Approx,
	}, nil
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Register UI routes
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	// Register API routes
	mux.HandleFunc("/api/v1/needles", s.handleNeedles)
	mux.HandleFunc("/api/v1/needles/", s.handleNeedlesWithID)
	mux.HandleFunc("/api/v1/watches", s.handleWatches)
	mux.HandleFunc("/api/v1/watches/", s.handleWatchesWithID)

	// Wrap with middleware
	return s.loggingMiddleware(s.corsMiddleware(mux))
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("Starting HTTP server", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown stops running watches and gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down HTTP server")
	s.watches.StopAll()
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleNeedles handles /api/v1/needles
func (s *Server) handleNeedles(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateNeedle(w, r)
	case http.MethodGet:
		s.handleListNeedles(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleNeedlesWithID handles /api/v1/needles/:id/*
func (s *Server) handleNeedlesWithID(w http.ResponseWriter, r *http.Request) {
	id, sub := splitIDPath(r.URL.Path, "/api/v1/needles/")
	if id == "" {
		http.Error(w, "Needle ID required", http.StatusBadRequest)
		return
	}

	switch {
	case sub == "" && r.Method == http.MethodGet:
		s.handleGetNeedle(w, r, id)
	case sub == "" && r.Method == http.MethodDelete:
		s.handleDeleteNeedle(w, r, id)
	case sub == "pixels.png" && r.Method == http.MethodGet:
		s.handleNeedlePixels(w, r, id)
	case sub == "locate" && r.Method == http.MethodPost:
		s.handleLocate(w, r, id)
	case sub == "" || sub == "pixels.png" || sub == "locate":
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

// handleWatches handles /api/v1/watches
func (s *Server) handleWatches(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateWatch(w, r)
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.watches.List())
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleWatchesWithID handles /api/v1/watches/:id/*
func (s *Server) handleWatchesWithID(w http.ResponseWriter, r *http.Request) {
	id, sub := splitIDPath(r.URL.Path, "/api/v1/watches/")
	if id == "" {
		http.Error(w, "Watch ID required", http.StatusBadRequest)
		return
	}

	switch {
	case sub == "" && r.Method == http.MethodGet:
		s.handleGetWatch(w, r, id)
	case sub == "" && r.Method == http.MethodDelete:
		s.handleStopWatch(w, r, id)
	case sub == "stream" && r.Method == http.MethodGet:
		s.handleWatchStream(w, r, id)
	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

func splitIDPath(path, prefix string) (id, sub string) {
	rest := strings.TrimPrefix(path, prefix)
	id, sub, _ = strings.Cut(rest, "/")
	return id, sub
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

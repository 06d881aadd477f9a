package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cwbudde/pixelfind/internal/imageio"
	"github.com/cwbudde/pixelfind/internal/match"
	"github.com/cwbudde/pixelfind/internal/pixel"
	"github.com/cwbudde/pixelfind/internal/store"
)

// maxImageBytes bounds uploaded image bodies.
const maxImageBytes = 32 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError maps domain errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrInvalidID):
		status = http.StatusBadRequest
	case errors.Is(err, match.ErrNeedleTooLarge),
		errors.Is(err, pixel.ErrInvalidGeometry),
		errors.Is(err, pixel.ErrOutOfBounds):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		slog.Error("Request failed", "error", err)
	}
	http.Error(w, err.Error(), status)
}

// readImage decodes the request body as an image.
func readImage(w http.ResponseWriter, r *http.Request) (pixel.Buffer, error) {
	buf, err := imageio.Decode(http.MaxBytesReader(w, r.Body, maxImageBytes))
	if err != nil {
		return pixel.Buffer{}, fmt.Errorf("image body: %w", err)
	}
	return buf, nil
}

// intParam reads a non-negative integer query parameter.
func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q", name, v)
	}
	return n, nil
}

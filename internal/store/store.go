package store

import "github.com/cwbudde/pixelfind/internal/pixel"

// Store defines the interface for needle persistence operations.
// Implementations must be thread-safe and handle concurrent access gracefully.
//
// Error handling conventions:
//   - Return nil error on success
//   - Return ErrNotFound if the needle doesn't exist (for Load/Delete)
//   - Return ErrInvalidID for ids that were not issued by the store
//   - Wrap underlying errors with context using fmt.Errorf("context: %w", err)
type Store interface {
	// Save atomically writes the record and its pixels. An empty rec.ID is
	// filled with a fresh id; an existing id is overwritten.
	Save(rec *Record, pix pixel.Buffer) error

	// Load returns the record and pixels for id.
	Load(id string) (*Record, pixel.Buffer, error)

	// List returns every readable record, oldest first.
	List() ([]Record, error)

	// Delete removes the needle and its pixels.
	Delete(id string) error

	// FindByFingerprint returns the first record whose content fingerprint
	// equals fp, or ErrNotFound.
	FindByFingerprint(fp uint64) (*Record, error)
}

// ErrNotFound is returned when a requested needle does not exist.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &NotFoundError{}

// NotFoundError represents a missing needle error.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return "needle not found: " + e.ID
	}
	return "needle not found"
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}

package store

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/cwbudde/pixelfind/internal/pixel"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

// ErrInvalidID is returned for ids that are not store-issued UUIDs. Ids come
// from URLs and flags, so they are checked before touching the filesystem.
var ErrInvalidID = errors.New("store: invalid needle id")

// ErrCorrupt is returned when stored pixels disagree with their record.
var ErrCorrupt = errors.New("store: corrupt needle data")

// FSStore implements the Store interface using filesystem-based persistence.
// Needles are stored in a directory structure: <baseDir>/needles/<id>/
// holding needle.json and pixels.zst.
//
// Thread-safety: This implementation uses atomic file operations (rename)
// and does not require locks. Multiple goroutines can safely call methods
// concurrently.
type FSStore struct {
	baseDir string
}

// NewFSStore creates a new filesystem-based store.
// The baseDir will be created if it doesn't exist.
func NewFSStore(baseDir string) (*FSStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &FSStore{baseDir: baseDir}, nil
}

func (fs *FSStore) needleDir(id string) string {
	return filepath.Join(fs.baseDir, "needles", id)
}

// Dir returns the directory holding a needle's files.
func (fs *FSStore) Dir(id string) string {
	return fs.needleDir(id)
}

func (fs *FSStore) recordPath(id string) string {
	return filepath.Join(fs.needleDir(id), "needle.json")
}

func (fs *FSStore) pixelsPath(id string) string {
	return filepath.Join(fs.needleDir(id), "pixels.zst")
}

func checkID(id string) error {
	if u, err := uuid.Parse(id); err != nil || u.String() != id {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// writeAtomic writes data to a temp file next to path and renames it.
func writeAtomic(path string, data []byte) error {
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Save atomically saves a needle. Pixels are written before the record, so a
// record on disk always has its pixels.
func (fs *FSStore) Save(rec *Record, pix pixel.Buffer) error {
	if rec == nil {
		return fmt.Errorf("record cannot be nil")
	}
	if err := pix.Validate(); err != nil {
		return fmt.Errorf("needle pixels: %w", err)
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	} else if err := checkID(rec.ID); err != nil {
		return err
	}
	if rec.Created.IsZero() {
		rec.Created = time.Now().UTC()
	}
	rec.Width, rec.Height = pix.Width, pix.Height

	dir := fs.needleDir(rec.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create needle directory: %w", err)
	}

	blob, err := encodePixels(pix)
	if err != nil {
		return fmt.Errorf("failed to compress pixels: %w", err)
	}
	if err := writeAtomic(fs.pixelsPath(rec.ID), blob); err != nil {
		return err
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize record: %w", err)
	}
	if err := writeAtomic(fs.recordPath(rec.ID), data); err != nil {
		return err
	}

	slog.Debug("Needle saved", "id", rec.ID, "name", rec.Name, "bytes", len(blob))
	return nil
}

func (fs *FSStore) loadRecord(id string) (*Record, error) {
	data, err := os.ReadFile(fs.recordPath(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, &NotFoundError{ID: id}
	} else if err != nil {
		return nil, fmt.Errorf("failed to read record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to deserialize record: %w", err)
	}
	return &rec, nil
}

// Load retrieves a needle record and its pixels.
func (fs *FSStore) Load(id string) (*Record, pixel.Buffer, error) {
	if err := checkID(id); err != nil {
		return nil, pixel.Buffer{}, err
	}
	rec, err := fs.loadRecord(id)
	if err != nil {
		return nil, pixel.Buffer{}, err
	}

	f, err := os.Open(fs.pixelsPath(id))
	if err != nil {
		return nil, pixel.Buffer{}, fmt.Errorf("failed to open pixels: %w", err)
	}
	defer f.Close()

	pix, err := decodePixels(f, rec.Width, rec.Height)
	if err != nil {
		return nil, pixel.Buffer{}, fmt.Errorf("needle %s: %w", id, err)
	}

	slog.Debug("Needle loaded", "id", id, "size", fmt.Sprintf("%dx%d", rec.Width, rec.Height))
	return rec, pix, nil
}

// List returns metadata for all stored needles, oldest first.
func (fs *FSStore) List() ([]Record, error) {
	root := filepath.Join(fs.baseDir, "needles")
	entries, err := os.ReadDir(root)
	if errors.Is(err, os.ErrNotExist) {
		return []Record{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read needles directory: %w", err)
	}

	records := []Record{}
	for _, entry := range entries {
		if !entry.IsDir() || checkID(entry.Name()) != nil {
			continue
		}
		rec, err := fs.loadRecord(entry.Name())
		if err != nil {
			slog.Warn("Failed to load needle for listing", "id", entry.Name(), "error", err)
			continue
		}
		records = append(records, *rec)
	}

	slices.SortStableFunc(records, func(a, b Record) int {
		return a.Created.Compare(b.Created)
	})
	slog.Debug("Listed needles", "count", len(records))
	return records, nil
}

// Delete removes the needle directory and all contents.
func (fs *FSStore) Delete(id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	dir := fs.needleDir(id)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return &NotFoundError{ID: id}
	} else if err != nil {
		return fmt.Errorf("failed to stat needle directory: %w", err)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove needle directory: %w", err)
	}
	slog.Debug("Needle deleted", "id", id)
	return nil
}

// FindByFingerprint scans the records for a content match.
func (fs *FSStore) FindByFingerprint(fp uint64) (*Record, error) {
	records, err := fs.List()
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].Fingerprint == fp {
			return &records[i], nil
		}
	}
	return nil, &NotFoundError{ID: fmt.Sprintf("fingerprint %016x", fp)}
}

// Resolve looks a needle up by id, or by name when ref is not an id. Names
// are not unique; the oldest needle with the name wins.
func (fs *FSStore) Resolve(ref string) (*Record, pixel.Buffer, error) {
	if checkID(ref) == nil {
		return fs.Load(ref)
	}
	records, err := fs.List()
	if err != nil {
		return nil, pixel.Buffer{}, err
	}
	for _, rec := range records {
		if rec.Name == ref {
			return fs.Load(rec.ID)
		}
	}
	return nil, pixel.Buffer{}, &NotFoundError{ID: ref}
}

// encodePixels zstd-compresses the little-endian rows of pix.
func encodePixels(pix pixel.Buffer) ([]byte, error) {
	raw := make([]byte, 0, pix.Width*pix.Height*4)
	for y := 0; y < pix.Height; y++ {
		for _, p := range pix.Row(y) {
			raw = binary.LittleEndian.AppendUint32(raw, p)
		}
	}

	var out bytes.Buffer
	enc, err := zstd.NewWriter(&out)
	if err != nil {
		return nil, err
	}
	if _, err := enc.Write(raw); err != nil {
		enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func decodePixels(r io.Reader, width, height int) (pixel.Buffer, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return pixel.Buffer{}, err
	}
	defer dec.Close()

	raw, err := io.ReadAll(dec)
	if err != nil {
		return pixel.Buffer{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	buf, err := pixel.New(width, height)
	if err != nil {
		return pixel.Buffer{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if len(raw) != len(buf.Pix)*4 {
		return pixel.Buffer{}, fmt.Errorf("%w: %d bytes for %dx%d", ErrCorrupt, len(raw), width, height)
	}
	for i := range buf.Pix {
		buf.Pix[i] = binary.LittleEndian.Uint32(raw[i*4:])
	}
	return buf, nil
}

package cmd

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/cwbudde/pixelfind/internal/config"
	"github.com/cwbudde/pixelfind/internal/imageio"
	"github.com/cwbudde/pixelfind/internal/pixel"
)

// useTempConfig points the global configuration at a fresh store for the
// duration of the test.
func useTempConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	saved := cfg
	cfg = config.DefaultConfig()
	cfg.StoreDir = dir
	t.Cleanup(func() { cfg = saved })
	return dir
}

func noise(t *testing.T, w, h int, seed int64) pixel.Buffer {
	t.Helper()
	b, err := pixel.New(w, h)
	if err != nil {
		t.Fatal(err)
	}
	rng := rand.New(rand.NewSource(seed))
	for i := range b.Pix {
		b.Pix[i] = rng.Uint32() | 0xff000000
	}
	return b
}

func stamp(dst, src pixel.Buffer, x, y int) {
	for sy := 0; sy < src.Height; sy++ {
		copy(dst.Row(y + sy)[x:], src.Row(sy))
	}
}

func writePNG(t *testing.T, b pixel.Buffer, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := imageio.Save(path, b); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

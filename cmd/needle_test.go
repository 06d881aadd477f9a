package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cwbudde/pixelfind/internal/pixel"
	"github.com/cwbudde/pixelfind/internal/store"
)

func TestSelectNeedlesForDeletion_ByAge(t *testing.T) {
	now := time.Now()
	records := []store.Record{
		{ID: "n1", Created: now.AddDate(0, 0, -10)}, // 10 days old
		{ID: "n2", Created: now.AddDate(0, 0, -5)},  // 5 days old
		{ID: "n3", Created: now.AddDate(0, 0, -1)},  // 1 day old
		{ID: "n4", Created: now.AddDate(0, 0, -30)}, // 30 days old
	}

	toDelete := selectNeedlesForDeletion(records, 0, 7, now)

	if len(toDelete) != 2 {
		t.Fatalf("Expected 2 needles to delete, got %d", len(toDelete))
	}
	// Oldest first.
	if toDelete[0].ID != "n4" || toDelete[1].ID != "n1" {
		t.Errorf("Expected n4 and n1, got %s and %s", toDelete[0].ID, toDelete[1].ID)
	}
}

func TestSelectNeedlesForDeletion_ByCount(t *testing.T) {
	now := time.Now()
	records := []store.Record{
		{ID: "n1", Created: now.AddDate(0, 0, -10)},
		{ID: "n2", Created: now.AddDate(0, 0, -5)},
		{ID: "n3", Created: now.AddDate(0, 0, -1)},
		{ID: "n4", Created: now.AddDate(0, 0, -30)},
	}

	toDelete := selectNeedlesForDeletion(records, 2, 0, now)

	if len(toDelete) != 2 {
		t.Fatalf("Expected 2 needles to delete, got %d", len(toDelete))
	}
	if toDelete[0].ID != "n4" || toDelete[1].ID != "n1" {
		t.Errorf("Expected the oldest two (n4, n1), got %s and %s", toDelete[0].ID, toDelete[1].ID)
	}
}

func TestSelectNeedlesForDeletion_Combined(t *testing.T) {
	now := time.Now()
	records := []store.Record{
		{ID: "n1", Created: now.AddDate(0, 0, -10)},
		{ID: "n2", Created: now.AddDate(0, 0, -5)},
		{ID: "n3", Created: now.AddDate(0, 0, -1)},
		{ID: "n4", Created: now.AddDate(0, 0, -30)},
		{ID: "n5", Created: now.AddDate(0, 0, -2)},
	}

	// Age selects n4 and n1; keeping 2 also drops n2. No duplicates.
	toDelete := selectNeedlesForDeletion(records, 2, 7, now)

	var ids []string
	for _, rec := range toDelete {
		ids = append(ids, rec.ID)
	}
	if strings.Join(ids, ",") != "n4,n1,n2" {
		t.Errorf("Expected n4,n1,n2, got %v", ids)
	}
}

func TestSelectNeedlesForDeletion_Nothing(t *testing.T) {
	now := time.Now()
	records := []store.Record{{ID: "n1", Created: now}}
	if got := selectNeedlesForDeletion(records, 5, 7, now); len(got) != 0 {
		t.Errorf("Expected nothing to delete, got %d", len(got))
	}
}

func TestGetDirSize(t *testing.T) {
	tmpDir := t.TempDir()

	testFile := filepath.Join(tmpDir, "test.txt")
	content := []byte("Hello, World!")
	if err := os.WriteFile(testFile, content, 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	size, err := getDirSize(tmpDir)
	if err != nil {
		t.Fatalf("getDirSize failed: %v", err)
	}

	if size < int64(len(content)) {
		t.Errorf("Expected size >= %d, got %d", len(content), size)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{1073741824, "1.0 GB"},
	}

	for _, tt := range tests {
		result := formatBytes(tt.bytes)
		if result != tt.expected {
			t.Errorf("formatBytes(%d) = %s, expected %s", tt.bytes, result, tt.expected)
		}
	}
}

func TestListNeedles_Empty(t *testing.T) {
	useTempConfig(t)

	var out bytes.Buffer
	listNeedlesCmd.SetOut(&out)
	defer listNeedlesCmd.SetOut(nil)

	if err := runListNeedles(listNeedlesCmd, nil); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(out.String(), "No needles found.") {
		t.Errorf("Unexpected output: %q", out.String())
	}
}

func TestAddListRemoveNeedle(t *testing.T) {
	useTempConfig(t)
	path := writePNG(t, noise(t, 8, 6, 1), "button.png")

	rec, created, err := addNeedle(path, "button", pixel.FullMask, "")
	if err != nil {
		t.Fatalf("addNeedle failed: %v", err)
	}
	if !created || rec.Width != 8 || rec.Height != 6 {
		t.Errorf("Unexpected record %+v (created %v)", rec, created)
	}

	again, created, err := addNeedle(path, "other", pixel.FullMask, "")
	if err != nil {
		t.Fatal(err)
	}
	if created || again.ID != rec.ID {
		t.Errorf("Duplicate add created %s, want existing %s", again.ID, rec.ID)
	}

	var out bytes.Buffer
	listNeedlesCmd.SetOut(&out)
	defer listNeedlesCmd.SetOut(nil)
	if err := runListNeedles(listNeedlesCmd, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), rec.ID) || !strings.Contains(out.String(), "Total needles: 1") {
		t.Errorf("List output missing needle:\n%s", out.String())
	}

	out.Reset()
	removeNeedleCmd.SetOut(&out)
	defer removeNeedleCmd.SetOut(nil)
	if err := runRemoveNeedles(removeNeedleCmd, []string{"button"}); err != nil {
		t.Fatalf("Remove by name failed: %v", err)
	}
	if err := runRemoveNeedles(removeNeedleCmd, []string{rec.ID}); err == nil {
		t.Error("Expected error removing a deleted needle")
	}
}

func TestAddNeedle_Rect(t *testing.T) {
	useTempConfig(t)
	path := writePNG(t, noise(t, 20, 20, 2), "screen.png")

	rec, _, err := addNeedle(path, "crop", pixel.FullMask, "2,3,4,5")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Width != 4 || rec.Height != 5 {
		t.Errorf("Stored %dx%d, want 4x5", rec.Width, rec.Height)
	}

	if _, _, err := addNeedle(path, "bad", pixel.FullMask, "18,18,5,5"); err == nil {
		t.Error("Expected error for a crop outside the image")
	}
}

func TestPruneNeedles(t *testing.T) {
	useTempConfig(t)
	for i := int64(0); i < 3; i++ {
		path := writePNG(t, noise(t, 4, 4, 10+i), "n.png")
		if _, _, err := addNeedle(path, "n", pixel.FullMask, ""); err != nil {
			t.Fatal(err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	origKeep, origAge, origForce := keepLast, olderThanDays, forcePrune
	defer func() { keepLast, olderThanDays, forcePrune = origKeep, origAge, origForce }()

	keepLast, olderThanDays, forcePrune = 0, 0, true
	if err := runPruneNeedles(nil, nil); err == nil {
		t.Error("Expected error without --keep-last or --older-than")
	}

	var out bytes.Buffer
	pruneNeedlesCmd.SetOut(&out)
	defer pruneNeedlesCmd.SetOut(nil)

	keepLast = 1
	if err := runPruneNeedles(pruneNeedlesCmd, nil); err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if !strings.Contains(out.String(), "Deleted 2 needle(s), 0 failed.") {
		t.Errorf("Unexpected output:\n%s", out.String())
	}

	st, err := openStore()
	if err != nil {
		t.Fatal(err)
	}
	records, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Errorf("Expected 1 needle left, got %d", len(records))
	}
}

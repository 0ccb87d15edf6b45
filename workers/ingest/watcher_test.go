package ingest

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const validBatch = `{
	"appId": "com.example",
	"appName": "Example",
	"reviews": [{"reviewId": "r1", "userName": "ann", "content": "Fast and stable.", "score": 5, "at": "2025-03-01T10:00:00Z"}]
}`

func waitForFile(t *testing.T, dir string) string {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		entries, _ := os.ReadDir(dir)
		if len(entries) > 0 {
			return entries[0].Name()
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("no file appeared in %s", dir)
	return ""
}

func TestWatcher_ImportsExistingAndNewFiles(t *testing.T) {
	d := openTestDB(t)
	dir := filepath.Join(t.TempDir(), "import")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}

	// present before the watcher starts
	if err := os.WriteFile(filepath.Join(dir, "early.json"), []byte(validBatch), 0644); err != nil {
		t.Fatal(err)
	}

	w := NewWatcher(Config{Dir: dir, DebounceDelay: 20 * time.Millisecond}, NewImporter(d, nil))
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	name := waitForFile(t, filepath.Join(dir, processedDir))
	if filepath.Ext(name) != ".json" {
		t.Errorf("processed file = %s", name)
	}
	if _, err := os.Stat(filepath.Join(dir, "early.json")); !os.IsNotExist(err) {
		t.Error("early.json should have been moved")
	}
	if n, _ := d.CountReviews("com.example"); n != 1 {
		t.Errorf("stored %d reviews, want 1", n)
	}

	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{"appId": ""}`), 0644); err != nil {
		t.Fatal(err)
	}
	waitForFile(t, filepath.Join(dir, failedDir))

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	if _, err := os.Stat(filepath.Join(dir, "notes.txt")); err != nil {
		t.Error("non-batch files must be left alone")
	}
}

func TestIsBatchFile(t *testing.T) {
	tests := map[string]bool{
		"reviews.json": true,
		"REVIEWS.JSON": true,
		".hidden.json": false,
		"reviews.txt":  false,
		"json":         false,
	}
	for name, want := range tests {
		if got := isBatchFile(name); got != want {
			t.Errorf("isBatchFile(%q) = %v, want %v", name, got, want)
		}
	}
}

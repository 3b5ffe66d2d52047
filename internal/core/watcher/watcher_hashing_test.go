package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcher_ContentHashing(t *testing.T) {
	tmpDir := t.TempDir()

	changedFiles := make(chan []string, 10)
	w, err := NewWatcher(50*time.Millisecond, nil, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)

	testFile := filepath.Join(tmpDir, "hash_target.go")
	content := []byte(`package main
func main() {}`)

	if err := os.WriteFile(testFile, content, 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changedFiles:
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for create event")
	}

	// A touch and an identical rewrite must not count as a change.
	now := time.Now()
	if err := os.Chtimes(testFile, now, now); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(testFile, content, 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case paths := <-changedFiles:
		t.Errorf("Received unexpected event for identical content: %v", paths)
	case <-time.After(200 * time.Millisecond):
	}

	newContent := []byte(`package main
func main() { println(1) }`)
	if err := os.WriteFile(testFile, newContent, 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case paths := <-changedFiles:
		found := false
		for _, p := range paths {
			if p == testFile {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected event for %s, got %v", testFile, paths)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("Timed out waiting for content change")
	}
}

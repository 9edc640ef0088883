package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/avolkov/spotman/internal/models"
	"github.com/avolkov/spotman/internal/shared"
)

func testPage(t *testing.T, items ...string) models.Page {
	t.Helper()
	page := make(models.Page, 0, len(items))
	for _, item := range items {
		raw, err := json.Marshal(map[string]string{"id": item})
		if err != nil {
			t.Fatalf("failed to marshal test page item: %v", err)
		}
		page = append(page, raw)
	}
	return page
}

func TestStore(t *testing.T) {
	t.Run("OpenCreatesEmptySnapshot", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "snapshot.db")

		store, err := Open(path, nil)
		if err != nil {
			t.Fatalf("failed to open fresh snapshot: %v", err)
		}
		defer store.Close()

		if !store.NeverCollected() {
			t.Error("fresh snapshot should report never collected")
		}
		if store.CollectedAt() != nil {
			t.Errorf("fresh snapshot should have no timestamp, got %v", store.CollectedAt())
		}
		if store.Path() != path {
			t.Errorf("expected path %s, got %s", path, store.Path())
		}
	})

	t.Run("AppendAndReset", func(t *testing.T) {
		store, err := Open(filepath.Join(t.TempDir(), "snapshot.db"), nil)
		if err != nil {
			t.Fatalf("failed to open snapshot: %v", err)
		}
		defer store.Close()

		key := models.Key{Op: models.OpPlaylists}
		if _, ok := store.Pages(key); ok {
			t.Error("fresh snapshot should have no pages")
		}

		store.Append(key, testPage(t, "a", "b"))
		store.Append(key, testPage(t, "c"))

		pages, ok := store.Pages(key)
		if !ok {
			t.Fatal("pages should exist after append")
		}
		if len(pages) != 2 {
			t.Fatalf("expected 2 pages, got %d", len(pages))
		}
		if len(pages[0]) != 2 || len(pages[1]) != 1 {
			t.Errorf("unexpected page sizes: %d, %d", len(pages[0]), len(pages[1]))
		}

		store.Reset(key)
		if _, ok := store.Pages(key); ok {
			t.Error("pages should be gone after reset")
		}
	})

	t.Run("CommitAndReload", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "snapshot.db")

		store, err := Open(path, nil)
		if err != nil {
			t.Fatalf("failed to open snapshot: %v", err)
		}

		playlistsKey := models.Key{Op: models.OpPlaylists}
		tracksKey := models.Key{Op: models.OpPlaylistTracks, SubKey: "p1"}
		store.Append(playlistsKey, testPage(t, "p1", "p2"))
		store.Append(tracksKey, testPage(t, "t1"))
		store.Append(tracksKey, testPage(t, "t2"))

		store.MarkCollecting()
		if !store.Collecting() {
			t.Error("store should report collecting after mark")
		}

		if err := store.Commit(); err != nil {
			t.Fatalf("failed to commit snapshot: %v", err)
		}
		if store.Collecting() {
			t.Error("commit should clear the collecting flag")
		}
		if store.NeverCollected() {
			t.Error("store should report collected after commit")
		}
		store.Close()

		reloaded, err := Open(path, nil)
		if err != nil {
			t.Fatalf("failed to reopen snapshot: %v", err)
		}
		defer reloaded.Close()

		if reloaded.NeverCollected() {
			t.Error("reloaded snapshot should carry the collection timestamp")
		}

		pages, ok := reloaded.Pages(tracksKey)
		if !ok {
			t.Fatal("reloaded snapshot should contain the track pages")
		}
		if len(pages) != 2 {
			t.Fatalf("expected 2 track pages, got %d", len(pages))
		}

		var item map[string]string
		if err := json.Unmarshal(pages[1][0], &item); err != nil {
			t.Fatalf("failed to decode reloaded item: %v", err)
		}
		if item["id"] != "t2" {
			t.Errorf("expected second page to hold t2, got %s", item["id"])
		}
	})

	t.Run("CommitOverwritesPreviousSnapshot", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "snapshot.db")

		store, err := Open(path, nil)
		if err != nil {
			t.Fatalf("failed to open snapshot: %v", err)
		}

		key := models.Key{Op: models.OpSavedTracks}
		store.Append(key, testPage(t, "old"))
		if err := store.Commit(); err != nil {
			t.Fatalf("failed to commit first snapshot: %v", err)
		}

		store.Reset(key)
		store.Append(key, testPage(t, "new"))
		if err := store.Commit(); err != nil {
			t.Fatalf("failed to commit second snapshot: %v", err)
		}
		store.Close()

		reloaded, err := Open(path, nil)
		if err != nil {
			t.Fatalf("failed to reopen snapshot: %v", err)
		}
		defer reloaded.Close()

		pages, ok := reloaded.Pages(key)
		if !ok || len(pages) != 1 {
			t.Fatalf("expected exactly 1 page after overwrite, got %d", len(pages))
		}

		var item map[string]string
		if err := json.Unmarshal(pages[0][0], &item); err != nil {
			t.Fatalf("failed to decode reloaded item: %v", err)
		}
		if item["id"] != "new" {
			t.Errorf("expected overwritten snapshot to hold new, got %s", item["id"])
		}
	})

	t.Run("CorruptSnapshotIsFatal", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "snapshot.db")
		if err := os.WriteFile(path, []byte("this is not a database"), 0644); err != nil {
			t.Fatalf("failed to write corrupt file: %v", err)
		}

		_, err := Open(path, nil)
		if err == nil {
			t.Fatal("opening a corrupt snapshot should fail")
		}

		var corrupt *CorruptError
		if !errors.As(err, &corrupt) {
			t.Fatalf("expected *CorruptError, got %T: %v", err, err)
		}
		if corrupt.Path != path {
			t.Errorf("corrupt error should name %s, got %s", path, corrupt.Path)
		}
		if !errors.Is(err, shared.ErrCorruptStore) {
			t.Error("corrupt error should match shared.ErrCorruptStore")
		}
	})
}

package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(t.TempDir())
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStorePutGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	entry := Entry{
		ID:        "abc123",
		URL:       "https://example.com/watch?v=1",
		Title:     "ambulance passing",
		Path:      filepath.Join(store.Dir(), "abc123.wav"),
		CreatedAt: time.Now(),
	}
	if err := store.Put(ctx, entry); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := store.Get(ctx, "abc123")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.URL != entry.URL || got.Title != entry.Title || got.Path != entry.Path {
		t.Errorf("unexpected entry %+v", got)
	}

	byURL, err := store.GetByURL(ctx, entry.URL)
	if err != nil {
		t.Fatalf("GetByURL: %v", err)
	}
	if byURL.ID != "abc123" {
		t.Errorf("unexpected ID %q", byURL.ID)
	}
}

func TestStorePutUpsertsOnURL(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	url := "https://example.com/watch?v=2"
	first := Entry{ID: "id-1", URL: url, Title: "old title", Path: "/tmp/a.wav", CreatedAt: time.Now()}
	if err := store.Put(ctx, first); err != nil {
		t.Fatalf("Put: %v", err)
	}

	second := Entry{ID: "id-2", URL: url, Title: "new title", Path: "/tmp/b.wav", CreatedAt: time.Now()}
	if err := store.Put(ctx, second); err != nil {
		t.Fatalf("Put upsert: %v", err)
	}

	got, err := store.GetByURL(ctx, url)
	if err != nil {
		t.Fatalf("GetByURL: %v", err)
	}
	// The original row is kept but its metadata is refreshed.
	if got.ID != "id-1" {
		t.Errorf("expected original ID kept, got %q", got.ID)
	}
	if got.Title != "new title" || got.Path != "/tmp/b.wav" {
		t.Errorf("expected refreshed metadata, got %+v", got)
	}
}

func TestStoreGetMissing(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Get(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	_, err = store.GetByURL(context.Background(), "https://example.com/missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreList(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"a", "b", "c"} {
		entry := Entry{
			ID:        id,
			URL:       "https://example.com/" + id,
			Path:      "/tmp/" + id + ".wav",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.Put(ctx, entry); err != nil {
			t.Fatalf("Put %q: %v", id, err)
		}
	}

	entries, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	// Newest first.
	if entries[0].ID != "c" || entries[2].ID != "a" {
		t.Errorf("unexpected order: %q, %q, %q", entries[0].ID, entries[1].ID, entries[2].ID)
	}
}

func TestStoreDelete(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	path := filepath.Join(store.Dir(), "gone.wav")
	if err := os.WriteFile(path, []byte("RIFF"), 0o644); err != nil {
		t.Fatalf("write cached file: %v", err)
	}

	entry := Entry{ID: "gone", URL: "https://example.com/gone", Path: path, CreatedAt: time.Now()}
	if err := store.Put(ctx, entry); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if err := store.Delete(ctx, "gone"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, "gone"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected row removed, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected cached file removed, got %v", err)
	}

	if err := store.Delete(ctx, "never-existed"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
